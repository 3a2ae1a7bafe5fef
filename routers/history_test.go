package routers

import (
	"net/http"
	"testing"

	"dramaweb/models"
	"dramaweb/services"
)

func TestHistoryRoutes(t *testing.T) {
	svc := services.GetHistoryService()
	if !svc.Enabled() {
		t.Fatal("history should be enabled in tests")
	}
	if _, err := svc.Clear(); err != nil {
		t.Fatal(err)
	}

	// 解析播放地址即写入播放记录
	ref := services.EncodeRef(map[string]any{"bookId": "100", "bookName": "Istri CEO", "cover": "https://img/100.jpg"})
	if w := doRequest(http.MethodGet, "/api/dramas/100/episodes/1/stream?ref="+ref); w.Code != http.StatusOK {
		t.Fatalf("stream status = %d", w.Code)
	}

	w := doRequest(http.MethodGet, "/api/history")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list models.HistoryListResponse
	decodeBody(t, w, &list)
	if !list.Enabled || list.Total != 1 || len(list.Records) != 1 {
		t.Fatalf("list = %+v", list)
	}
	rec := list.Records[0]
	if rec.DramaID != "100" || rec.EpisodeIndex != 1 || rec.Title != "Istri CEO" || rec.Cover != "https://img/100.jpg" {
		t.Errorf("record = %+v", rec)
	}
	if list.PageSize != 20 || list.TotalPages != 1 {
		t.Errorf("paging = %d/%d", list.PageSize, list.TotalPages)
	}

	if w := doRequest(http.MethodGet, "/api/history/100"); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w := doRequest(http.MethodDelete, "/api/history/100"); w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	if w := doRequest(http.MethodDelete, "/api/history/100"); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
	if w := doRequest(http.MethodGet, "/api/history/100"); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", w.Code)
	}

	// 页面上的自动选择同样写入记录
	doRequest(http.MethodGet, "/drama/100")
	if w := doRequest(http.MethodDelete, "/api/history"); w.Code != http.StatusOK {
		t.Errorf("clear status = %d", w.Code)
	} else {
		var body struct {
			Deleted int `json:"deleted"`
		}
		decodeBody(t, w, &body)
		if body.Deleted != 1 {
			t.Errorf("deleted = %d", body.Deleted)
		}
	}
}

func TestHistoryPageSize(t *testing.T) {
	var list models.HistoryListResponse
	decodeBody(t, doRequest(http.MethodGet, "/api/history?page=0&page_size=500"), &list)
	if list.Page != 1 || list.PageSize != 20 {
		t.Errorf("invalid paging should fall back, got page=%d size=%d", list.Page, list.PageSize)
	}
	decodeBody(t, doRequest(http.MethodGet, "/api/history?page=2&page_size=5"), &list)
	if list.Page != 2 || list.PageSize != 5 {
		t.Errorf("paging = %d/%d", list.Page, list.PageSize)
	}
}

func TestHistoryKeepsTitleWithoutRef(t *testing.T) {
	svc := services.GetHistoryService()
	if _, err := svc.Clear(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Clear() })

	ref := services.EncodeRef(map[string]any{"bookId": "100", "bookName": "Istri CEO", "cover": "https://img/100.jpg"})
	doRequest(http.MethodGet, "/api/dramas/100/episodes/1/stream?ref="+ref)
	if w := doRequest(http.MethodGet, "/api/dramas/100/episodes/0/stream"); w.Code != http.StatusOK {
		t.Fatalf("stream status = %d", w.Code)
	}

	var rec models.PlayRecord
	decodeBody(t, doRequest(http.MethodGet, "/api/history/100"), &rec)
	if rec.Title != "Istri CEO" || rec.Cover != "https://img/100.jpg" {
		t.Errorf("placeholder overwrote the record: %+v", rec)
	}
	if rec.EpisodeIndex != 0 {
		t.Errorf("episode = %d", rec.EpisodeIndex)
	}
}
