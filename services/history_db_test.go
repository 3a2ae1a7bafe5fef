package services

import (
	"path/filepath"
	"testing"
	"time"

	"dramaweb/models"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestHistory(t *testing.T) *HistoryService {
	t.Helper()
	svc := NewHistoryService(filepath.Join(t.TempDir(), "history.db"))
	if err := svc.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestHistoryService(t *testing.T) {
	Convey("HistoryService", t, func() {
		svc := newTestHistory(t)
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		Convey("nil and closed services are disabled", func() {
			var none *HistoryService
			So(none.Enabled(), ShouldBeFalse)
			So(none.Recorder(), ShouldBeNil)
			So(svc.Enabled(), ShouldBeTrue)
			So(svc.Recorder(), ShouldNotBeNil)
		})

		Convey("a placeholder play keeps the stored title and cover", func() {
			So(svc.Record(models.PlayRecord{DramaID: "a", Title: "Istri CEO", Cover: "https://img/a.jpg", PlayedAt: base}), ShouldBeNil)
			So(svc.Record(models.PlayRecord{DramaID: "a", Title: "Drama #a", EpisodeIndex: 2, PlayedAt: base.Add(time.Minute), Placeholder: true}), ShouldBeNil)

			rec, err := svc.Get("a")
			So(err, ShouldBeNil)
			So(rec.Title, ShouldEqual, "Istri CEO")
			So(rec.Cover, ShouldEqual, "https://img/a.jpg")
			So(rec.EpisodeIndex, ShouldEqual, 2)
			So(rec.PlayedAt.Equal(base.Add(time.Minute)), ShouldBeTrue)

			So(svc.Record(models.PlayRecord{DramaID: "new", Title: "Drama #new", Placeholder: true}), ShouldBeNil)
			rec, err = svc.Get("new")
			So(err, ShouldBeNil)
			So(rec.Title, ShouldEqual, "Drama #new")
		})

		Convey("one record per drama, latest first", func() {
			So(svc.Record(models.PlayRecord{DramaID: "a", Title: "A", EpisodeIndex: 0, PlayedAt: base}), ShouldBeNil)
			So(svc.Record(models.PlayRecord{DramaID: "b", Title: "B", EpisodeIndex: 3, PlayedAt: base.Add(time.Minute)}), ShouldBeNil)
			So(svc.Record(models.PlayRecord{DramaID: "a", Title: "A", EpisodeIndex: 4, PlayedAt: base.Add(2 * time.Minute)}), ShouldBeNil)

			records, total, err := svc.List(1, 10)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 2)
			So(records, ShouldHaveLength, 2)
			So(records[0].DramaID, ShouldEqual, "a")
			So(records[0].EpisodeIndex, ShouldEqual, 4)
			So(records[1].DramaID, ShouldEqual, "b")

			rec, err := svc.Get("b")
			So(err, ShouldBeNil)
			So(rec.Title, ShouldEqual, "B")
			So(rec.PlayedAt.Equal(base.Add(time.Minute)), ShouldBeTrue)
		})

		Convey("pagination", func() {
			for i, id := range []string{"x", "y", "z"} {
				So(svc.Record(models.PlayRecord{DramaID: id, PlayedAt: base.Add(time.Duration(i) * time.Second)}), ShouldBeNil)
			}
			page2, total, err := svc.List(2, 2)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 3)
			So(page2, ShouldHaveLength, 1)
			So(page2[0].DramaID, ShouldEqual, "x")
		})

		Convey("delete and clear", func() {
			So(svc.Record(models.PlayRecord{DramaID: "a"}), ShouldBeNil)
			So(svc.Record(models.PlayRecord{DramaID: "b"}), ShouldBeNil)

			ok, err := svc.Delete("a")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			ok, _ = svc.Delete("a")
			So(ok, ShouldBeFalse)

			rec, err := svc.Get("a")
			So(err, ShouldBeNil)
			So(rec, ShouldBeNil)

			n, err := svc.Clear()
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("closed database reports errors", func() {
			svc.Close()
			So(svc.Enabled(), ShouldBeFalse)
			So(svc.Record(models.PlayRecord{DramaID: "a"}), ShouldNotBeNil)
		})
	})
}

func TestHistoryPath(t *testing.T) {
	dir := t.TempDir()
	svc := NewHistoryService(dir)
	if svc.dbPath != filepath.Join(dir, "history.db") {
		t.Errorf("dbPath = %q", svc.dbPath)
	}
}
