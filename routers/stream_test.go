package routers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dramaweb/services"
)

func newMediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v/index.m3u8":
			fmt.Fprint(w, "#EXTM3U\n#EXTINF:4,\nseg-0.ts\n")
		case "/v/ep.mp4":
			if r.Header.Get("Range") == "bytes=0-3" {
				w.Header().Set("Content-Range", "bytes 0-3/10")
				w.Header().Set("Content-Type", "video/mp4")
				w.WriteHeader(http.StatusPartialContent)
				fmt.Fprint(w, "0123")
				return
			}
			w.Header().Set("Content-Type", "video/mp4")
			fmt.Fprint(w, "0123456789")
		case "/cover.jpg":
			fmt.Fprint(w, "jpeg")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStreamProxyDisabled(t *testing.T) {
	target := services.EncodeTarget("https://cdn/x.mp4")
	if w := doRequest(http.MethodGet, "/api/stream/play/"+target); w.Code != http.StatusNotFound {
		t.Errorf("disabled proxy status = %d", w.Code)
	}
}

func TestStreamProxy(t *testing.T) {
	withProxy(t)
	media := newMediaServer(t)

	t.Run("playlist is rewritten", func(t *testing.T) {
		w := doRequest(http.MethodGet, "/api/stream/play/"+services.EncodeTarget(media.URL+"/v/index.m3u8"))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/vnd.apple.mpegurl" {
			t.Errorf("content type = %q", ct)
		}
		want := "/api/stream/segment/" + services.EncodeTarget(media.URL+"/v/seg-0.ts")
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("body = %q", w.Body.String())
		}
	})

	t.Run("mp4 range passthrough", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stream/play/"+services.EncodeTarget(media.URL+"/v/ep.mp4"), nil)
		req.Header.Set("Range", "bytes=0-3")
		w := httptest.NewRecorder()
		testRouter.ServeHTTP(w, req)

		if w.Code != http.StatusPartialContent {
			t.Fatalf("status = %d", w.Code)
		}
		if w.Body.String() != "0123" || w.Header().Get("Content-Range") != "bytes 0-3/10" {
			t.Errorf("got %q %q", w.Body.String(), w.Header().Get("Content-Range"))
		}
	})

	t.Run("image", func(t *testing.T) {
		w := doRequest(http.MethodGet, "/api/stream/image/"+services.EncodeTarget(media.URL+"/cover.jpg"))
		if w.Code != http.StatusOK || w.Body.String() != "jpeg" {
			t.Errorf("got %d %q", w.Code, w.Body.String())
		}
		if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
			t.Errorf("cache control = %q", cc)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		w := doRequest(http.MethodGet, "/api/stream/segment/"+services.EncodeTarget(media.URL+"/missing.ts"))
		if w.Code != http.StatusBadGateway {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("invalid target", func(t *testing.T) {
		w := doRequest(http.MethodGet, "/api/stream/segment/"+services.EncodeTarget("ftp://x/y"))
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d", w.Code)
		}
	})
}
