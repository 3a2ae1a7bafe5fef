package routers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"dramaweb/config"
	"dramaweb/logger"
	"dramaweb/services"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
)

var upstreamRoutes = map[string]string{
	"/foryou/1": `{"data":{"list":[
		{"bookId":"100","bookName":"Istri CEO","cover":"https://img/100.jpg","introduction":"Kisah cinta","chapterCount":3,"score":9.1},
		{"bookName":"Tanpa ID"}
	]}}`,
	"/new/1":             `{"data":{"list":[]}}`,
	"/rank/1":            "!",
	"/search/ceo kaya/1": `{"data":[{"bookId":"100","bookName":"Istri CEO"}]}`,
	"/chapters/100": `{"data":{"book":{"bookId":"100","bookName":"Istri CEO"},"list":[
		{"chapterIndex":0},{"chapterIndex":1},{"chapterIndex":2}
	]}}`,
	"/watch/100/0": `{"data":{"videoUrl":"https://cdn/100-0.mp4"}}`,
	"/watch/100/1": `{"data":{"qualities":[{"isDefault":1,"videoPath":"https://cdn/100-1.mp4"}]}}`,
	"/watch/100/2": `{"data":{}}`,
	"/chapters/500":    "!",
	"/search/lambat/1": `{"data":[{"bookId":"700","bookName":"Pelan Tapi Pasti"}]}`,
	"/chapters/700":    `{"data":{"book":{"bookId":"700","bookName":"Pelan Tapi Pasti"},"list":[{"chapterIndex":0}]}}`,
	"/watch/700/0":     `{"data":{"videoUrl":"https://cdn/700-0.mp4"}}`,
}

// upstreamDelays 比页面等待时间更慢的上游
var upstreamDelays = map[string]time.Duration{
	"/search/lambat/1": 300 * time.Millisecond,
	"/chapters/700":    300 * time.Millisecond,
}

type upstream struct {
	mu    sync.Mutex
	paths []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.paths = append(u.paths, r.URL.RequestURI())
	u.mu.Unlock()

	if d := upstreamDelays[r.URL.Path]; d > 0 {
		time.Sleep(d)
	}
	body, ok := upstreamRoutes[r.URL.Path]
	switch {
	case !ok:
		http.NotFound(w, r)
	case body == "!":
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

// since 返回从第n个请求开始的路径
func (u *upstream) since(n int) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths[n:]...)
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.paths)
}

var (
	testUpstream *upstream
	testRouter   *gin.Engine
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetupOutput(io.Discard, "error", false)

	testUpstream = &upstream{}
	srv := httptest.NewServer(testUpstream)

	dir, err := os.MkdirTemp("", "dramaweb-routers")
	if err != nil {
		panic(err)
	}

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	cfg.RenderWait = 2 * time.Second
	cfg.HistoryEnabled = true
	cfg.HistoryDBPath = filepath.Join(dir, "history.db")
	config.Settings = cfg

	testRouter = NewRouter()
	code := m.Run()

	services.GetHistoryService().Close()
	srv.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func doRequest(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// doClientRequest 响应写完后像浏览器断开一样取消请求ctx
func doClientRequest(target string) *httptest.ResponseRecorder {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// withRenderWait 临时缩短页面等待时间
func withRenderWait(t *testing.T, d time.Duration) {
	t.Helper()
	prev := config.Settings.RenderWait
	config.Settings.RenderWait = d
	t.Cleanup(func() { config.Settings.RenderWait = prev })
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// withProxy 临时开启视频代理
func withProxy(t *testing.T) {
	t.Helper()
	config.Settings.StreamProxy = true
	t.Cleanup(func() { config.Settings.StreamProxy = false })
}
