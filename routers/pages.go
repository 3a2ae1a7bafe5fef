package routers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dramaweb/config"
	"dramaweb/models"
	"dramaweb/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/samber/mo"
	log "github.com/sirupsen/logrus"
)

// skeletonCards 加载中显示的占位卡片数量
var skeletonCards = make([]int, 8)

type tabLink struct {
	Label  string
	Href   string
	Active bool
}

type pageData struct {
	Title   string
	Refresh bool
	Active  services.Tab
	Query   string
	Tabs    []tabLink
}

type homeData struct {
	pageData
	Section  services.Section
	Notice   string
	Skeleton []int
}

type episodeLink struct {
	models.EpisodeInfo
	Href   string
	Active bool
}

type detailData struct {
	pageData
	DramaID   string
	Ref       string
	Drama     models.DramaCard
	Episodes  []episodeLink
	StreamURL string
	Loading   bool
	Error     string
}

type errorData struct {
	pageData
	Message string
}

// RegisterPageRoutes 注册页面路由
func RegisterPageRoutes(r *gin.Engine) {
	r.GET("/", homePage)
	r.GET("/search", searchPage)
	r.GET("/drama/:id", dramaPage)
	r.GET("/drama/:id/episode/:index", episodePage)
}

func newPageData(title string, active services.Tab, query string) pageData {
	return pageData{
		Title:  title,
		Active: active,
		Query:  query,
		Tabs: lo.Map(services.Tabs, func(t services.TabInfo, _ int) tabLink {
			return tabLink{Label: t.Label, Href: tabHref(t.ID, query), Active: t.ID == active}
		}),
	}
}

// tabHref 搜索标签在有关键字时回到搜索结果
func tabHref(tab services.Tab, query string) string {
	if tab == services.TabSearch && query != "" {
		return "/search?q=" + url.QueryEscape(query)
	}
	return "/?tab=" + string(tab)
}

// renderWait 页面等待上游的时间，超时后先渲染骨架屏；上游请求不受影响，刷新后接着等
func renderWait() time.Duration {
	if w := config.Settings.RenderWait; w > 0 {
		return w
	}
	return 8 * time.Second
}

// homePage 首页，只请求当前标签
func homePage(c *gin.Context) {
	tab := services.ParseTab(c.Query("tab"))
	view := services.NewHomeView(services.GetDramaboxService(), nil)
	view.Activate(c.Request.Context(), tab)
	renderHome(c, view)
}

// searchPage 提交搜索；空关键字回到原标签且不发请求
func searchPage(c *gin.Context) {
	view := services.NewHomeView(services.GetDramaboxService(), nil)
	if !view.SubmitSearch(c.Request.Context(), c.Query("q")) {
		tab := services.ParseTab(c.Query("tab"))
		c.Redirect(http.StatusFound, tabHref(tab, ""))
		return
	}
	renderHome(c, view)
}

func renderHome(c *gin.Context, view *services.HomeView) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), renderWait())
	view.Await(ctx)
	cancel()

	tab := view.Active()
	sec := view.Section(tab)
	if config.Settings.StreamProxy {
		sec.Cards = lo.Map(sec.Cards, func(card models.DramaCard, _ int) models.DramaCard {
			card.Image = services.ImageURL(card.Image, config.Settings.ProxyBaseURL, true)
			return card
		})
	}

	data := homeData{
		pageData: newPageData(sec.Title, tab, view.Query()),
		Section:  sec,
		Skeleton: skeletonCards,
	}
	data.Refresh = sec.Loading
	if lo.ContainsBy(sec.Cards, func(card models.DramaCard) bool { return !card.HasID() }) {
		data.Notice = (&models.MissingIDError{}).Error()
	}
	c.HTML(http.StatusOK, "home", data)
}

func dramaPage(c *gin.Context) {
	renderDetail(c, mo.None[int]())
}

func episodePage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		renderError(c, http.StatusBadRequest, "Nomor episode tidak valid.")
		return
	}
	renderDetail(c, mo.Some(index))
}

// preloadedItem 只接受与路由ID一致的预加载数据
func preloadedItem(c *gin.Context, id string) models.Item {
	item, ok := services.DecodeRef(c.Query("ref"))
	if !ok {
		return nil
	}
	if refID, ok := services.DramaID(item).Get(); !ok || refID != id {
		return nil
	}
	return item
}

func renderDetail(c *gin.Context, episode mo.Option[int]) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		renderError(c, http.StatusBadRequest, (&models.MissingIDError{}).Error())
		return
	}

	cfg := config.Settings
	view := services.NewDetailView(services.GetDramaboxService(), services.GetHistoryService().Recorder())

	ctx := c.Request.Context()
	preloaded := preloadedItem(c, id)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := view.Open(ctx, id, preloaded, episode); err != nil {
			log.Debugf("[Page] 打开详情失败 %s: %v", id, err)
		}
	}()

	timer := time.NewTimer(renderWait())
	defer timer.Stop()
	pending := false
	select {
	case <-done:
	case <-timer.C:
		pending = true
	case <-ctx.Done():
		return
	}

	st := view.State()
	active := st.Player.Active.OrElse(-1)
	drama := st.Drama
	drama.Image = services.ImageURL(drama.Image, cfg.ProxyBaseURL, cfg.StreamProxy)

	data := detailData{
		pageData: newPageData(drama.Title, "", ""),
		DramaID:  id,
		Ref:      st.Ref,
		Drama:    drama,
		Episodes: lo.Map(st.Episodes, func(ep models.EpisodeInfo, _ int) episodeLink {
			return episodeLink{
				EpisodeInfo: ep,
				Href:        episodeHref(id, ep.Index, st.Ref),
				Active:      ep.Index == active,
			}
		}),
		StreamURL: services.PlayURL(st.Player.StreamURL, cfg.ProxyBaseURL, cfg.StreamProxy),
		Loading:   pending || st.Loading || st.Player.Loading,
		Error:     lo.CoalesceOrEmpty(st.Err, st.Player.Err),
	}
	data.Refresh = pending
	c.HTML(http.StatusOK, "detail", data)
}

func episodeHref(id string, index int, ref string) string {
	href := "/drama/" + url.PathEscape(id) + "/episode/" + strconv.Itoa(index)
	if ref != "" {
		href += "?ref=" + ref
	}
	return href
}

// NotFound 非API路径的404页面
func NotFound(c *gin.Context) {
	renderError(c, http.StatusNotFound, "Halaman tidak ditemukan.")
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error", errorData{
		pageData: newPageData("Terjadi kesalahan", "", ""),
		Message:  message,
	})
}
