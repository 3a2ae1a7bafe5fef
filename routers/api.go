package routers

import (
	"net/http"
	"strconv"
	"strings"

	"dramaweb/config"
	"dramaweb/models"
	"dramaweb/services"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// RegisterAPIRoutes 注册JSON接口
func RegisterAPIRoutes(r *gin.RouterGroup) {
	r.GET("/feeds/:kind", getFeed)
	r.GET("/search", searchDramas)

	dramas := r.Group("/dramas/:id")
	{
		dramas.GET("/episodes", listEpisodes)
		dramas.GET("/episodes/:index/stream", getEpisodeStream)
	}
}

// queryPage 解析页码，非法时为1
func queryPage(c *gin.Context) int {
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			return v
		}
	}
	return 1
}

func upstreamError(c *gin.Context, err error, fallback string) {
	c.JSON(http.StatusBadGateway, models.ErrorResponse{Detail: models.UserMessage(err, fallback)})
}

func toCards(items []models.Item) []models.DramaCard {
	return lo.Map(items, func(it models.Item, _ int) models.DramaCard { return services.ToCard(it) })
}

// getFeed 首页列表
func getFeed(c *gin.Context) {
	kind, ok := services.ParseFeedKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Jenis daftar tidak dikenal."})
		return
	}

	data, err := services.GetDramaboxService().Feed(c.Request.Context(), kind, queryPage(c))
	if err != nil {
		log.Warnf("[API] 获取列表失败 %s: %v", kind, err)
		upstreamError(c, err, "Gagal memuat data.")
		return
	}

	cards := toCards(services.FeedItems(data))
	c.JSON(http.StatusOK, models.FeedResponse{Kind: string(kind), Items: cards, Total: len(cards)})
}

// searchDramas 搜索
func searchDramas(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Kata kunci pencarian kosong."})
		return
	}

	data, err := services.GetDramaboxService().Search(c.Request.Context(), q, queryPage(c))
	if err != nil {
		log.Warnf("[API] 搜索失败 %s: %v", q, err)
		upstreamError(c, err, "Gagal memuat hasil pencarian.")
		return
	}

	cards := toCards(services.AsItems(data))
	c.JSON(http.StatusOK, models.FeedResponse{Kind: string(services.TabSearch), Items: cards, Total: len(cards)})
}

// listEpisodes 剧集列表与剧集信息
func listEpisodes(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: (&models.MissingIDError{}).Error()})
		return
	}

	payload, err := services.GetDramaboxService().Chapters(c.Request.Context(), id)
	if err != nil {
		log.Warnf("[API] 获取剧集列表失败 %s: %v", id, err)
		upstreamError(c, err, "Gagal memuat episode.")
		return
	}

	drama, ok := services.DramaFromChapters(payload)
	if !ok {
		drama = services.PlaceholderDrama(id)
	}
	card := services.ToCard(drama)
	if card.ID == "" {
		card.ID = id
	}

	episodes := lo.Map(services.UnwrapChapters(payload), func(ep models.Item, _ int) models.EpisodeInfo {
		return services.ToEpisodeInfo(ep)
	})
	c.JSON(http.StatusOK, models.EpisodesResponse{Drama: card, Episodes: episodes, Total: len(episodes)})
}

// getEpisodeStream 解析单集播放地址
func getEpisodeStream(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: (&models.MissingIDError{}).Error()})
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Nomor episode tidak valid."})
		return
	}

	// 与详情页共用播放器逻辑，成功时写入播放记录
	view := services.NewDetailView(services.GetDramaboxService(), services.GetHistoryService().Recorder())
	view.Preload(id, preloadedItem(c, id))
	if err := view.SelectEpisode(c.Request.Context(), index); err != nil {
		log.Warnf("[API] 解析播放地址失败 %s/%d: %v", id, index, err)
		upstreamError(c, err, "Gagal memuat stream episode.")
		return
	}

	cfg := config.Settings
	videoURL := view.Player.State().StreamURL
	c.JSON(http.StatusOK, models.StreamInfo{
		DramaID:  id,
		Index:    index,
		VideoURL: videoURL,
		PlayURL:  services.PlayURL(videoURL, cfg.ProxyBaseURL, cfg.StreamProxy),
	})
}
