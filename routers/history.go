package routers

import (
	"net/http"
	"strconv"

	"dramaweb/config"
	"dramaweb/models"
	"dramaweb/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RegisterHistoryRoutes 注册播放记录相关路由
func RegisterHistoryRoutes(r *gin.RouterGroup) {
	history := r.Group("/history")
	{
		history.GET("", listHistory)
		history.GET("/:id", getHistory)
		history.DELETE("/:id", deleteHistory)
		history.DELETE("", clearHistory)
	}
}

// historyService 未启用时写入响应并返回nil
func historyService(c *gin.Context) *services.HistoryService {
	svc := services.GetHistoryService()
	if !svc.Enabled() {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Riwayat tontonan tidak aktif."})
		return nil
	}
	return svc
}

// listHistory 分页列出播放记录，最近的在前
func listHistory(c *gin.Context) {
	page := queryPage(c)
	pageSize := config.Settings.HistoryPageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	resp := models.HistoryListResponse{
		Records:    []models.PlayRecord{},
		Page:       page,
		PageSize:   pageSize,
		TotalPages: 1,
	}

	svc := services.GetHistoryService()
	if !svc.Enabled() {
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Enabled = true

	records, total, err := svc.List(page, pageSize)
	if err != nil {
		log.Errorf("[History] 查询播放记录失败: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Gagal memuat riwayat tontonan."})
		return
	}
	resp.Records = records
	resp.Total = total
	if total > 0 {
		resp.TotalPages = (total + pageSize - 1) / pageSize
	}
	c.JSON(http.StatusOK, resp)
}

// getHistory 查询单部剧的播放记录
func getHistory(c *gin.Context) {
	svc := historyService(c)
	if svc == nil {
		return
	}

	rec, err := svc.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Gagal memuat riwayat tontonan."})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Riwayat tidak ditemukan."})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// deleteHistory 删除单部剧的播放记录
func deleteHistory(c *gin.Context) {
	svc := historyService(c)
	if svc == nil {
		return
	}

	id := c.Param("id")
	deleted, err := svc.Delete(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Gagal menghapus riwayat."})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Riwayat tidak ditemukan."})
		return
	}
	log.Infof("[History] 已删除播放记录: %s", id)
	c.JSON(http.StatusOK, gin.H{"message": "Riwayat dihapus: " + id})
}

// clearHistory 清空播放记录
func clearHistory(c *gin.Context) {
	svc := historyService(c)
	if svc == nil {
		return
	}

	count, err := svc.Clear()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Gagal menghapus riwayat."})
		return
	}
	log.Infof("[History] 已清空 %d 条播放记录", count)
	c.JSON(http.StatusOK, gin.H{"message": strconv.Itoa(count) + " riwayat dihapus", "deleted": count})
}
