package routers

import (
	"net/http"
	"strings"

	"dramaweb/logger"
	"dramaweb/models"
	"dramaweb/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter 组装全部路由
func NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(logger.Middleware(), gin.Recovery())

	// 配置CORS
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Range"},
		ExposeHeaders:   []string{"Content-Length", "Content-Range", "Accept-Ranges"},
	}))

	r.SetHTMLTemplate(web.Templates())
	r.StaticFS("/static", web.Static())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	RegisterPageRoutes(r)

	api := r.Group("/api")
	{
		RegisterAPIRoutes(api)
		RegisterStreamRoutes(api)
		RegisterHistoryRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Endpoint tidak ditemukan."})
			return
		}
		NotFound(c)
	})

	return r
}
