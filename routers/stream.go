package routers

import (
	"io"
	"net/http"
	"strings"

	"dramaweb/config"
	"dramaweb/models"
	"dramaweb/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RegisterStreamRoutes 注册流媒体代理路由
func RegisterStreamRoutes(r *gin.RouterGroup) {
	stream := r.Group("/stream")
	{
		stream.GET("/play/*target", playStream)
		stream.GET("/segment/*target", getSegment)
		stream.GET("/image/*target", getImage)
	}
}

// streamTarget 解析路径中的目标地址，代理未开启时返回404
func streamTarget(c *gin.Context) (string, bool) {
	if !config.Settings.StreamProxy {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "Proxy stream tidak aktif."})
		return "", false
	}
	target, err := services.DecodeTarget(c.Param("target"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: err.Error()})
		return "", false
	}
	return target, true
}

// playStream 播放入口：m3u8重写后返回，其余按mp4流式代理
func playStream(c *gin.Context) {
	target, ok := streamTarget(c)
	if !ok {
		return
	}

	if services.IsPlaylist(target) {
		servePlaylist(c, target)
		return
	}
	proxyStream(c, target, "video/mp4")
}

// getSegment 代理ts分片、密钥或嵌套的m3u8
func getSegment(c *gin.Context) {
	target, ok := streamTarget(c)
	if !ok {
		return
	}

	if services.IsPlaylist(target) {
		servePlaylist(c, target)
		return
	}
	proxyStream(c, target, "video/MP2T")
}

// getImage 代理封面图
func getImage(c *gin.Context) {
	target, ok := streamTarget(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	proxyStream(c, target, "image/jpeg")
}

func servePlaylist(c *gin.Context, target string) {
	content, err := services.GetProxyService().FetchM3u8(c.Request.Context(), target, config.Settings.ProxyBaseURL)
	if err != nil {
		log.Warnf("[Stream] m3u8处理失败 %s: %v，尝试直接代理", target, err)
		proxyStream(c, target, "application/vnd.apple.mpegurl")
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/vnd.apple.mpegurl", []byte(content))
}

// proxyStream 透传Range请求并流式返回上游内容
func proxyStream(c *gin.Context, target, defaultType string) {
	rangeHeader := c.GetHeader("Range")
	if rangeHeader != "" {
		log.Debugf("[Stream] Range请求: %s", rangeHeader)
	}

	resp, err := services.GetProxyService().Open(c.Request.Context(), target, rangeHeader)
	if err != nil {
		log.Warnf("[Stream] 代理失败 %s: %v", target, err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Detail: "Gagal memuat stream dari sumber."})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Detail: (&models.HTTPError{URL: target, Status: resp.StatusCode}).Error()})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = defaultType
	}
	log.Debugf("[Stream] 上游响应: status=%d, content-type=%s, length=%s", resp.StatusCode, contentType, resp.Header.Get("Content-Length"))

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Type", contentType)
	if c.Writer.Header().Get("Cache-Control") == "" {
		c.Header("Cache-Control", "public, max-age=3600")
	}
	for _, h := range []string{"Content-Length", "Content-Range"} {
		if v := resp.Header.Get(h); v != "" {
			c.Header(h, v)
		}
	}
	c.Status(resp.StatusCode)

	buf := make([]byte, 512*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			if err != io.EOF {
				log.Debugf("[Stream] 读取上游中断 %s: %v", target, err)
			}
			return
		}
	}
}
