// Package logger 配置 logrus 并提供 gin 请求日志中间件
package logger

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Setup 根据配置设置日志级别与格式
func Setup(level string, jsonFormat bool) {
	SetupOutput(os.Stdout, level, jsonFormat)
}

// SetupOutput 同 Setup，可指定输出
func SetupOutput(w io.Writer, level string, jsonFormat bool) {
	log.SetOutput(w)

	if jsonFormat {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// Middleware 用 logrus 记录每个请求
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(log.Fields{
			"status":  status,
			"method":  c.Request.Method,
			"path":    path,
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("[HTTP] 请求失败")
		case status >= 400:
			entry.Warn("[HTTP] 请求异常")
		default:
			entry.Info("[HTTP] 请求完成")
		}
	}
}
