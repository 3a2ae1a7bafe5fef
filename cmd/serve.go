package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dramaweb/config"
	"dramaweb/routers"
	"dramaweb/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Override HOST")
	serveCmd.Flags().Int("port", 0, "Override PORT")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Settings
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Port = port
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	// 设置Gin模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化服务
	if cfg.HistoryEnabled {
		if services.GetHistoryService().Enabled() {
			log.Info("[History] 播放记录已启用")
		} else {
			log.Warn("[History] 播放记录初始化失败，已跳过")
		}
	}
	if cfg.StreamProxy {
		log.Infof("[Stream] 视频代理已启用，代理地址前缀: %q", cfg.ProxyBaseURL)
	}

	// 优雅关闭
	defer func() {
		log.Info("正在关闭服务...")
		services.GetDramaboxService().Close()
		services.GetProxyService().Close()
		if h := services.GetHistoryService(); h != nil {
			h.Close()
		}
		log.Info("服务已关闭")
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{Addr: addr, Handler: routers.NewRouter()}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("服务器启动在 %s，上游API: %s", addr, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
