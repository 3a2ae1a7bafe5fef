package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// 服务器配置
	Host  string
	Port  int
	Debug bool

	// 日志配置
	LogLevel string
	LogJSON  bool

	// 上游API配置
	APIBaseURL  string
	Lang        string
	NewPageSize int

	// RequestTimeout 为0表示不设置超时
	RequestTimeout time.Duration

	// 页面渲染等待上游的最长时间
	RenderWait time.Duration

	// 代理服务配置
	StreamProxy  bool
	ProxyBaseURL string

	// 播放记录配置
	HistoryEnabled  bool
	HistoryDBPath   string
	HistoryPageSize int
}

var Settings *Config

func Load() {
	// 尝试加载 .env 文件
	godotenv.Load()

	Settings = &Config{
		Host:  getEnv("HOST", "0.0.0.0"),
		Port:  getEnvInt("PORT", 8000),
		Debug: getEnvBool("DEBUG", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "https://sapi.dramabox.be/api"), "/"),
		Lang:           getEnv("API_LANG", "in"),
		NewPageSize:    getEnvInt("NEW_PAGE_SIZE", 18),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 0),

		RenderWait: getEnvDuration("RENDER_WAIT", 8*time.Second),

		StreamProxy:  getEnvBool("STREAM_PROXY", false),
		ProxyBaseURL: strings.TrimRight(getEnv("PROXY_BASE_URL", ""), "/"),

		HistoryEnabled:  getEnvBool("HISTORY_ENABLED", true),
		HistoryDBPath:   getEnv("HISTORY_DB_PATH", "data/history.db"),
		HistoryPageSize: getEnvInt("HISTORY_PAGE_SIZE", 20),
	}
}

// Default 返回不读取环境变量的默认配置，测试使用
func Default() *Config {
	return &Config{
		Host:            "127.0.0.1",
		Port:            8000,
		LogLevel:        "info",
		APIBaseURL:      "https://sapi.dramabox.be/api",
		Lang:            "in",
		NewPageSize:     18,
		RenderWait:      8 * time.Second,
		HistoryPageSize: 20,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration 支持 "30s" 形式，纯数字按秒处理
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
