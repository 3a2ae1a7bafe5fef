package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var uriAttr = regexp.MustCompile(`URI="([^"]+)"`)

// ProxyService 播放地址代理服务
type ProxyService struct {
	client *http.Client
}

// NewProxyService 创建代理服务实例
func NewProxyService() *ProxyService {
	return &ProxyService{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Close 关闭服务
func (p *ProxyService) Close() {
	p.client.CloseIdleConnections()
}

// EncodeTarget 把原始地址编码进代理路径
func EncodeTarget(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}

// DecodeTarget 解析代理路径中的原始地址，只接受 http/https
func DecodeTarget(encoded string) (string, error) {
	encoded = strings.TrimPrefix(encoded, "/")
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", fmt.Errorf("无效的编码URL: %w", err)
	}
	u, err := url.Parse(string(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("无效的目标地址")
	}
	return u.String(), nil
}

// 代理路由的三类入口
const (
	proxyPlay    = "play"
	proxySegment = "segment"
	proxyImage   = "image"
)

// maxPlaylistHops 播放列表正文给出下一跳地址时最多跟随的次数
const maxPlaylistHops = 3

func proxyPath(kind, target, proxyBaseURL string) string {
	return proxyBaseURL + "/api/stream/" + kind + "/" + EncodeTarget(target)
}

// PlayURL 播放器使用的地址；代理关闭时直接返回原地址
func PlayURL(videoURL, proxyBaseURL string, enabled bool) string {
	if !enabled || videoURL == "" {
		return videoURL
	}
	return proxyPath(proxyPlay, videoURL, proxyBaseURL)
}

// ImageURL 封面图使用的地址
func ImageURL(imageURL, proxyBaseURL string, enabled bool) string {
	if !enabled || imageURL == "" {
		return imageURL
	}
	return proxyPath(proxyImage, imageURL, proxyBaseURL)
}

// IsPlaylist 按路径后缀判断是否为 m3u8，查询参数不算
func IsPlaylist(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	return strings.HasSuffix(strings.ToLower(path), ".m3u8")
}

// Open 发起上游请求，调用方负责关闭Body
func (p *ProxyService) Open(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return p.client.Do(req)
}

// FetchM3u8 取回播放列表并把其中地址改写到代理上
func (p *ProxyService) FetchM3u8(ctx context.Context, m3u8URL, proxyBaseURL string) (string, error) {
	target := m3u8URL
	for hop := 0; hop <= maxPlaylistHops; hop++ {
		body, err := p.readPlaylist(ctx, target)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(body, "#EXTM3U") {
			return RewriteM3u8(body, target, proxyBaseURL), nil
		}
		// 有的源返回一行真实地址而不是列表
		next, _, _ := strings.Cut(body, "\n")
		next = strings.TrimSpace(next)
		if !strings.HasPrefix(next, "http://") && !strings.HasPrefix(next, "https://") {
			return "", fmt.Errorf("%s 不是m3u8内容", target)
		}
		log.Debugf("[Proxy] m3u8 跳转: %s -> %s", target, next)
		target = next
	}
	return "", fmt.Errorf("m3u8 跳转超过 %d 次: %s", maxPlaylistHops, m3u8URL)
}

func (p *ProxyService) readPlaylist(ctx context.Context, target string) (string, error) {
	resp, err := p.Open(ctx, target, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("m3u8 上游返回 HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// RewriteM3u8 分片行和标签里的 URI 按列表地址解析后指向代理
func RewriteM3u8(content, playlistURL, proxyBaseURL string) string {
	base, _ := url.Parse(playlistURL)
	var b strings.Builder
	b.Grow(len(content) * 2)

	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			// #EXT-X-KEY / #EXT-X-MAP
			line = uriAttr.ReplaceAllStringFunc(line, func(attr string) string {
				ref := uriAttr.FindStringSubmatch(attr)[1]
				return `URI="` + proxyPath(proxySegment, resolve(base, ref), proxyBaseURL) + `"`
			})
		default:
			line = proxyPath(proxySegment, resolve(base, line), proxyBaseURL)
		}
		b.WriteString(line)
	}
	return b.String()
}

// resolve 相对地址按播放列表地址解析
func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

var (
	proxyService *ProxyService
	proxyOnce    sync.Once
)

// GetProxyService 获取全局代理服务实例
func GetProxyService() *ProxyService {
	proxyOnce.Do(func() {
		proxyService = NewProxyService()
	})
	return proxyService
}
