package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"dramaweb/config"
	"dramaweb/models"

	log "github.com/sirupsen/logrus"
)

// FeedKind 首页列表类型
type FeedKind string

const (
	FeedForYou FeedKind = "foryou"
	FeedNew    FeedKind = "new"
	FeedRank   FeedKind = "rank"
)

// ParseFeedKind 校验列表类型
func ParseFeedKind(s string) (FeedKind, bool) {
	switch FeedKind(s) {
	case FeedForYou, FeedNew, FeedRank:
		return FeedKind(s), true
	}
	return "", false
}

// Fetcher 发起一次GET并解码JSON
type Fetcher interface {
	GetJSON(ctx context.Context, url string) (any, error)
}

// DramaboxService 上游API客户端
type DramaboxService struct {
	client      *http.Client
	baseURL     string
	lang        string
	newPageSize int
	flights     *inflightGroup
}

// NewDramaboxService 创建API客户端
func NewDramaboxService(cfg *config.Config, client *http.Client) *DramaboxService {
	if client == nil {
		client = &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		}
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "in"
	}
	pageSize := cfg.NewPageSize
	if pageSize <= 0 {
		pageSize = 18
	}
	return &DramaboxService{
		client:      client,
		baseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		lang:        lang,
		newPageSize: pageSize,
		flights:     newInflightGroup(handoffTTL),
	}
}

// Close 关闭空闲连接
func (s *DramaboxService) Close() {
	s.client.CloseIdleConnections()
}

// FeedURL 首页列表地址
func (s *DramaboxService) FeedURL(kind FeedKind, page int) string {
	switch kind {
	case FeedNew:
		return fmt.Sprintf("%s/new/%d?lang=%s&pageSize=%d", s.baseURL, page, s.lang, s.newPageSize)
	case FeedRank:
		return fmt.Sprintf("%s/rank/%d?lang=%s", s.baseURL, page, s.lang)
	default:
		return fmt.Sprintf("%s/foryou/%d?lang=%s", s.baseURL, page, s.lang)
	}
}

// SearchURL 搜索地址，query为空白时返回空
func (s *DramaboxService) SearchURL(query string, page int) string {
	q := strings.TrimSpace(query)
	if q == "" {
		return ""
	}
	return fmt.Sprintf("%s/search/%s/%d?lang=%s", s.baseURL, EncodeURIComponent(q), page, s.lang)
}

// ChaptersURL 剧集列表地址
func (s *DramaboxService) ChaptersURL(dramaID string) string {
	return fmt.Sprintf("%s/chapters/%s?lang=%s", s.baseURL, EncodeURIComponent(dramaID), s.lang)
}

// WatchURL 播放地址接口
func (s *DramaboxService) WatchURL(dramaID string, index int) string {
	return fmt.Sprintf("%s/watch/%s/%d?lang=%s&source=search_result", s.baseURL, EncodeURIComponent(dramaID), index, s.lang)
}

// GetJSON 发起GET请求并解码JSON
//
// 上游请求不随ctx取消，页面先行返回后，刷新时可以接上同一个请求。
func (s *DramaboxService) GetJSON(ctx context.Context, url string) (any, error) {
	return s.flights.Do(ctx, url, func(ctx context.Context) (any, error) {
		return s.fetchJSON(ctx, url)
	})
}

func (s *DramaboxService) fetchJSON(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	log.Debugf("[API] GET %s", url)
	resp, err := s.client.Do(req)
	if err != nil {
		log.Warnf("[API] 请求失败 %s: %v", url, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		log.Warnf("[API] %s 返回 %d", url, resp.StatusCode)
		return nil, &models.HTTPError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	payload, err := decodeJSON(body)
	if err != nil {
		log.Warnf("[API] 解析JSON失败 %s: %v", url, err)
		return nil, &models.DecodeError{URL: url, Cause: err}
	}
	return payload, nil
}

// decodeJSON 数字保留为 json.Number，避免长ID丢失精度
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return payload, nil
}

// Feed 获取首页列表并解开包装
func (s *DramaboxService) Feed(ctx context.Context, kind FeedKind, page int) (any, error) {
	payload, err := s.GetJSON(ctx, s.FeedURL(kind, page))
	if err != nil {
		return nil, err
	}
	return UnwrapList(payload), nil
}

// Search 搜索并解开包装
func (s *DramaboxService) Search(ctx context.Context, query string, page int) (any, error) {
	u := s.SearchURL(query, page)
	if u == "" {
		return nil, nil
	}
	payload, err := s.GetJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	return UnwrapList(payload), nil
}

// Chapters 获取原始chapters响应
func (s *DramaboxService) Chapters(ctx context.Context, dramaID string) (any, error) {
	return s.GetJSON(ctx, s.ChaptersURL(dramaID))
}

// Stream 解析指定剧集的播放地址
func (s *DramaboxService) Stream(ctx context.Context, dramaID string, index int) (string, error) {
	payload, err := s.GetJSON(ctx, s.WatchURL(dramaID, index))
	if err != nil {
		return "", err
	}
	videoURL, ok := ResolveStream(payload)
	if !ok {
		return "", &models.MissingStreamError{DramaID: dramaID, Index: index}
	}
	return videoURL, nil
}

// 全局单例
var dramaboxService *DramaboxService
var dramaboxOnce sync.Once

// GetDramaboxService 获取全局API客户端
func GetDramaboxService() *DramaboxService {
	dramaboxOnce.Do(func() {
		cfg := config.Settings
		if cfg == nil {
			cfg = config.Default()
		}
		dramaboxService = NewDramaboxService(cfg, nil)
	})
	return dramaboxService
}
