package models

import "time"

// Item 上游API返回的原始记录，字段结构不固定
type Item = map[string]any

// DramaCard 卡片展示所需字段
type DramaCard struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description"`
	Episodes    string `json:"episodes,omitempty"`
	Year        string `json:"year,omitempty"`
	Score       string `json:"score,omitempty"`
	// Ref 传递给详情页的预加载数据
	Ref string `json:"-"`
}

// HasID 是否可以打开详情
func (c DramaCard) HasID() bool {
	return c.ID != ""
}

// EpisodeInfo 剧集列表项
type EpisodeInfo struct {
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Number int    `json:"number"`
}

// FeedResponse 列表响应
type FeedResponse struct {
	Kind  string      `json:"kind"`
	Items []DramaCard `json:"items"`
	Total int         `json:"total"`
}

// EpisodesResponse 剧集列表响应
type EpisodesResponse struct {
	Drama    DramaCard     `json:"drama"`
	Episodes []EpisodeInfo `json:"episodes"`
	Total    int           `json:"total"`
}

// StreamInfo 流信息
type StreamInfo struct {
	DramaID  string `json:"drama_id"`
	Index    int    `json:"index"`
	VideoURL string `json:"video_url"`
	PlayURL  string `json:"play_url"`
}

// PlayRecord 播放记录
type PlayRecord struct {
	DramaID      string    `json:"drama_id"`
	Title        string    `json:"title"`
	Cover        string    `json:"cover,omitempty"`
	EpisodeIndex int       `json:"episode_index"`
	PlayedAt     time.Time `json:"played_at"`
	// Placeholder 标题和封面只是占位，不覆盖已有记录
	Placeholder bool `json:"-"`
}

// HistoryListResponse 播放记录列表响应
type HistoryListResponse struct {
	Enabled    bool         `json:"enabled"`
	Records    []PlayRecord `json:"records"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Detail string `json:"detail"`
}
