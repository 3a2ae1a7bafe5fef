package services

import (
	"encoding/json"
	"strings"

	"dramaweb/models"

	"github.com/samber/lo"
)

// 列表接口的外层包装，按顺序尝试
var listEnvelope = [][]string{
	{"data", "list"},
	{"data"},
	{"result"},
	{"list"},
	{"items"},
}

// chapters接口的外层包装
var chapterEnvelope = [][]string{
	{"data", "list"},
	{"data", "chapters"},
	{"data", "chapterList"},
	{"data", "records"},
	{"data", "items"},
	{"chapters"},
	{"list"},
	{"items"},
}

// chapters响应中可能携带剧集信息的位置
var dramaInfoEnvelope = [][]string{
	{"data", "book"},
	{"data", "bookInfo"},
	{"data", "drama"},
	{"data"},
}

// lookupPath 沿路径取值，中间任意一层缺失或为null都返回false
func lookupPath(v any, path []string) (any, bool) {
	cur := v
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := m[key]
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func firstPath(payload any, paths [][]string) (any, bool) {
	for _, p := range paths {
		if v, ok := lookupPath(payload, p); ok {
			return v, true
		}
	}
	return nil, false
}

// UnwrapList 解开列表接口的包装，都不匹配时原样返回
func UnwrapList(payload any) any {
	if v, ok := firstPath(payload, listEnvelope); ok {
		return v
	}
	return payload
}

// AsItems 结果是数组时转换为记录列表，否则视为空
func AsItems(v any) []models.Item {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	return lo.Map(arr, func(el any, _ int) models.Item {
		m, _ := el.(map[string]any)
		return m
	})
}

// FeedItems 列表区块使用：数组直接使用，对象则取其 list 字段
func FeedItems(v any) []models.Item {
	if _, ok := v.([]any); ok {
		return AsItems(v)
	}
	if list, ok := lookupPath(v, []string{"list"}); ok {
		return AsItems(list)
	}
	return []models.Item{}
}

// UnwrapChapters 从chapters响应中取出剧集列表，取不到时为空
func UnwrapChapters(payload any) []models.Item {
	v, ok := firstPath(payload, chapterEnvelope)
	if !ok {
		return []models.Item{}
	}
	items := AsItems(v)
	if items == nil {
		return []models.Item{}
	}
	return items
}

// DramaFromChapters 尝试从chapters响应中找出剧集信息
func DramaFromChapters(payload any) (models.Item, bool) {
	for _, p := range dramaInfoEnvelope {
		v, ok := lookupPath(payload, p)
		if !ok {
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if DramaID(m).IsPresent() || FirstPresent(m, titleKeys...).IsPresent() {
			return m, true
		}
	}
	return nil, false
}

// PlaceholderDrama 没有任何元数据时的占位记录
func PlaceholderDrama(id string) models.Item {
	return models.Item{
		"id":   id,
		"name": "Drama #" + id,
	}
}

// ResolveStream 依次取 data.videoUrl、默认清晰度的 videoPath、第一个清晰度的 videoPath
func ResolveStream(payload any) (string, bool) {
	if u, ok := lookupPath(payload, []string{"data", "videoUrl"}); ok {
		if s := urlString(u); s != "" {
			return s, true
		}
	}

	raw, ok := lookupPath(payload, []string{"data", "qualities"})
	if !ok {
		return "", false
	}
	qualities := AsItems(raw)
	if len(qualities) == 0 {
		return "", false
	}

	if q, found := lo.Find(qualities, func(q models.Item) bool {
		return isOne(q["isDefault"])
	}); found {
		if s := urlString(q["videoPath"]); s != "" {
			return s, true
		}
	}

	if s := urlString(qualities[0]["videoPath"]); s != "" {
		return s, true
	}
	return "", false
}

func urlString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// isOne 严格等于数字1
func isOne(v any) bool {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 1
	case float64:
		return val == 1
	case int:
		return val == 1
	}
	return false
}
