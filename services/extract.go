package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"dramaweb/models"

	"github.com/samber/mo"
)

const (
	DefaultTitle       = "Untitled"
	DefaultDescription = "Tidak ada deskripsi."
)

var (
	idKeys           = []string{"bookId", "id", "dramaId"}
	titleKeys        = []string{"title", "name", "bookName", "dramaName"}
	imageKeys        = []string{"cover", "img", "poster"}
	descriptionKeys  = []string{"introduction", "intro", "description", "shortDesc"}
	episodeCountKeys = []string{"chapterCount", "episodeCount"}
	yearKeys         = []string{"year", "releaseYear"}
	scoreKeys        = []string{"score", "rating"}
	episodeIndexKeys = []string{"chapterIndex", "index"}
	episodeLabelKeys = []string{"title", "chapterName", "name"}
)

// DramaMeta 可选的元数据
type DramaMeta struct {
	Episodes mo.Option[string]
	Year     mo.Option[string]
	Score    mo.Option[string]
}

// FirstPresent 按顺序返回第一个存在且不为null的字段值
func FirstPresent(item models.Item, keys ...string) mo.Option[any] {
	if item == nil {
		return mo.None[any]()
	}
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return mo.Some(v)
		}
	}
	return mo.None[any]()
}

func firstString(item models.Item, keys ...string) mo.Option[string] {
	v, ok := FirstPresent(item, keys...).Get()
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(Display(v))
}

// DramaID 返回 bookId | id | dramaId，空字符串视为不可用
func DramaID(item models.Item) mo.Option[string] {
	for _, k := range idKeys {
		v, ok := FirstPresent(item, k).Get()
		if !ok {
			continue
		}
		if s := strings.TrimSpace(Display(v)); s != "" {
			return mo.Some(s)
		}
	}
	return mo.None[string]()
}

// DramaTitle 返回标题
func DramaTitle(item models.Item) string {
	return firstString(item, titleKeys...).OrElse(DefaultTitle)
}

// DramaImage 返回封面地址，没有时为空
func DramaImage(item models.Item) string {
	return firstString(item, imageKeys...).OrElse("")
}

// DramaDescription 返回简介
func DramaDescription(item models.Item) string {
	return firstString(item, descriptionKeys...).OrElse(DefaultDescription)
}

// GetDramaMeta 返回集数、年份、评分
func GetDramaMeta(item models.Item) DramaMeta {
	return DramaMeta{
		Episodes: firstString(item, episodeCountKeys...),
		Year:     firstString(item, yearKeys...),
		Score:    firstString(item, scoreKeys...),
	}
}

// EpisodeIndex 返回 chapterIndex | index，从0开始
func EpisodeIndex(ep models.Item) int {
	v, ok := FirstPresent(ep, episodeIndexKeys...).Get()
	if !ok {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		return 0
	}
	return n
}

// EpisodeLabel 返回剧集标题，没有时按序号生成
func EpisodeLabel(ep models.Item) string {
	if label, ok := firstString(ep, episodeLabelKeys...).Get(); ok {
		return label
	}
	if _, ok := FirstPresent(ep, episodeIndexKeys...).Get(); !ok {
		return "Episode ?"
	}
	return fmt.Sprintf("Episode %d", EpisodeIndex(ep)+1)
}

// ToCard 转换为卡片展示数据
func ToCard(item models.Item) models.DramaCard {
	meta := GetDramaMeta(item)
	return models.DramaCard{
		ID:          DramaID(item).OrElse(""),
		Title:       DramaTitle(item),
		Image:       DramaImage(item),
		Description: DramaDescription(item),
		Episodes:    meta.Episodes.OrElse(""),
		Year:        meta.Year.OrElse(""),
		Score:       meta.Score.OrElse(""),
	}
}

// ToEpisodeInfo 转换为剧集列表项
func ToEpisodeInfo(ep models.Item) models.EpisodeInfo {
	idx := EpisodeIndex(ep)
	return models.EpisodeInfo{
		Index:  idx,
		Label:  EpisodeLabel(ep),
		Number: idx + 1,
	}
}

// Display 把任意JSON值转换为展示文字
func Display(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), true
		}
		if f, err := val.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(val), true
	case int:
		return val, true
	case int64:
		return int(val), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n, true
		}
	}
	return 0, false
}
