package services

import (
	"context"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

// encodeURIComponent 不转义的字符
var uriComponentKeep = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent 与浏览器 encodeURIComponent 结果一致
func EncodeURIComponent(s string) string {
	return uriComponentKeep.Replace(url.QueryEscape(s))
}

// SubmitSearch 提交搜索；空白关键字不做任何事并返回false
func (v *HomeView) SubmitSearch(ctx context.Context, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return false
	}

	v.mu.Lock()
	v.active = TabSearch
	v.query = q
	v.mu.Unlock()

	u := v.api.SearchURL(q, 1)
	log.Infof("[Search] 搜索: %s", q)
	v.search.Set(ctx, u, u != "")
	return true
}
