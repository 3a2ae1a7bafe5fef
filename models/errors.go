package models

import (
	"errors"
	"fmt"
)

// HTTPError 上游返回非 2xx 状态码
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Status)
}

// DecodeError 响应体不是合法JSON
type DecodeError struct {
	URL   string
	Cause error
}

func (e *DecodeError) Error() string {
	return "respons bukan JSON yang valid"
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// MissingIDError 记录中没有可用的 bookId/id/dramaId
type MissingIDError struct{}

func (e *MissingIDError) Error() string {
	return "ID drama tidak ditemukan di respons API. Coba cek struktur JSON nya."
}

// MissingStreamError watch响应中找不到播放地址
type MissingStreamError struct {
	DramaID string
	Index   int
}

func (e *MissingStreamError) Error() string {
	return "URL video tidak ditemukan di respons API."
}

// UserMessage 把错误转换为页面上显示的文字
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
