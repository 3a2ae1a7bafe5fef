package services

import (
	"context"
	"sync"

	"dramaweb/models"

	log "github.com/sirupsen/logrus"
)

// HookState Hook 当前状态的快照
type HookState struct {
	URL     string
	Data    any
	Loading bool
	Err     string
}

// Hook 绑定一个URL的请求状态
//
// 每次 Set 都会开启新的一代，只有最新一代的响应可以写入状态，
// 旧请求不会被中断，只是结果被丢弃。
type Hook struct {
	fetcher Fetcher

	mu       sync.Mutex
	gen      uint64
	state    HookState
	done     chan struct{}
	settled  bool
	onChange func(HookState)
}

// NewHook 创建 Hook
func NewHook(fetcher Fetcher) *Hook {
	done := make(chan struct{})
	close(done)
	return &Hook{
		fetcher: fetcher,
		done:    done,
		settled: true,
	}
}

// OnChange 注册请求结束后的回调
func (h *Hook) OnChange(fn func(HookState)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Set 绑定新的URL；url为空或未启用时不发请求
func (h *Hook) Set(ctx context.Context, url string, enabled bool) {
	h.mu.Lock()
	h.gen++
	gen := h.gen
	h.settleLocked()
	h.state.URL = url

	if url == "" || !enabled {
		h.state.Loading = false
		h.mu.Unlock()
		return
	}

	h.state.Loading = true
	h.state.Err = ""
	h.done = make(chan struct{})
	h.settled = false
	h.mu.Unlock()

	go h.run(ctx, gen, url)
}

func (h *Hook) run(ctx context.Context, gen uint64, url string) {
	payload, err := h.fetcher.GetJSON(ctx, url)

	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		log.Debugf("[Hook] 丢弃过期响应: %s", url)
		return
	}
	if err != nil {
		h.state.Err = models.UserMessage(err, "Unknown error")
	} else {
		h.state.Data = UnwrapList(payload)
	}
	h.state.Loading = false
	h.settleLocked()
	st := h.state
	cb := h.onChange
	h.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

// settleLocked 唤醒等待当前一代的调用方
func (h *Hook) settleLocked() {
	if !h.settled {
		close(h.done)
		h.settled = true
	}
}

// State 返回当前状态
func (h *Hook) State() HookState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Await 等待最新一代请求结束或ctx结束
func (h *Hook) Await(ctx context.Context) HookState {
	for {
		h.mu.Lock()
		done := h.done
		gen := h.gen
		h.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return h.State()
		}

		h.mu.Lock()
		if h.gen == gen && h.settled {
			st := h.state
			h.mu.Unlock()
			return st
		}
		h.mu.Unlock()
	}
}
