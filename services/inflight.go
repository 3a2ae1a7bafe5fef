package services

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// handoffTTL 无人等待的结果最多保留多久
const handoffTTL = time.Minute

type handoff struct {
	payload any
	err     error
	at      time.Time
}

// inflightGroup 同一URL同时只有一个上游请求
//
// 请求不随调用方的ctx取消；所有调用方都已离开时，结果交给下一位
// 请求同一URL的调用方，取走一次即删除。
type inflightGroup struct {
	group singleflight.Group
	ttl   time.Duration

	mu      sync.Mutex
	waiters map[string]int
	pending map[string]handoff
}

func newInflightGroup(ttl time.Duration) *inflightGroup {
	return &inflightGroup{
		ttl:     ttl,
		waiters: map[string]int{},
		pending: map[string]handoff{},
	}
}

// Do 加入或发起 key 对应的请求；ctx 结束时立即返回，请求继续在后台完成
func (g *inflightGroup) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	g.mu.Lock()
	if h, ok := g.pending[key]; ok {
		delete(g.pending, key)
		if time.Since(h.at) <= g.ttl {
			g.mu.Unlock()
			log.Debugf("[API] 取回后台完成的请求: %s", key)
			return h.payload, h.err
		}
	}
	g.waiters[key]++
	g.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		payload, err := fn(detached)
		g.keep(key, payload, err)
		return payload, err
	})

	select {
	case res := <-ch:
		g.leave(key)
		return res.Val, res.Err
	case <-ctx.Done():
		g.leave(key)
		return nil, ctx.Err()
	}
}

// keep 请求结束时已无人等待则留给下一位
func (g *inflightGroup) keep(key string, payload any, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.waiters[key] > 0 {
		return
	}
	now := time.Now()
	for k, h := range g.pending {
		if now.Sub(h.at) > g.ttl {
			delete(g.pending, k)
		}
	}
	g.pending[key] = handoff{payload: payload, err: err, at: now}
}

func (g *inflightGroup) leave(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.waiters[key]--; g.waiters[key] <= 0 {
		delete(g.waiters, key)
	}
}
