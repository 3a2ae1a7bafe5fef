package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"dramaweb/models"

	"github.com/samber/lo"
	"github.com/samber/mo"
	log "github.com/sirupsen/logrus"
)

// PlayRecorder 记录成功解析的播放
type PlayRecorder interface {
	Record(rec models.PlayRecord) error
}

// PlayerState 播放器状态快照
type PlayerState struct {
	Active    mo.Option[int]
	StreamURL string
	Loading   bool
	Err       string
}

// Player 剧集选择与播放地址解析
type Player struct {
	api *DramaboxService

	mu        sync.Mutex
	gen       uint64
	active    mo.Option[int]
	streamURL string
	loading   bool
	err       string
	onPlay    func(dramaID string, index int)
}

// NewPlayer 创建播放器状态
func NewPlayer(api *DramaboxService) *Player {
	return &Player{api: api, active: mo.None[int]()}
}

// Select 解析剧集播放地址
//
// explicit 为用户主动点击：立即清空当前播放并显示加载状态；
// 否则为自动选择，失败时保留原来的播放地址。
func (p *Player) Select(ctx context.Context, dramaID string, ep models.Item, explicit bool) error {
	if strings.TrimSpace(dramaID) == "" {
		return &models.MissingIDError{}
	}
	index := EpisodeIndex(ep)

	p.mu.Lock()
	p.gen++
	gen := p.gen
	if explicit {
		p.streamURL = ""
		p.active = mo.None[int]()
		p.loading = true
		p.err = ""
	}
	p.mu.Unlock()

	videoURL, err := p.api.Stream(ctx, dramaID, index)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		log.Debugf("[Player] 丢弃过期播放地址: %s/%d", dramaID, index)
		return nil
	}
	p.loading = false
	if err != nil {
		p.err = models.UserMessage(err, "Gagal memuat stream.")
		p.mu.Unlock()
		log.Warnf("[Player] 解析播放地址失败 %s/%d: %v", dramaID, index, err)
		return err
	}
	p.active = mo.Some(index)
	p.streamURL = videoURL
	p.err = ""
	cb := p.onPlay
	p.mu.Unlock()

	if cb != nil {
		cb(dramaID, index)
	}
	return nil
}

// State 返回当前状态
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayerState{
		Active:    p.active,
		StreamURL: p.streamURL,
		Loading:   p.loading,
		Err:       p.err,
	}
}

// DetailView 详情页状态
type DetailView struct {
	api      *DramaboxService
	recorder PlayRecorder

	Player *Player

	mu       sync.Mutex
	dramaID  string
	drama    models.Item
	episodes []models.Item
	loading  bool
	err      string
	// placeholder 为真时 drama 只有ID，没有真实标题和封面
	placeholder bool
}

// NewDetailView 创建详情页状态，recorder 可为空
func NewDetailView(api *DramaboxService, recorder PlayRecorder) *DetailView {
	d := &DetailView{
		api:      api,
		recorder: recorder,
		Player:   NewPlayer(api),
		episodes: []models.Item{},
	}
	d.Player.onPlay = d.recordPlay
	return d
}

// OpenItem 从列表记录打开详情，记录中没有ID时不发请求
func (d *DetailView) OpenItem(ctx context.Context, item models.Item, episode mo.Option[int]) error {
	id, ok := DramaID(item).Get()
	if !ok {
		err := &models.MissingIDError{}
		d.mu.Lock()
		d.err = err.Error()
		d.mu.Unlock()
		return err
	}
	return d.Open(ctx, id, item, episode)
}

// Open 加载剧集列表并自动选择一集
func (d *DetailView) Open(ctx context.Context, id string, preloaded models.Item, episode mo.Option[int]) error {
	id = strings.TrimSpace(id)
	if id == "" {
		err := &models.MissingIDError{}
		d.mu.Lock()
		d.err = err.Error()
		d.mu.Unlock()
		return err
	}

	d.mu.Lock()
	d.dramaID = id
	d.drama = preloaded
	d.placeholder = false
	d.episodes = []models.Item{}
	d.loading = true
	d.err = ""
	d.mu.Unlock()

	payload, err := d.api.Chapters(ctx, id)
	if err != nil {
		d.mu.Lock()
		d.loading = false
		d.err = models.UserMessage(err, "Gagal memuat episode.")
		if d.drama == nil {
			d.drama = PlaceholderDrama(id)
			d.placeholder = true
		}
		d.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			log.Debugf("[Detail] 页面已返回，剧集列表在后台继续加载: %s", id)
		} else {
			log.Warnf("[Detail] 获取剧集列表失败 %s: %v", id, err)
		}
		return err
	}

	episodes := UnwrapChapters(payload)
	drama, placeholder := d.resolveDrama(id, preloaded, payload)

	d.mu.Lock()
	d.drama = drama
	d.placeholder = placeholder
	d.episodes = episodes
	d.mu.Unlock()

	if len(episodes) > 0 {
		target := episodes[0]
		if want, ok := episode.Get(); ok {
			target = findEpisode(episodes, want)
		}
		// 详情本身在加载中，自动选择不再单独显示加载状态
		if err := d.Player.Select(ctx, id, target, false); err != nil {
			d.mu.Lock()
			d.err = models.UserMessage(err, "Gagal memuat stream.")
			d.mu.Unlock()
		}
	}

	d.mu.Lock()
	d.loading = false
	d.mu.Unlock()
	return nil
}

// resolveDrama 预加载数据优先，其次从chapters响应中取，最后使用占位
func (d *DetailView) resolveDrama(id string, preloaded models.Item, payload any) (models.Item, bool) {
	if preloaded != nil {
		return preloaded, false
	}
	if info, ok := DramaFromChapters(payload); ok {
		if !DramaID(info).IsPresent() {
			info = lo.Assign(info, models.Item{"id": id})
		}
		return info, false
	}
	return PlaceholderDrama(id), true
}

// findEpisode 按序号查找剧集，找不到时按序号构造
func findEpisode(episodes []models.Item, index int) models.Item {
	if ep, ok := lo.Find(episodes, func(ep models.Item) bool {
		return EpisodeIndex(ep) == index
	}); ok {
		return ep
	}
	return models.Item{"chapterIndex": index}
}

// Preload 不请求剧集列表，直接设置当前剧集信息，供单独解析播放地址使用
func (d *DetailView) Preload(id string, item models.Item) {
	placeholder := item == nil
	if placeholder {
		item = PlaceholderDrama(id)
	}
	d.mu.Lock()
	d.dramaID = id
	d.drama = item
	d.placeholder = placeholder
	d.mu.Unlock()
}

// SelectEpisode 用户点击剧集
func (d *DetailView) SelectEpisode(ctx context.Context, index int) error {
	d.mu.Lock()
	id := d.dramaID
	ep := findEpisode(d.episodes, index)
	d.err = ""
	d.mu.Unlock()
	err := d.Player.Select(ctx, id, ep, true)
	if err != nil {
		d.mu.Lock()
		d.err = models.UserMessage(err, "Gagal memuat stream.")
		d.mu.Unlock()
	}
	return err
}

func (d *DetailView) recordPlay(dramaID string, index int) {
	if d.recorder == nil {
		return
	}
	d.mu.Lock()
	drama, placeholder := d.drama, d.placeholder
	d.mu.Unlock()

	rec := models.PlayRecord{
		DramaID:      dramaID,
		Title:        DramaTitle(drama),
		Cover:        DramaImage(drama),
		EpisodeIndex: index,
		PlayedAt:     time.Now(),
		Placeholder:  placeholder,
	}
	if err := d.recorder.Record(rec); err != nil {
		log.Warnf("[History] 保存播放记录失败 %s: %v", dramaID, err)
	}
}

// DetailState 详情页渲染数据
type DetailState struct {
	DramaID  string
	Drama    models.DramaCard
	Ref      string
	Episodes []models.EpisodeInfo
	Loading  bool
	Err      string
	Player   PlayerState
}

// State 返回当前状态
func (d *DetailView) State() DetailState {
	d.mu.Lock()
	st := DetailState{
		DramaID:  d.dramaID,
		Drama:    ToCard(d.drama),
		Ref:      EncodeRef(d.drama),
		Episodes: lo.Map(d.episodes, func(ep models.Item, _ int) models.EpisodeInfo { return ToEpisodeInfo(ep) }),
		Loading:  d.loading,
		Err:      d.err,
	}
	d.mu.Unlock()
	st.Player = d.Player.State()
	return st
}
