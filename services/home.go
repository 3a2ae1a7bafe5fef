package services

import (
	"context"
	"fmt"
	"sync"

	"dramaweb/models"

	"github.com/samber/lo"
)

// Tab 首页标签
type Tab string

const (
	TabForYou Tab = "foryou"
	TabNew    Tab = "new"
	TabRank   Tab = "rank"
	TabSearch Tab = "search"
)

// TabInfo 标签展示信息
type TabInfo struct {
	ID    Tab
	Label string
}

// Tabs 首页标签顺序
var Tabs = []TabInfo{
	{ID: TabForYou, Label: "Rekomendasi"},
	{ID: TabNew, Label: "Rilis Terbaru"},
	{ID: TabRank, Label: "Paling Populer"},
	{ID: TabSearch, Label: "Hasil Pencarian"},
}

// ParseTab 未知标签回落到推荐
func ParseTab(s string) Tab {
	if t, ok := lo.Find(Tabs, func(t TabInfo) bool { return string(t.ID) == s }); ok {
		return t.ID
	}
	return TabForYou
}

var sectionText = map[Tab]struct {
	title string
	empty string
}{
	TabForYou: {"Rekomendasi Untukmu", "Belum ada rekomendasi."},
	TabNew:    {"Rilis Terbaru", "Belum ada rilis terbaru."},
	TabRank:   {"Peringkat Populer", "Belum ada data peringkat."},
	TabSearch: {"Hasil Pencarian", "Tidak ada hasil untuk kata kunci tersebut."},
}

// Section 一个列表区块的渲染数据
type Section struct {
	Tab     Tab
	Title   string
	Cards   []models.DramaCard
	Loading bool
	Error   string
	Empty   string
	// Idle 搜索尚未提交
	Idle bool
}

// HomeView 首页状态，每个区块各自持有一个 Hook
type HomeView struct {
	api *DramaboxService

	mu     sync.Mutex
	active Tab
	query  string

	feeds  map[FeedKind]*Hook
	search *Hook
}

// NewHomeView 创建首页状态；fetcher为空时使用api本身
func NewHomeView(api *DramaboxService, fetcher Fetcher) *HomeView {
	if fetcher == nil {
		fetcher = api
	}
	return &HomeView{
		api:    api,
		active: TabForYou,
		feeds: map[FeedKind]*Hook{
			FeedForYou: NewHook(fetcher),
			FeedNew:    NewHook(fetcher),
			FeedRank:   NewHook(fetcher),
		},
		search: NewHook(fetcher),
	}
}

// Active 当前标签
func (v *HomeView) Active() Tab {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

// Query 最近一次提交的搜索关键字
func (v *HomeView) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Activate 切换标签并启动该标签需要的请求
func (v *HomeView) Activate(ctx context.Context, tab Tab) {
	v.mu.Lock()
	v.active = tab
	v.mu.Unlock()

	if tab == TabSearch {
		return
	}
	kind := FeedKind(tab)
	v.feeds[kind].Set(ctx, v.api.FeedURL(kind, 1), true)
}

// Await 等待当前标签的请求结束
func (v *HomeView) Await(ctx context.Context) {
	v.hookFor(v.Active()).Await(ctx)
}

func (v *HomeView) hookFor(tab Tab) *Hook {
	if tab == TabSearch {
		return v.search
	}
	return v.feeds[FeedKind(tab)]
}

// Section 返回指定标签的渲染数据
func (v *HomeView) Section(tab Tab) Section {
	text := sectionText[tab]
	st := v.hookFor(tab).State()

	sec := Section{
		Tab:     tab,
		Title:   text.title,
		Loading: st.Loading,
		Empty:   text.empty,
	}
	if tab == TabSearch {
		if q := v.Query(); q != "" {
			sec.Title = fmt.Sprintf("%s: \"%s\"", text.title, q)
		}
		sec.Idle = st.URL == ""
	}

	if st.Err != "" {
		if tab == TabSearch {
			sec.Error = fmt.Sprintf("Gagal memuat hasil pencarian (%s). Pastikan endpoint /search tersedia.", st.Err)
		} else {
			sec.Error = fmt.Sprintf("Gagal memuat data (%s). Coba cek CORS atau struktur respons API.", st.Err)
		}
	}

	var items []models.Item
	if tab == TabSearch {
		items = AsItems(st.Data)
	} else {
		items = FeedItems(st.Data)
	}
	sec.Cards = lo.Map(items, func(it models.Item, _ int) models.DramaCard {
		card := ToCard(it)
		card.Ref = EncodeRef(it)
		return card
	})
	return sec
}
