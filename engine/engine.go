// Package engine 是混合推荐引擎的编排层：解析查询标题、并发召回
// 内容/协同两路相似度信号、合并去重、分页，并在无法本地解析时
// 降级到外部补全服务。
//
// Engine 是显式依赖注入的对象：进程启动时构建一次，之后只读，
// 可被并发请求无协调共享（所有读取都是纯查表）。
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/enrich"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/recall"
	"github.com/rushteam/animerec/rerank"
	"github.com/rushteam/animerec/similarity"
)

// Enricher 是外部补全协作方的出站契约：按标题查详情（含至多 5 条
// 相关推荐）或查封面图。实现必须把网络失败归一为 ErrEnrichNotFound，
// 不得让错误以其他形态越过边界。
type Enricher interface {
	Lookup(ctx context.Context, title string) (*enrich.Details, error)
	Image(ctx context.Context, title string) (string, error)
}

// 默认参数。
const (
	DefaultPageSize        = 10
	DefaultPopularPageSize = 20
	DefaultEnrichTimeout   = 3 * time.Second
	DefaultRecallTimeout   = 2 * time.Second
)

// Options 是 Engine 的构建参数。
type Options struct {
	Catalog *catalog.Catalog
	Ratings []core.Rating

	// Store 可选：协同索引持久化与热门榜单的后端
	Store core.Store

	// HotKey 可选：Store 中预计算热门榜单的有序集合 key
	HotKey string

	// Enricher 可选：外部补全协作方；为 nil 时本地无匹配直接返回
	// NOT_FOUND_LOCALLY，页内补全整体跳过
	Enricher Enricher

	// Filters 可选：配置驱动的业务过滤规则（追加在类型过滤之后）
	Filters []filter.Filter

	PageSize        int           // 推荐页大小，默认 10
	PopularPageSize int           // 人气页大小，默认 20
	Pool            int           // 单源候选池上限，默认 recall.DefaultPool
	EnrichTimeout   time.Duration // 单条补全超时，默认 3s
	RecallTimeout   time.Duration // 单个召回源超时，默认 2s

	Logger zerolog.Logger
}

// Engine 持有目录与两个相似度索引，编排一次查询的全流程。
type Engine struct {
	catalog  *catalog.Catalog
	ratings  []core.Rating
	store    core.Store
	hotKey   string
	enricher Enricher
	filters  []filter.Filter

	pageSize        int
	popularPageSize int
	pool            int
	enrichTimeout   time.Duration
	recallTimeout   time.Duration
	log             zerolog.Logger

	// Warmup 一次性写入，之后只读
	content    *similarity.Matrix
	collab     *similarity.CollabIndex
	popularity []catalog.PopularityRow

	warmupOnce sync.Once
	warmupErr  error
	ready      atomic.Bool
}

func New(opts Options) *Engine {
	e := &Engine{
		catalog:         opts.Catalog,
		ratings:         opts.Ratings,
		store:           opts.Store,
		hotKey:          opts.HotKey,
		enricher:        opts.Enricher,
		filters:         opts.Filters,
		pageSize:        opts.PageSize,
		popularPageSize: opts.PopularPageSize,
		pool:            opts.Pool,
		enrichTimeout:   opts.EnrichTimeout,
		recallTimeout:   opts.RecallTimeout,
		log:             opts.Logger,
	}
	if e.pageSize <= 0 {
		e.pageSize = DefaultPageSize
	}
	if e.popularPageSize <= 0 {
		e.popularPageSize = DefaultPopularPageSize
	}
	if e.pool <= 0 {
		e.pool = recall.DefaultPool
	}
	if e.enrichTimeout <= 0 {
		e.enrichTimeout = DefaultEnrichTimeout
	}
	if e.recallTimeout <= 0 {
		e.recallTimeout = DefaultRecallTimeout
	}
	return e
}

// Ready 返回索引是否已构建完成。
func (e *Engine) Ready() bool { return e.ready.Load() }

// Warmup 一次性构建内容索引、协同索引与人气聚合，完成后翻转就绪位。
// 进程内只会执行一次；未就绪期间的查询被干净拒绝（INDEX_NOT_READY），
// 绝不读到半成品矩阵。输入表畸形导致的构建失败是启动期致命错误。
func (e *Engine) Warmup(ctx context.Context) error {
	e.warmupOnce.Do(func() {
		start := time.Now()
		e.content = similarity.BuildContentIndex(e.catalog)
		e.log.Info().
			Int("items", e.catalog.Len()).
			Dur("elapsed", time.Since(start)).
			Msg("content index built")

		start = time.Now()
		collab, err := similarity.BuildCollabIndex(ctx, e.ratings, e.catalog, e.store)
		if err != nil {
			e.warmupErr = err
			return
		}
		e.collab = collab
		e.log.Info().
			Int("ratings", len(e.ratings)).
			Bool("available", collab != nil).
			Dur("elapsed", time.Since(start)).
			Msg("collaborative index built")

		e.popularity = e.catalog.Popularity(e.ratings)
		e.ready.Store(true)
	})
	return e.warmupErr
}

// RankedItem 是结果页中的一行。
type RankedItem struct {
	ID         int64   `json:"id,omitempty"`
	Title      string  `json:"title"`
	Genre      string  `json:"genre,omitempty"`
	Type       string  `json:"type,omitempty"`
	Score      float64 `json:"score"`
	Provenance string  `json:"provenance"`
	ImageURL   string  `json:"image_url,omitempty"`
}

// RankedPage 是一页推荐结果。
type RankedPage struct {
	Items   []RankedItem `json:"items"`
	Page    int          `json:"page"`
	HasNext bool         `json:"has_next"`
	HasPrev bool         `json:"has_prev"`
}

// Recommend 处理一次推荐查询。
//
// 流程：
//  1. Resolve：在类型过滤子集内做大小写不敏感子串匹配
//  2. 命中 → 内容/协同两路召回并发 fan-out，按源顺序合并、首现去重
//  3. 未命中 → 外部补全；成功则包装其相关推荐（provenance=external），
//     失败返回 NOT_FOUND_ANYWHERE
//  4. 空查询 → 人气兜底排序（绝不返回 NOT_FOUND_LOCALLY）
//  5. 分页后对返回页逐条补全封面图（单条失败降级为占位图）
func (e *Engine) Recommend(ctx context.Context, qctx *core.QueryContext) (*RankedPage, error) {
	if !e.ready.Load() {
		return nil, core.ErrIndexNotReady
	}
	if qctx.Page < 1 {
		return nil, core.ErrInvalidPage
	}
	if qctx.PageSize <= 0 {
		qctx.PageSize = e.pageSize
	}

	qctx.ResolvedIndex = -1
	if qctx.Query != "" {
		if idx, ok := e.catalog.ResolveTitle(qctx.Query, qctx.TypeSet()); ok {
			qctx.ResolvedIndex = idx
		} else {
			return e.recommendExternal(ctx, qctx)
		}
	}

	items, err := e.rank(ctx, qctx)
	if err != nil {
		return nil, err
	}

	start, end, hasPrev, hasNext, err := paginate(len(items), qctx.Page, qctx.PageSize)
	if err != nil {
		return nil, err
	}
	page := &RankedPage{
		Items:   toRankedItems(items[start:end]),
		Page:    qctx.Page,
		HasNext: hasNext,
		HasPrev: hasPrev,
	}
	e.enrichImages(ctx, page.Items)
	return page, nil
}

// rank 在本地数据上产出完整的有序候选表（纯函数，不做任何 I/O，
// Store 里的热门榜单读取除外）。
func (e *Engine) rank(ctx context.Context, qctx *core.QueryContext) ([]*core.Item, error) {
	var nodes []pipeline.Node

	if qctx.ResolvedIndex >= 0 {
		nodes = append(nodes,
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.ContentSource{Catalog: e.catalog, Index: e.content, Pool: e.pool},
					&recall.CollabSource{Catalog: e.catalog, Index: e.collab, Pool: e.pool},
				},
				Dedup:   true,
				Timeout: e.recallTimeout,
			},
			&rerank.TopNNode{N: e.pool * 2},
		)
	} else {
		// 空查询：人气兜底，覆盖整个过滤子集（分页需要完整排序表）
		nodes = append(nodes, &recall.Fanout{
			Sources: []recall.Source{
				&recall.PopularSource{Catalog: e.catalog, Store: e.store, Key: e.hotKey},
			},
			Dedup:   true,
			Timeout: e.recallTimeout,
		})
	}

	filters := append([]filter.Filter{&filter.MediaTypeFilter{}}, e.filters...)
	nodes = append(nodes, &filter.Node{Filters: filters})

	p := &pipeline.Pipeline{Nodes: nodes}
	return p.Run(ctx, qctx, nil)
}

// recommendExternal 是本地无匹配时的降级路径：外部补全成功则包装
// 其相关推荐，失败返回 NOT_FOUND_ANYWHERE——绝不返回空的"成功"页。
func (e *Engine) recommendExternal(ctx context.Context, qctx *core.QueryContext) (*RankedPage, error) {
	if e.enricher == nil {
		return nil, core.ErrNotFoundLocally
	}

	lctx, cancel := context.WithTimeout(ctx, e.enrichTimeout)
	defer cancel()
	details, err := e.enricher.Lookup(lctx, qctx.Query)
	if err != nil {
		return nil, core.ErrNotFoundAnywhere
	}

	items := make([]RankedItem, 0, len(details.Related))
	for _, rel := range details.Related {
		items = append(items, RankedItem{
			Title:      rel.Title,
			Type:       details.Type,
			Provenance: core.ProvenanceExternal,
			ImageURL:   rel.ImageURL,
		})
	}

	start, end, hasPrev, hasNext, err := paginate(len(items), qctx.Page, qctx.PageSize)
	if err != nil {
		return nil, err
	}
	page := &RankedPage{
		Items:   items[start:end],
		Page:    qctx.Page,
		HasNext: hasNext,
		HasPrev: hasPrev,
	}
	e.enrichImages(ctx, page.Items)
	return page, nil
}

func toRankedItems(items []*core.Item) []RankedItem {
	out := make([]RankedItem, 0, len(items))
	for _, it := range items {
		title, _ := it.Meta["title"].(string)
		genre, _ := it.Meta["genre"].(string)
		typ, _ := it.Meta["type"].(string)
		out = append(out, RankedItem{
			ID:         it.ID,
			Title:      title,
			Genre:      genre,
			Type:       typ,
			Score:      it.Score,
			Provenance: it.Provenance(),
		})
	}
	return out
}

// enrichImages 对返回页逐条并发补全封面图。补全是独立的、可单独
// 失败的后处理：单条失败只把该条降级为占位图，绝不让整页失败。
func (e *Engine) enrichImages(ctx context.Context, items []RankedItem) {
	if e.enricher == nil {
		return
	}
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range items {
		if items[i].ImageURL != "" {
			continue
		}
		eg.Go(func() error {
			ictx, cancel := context.WithTimeout(egCtx, e.enrichTimeout)
			defer cancel()
			img, err := e.enricher.Image(ictx, items[i].Title)
			if err != nil {
				items[i].ImageURL = enrich.Placeholder
				return nil
			}
			items[i].ImageURL = img
			return nil
		})
	}
	eg.Wait()
}
