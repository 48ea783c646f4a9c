package recall

import (
	"context"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/similarity"
)

// CollabSource 是协同相似度召回源，与 ContentSource 契约一致，
// 但相似度按原始 anime_id 经列映射查询。
//
// 降级路径：协同索引不存在（评分表为空），或已解析条目没有对应列
// （ITEM_NOT_INDEXED），都降级为空结果——"无协同信号"，
// 不向上传播错误。
type CollabSource struct {
	Catalog *catalog.Catalog
	Index   *similarity.CollabIndex

	// Pool 是候选池上限；<= 0 时取 DefaultPool。
	Pool int
}

func (r *CollabSource) Name() string { return "recall.collab" }

func (r *CollabSource) Recall(ctx context.Context, qctx *core.QueryContext) ([]*core.Item, error) {
	if r.Catalog == nil || r.Index == nil || qctx == nil || qctx.ResolvedIndex < 0 {
		return nil, nil
	}
	resolved := qctx.ResolvedIndex

	resolvedCol, ok := r.Index.Column(r.Catalog.ByIndex(resolved).ID)
	if !ok {
		return nil, nil // ITEM_NOT_INDEXED：降级为无协同信号
	}

	candidates := r.Catalog.FilterIndices(qctx.TypeSet())
	scored := make([]similarity.Neighbor, 0, len(candidates))
	for _, idx := range candidates {
		if idx == resolved {
			continue
		}
		var score float64
		if col, ok := r.Index.Column(r.Catalog.ByIndex(idx).ID); ok {
			score = r.Index.At(resolvedCol, col)
		}
		scored = append(scored, similarity.Neighbor{Index: idx, Score: score})
	}
	sortNeighbors(scored)

	pool := r.Pool
	if pool <= 0 {
		pool = DefaultPool
	}
	if len(scored) > pool {
		scored = scored[:pool]
	}

	out := make([]*core.Item, 0, len(scored))
	for _, nb := range scored {
		out = append(out, newCatalogItem(r.Catalog, nb.Index, nb.Score, core.ProvenanceCollab, r.Name()))
	}
	return out, nil
}
