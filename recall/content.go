package recall

import (
	"context"
	"sort"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/utils"
	"github.com/rushteam/animerec/similarity"
)

// DefaultPool 是单个召回源的默认候选池上限。池上限让合并前的工作量
// 与目录规模无关。
const DefaultPool = 5

// ContentSource 是内容相似度召回源：对类型过滤子集内的每个条目，
// 取其与已解析条目的内容相似度作为分数（任一侧无行时取 0），
// 按分数降序、索引升序排列，截断到候选池上限。
type ContentSource struct {
	Catalog *catalog.Catalog
	Index   *similarity.Matrix

	// Pool 是候选池上限；<= 0 时取 DefaultPool。
	Pool int
}

func (r *ContentSource) Name() string { return "recall.content" }

func (r *ContentSource) Recall(ctx context.Context, qctx *core.QueryContext) ([]*core.Item, error) {
	if r.Catalog == nil || r.Index == nil || qctx == nil || qctx.ResolvedIndex < 0 {
		return nil, nil
	}
	resolved := qctx.ResolvedIndex

	candidates := r.Catalog.FilterIndices(qctx.TypeSet())
	scored := make([]similarity.Neighbor, 0, len(candidates))
	for _, idx := range candidates {
		if idx == resolved {
			continue // 排除已解析条目自身
		}
		scored = append(scored, similarity.Neighbor{Index: idx, Score: r.Index.At(resolved, idx)})
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
		out = append(out, newCatalogItem(r.Catalog, nb.Index, nb.Score, core.ProvenanceContent, r.Name()))
	}
	return out, nil
}

// sortNeighbors 按分数降序、索引升序排列（稳定、确定性的平局规则）。
func sortNeighbors(s []similarity.Neighbor) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].Index < s[j].Index
	})
}

// newCatalogItem 从目录条目构建链路 Item，写入展示元信息与来源标签。
func newCatalogItem(c *catalog.Catalog, index int, score float64, provenance, source string) *core.Item {
	a := c.ByIndex(index)
	it := core.NewItem(a.ID)
	it.Score = score
	it.Meta["index"] = index
	it.Meta["title"] = a.Title
	it.Meta["genre"] = a.Genre
	it.Meta["type"] = a.Type
	it.Meta["episodes"] = a.Episodes
	it.Meta["rating"] = a.Rating
	it.PutLabel(core.LabelProvenance, utils.Label{Value: provenance, Source: source})
	return it
}
