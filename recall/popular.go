package recall

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
)

// PopularSource 是人气兜底召回源：没有查询标题时，对类型过滤子集
// 按条目声明均分降序、索引升序排序。不截断候选池——兜底排序要
// 覆盖整个过滤子集，分页在引擎层完成。
//
// 配置了 Store + Key 时优先读取离线任务预写的热门榜单（有序集合，
// 按分数降序）；读取失败或为空时回退到目录排序。榜单里的条目不带
// 类型信息，类型过滤由引擎管线中的过滤 Node 完成。
type PopularSource struct {
	Catalog *catalog.Catalog
	Store   core.Store
	Key     string // 例如 "hot:anime"
}

func (r *PopularSource) Name() string { return "recall.popular" }

func (r *PopularSource) Recall(ctx context.Context, qctx *core.QueryContext) ([]*core.Item, error) {
	if r.Catalog == nil || qctx == nil {
		return nil, nil
	}

	// 优先从 Store 读取预计算榜单
	if r.Store != nil && r.Key != "" {
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kvStore.ZRange(ctx, r.Key, 0, 99)
			if err == nil && len(members) > 0 {
				out := make([]*core.Item, 0, len(members))
				for _, m := range members {
					id, err := strconv.ParseInt(m, 10, 64)
					if err != nil {
						continue
					}
					idx, ok := r.Catalog.IndexOf(id)
					if !ok {
						continue
					}
					score, _ := kvStore.ZScore(ctx, r.Key, m)
					out = append(out, newCatalogItem(r.Catalog, idx, score, core.ProvenancePopularity, r.Name()))
				}
				if len(out) > 0 {
					return out, nil
				}
			}
		}
	}

	// 回退：按声明均分对过滤子集排序
	indices := r.Catalog.FilterIndices(qctx.TypeSet())
	sort.Slice(indices, func(i, j int) bool {
		ri := r.Catalog.ByIndex(indices[i]).Rating
		rj := r.Catalog.ByIndex(indices[j]).Rating
		if ri != rj {
			return ri > rj
		}
		return indices[i] < indices[j]
	})

	out := make([]*core.Item, 0, len(indices))
	for _, idx := range indices {
		out = append(out, newCatalogItem(r.Catalog, idx, r.Catalog.ByIndex(idx).Rating, core.ProvenancePopularity, r.Name()))
	}
	return out, nil
}
