package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// MediaTypeFilter 按查询的类型集合过滤条目（条目 Meta 中的 type）。
// 类型集合为空时不过滤。召回源大多已在过滤子集内工作，此过滤器
// 兜住不带类型约束的路径（例如 Store 里的预计算热门榜单）。
type MediaTypeFilter struct{}

func (f *MediaTypeFilter) Name() string { return "filter.media_type" }

func (f *MediaTypeFilter) ShouldFilter(_ context.Context, qctx *core.QueryContext, item *core.Item) (bool, error) {
	if qctx == nil {
		return false, nil
	}
	set := qctx.TypeSet()
	if set == nil {
		return false, nil
	}
	t, _ := item.Meta["type"].(string)
	_, ok := set[t]
	return !ok, nil
}
