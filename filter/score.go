package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// ScoreFilter 过滤相似度分数低于阈值的候选，用于剔除"凑数"的
// 零分/弱相关条目。Min <= 0 时不过滤。
type ScoreFilter struct {
	Min float64
}

func (f *ScoreFilter) Name() string { return "filter.score" }

func (f *ScoreFilter) ShouldFilter(_ context.Context, _ *core.QueryContext, item *core.Item) (bool, error) {
	if f.Min <= 0 {
		return false, nil
	}
	return item.Score < f.Min, nil
}
