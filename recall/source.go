package recall

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// Source 表示一个可复用的召回源（内容相似/协同相似/人气兜底/...）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, qctx *core.QueryContext) ([]*core.Item, error)
}
