package pipeline

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链（召回 → 过滤 → 重排）。
// 排序逻辑对本地数据是纯函数；外部补全等会失败的后处理不进链，
// 由引擎在分页之后单独执行。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	qctx *core.QueryContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, qctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
