package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/dsl"
)

// RuleFilter 是配置驱动的规则过滤器：保留表达式求值为真的条目。
// 表达式在构建时编译一次，之后并发复用。
//
// 示例：
//
//	f, err := filter.NewRuleFilter(`item.meta.episodes <= 26`)
type RuleFilter struct {
	prog *dsl.Program
}

func NewRuleFilter(expr string) (*RuleFilter, error) {
	prog, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{prog: prog}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(_ context.Context, qctx *core.QueryContext, item *core.Item) (bool, error) {
	keep, err := f.prog.Eval(item, qctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
