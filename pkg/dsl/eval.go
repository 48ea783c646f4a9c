// Package dsl 提供基于 CEL (Common Expression Language) 的布尔规则求值，
// 用于配置驱动的候选过滤。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/animerec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("query", cel.DynType),
		)
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Program 是编译后的规则表达式，构建一次、并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 元信息：item.meta.type == "TV" / item.meta.episodes <= 26
//   - 数值：item.score > 0.1
//   - 标签：label.provenance == "content"
//   - 查询上下文：query.page == 1 / "TV" in query.types
//   - 逻辑组合：item.meta.type == "TV" && item.score > 0.5
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式合法，求值恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

func (p *Program) String() string { return p.expr }

// Eval 对单个条目求值，返回布尔结果。
// 注意：CEL 访问不存在的 key 会报错，检查存在性请用 label.key != null。
func (p *Program) Eval(item *core.Item, qctx *core.QueryContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, qctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, qctx *core.QueryContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	labelAccessor := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = map[string]any{"value": v.Value, "source": v.Source}
		labelAccessor[k] = v.Value
	}

	input := map[string]any{
		"item": map[string]any{
			"id":     item.ID,
			"score":  item.Score,
			"meta":   item.Meta,
			"labels": labels,
		},
		"label": labelAccessor,
	}
	if qctx != nil {
		input["query"] = map[string]any{
			"query": qctx.Query,
			"types": qctx.Types,
			"page":  qctx.Page,
		}
	} else {
		input["query"] = map[string]any{}
	}
	return input
}
