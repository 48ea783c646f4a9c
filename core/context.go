package core

// QueryContext 承载一次推荐查询的输入与解析状态，贯穿整个 Pipeline 透传。
type QueryContext struct {
	// Query 是查询标题（可为空：空查询走人气兜底排序）
	Query string

	// Types 是媒体类型过滤集合（TV / Movie / OVA / ...）；空集合等价于全部类型
	Types []string

	// Page 从 1 开始；PageSize 为固定页大小
	Page     int
	PageSize int

	// ResolvedIndex 是查询标题解析出的目录内位置（非原始 ID）。
	// 由引擎在 Resolve 阶段写入；-1 表示未解析。
	ResolvedIndex int

	// Params 请求级上下文参数，供自定义 Node / 过滤规则使用
	Params map[string]any
}

// TypeSet 将类型过滤转为集合形式；空集合返回 nil（语义：不过滤）。
func (qctx *QueryContext) TypeSet() map[string]struct{} {
	if len(qctx.Types) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(qctx.Types))
	for _, t := range qctx.Types {
		set[t] = struct{}{}
	}
	return set
}
