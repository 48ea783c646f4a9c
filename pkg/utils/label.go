package utils

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由业务自定义；animerec 只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // content / collab / popularity / external / filter ...
}

// MergeLabel 用于合并同名 Label，遵循"先到先得"的默认策略：
// 已有非空值时保留旧值。来源（provenance）标签要求归属第一个产出
// 该条目的召回源，合并去重时不得被后来者覆盖或累积。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	return existing
}
