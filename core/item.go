package core

import "github.com/rushteam/animerec/pkg/utils"

// Anime 是清洗后的条目记录：在加载阶段完成校验与缺省填充后不可变。
// 不变式：Title / Genre / Type 永远非空（缺失的行在加载时整行丢弃），
// Episodes 未知时为 0，Rating 缺失时用全表中位数补齐。
type Anime struct {
	ID       int64
	Title    string
	Genre    string // 逗号分隔的标签串，例如 "Action, Adventure"
	Type     string // TV / Movie / OVA / ...
	Episodes int
	Rating   float64 // 条目的声明均分，0-10
	Members  int     // 人气/成员数
}

// Rating 是一条用户评分三元组。加载阶段会滤掉未评分哨兵（-1）
// 以及落在 (0,10] 之外的分值，工作表中不会出现它们。
type Rating struct {
	UserID  int64
	AnimeID int64
	Score   float64
}

// Item 是推荐链路中的统一承载结构：分数、元信息、标签。
// Labels 记录来源（provenance）与解释信息；Score 用于排序决策。
type Item struct {
	ID     int64
	Score  float64
	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，按默认 Merge 规则处理。
// 默认规则是"先到先得"：合并去重时 provenance 必须归属第一个
// 产出该条目的来源，因此不做累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Provenance 返回条目的来源标签值（content / collab / popularity / external），
// 不存在时返回空串。
func (it *Item) Provenance() string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[LabelProvenance].Value
}

// LabelProvenance 是来源标签的标准 key。
const LabelProvenance = "provenance"

// 标准来源值。
const (
	ProvenanceContent    = "content"
	ProvenanceCollab     = "collab"
	ProvenancePopularity = "popularity"
	ProvenanceExternal   = "external"
)
