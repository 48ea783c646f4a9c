// Package animerec 是一个混合动漫推荐引擎（Hybrid Anime Recommender）。
//
// 设计要点：
// - 双信号：元数据文本的内容相似度 + 共同评分模式的协同相似度
// - Pipeline-first: 召回 → 过滤 → 重排 的可组合 Node 链
// - 降级优先：本地无匹配走外部补全，补全失败逐条降级占位图
// - 只读共享：目录与矩阵启动时构建一次，并发请求无协调读取
package animerec

import "github.com/rushteam/animerec/pipeline"

// 轻量 facade：便于用户直接 import "animerec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
