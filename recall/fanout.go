package recall

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
)

// Fanout 是一个召回 Node：并发执行多个召回源，并按源顺序合并结果。
//
// 合并语义：各源结果按 Sources 的声明顺序拼接（先内容、后协同），
// 再按条目 ID 去重——首次出现者胜出，provenance 归属第一个产出
// 该条目的源。单个源超时或出错时只丢弃该源的结果，不中断其他源。
type Fanout struct {
	Sources []Source
	Dedup   bool
	Timeout time.Duration // 每个召回源的超时时间（0 表示不限制）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	qctx *core.QueryContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个源写入自己的槽位，合并顺序与 Sources 顺序一致（确定性）
	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, src := range n.Sources {
		slot, s := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, qctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他召回源
				return nil
			}
			results[slot] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}
	if !n.Dedup {
		return all, nil
	}
	return mergeFirst(all), nil
}

// mergeFirst 按 ID 去重，保留第一个出现的条目及其 provenance。
func mergeFirst(all []*core.Item) []*core.Item {
	seen := make(map[int64]struct{}, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
