// Package catalog 提供清洗后的条目表与评分表的只读内存视图。
// Catalog 构建完成后不可变，可被并发请求无协调共享读取；
// 重新加载数据意味着整表替换重建，没有增量更新。
package catalog

import (
	"sort"
	"strings"

	"github.com/rushteam/animerec/core"
)

// Catalog 持有条目表，提供按内存索引/原始 ID/标题的查找与按类型的过滤视图。
// 内存索引顺序（0..Len-1）与相似度矩阵的行列顺序一致，不等于原始 anime_id。
type Catalog struct {
	items []core.Anime
	byID  map[int64]int
	types []string
}

func New(items []core.Anime) *Catalog {
	c := &Catalog{
		items: items,
		byID:  make(map[int64]int, len(items)),
	}
	seen := make(map[string]struct{})
	for i, it := range items {
		if _, ok := c.byID[it.ID]; !ok {
			c.byID[it.ID] = i
		}
		if _, ok := seen[it.Type]; !ok {
			seen[it.Type] = struct{}{}
			c.types = append(c.types, it.Type)
		}
	}
	return c
}

func (c *Catalog) Len() int { return len(c.items) }

// ByIndex 按内存索引取条目；索引越界时返回零值。
func (c *Catalog) ByIndex(i int) core.Anime {
	if i < 0 || i >= len(c.items) {
		return core.Anime{}
	}
	return c.items[i]
}

// ByID 按原始 ID 取条目。
func (c *Catalog) ByID(id int64) (core.Anime, bool) {
	i, ok := c.byID[id]
	if !ok {
		return core.Anime{}, false
	}
	return c.items[i], true
}

// IndexOf 返回原始 ID 对应的内存索引。
func (c *Catalog) IndexOf(id int64) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Types 返回目录中出现过的全部媒体类型（首次出现顺序）。
func (c *Catalog) Types() []string {
	out := make([]string, len(c.types))
	copy(out, c.types)
	return out
}

// FilterIndices 返回类型在 types 集合内的条目索引；types 为 nil 表示不过滤。
func (c *Catalog) FilterIndices(types map[string]struct{}) []int {
	out := make([]int, 0, len(c.items))
	for i, it := range c.items {
		if types != nil {
			if _, ok := types[it.Type]; !ok {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}

// ResolveTitle 在类型过滤子集内做大小写不敏感的子串匹配（标题或 genre 文本），
// 命中多个时取索引最小者（稳定、确定性）。未命中返回 (-1, false)。
func (c *Catalog) ResolveTitle(query string, types map[string]struct{}) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, false
	}
	for i, it := range c.items {
		if types != nil {
			if _, ok := types[it.Type]; !ok {
				continue
			}
		}
		if strings.Contains(strings.ToLower(it.Title), q) ||
			strings.Contains(strings.ToLower(it.Genre), q) {
			return i, true
		}
	}
	return -1, false
}

// PopularityRow 是人气聚合结果的一行。
type PopularityRow struct {
	AnimeID     int64
	Title       string
	Type        string
	AvgRating   float64
	RatingCount int
	Score       float64 // rating_count * avg_rating
}

// Popularity 对评分表按条目聚合（均分、评分数），与目录做内连接，
// 产出 popularity_score = rating_count * avg_rating，按分数降序、
// ID 升序排列。分数刻意不做评分数归一（沿用上游口径：高热度条目
// 会压过小众高分条目）。评分表中不在目录内的条目被忽略。
func (c *Catalog) Popularity(ratings []core.Rating) []PopularityRow {
	type agg struct {
		sum   float64
		count int
	}
	byAnime := make(map[int64]*agg)
	for _, r := range ratings {
		a, ok := byAnime[r.AnimeID]
		if !ok {
			a = &agg{}
			byAnime[r.AnimeID] = a
		}
		a.sum += r.Score
		a.count++
	}

	out := make([]PopularityRow, 0, len(byAnime))
	for id, a := range byAnime {
		it, ok := c.ByID(id)
		if !ok {
			continue
		}
		avg := a.sum / float64(a.count)
		out = append(out, PopularityRow{
			AnimeID:     id,
			Title:       it.Title,
			Type:        it.Type,
			AvgRating:   avg,
			RatingCount: a.count,
			Score:       float64(a.count) * avg,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].AnimeID < out[j].AnimeID
	})
	return out
}
