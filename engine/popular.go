package engine

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// PopularItem 是人气榜结果页中的一行。
type PopularItem struct {
	AnimeID         int64   `json:"id"`
	Title           string  `json:"title"`
	Type            string  `json:"type"`
	AvgRating       float64 `json:"avg_rating"`
	RatingCount     int     `json:"rating_count"`
	PopularityScore float64 `json:"popularity_score"`
	ImageURL        string  `json:"image_url,omitempty"`
}

// PopularPage 是一页人气榜结果。
type PopularPage struct {
	Items   []PopularItem `json:"items"`
	Page    int           `json:"page"`
	HasNext bool          `json:"has_next"`
	HasPrev bool          `json:"has_prev"`
}

// Popular 返回指定媒体类型的人气榜单页。
// popularity_score = rating_count * avg_rating，降序排列，平分按
// ID 升序；聚合在 Warmup 时预计算。分页与页内补全规则与 Recommend
// 一致。
func (e *Engine) Popular(ctx context.Context, mediaType string, page int) (*PopularPage, error) {
	if !e.ready.Load() {
		return nil, core.ErrIndexNotReady
	}
	if page < 1 {
		return nil, core.ErrInvalidPage
	}

	rows := make([]PopularItem, 0, len(e.popularity))
	for _, row := range e.popularity {
		if mediaType != "" && row.Type != mediaType {
			continue
		}
		rows = append(rows, PopularItem{
			AnimeID:         row.AnimeID,
			Title:           row.Title,
			Type:            row.Type,
			AvgRating:       row.AvgRating,
			RatingCount:     row.RatingCount,
			PopularityScore: row.Score,
		})
	}

	start, end, hasPrev, hasNext, err := paginate(len(rows), page, e.popularPageSize)
	if err != nil {
		return nil, err
	}
	out := &PopularPage{
		Items:   rows[start:end],
		Page:    page,
		HasNext: hasNext,
		HasPrev: hasPrev,
	}
	e.enrichPopularImages(ctx, out.Items)
	return out, nil
}

func (e *Engine) enrichPopularImages(ctx context.Context, items []PopularItem) {
	if e.enricher == nil || len(items) == 0 {
		return
	}
	ranked := make([]RankedItem, len(items))
	for i, it := range items {
		ranked[i] = RankedItem{Title: it.Title}
	}
	e.enrichImages(ctx, ranked)
	for i := range items {
		items[i].ImageURL = ranked[i].ImageURL
	}
}
