package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rushteam/animerec/core"
)

// LoadAnime 从 CSV 加载条目表并完成清洗，列按表头定位
// （anime_id,name,genre,type,episodes,rating,members）。
//
// 清洗规则（与离线数据管道约定一致）：
//   - genre 或 type 为空的行整行丢弃
//   - episodes 非数字（如 "Unknown"）归一为 0
//   - rating 缺失时用全表中位数补齐
//   - id 或 name 非法的行整行丢弃
//
// 返回的条目顺序即目录的内存索引顺序，相似度矩阵按此顺序寻址。
func LoadAnime(path string) ([]core.Anime, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open anime csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read anime header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"anime_id", "name", "genre", "type"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("anime csv: missing column %q", required)
		}
	}

	var (
		items   []core.Anime
		missing []int // rating 缺失的行，二次遍历时用中位数补齐
		present []float64
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read anime row: %w", err)
		}

		id, err := strconv.ParseInt(field(row, col, "anime_id"), 10, 64)
		if err != nil {
			continue
		}
		title := strings.TrimSpace(field(row, col, "name"))
		genre := strings.TrimSpace(field(row, col, "genre"))
		typ := strings.TrimSpace(field(row, col, "type"))
		if title == "" || genre == "" || typ == "" {
			continue
		}

		it := core.Anime{ID: id, Title: title, Genre: genre, Type: typ}
		if eps, err := strconv.Atoi(field(row, col, "episodes")); err == nil && eps >= 0 {
			it.Episodes = eps
		}
		if members, err := strconv.Atoi(field(row, col, "members")); err == nil && members >= 0 {
			it.Members = members
		}
		if rating, err := strconv.ParseFloat(field(row, col, "rating"), 64); err == nil {
			it.Rating = rating
			present = append(present, rating)
		} else {
			missing = append(missing, len(items))
		}
		items = append(items, it)
	}

	if len(missing) > 0 {
		med := median(present)
		for _, i := range missing {
			items[i].Rating = med
		}
	}
	return items, nil
}

// LoadRatings 从 CSV 加载评分表（user_id,anime_id,rating）。
//
// 清洗规则：
//   - 未评分哨兵 -1 的行丢弃
//   - 分值落在 (0,10] 之外的视为缺失，整行丢弃（不是当作 0）
//   - 同一 (user, anime) 出现多次时保留最后一次（keep-last 策略，
//     与 pivot 覆盖写语义一致；popularity 聚合也按去重后的行计数）
func LoadRatings(path string) ([]core.Rating, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rating csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read rating header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"user_id", "anime_id", "rating"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("rating csv: missing column %q", required)
		}
	}

	type pair struct{ user, anime int64 }
	var (
		out  []core.Rating
		seen = make(map[pair]int) // (user, anime) -> out 中的位置，keep-last 用
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rating row: %w", err)
		}

		userID, err := strconv.ParseInt(field(row, col, "user_id"), 10, 64)
		if err != nil {
			continue
		}
		animeID, err := strconv.ParseInt(field(row, col, "anime_id"), 10, 64)
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(field(row, col, "rating"), 64)
		if err != nil || score <= 0 || score > 10 {
			continue
		}

		p := pair{userID, animeID}
		if i, ok := seen[p]; ok {
			out[i].Score = score
			continue
		}
		seen[p] = len(out)
		out = append(out, core.Rating{UserID: userID, AnimeID: animeID, Score: score})
	}
	return out, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
