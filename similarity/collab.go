package similarity

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
)

// StoreKey 是协同索引持久化 blob 的存储 key。
const StoreKey = "animerec:collab:index"

// CollabIndex 是协同相似度索引：item×item 余弦矩阵加上
// 原始 anime_id 与矩阵列号的双向映射。列顺序与目录内存索引一致。
type CollabIndex struct {
	sim  *Matrix
	ids  []int64
	cols map[int64]int
}

// IDNeighbor 是按原始 ID 寻址的近邻结果。
type IDNeighbor struct {
	AnimeID int64
	Score   float64
}

// Column 返回原始 ID 对应的矩阵列号。
func (ci *CollabIndex) Column(id int64) (int, bool) {
	c, ok := ci.cols[id]
	return c, ok
}

// At 返回两列之间的相似度（越界返回 0）。
func (ci *CollabIndex) At(i, j int) float64 { return ci.sim.At(i, j) }

// NeighborsByID 返回与 id 协同相似度最高的至多 k 个其他条目。
// 与 Matrix.Neighbors 契约一致，但按原始 ID 寻址：未知 ID 是
// 可报告的错误（ErrItemNotIndexed），不是静默空结果。
func (ci *CollabIndex) NeighborsByID(id int64, k int) ([]IDNeighbor, error) {
	col, ok := ci.cols[id]
	if !ok {
		return nil, core.ErrItemNotIndexed
	}
	neighbors := ci.sim.Neighbors(col, k)
	out := make([]IDNeighbor, 0, len(neighbors))
	for _, nb := range neighbors {
		out = append(out, IDNeighbor{AnimeID: ci.ids[nb.Index], Score: nb.Score})
	}
	return out, nil
}

// Signature 计算评分表的内容签名（fnv-1a，按行序），用于判定
// 持久化的协同索引是否仍然对应当前数据。
func Signature(ratings []core.Rating) string {
	h := fnv.New64a()
	buf := make([]byte, 0, 48)
	for _, r := range ratings {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, r.UserID, 10)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, r.AnimeID, 10)
		buf = append(buf, ':')
		buf = strconv.AppendFloat(buf, r.Score, 'g', -1, 64)
		buf = append(buf, ';')
		h.Write(buf)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// collabBlob 是持久化格式：矩阵 + 列映射 + 签名，JSON 编码可精确
// round-trip（float64 走最短可逆表示）。
type collabBlob struct {
	Signature string      `json:"signature"`
	IDs       []int64     `json:"ids"`
	Sim       [][]float64 `json:"sim"`
}

// BuildCollabIndex 从评分表构建协同相似度索引。
//
// 把评分 pivot 成 user×item 矩阵，缺失项取 0——0 是显式的"无信号"
// 哨兵，与有效低分不同；这会把相似度拉向评分数多的条目（已知偏差，
// 按上游口径保留）。列向量两两余弦得到 item×item 矩阵；某条目一条
// 评分都没有时其列全零，相似度行也全零，属于退化而非错误。
//
// 构建代价高，因此通过 store 持久化：签名一致时直接复用，
// 签名不一致（评分表变了）时强制重建并覆盖写回——绝不静默
// 使用过期索引。store 为 nil 时每次进程启动都重建。
// 评分表为空时返回 (nil, nil)，引擎退化为仅内容信号。
func BuildCollabIndex(ctx context.Context, ratings []core.Rating, c *catalog.Catalog, store core.Store) (*CollabIndex, error) {
	if len(ratings) == 0 {
		return nil, nil
	}

	sig := Signature(ratings)
	if store != nil {
		if ci, ok := loadCollabIndex(ctx, store, sig); ok {
			return ci, nil
		}
	}

	n := c.Len()
	ids := make([]int64, n)
	cols := make(map[int64]int, n)
	for i := 0; i < n; i++ {
		id := c.ByIndex(i).ID
		ids[i] = id
		cols[id] = i
	}

	// pivot：每列一个 user -> score 的稀疏向量
	columns := make([]map[int64]float64, n)
	for i := range columns {
		columns[i] = make(map[int64]float64)
	}
	for _, r := range ratings {
		col, ok := cols[r.AnimeID]
		if !ok {
			continue // 评分指向目录外的条目，忽略
		}
		columns[col][r.UserID] = r.Score
	}

	m := newMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := sparseCosine(columns[i], columns[j])
			m.vals[i][j] = s
			m.vals[j][i] = s
		}
	}

	ci := &CollabIndex{sim: m, ids: ids, cols: cols}
	if store != nil {
		if err := saveCollabIndex(ctx, store, sig, ci); err != nil {
			return nil, fmt.Errorf("persist collab index: %w", err)
		}
	}
	return ci, nil
}

func loadCollabIndex(ctx context.Context, store core.Store, sig string) (*CollabIndex, bool) {
	data, err := store.Get(ctx, StoreKey)
	if err != nil {
		return nil, false
	}
	var blob collabBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, false
	}
	if blob.Signature != sig || len(blob.IDs) != len(blob.Sim) {
		return nil, false
	}
	cols := make(map[int64]int, len(blob.IDs))
	for i, id := range blob.IDs {
		cols[id] = i
	}
	return &CollabIndex{sim: &Matrix{vals: blob.Sim}, ids: blob.IDs, cols: cols}, true
}

func saveCollabIndex(ctx context.Context, store core.Store, sig string, ci *CollabIndex) error {
	data, err := json.Marshal(collabBlob{Signature: sig, IDs: ci.ids, Sim: ci.sim.vals})
	if err != nil {
		return err
	}
	return store.Set(ctx, StoreKey, data)
}

// sparseCosine 计算两个稀疏列向量的余弦相似度。
func sparseCosine(a, b map[int64]float64) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for u, vs := range small {
		if vl, ok := large[u]; ok {
			dot += vs * vl
		}
	}
	if dot == 0 {
		return 0
	}
	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
