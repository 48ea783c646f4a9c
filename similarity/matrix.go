// Package similarity 构建两类 item×item 相似度矩阵：
// 基于元数据文本的内容相似度，以及基于共同评分模式的协同相似度。
// 矩阵在进程启动时一次性构建，之后只读，可被并发请求无协调共享。
package similarity

import "sort"

// Neighbor 是一条近邻结果：目录内存索引 + 相似度分数。
type Neighbor struct {
	Index int
	Score float64
}

// Matrix 是对称的 item×item 相似度矩阵，行列按目录内存索引寻址
// （不是原始 anime_id）。不变式：对角线恒为 1（自相似取最大值）；
// 数值落在 [0,1]（特征全部非负）；浮点容差内对称。
type Matrix struct {
	vals [][]float64
}

func newMatrix(n int) *Matrix {
	vals := make([][]float64, n)
	for i := range vals {
		vals[i] = make([]float64, n)
		vals[i][i] = 1
	}
	return &Matrix{vals: vals}
}

func (m *Matrix) Len() int { return len(m.vals) }

// At 返回 (i, j) 的相似度；任一索引越界时返回 0（"无行可查"按无信号处理）。
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= len(m.vals) || j < 0 || j >= len(m.vals) {
		return 0
	}
	return m.vals[i][j]
}

// Neighbors 返回与 i 相似度最高的至多 k 个其他条目，排除 i 自身，
// 按分数降序、索引升序排列（稳定、确定性）。零分条目不算近邻：
// 特征串为空的条目相似度行全零，得到空近邻表——这不是错误，
// 调用方必须能处理空结果。
func (m *Matrix) Neighbors(i, k int) []Neighbor {
	if i < 0 || i >= len(m.vals) || k <= 0 {
		return nil
	}
	row := m.vals[i]
	out := make([]Neighbor, 0, len(row))
	for j, score := range row {
		if j == i || score <= 0 {
			continue
		}
		out = append(out, Neighbor{Index: j, Score: score})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Index < out[b].Index
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
