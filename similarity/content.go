package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/rushteam/animerec/catalog"
)

// stopWords 是从特征串中剔除的英文停用词。
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "no": {}, "not": {}, "she": {}, "they": {}, "their": {},
	"his": {}, "her": {}, "you": {}, "your": {}, "we": {}, "our": {},
}

// BuildContentIndex 从目录条目的元数据构建内容相似度矩阵。
//
// 每个条目的特征串为 "genre + type + title"，分词后去停用词，
// 在本语料上固定词表做 TF-IDF 加权（idf 平滑：ln((1+n)/(1+df))+1），
// 行向量 L2 归一后两两点积即余弦相似度。
//
// 特征串为空（属性全部未知）的条目得到全零行（对角线除外），
// 属于退化情形而非错误。
func BuildContentIndex(c *catalog.Catalog) *Matrix {
	n := c.Len()
	m := newMatrix(n)
	if n == 0 {
		return m
	}

	// 1. 分词 + 文档频率
	docs := make([]map[string]int, n)
	df := make(map[string]int)
	for i := 0; i < n; i++ {
		it := c.ByIndex(i)
		terms := tokenize(it.Genre + " " + it.Type + " " + it.Title)
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		docs[i] = tf
	}

	// 2. TF-IDF 加权 + L2 归一
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log(float64(1+n)/float64(1+d)) + 1
	}
	vecs := make([]map[string]float64, n)
	for i, tf := range docs {
		vec := make(map[string]float64, len(tf))
		var norm float64
		for t, count := range tf {
			w := float64(count) * idf[t]
			vec[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range vec {
				vec[t] /= norm
			}
		}
		vecs[i] = vec
	}

	// 3. 两两余弦（归一化向量点积），对称填充
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := sparseDot(vecs[i], vecs[j])
			m.vals[i][j] = s
			m.vals[j][i] = s
		}
	}
	return m
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if _, ok := stopWords[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sparseDot 计算两个稀疏向量的点积，遍历较小的一侧。
func sparseDot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for t, va := range a {
		if vb, ok := b[t]; ok {
			dot += va * vb
		}
	}
	return dot
}
