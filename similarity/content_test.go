package similarity

import (
	"math"
	"testing"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
)

func contentCatalog() *catalog.Catalog {
	return catalog.New([]core.Anime{
		{ID: 1, Title: "Naruto", Genre: "Action, Shounen", Type: "TV"},
		{ID: 2, Title: "Bleach", Genre: "Action, Shounen", Type: "TV"},
		{ID: 3, Title: "Your Name.", Genre: "Drama, Romance", Type: "Movie"},
		{ID: 4, Title: "K-On!", Genre: "Music", Type: "TV"},
	})
}

func TestBuildContentIndex_MatrixContract(t *testing.T) {
	m := BuildContentIndex(contentCatalog())

	if m.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", m.Len())
	}
	for i := 0; i < m.Len(); i++ {
		if m.At(i, i) != 1 {
			t.Errorf("At(%d,%d) = %v, want 1 (diagonal)", i, i, m.At(i, i))
		}
		for j := 0; j < m.Len(); j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > 1e-12 {
				t.Errorf("At(%d,%d) != At(%d,%d): %v vs %v", i, j, j, i, m.At(i, j), m.At(j, i))
			}
			if m.At(i, j) < 0 || m.At(i, j) > 1+1e-12 {
				t.Errorf("At(%d,%d) = %v, out of [0,1]", i, j, m.At(i, j))
			}
		}
	}
}

func TestBuildContentIndex_SignalOrdering(t *testing.T) {
	m := BuildContentIndex(contentCatalog())

	// shared genre tokens dominate a shared type token alone
	sameGenre := m.At(0, 1) // action, shounen, tv in common
	sameType := m.At(0, 3)  // only tv in common
	disjoint := m.At(0, 2)  // nothing in common

	if sameGenre <= sameType {
		t.Errorf("At(0,1) = %v should exceed At(0,3) = %v", sameGenre, sameType)
	}
	if sameType <= 0 {
		t.Errorf("At(0,3) = %v, want > 0 (type token is part of the feature text)", sameType)
	}
	if disjoint != 0 {
		t.Errorf("At(0,2) = %v, want 0 (no shared tokens)", disjoint)
	}
}

func TestBuildContentIndex_EmptyFeatures(t *testing.T) {
	c := catalog.New([]core.Anime{
		{ID: 1, Title: "Naruto", Genre: "Action", Type: "TV"},
		{ID: 2}, // no feature text at all
	})
	m := BuildContentIndex(c)

	if got := m.At(0, 1); got != 0 {
		t.Errorf("At(0,1) = %v, want 0 for empty feature row", got)
	}
	if nbs := m.Neighbors(1, 10); len(nbs) != 0 {
		t.Errorf("Neighbors(1) = %v, want empty for empty feature row", nbs)
	}
}

func TestMatrix_Neighbors(t *testing.T) {
	m := &Matrix{vals: [][]float64{
		{1, 0.5, 0.9, 0, 0.5},
		{0.5, 1, 0, 0, 0},
		{0.9, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{0.5, 0, 0, 0, 1},
	}}

	tests := []struct {
		name string
		i, k int
		want []Neighbor
	}{
		{
			name: "descending score, ties by ascending index, self and zeros excluded",
			i:    0, k: 10,
			want: []Neighbor{{Index: 2, Score: 0.9}, {Index: 1, Score: 0.5}, {Index: 4, Score: 0.5}},
		},
		{
			name: "k truncates",
			i:    0, k: 1,
			want: []Neighbor{{Index: 2, Score: 0.9}},
		},
		{
			name: "all-zero row yields no neighbors",
			i:    3, k: 10,
			want: nil,
		},
		{
			name: "out of range index",
			i:    99, k: 10,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Neighbors(tt.i, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("Neighbors(%d,%d) = %v, want %v", tt.i, tt.k, got, tt.want)
			}
			for n, w := range tt.want {
				if got[n] != w {
					t.Errorf("Neighbors(%d,%d)[%d] = %v, want %v", tt.i, tt.k, n, got[n], w)
				}
			}
		})
	}
}
