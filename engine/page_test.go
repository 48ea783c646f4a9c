package engine

import (
	"testing"

	"github.com/rushteam/animerec/core"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name        string
		total, page int
		size        int
		wantStart   int
		wantEnd     int
		wantPrev    bool
		wantNext    bool
		wantErr     bool
	}{
		{name: "first page", total: 5, page: 1, size: 2, wantStart: 0, wantEnd: 2, wantPrev: false, wantNext: true},
		{name: "middle page", total: 5, page: 2, size: 2, wantStart: 2, wantEnd: 4, wantPrev: true, wantNext: true},
		{name: "last partial page", total: 5, page: 3, size: 2, wantStart: 4, wantEnd: 5, wantPrev: true, wantNext: false},
		{name: "exact last page", total: 4, page: 2, size: 2, wantStart: 2, wantEnd: 4, wantPrev: true, wantNext: false},
		{name: "beyond the end is empty, not an error", total: 5, page: 9, size: 2, wantStart: 5, wantEnd: 5, wantPrev: true, wantNext: false},
		{name: "empty table", total: 0, page: 1, size: 2, wantStart: 0, wantEnd: 0, wantPrev: false, wantNext: false},
		{name: "page zero is invalid", total: 5, page: 0, size: 2, wantErr: true},
		{name: "negative page is invalid", total: 5, page: -3, size: 2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, prev, next, err := paginate(tt.total, tt.page, tt.size)
			if tt.wantErr {
				if !core.IsInvalidPage(err) {
					t.Fatalf("paginate() error = %v, want INVALID_PAGE", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("paginate() error = %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd || prev != tt.wantPrev || next != tt.wantNext {
				t.Errorf("paginate(%d,%d,%d) = (%d,%d,%v,%v), want (%d,%d,%v,%v)",
					tt.total, tt.page, tt.size, start, end, prev, next,
					tt.wantStart, tt.wantEnd, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

// concatenating pages 1..ceil(N/P) must reconstruct the table exactly
func TestPaginate_Reconstruction(t *testing.T) {
	const total, size = 7, 3
	var covered int
	for page := 1; ; page++ {
		start, end, _, next, err := paginate(total, page, size)
		if err != nil {
			t.Fatalf("paginate(page=%d) error = %v", page, err)
		}
		if start != covered {
			t.Fatalf("page %d starts at %d, want %d (gap or overlap)", page, start, covered)
		}
		covered = end
		if !next {
			break
		}
	}
	if covered != total {
		t.Errorf("pages covered %d rows, want %d", covered, total)
	}
}
