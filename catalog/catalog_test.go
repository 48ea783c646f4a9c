package catalog

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rushteam/animerec/core"
)

func TestLoadAnime_Cleaning(t *testing.T) {
	items, err := LoadAnime(filepath.Join("testdata", "anime.csv"))
	if err != nil {
		t.Fatalf("LoadAnime() error = %v", err)
	}

	// rows with empty genre/type or a bad id are dropped
	if len(items) != 5 {
		t.Fatalf("len(items) = %d, want 5", len(items))
	}
	for _, it := range items {
		if it.Genre == "" || it.Type == "" {
			t.Errorf("item %d kept with empty genre/type", it.ID)
		}
	}

	// non-numeric episodes become 0, missing rating is median-filled
	last := items[4]
	if last.ID != 7 {
		t.Fatalf("items[4].ID = %d, want 7", last.ID)
	}
	if last.Episodes != 0 {
		t.Errorf("episodes = %d, want 0 (non-numeric)", last.Episodes)
	}
	wantMedian := (7.81 + 7.95) / 2
	if math.Abs(last.Rating-wantMedian) > 1e-9 {
		t.Errorf("rating = %v, want median %v", last.Rating, wantMedian)
	}
}

func TestLoadRatings_Cleaning(t *testing.T) {
	ratings, err := LoadRatings(filepath.Join("testdata", "rating.csv"))
	if err != nil {
		t.Fatalf("LoadRatings() error = %v", err)
	}

	want := []core.Rating{
		{UserID: 1, AnimeID: 1, Score: 6}, // duplicate pair keeps the last score
		{UserID: 2, AnimeID: 1, Score: 8},
		{UserID: 3, AnimeID: 2, Score: 9},
	}
	if len(ratings) != len(want) {
		t.Fatalf("len(ratings) = %d, want %d", len(ratings), len(want))
	}
	for i, w := range want {
		if ratings[i] != w {
			t.Errorf("ratings[%d] = %+v, want %+v", i, ratings[i], w)
		}
	}
}

func testCatalog() *Catalog {
	return New([]core.Anime{
		{ID: 10, Title: "Naruto", Genre: "Action, Shounen", Type: "TV", Rating: 7.8},
		{ID: 20, Title: "Naruto: Shippuuden", Genre: "Action, Shounen", Type: "TV", Rating: 8.2},
		{ID: 30, Title: "Your Name.", Genre: "Drama, Romance", Type: "Movie", Rating: 9.1},
		{ID: 40, Title: "K-On!", Genre: "Music, Slice of Life", Type: "TV", Rating: 7.5},
	})
}

func TestCatalog_ResolveTitle(t *testing.T) {
	c := testCatalog()
	tv := map[string]struct{}{"TV": {}}
	movie := map[string]struct{}{"Movie": {}}

	tests := []struct {
		name      string
		query     string
		types     map[string]struct{}
		wantIndex int
		wantOK    bool
	}{
		{name: "case insensitive substring", query: "naruto", types: nil, wantIndex: 0, wantOK: true},
		{name: "multiple hits take lowest index", query: "NARUTO", types: tv, wantIndex: 0, wantOK: true},
		{name: "genre text also matches", query: "romance", types: nil, wantIndex: 2, wantOK: true},
		{name: "type filter narrows candidates", query: "naruto", types: movie, wantIndex: -1, wantOK: false},
		{name: "no match", query: "one piece", types: nil, wantIndex: -1, wantOK: false},
		{name: "empty query never resolves", query: "  ", types: nil, wantIndex: -1, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := c.ResolveTitle(tt.query, tt.types)
			if idx != tt.wantIndex || ok != tt.wantOK {
				t.Errorf("ResolveTitle(%q) = (%d, %v), want (%d, %v)",
					tt.query, idx, ok, tt.wantIndex, tt.wantOK)
			}
		})
	}
}

func TestCatalog_FilterIndices(t *testing.T) {
	c := testCatalog()

	if got := c.FilterIndices(nil); len(got) != c.Len() {
		t.Errorf("FilterIndices(nil) = %v, want all %d indices", got, c.Len())
	}
	got := c.FilterIndices(map[string]struct{}{"Movie": {}})
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("FilterIndices(Movie) = %v, want [2]", got)
	}
}

func TestCatalog_Popularity(t *testing.T) {
	c := testCatalog()
	// anime 10: 4 raters avg 5 -> 20; anime 30: 1 rater at 9 -> 9.
	// rating volume beats average: 20 > 9.
	ratings := []core.Rating{
		{UserID: 1, AnimeID: 10, Score: 5},
		{UserID: 2, AnimeID: 10, Score: 5},
		{UserID: 3, AnimeID: 10, Score: 5},
		{UserID: 4, AnimeID: 10, Score: 5},
		{UserID: 1, AnimeID: 30, Score: 9},
		{UserID: 1, AnimeID: 999, Score: 10}, // not in catalog, ignored
	}

	rows := c.Popularity(ratings)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].AnimeID != 10 || rows[1].AnimeID != 30 {
		t.Errorf("order = [%d, %d], want [10, 30]", rows[0].AnimeID, rows[1].AnimeID)
	}
	if rows[0].Score != 20 || rows[0].RatingCount != 4 || rows[0].AvgRating != 5 {
		t.Errorf("rows[0] = %+v, want score 20, count 4, avg 5", rows[0])
	}
}

func TestCatalog_PopularityTieBreak(t *testing.T) {
	c := testCatalog()
	ratings := []core.Rating{
		{UserID: 1, AnimeID: 20, Score: 8},
		{UserID: 2, AnimeID: 10, Score: 8},
	}
	rows := c.Popularity(ratings)
	if len(rows) != 2 || rows[0].AnimeID != 10 {
		t.Errorf("tie should break by ascending id, got %+v", rows)
	}
}
