package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rushteam/animerec/catalog"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/utils"
	"github.com/rushteam/animerec/similarity"
	"github.com/rushteam/animerec/store"
)

type stubSource struct {
	name  string
	items []*core.Item
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Recall(ctx context.Context, _ *core.QueryContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func stubItem(id int64, score float64, provenance, source string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.PutLabel(core.LabelProvenance, utils.Label{Value: provenance, Source: source})
	return it
}

func TestFanout_MergeOrderAndDedup(t *testing.T) {
	// source order wins over completion order: the slow first source
	// still lands before the fast second one, and duplicates keep the
	// first occurrence with its provenance
	first := &stubSource{
		name:  "recall.content",
		delay: 20 * time.Millisecond,
		items: []*core.Item{
			stubItem(1, 0.9, core.ProvenanceContent, "recall.content"),
			stubItem(2, 0.8, core.ProvenanceContent, "recall.content"),
		},
	}
	second := &stubSource{
		name: "recall.collab",
		items: []*core.Item{
			stubItem(2, 0.7, core.ProvenanceCollab, "recall.collab"),
			stubItem(3, 0.6, core.ProvenanceCollab, "recall.collab"),
		},
	}

	n := &Fanout{Sources: []Source{first, second}, Dedup: true}
	got, err := n.Process(context.Background(), &core.QueryContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wantIDs := []int64{1, 2, 3}
	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
	if got[1].Provenance() != core.ProvenanceContent {
		t.Errorf("duplicate id 2 provenance = %q, want first-wins %q",
			got[1].Provenance(), core.ProvenanceContent)
	}
}

func TestFanout_SourceFailureIsIsolated(t *testing.T) {
	ok := &stubSource{
		name:  "recall.content",
		items: []*core.Item{stubItem(1, 0.9, core.ProvenanceContent, "recall.content")},
	}
	broken := &stubSource{name: "recall.collab", err: errors.New("boom")}

	n := &Fanout{Sources: []Source{broken, ok}, Dedup: true}
	got, err := n.Process(context.Background(), &core.QueryContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("got = %v, want only the healthy source's item", got)
	}
}

func TestFanout_SlowSourceTimesOut(t *testing.T) {
	slow := &stubSource{
		name:  "recall.collab",
		delay: 200 * time.Millisecond,
		items: []*core.Item{stubItem(9, 0.9, core.ProvenanceCollab, "recall.collab")},
	}
	fast := &stubSource{
		name:  "recall.content",
		items: []*core.Item{stubItem(1, 0.5, core.ProvenanceContent, "recall.content")},
	}

	n := &Fanout{Sources: []Source{slow, fast}, Dedup: true, Timeout: 10 * time.Millisecond}
	got, err := n.Process(context.Background(), &core.QueryContext{}, nil)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("got = %v, want only the fast source's item", got)
	}
}

func recallCatalog() *catalog.Catalog {
	return catalog.New([]core.Anime{
		{ID: 10, Title: "Naruto", Genre: "Action, Shounen", Type: "TV", Rating: 7.8},
		{ID: 20, Title: "Bleach", Genre: "Action, Shounen", Type: "TV", Rating: 7.9},
		{ID: 30, Title: "K-On!", Genre: "Music", Type: "TV", Rating: 7.5},
		{ID: 40, Title: "Your Name.", Genre: "Drama, Romance", Type: "Movie", Rating: 9.1},
	})
}

func TestContentSource_Recall(t *testing.T) {
	c := recallCatalog()
	src := &ContentSource{Catalog: c, Index: similarity.BuildContentIndex(c), Pool: 2}

	qctx := &core.QueryContext{ResolvedIndex: 0, Types: []string{"TV"}}
	got, err := src.Recall(context.Background(), qctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	// pool caps the candidate list; the resolved item itself is excluded
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 20 {
		t.Errorf("got[0].ID = %d, want 20 (strongest content match)", got[0].ID)
	}
	for _, it := range got {
		if it.ID == 10 {
			t.Error("resolved item leaked into its own recommendations")
		}
		if it.Provenance() != core.ProvenanceContent {
			t.Errorf("provenance = %q, want %q", it.Provenance(), core.ProvenanceContent)
		}
		if it.Meta["type"] != "TV" {
			t.Errorf("type filter leaked item %v", it.Meta["title"])
		}
	}
}

func TestContentSource_NoResolvedIndex(t *testing.T) {
	c := recallCatalog()
	src := &ContentSource{Catalog: c, Index: similarity.BuildContentIndex(c)}
	got, err := src.Recall(context.Background(), &core.QueryContext{ResolvedIndex: -1})
	if err != nil || got != nil {
		t.Errorf("Recall() = (%v, %v), want (nil, nil) without a resolved item", got, err)
	}
}

func TestCollabSource_Degrades(t *testing.T) {
	c := recallCatalog()

	t.Run("nil index means no signal", func(t *testing.T) {
		src := &CollabSource{Catalog: c, Index: nil}
		got, err := src.Recall(context.Background(), &core.QueryContext{ResolvedIndex: 0})
		if err != nil || got != nil {
			t.Errorf("Recall() = (%v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("resolved item without ratings means no signal", func(t *testing.T) {
		// only items 20 and 30 ever got rated, item 10 has no column signal
		ci, err := similarity.BuildCollabIndex(context.Background(), []core.Rating{
			{UserID: 1, AnimeID: 20, Score: 8},
			{UserID: 1, AnimeID: 30, Score: 7},
		}, catalog.New([]core.Anime{
			{ID: 20, Title: "Bleach", Genre: "Action", Type: "TV"},
			{ID: 30, Title: "K-On!", Genre: "Music", Type: "TV"},
		}), nil)
		if err != nil {
			t.Fatalf("BuildCollabIndex() error = %v", err)
		}
		src := &CollabSource{Catalog: c, Index: ci}
		got, err := src.Recall(context.Background(), &core.QueryContext{ResolvedIndex: 0})
		if err != nil || got != nil {
			t.Errorf("Recall() = (%v, %v), want (nil, nil)", got, err)
		}
	})
}

func TestCollabSource_Recall(t *testing.T) {
	c := recallCatalog()
	ci, err := similarity.BuildCollabIndex(context.Background(), []core.Rating{
		{UserID: 1, AnimeID: 10, Score: 8},
		{UserID: 1, AnimeID: 20, Score: 8},
		{UserID: 2, AnimeID: 10, Score: 6},
		{UserID: 2, AnimeID: 30, Score: 6},
	}, c, nil)
	if err != nil {
		t.Fatalf("BuildCollabIndex() error = %v", err)
	}

	src := &CollabSource{Catalog: c, Index: ci, Pool: 2}
	got, err := src.Recall(context.Background(), &core.QueryContext{ResolvedIndex: 0})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 20 {
		t.Errorf("got[0].ID = %d, want 20 (shared high ratings)", got[0].ID)
	}
	if got[0].Provenance() != core.ProvenanceCollab {
		t.Errorf("provenance = %q, want %q", got[0].Provenance(), core.ProvenanceCollab)
	}
}

func TestPopularSource_CatalogFallback(t *testing.T) {
	c := recallCatalog()
	src := &PopularSource{Catalog: c}

	got, err := src.Recall(context.Background(), &core.QueryContext{Types: []string{"TV"}})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	// full filtered set sorted by declared rating, no pool truncation
	wantIDs := []int64{20, 10, 30}
	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
		if got[i].Provenance() != core.ProvenancePopularity {
			t.Errorf("provenance = %q, want %q", got[i].Provenance(), core.ProvenancePopularity)
		}
	}
}

func TestPopularSource_StoreHotList(t *testing.T) {
	ctx := context.Background()
	c := recallCatalog()
	st := store.NewMemoryStore()
	defer st.Close()

	if err := st.ZAdd(ctx, "hot:anime", 42, "30"); err != nil {
		t.Fatalf("ZAdd() error = %v", err)
	}
	if err := st.ZAdd(ctx, "hot:anime", 99, "10"); err != nil {
		t.Fatalf("ZAdd() error = %v", err)
	}
	if err := st.ZAdd(ctx, "hot:anime", 7, "999"); err != nil { // not in catalog
		t.Fatalf("ZAdd() error = %v", err)
	}

	src := &PopularSource{Catalog: c, Store: st, Key: "hot:anime"}
	got, err := src.Recall(ctx, &core.QueryContext{})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != 10 || got[1].ID != 30 {
		t.Errorf("got = %v, want hot list order [10, 30]", got)
	}
	if got[0].Score != 99 {
		t.Errorf("score = %v, want zset score 99", got[0].Score)
	}
}
