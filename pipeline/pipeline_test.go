package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/animerec/core"
)

type appendNode struct {
	id  int64
	err error
}

func (n *appendNode) Name() string { return "test.append" }
func (n *appendNode) Kind() Kind   { return KindRecall }

func (n *appendNode) Process(_ context.Context, _ *core.QueryContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_RunsNodesInOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&appendNode{id: 1}, &appendNode{id: 2}, &appendNode{id: 3}}}

	got, err := p.Run(context.Background(), &core.QueryContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, id := range []int64{1, 2, 3} {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestPipeline_NodeErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: 1}, &appendNode{err: boom}, &appendNode{id: 3}}}

	got, err := p.Run(context.Background(), &core.QueryContext{}, nil)
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
	if got != nil {
		t.Errorf("Run() items = %v, want nil on error", got)
	}
}
