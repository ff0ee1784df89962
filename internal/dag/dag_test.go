// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func names(g *Graph, idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.Name(n)
	}
	return out
}

func TestPlace_EmptyGraph(t *testing.T) {
	t.Parallel()
	order, err := New().Place()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 0 {
		t.Errorf("expected empty order, got %v", order)
	}
}

func TestPlace_InsertionOrderWithoutEdges(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("C")
	g.AddNode("A")
	g.AddNode("B")

	order, err := g.Place()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(g, order); !slices.Equal(got, []string{"C", "A", "B"}) {
		t.Errorf("expected [C A B], got %v", got)
	}
}

func TestPlace_DependenciesFirst(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("web")
	g.AddNode("core")
	g.AddNode("db")
	// web requires core and db; core requires db
	g.AddRequired("web", "core")
	g.AddRequired("web", "db")
	g.AddRequired("core", "db")

	order, err := g.Place()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(g, order); !slices.Equal(got, []string{"db", "core", "web"}) {
		t.Errorf("expected [db core web], got %v", got)
	}
}

func TestPlace_OptionalEdgesDoNotConstrain(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddOptional("a", "b")
	g.AddOptional("b", "a")

	order, err := g.Place()
	if err != nil {
		t.Fatalf("optional cycle must not fail placement: %v", err)
	}
	if got := names(g, order); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestPlace_Cycle(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddRequired("A", "B")
	g.AddRequired("B", "A")

	_, err := g.Place()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if cycleErr.Node != "A" {
		t.Errorf("Node = %q, want A", cycleErr.Node)
	}
	if !slices.Equal(cycleErr.Path, []string{"A", "B", "A"}) {
		t.Errorf("Path = %v, want [A B A]", cycleErr.Path)
	}
}

func TestPlace_SelfLoop(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddRequired("X", "X")

	_, err := g.Place()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
	if cycleErr.Node != "X" || !slices.Equal(cycleErr.Path, []string{"X", "X"}) {
		t.Errorf("unexpected cycle: %+v", cycleErr)
	}
}

func TestAddRequired_Dedupes(t *testing.T) {
	t.Parallel()
	g := New()
	if !g.AddRequired("a", "b") {
		t.Fatal("first edge should be recorded")
	}
	if g.AddRequired("a", "b") {
		t.Error("duplicate edge should not be recorded")
	}
	a, _ := g.Index("a")
	if len(g.Required(a)) != 1 {
		t.Errorf("expected one required edge, got %v", g.Required(a))
	}
}
