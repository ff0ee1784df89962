// SPDX-License-Identifier: MPL-2.0

// Package dag holds the dependency graph used to place modules. Nodes are
// stored in an arena and addressed by insertion index; edges point from a
// dependent node to the node it depends on. Required edges constrain
// placement, optional edges are recorded for later refinement.
package dag

import (
	"fmt"
	"strings"
)

const (
	unvisited mark = iota
	inProgress
	placed
)

type (
	// CycleError indicates that required edges form a cycle.
	CycleError struct {
		// Node is the node reached again while still in progress.
		Node string
		// Path lists the traversal from the first occurrence of Node back to
		// Node itself.
		Path []string
	}

	// Graph is a directed dependency graph over string-named nodes.
	Graph struct {
		names    []string
		index    map[string]int
		required [][]int
		optional [][]int
	}

	mark uint8
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode adds a node and returns its index. Adding an existing node returns
// the existing index.
func (g *Graph) AddNode(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.names = append(g.names, name)
	g.index[name] = i
	g.required = append(g.required, nil)
	g.optional = append(g.optional, nil)
	return i
}

// AddRequired records that from requires to. Both nodes are added if absent.
// It reports whether a new edge was recorded.
func (g *Graph) AddRequired(from, to string) bool {
	f, t := g.AddNode(from), g.AddNode(to)
	return appendUnique(&g.required[f], t)
}

// AddOptional records that from optionally uses to. It reports whether a new
// edge was recorded.
func (g *Graph) AddOptional(from, to string) bool {
	f, t := g.AddNode(from), g.AddNode(to)
	return appendUnique(&g.optional[f], t)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.names) }

// Name returns the name of node i.
func (g *Graph) Name(i int) string { return g.names[i] }

// Index returns the index of the named node.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Required returns the required targets of node i in insertion order.
// The returned slice must not be modified.
func (g *Graph) Required(i int) []int { return g.required[i] }

// Optional returns the optional targets of node i in insertion order.
// The returned slice must not be modified.
func (g *Graph) Optional(i int) []int { return g.optional[i] }

// Place returns node indices such that every node appears after all of its
// required targets. Nodes are visited in insertion order and each node's
// requirements are placed depth-first in the order they were added, so the
// result is deterministic for a given insertion sequence.
func (g *Graph) Place() ([]int, error) {
	marks := make([]mark, len(g.names))
	out := make([]int, 0, len(g.names))
	var stack []int

	var visit func(n int) error
	visit = func(n int) error {
		switch marks[n] {
		case placed:
			return nil
		case inProgress:
			return g.cycleFrom(stack, n)
		}
		marks[n] = inProgress
		stack = append(stack, n)
		for _, dep := range g.required[n] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		marks[n] = placed
		out = append(out, n)
		return nil
	}

	for n := range g.names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *Graph) cycleFrom(stack []int, n int) *CycleError {
	start := 0
	for i, s := range stack {
		if s == n {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, s := range stack[start:] {
		path = append(path, g.names[s])
	}
	path = append(path, g.names[n])
	return &CycleError{Node: g.names[n], Path: path}
}

func appendUnique(edges *[]int, t int) bool {
	for _, e := range *edges {
		if e == t {
			return false
		}
	}
	*edges = append(*edges, t)
	return true
}
