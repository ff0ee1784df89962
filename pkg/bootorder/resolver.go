// SPDX-License-Identifier: MPL-2.0

package bootorder

import (
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bootkit/bootkit/internal/dag"
	"github.com/bootkit/bootkit/pkg/module"
)

type (
	// Resolver computes bootstrap orders. The zero value is not usable; use
	// NewResolver.
	Resolver struct {
		logger *log.Logger
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// moduleSet is the validated input of one resolution. Module i is node i
	// of the effective graph.
	moduleSet struct {
		modules []module.Descriptor
		index   map[string]int
	}
)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the bootstrap order of modules with a default Resolver.
func Resolve(modules []module.Descriptor, pruneDisabled bool) (*Order, error) {
	return NewResolver().Resolve(modules, pruneDisabled)
}

// Resolve validates modules and returns their bootstrap order. When
// pruneDisabled is set, disabled modules are dropped from the result.
//
// Errors are returned as *module.DuplicateModuleError,
// *MissingDependencyError, *DisabledDependencyError, *CyclicDependencyError
// or *VerificationError.
func (r *Resolver) Resolve(modules []module.Descriptor, pruneDisabled bool) (*Order, error) {
	if err := module.ValidateSet(modules); err != nil {
		return nil, err
	}

	set := newModuleSet(modules)
	if err := set.validateDependencies(); err != nil {
		return nil, err
	}

	g, edges := set.effectiveGraph()
	placed, err := g.Place()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &CyclicDependencyError{Module: cycleErr.Node, Path: cycleErr.Path}
		}
		return nil, err
	}

	refined, moves := refine(g, set.modules, placed)
	verified, err := verify(g, set.modules, refined)
	if err != nil {
		return nil, err
	}

	ordered := make([]module.Descriptor, 0, len(verified))
	for _, n := range verified {
		m := set.modules[n]
		if pruneDisabled && !m.Enabled {
			continue
		}
		ordered = append(ordered, m)
	}

	requires := make(map[string][]string, len(set.modules))
	for i, m := range set.modules {
		deps := g.Required(i)
		names := make([]string, len(deps))
		for j, d := range deps {
			names[j] = g.Name(d)
		}
		requires[m.Name] = names
	}

	graph := set.exportGraph(edges, ordered)
	order := newOrder(ordered, requires, graph)

	r.logger.Debug("resolved bootstrap order",
		"modules", len(ordered),
		"pruned", len(set.modules)-len(ordered),
		"optionalMoves", moves,
		"order", order.String())

	return order, nil
}

func newModuleSet(modules []module.Descriptor) *moduleSet {
	s := &moduleSet{
		modules: make([]module.Descriptor, len(modules)),
		index:   make(map[string]int, len(modules)),
	}
	for i, m := range modules {
		s.modules[i] = m.Normalized()
		s.index[m.Name] = i
	}
	return s
}

func (s *moduleSet) lookup(name string) (module.Descriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return module.Descriptor{}, false
	}
	return s.modules[i], true
}

// validateDependencies checks declared required edges in registration order
// and returns the first failure.
func (s *moduleSet) validateDependencies() error {
	for _, m := range s.modules {
		for _, dep := range m.Required {
			target, ok := s.lookup(dep)
			if !ok {
				return &MissingDependencyError{Module: m.Name, Dependency: dep}
			}
			if m.Enabled && !target.Enabled {
				return &DisabledDependencyError{Module: m.Name, Dependency: dep}
			}
		}
	}
	return nil
}

// effectiveGraph builds the required and optional edges that placement and
// refinement work on. For every module the required edges are, in order:
// implicit edges to enabled infrastructure modules, declared required edges,
// then (for post-processors) implicit edges to every enabled
// non-post-processor module. Edges from a non-post-processor toward a
// post-processor are dropped.
func (s *moduleSet) effectiveGraph() (*dag.Graph, []GraphEdge) {
	g := dag.New()
	for _, m := range s.modules {
		g.AddNode(m.Name)
	}

	var infra, regular []string
	for _, m := range s.modules {
		if !m.Enabled {
			continue
		}
		if m.IsInfrastructure() {
			infra = append(infra, m.Name)
		}
		if !m.IsPostProcessor() {
			regular = append(regular, m.Name)
		}
	}

	var edges []GraphEdge
	addRequired := func(from, to string, kind EdgeKind) {
		if g.AddRequired(from, to) {
			edges = append(edges, GraphEdge{From: from, To: to, Kind: kind})
		}
	}

	for _, m := range s.modules {
		if m.Enabled && !m.IsInfrastructure() {
			for _, name := range infra {
				kind := EdgeInfrastructure
				if slices.Contains(m.Required, name) {
					kind = EdgeRequired
				}
				addRequired(m.Name, name, kind)
			}
		}

		for _, dep := range m.Required {
			if s.defersTo(m, dep) {
				continue
			}
			addRequired(m.Name, dep, EdgeRequired)
		}

		if m.Enabled && m.IsPostProcessor() {
			for _, name := range regular {
				addRequired(m.Name, name, EdgePostProcessor)
			}
		}

		for _, dep := range m.Optional {
			if _, ok := s.lookup(dep); !ok || s.defersTo(m, dep) {
				continue
			}
			if g.AddOptional(m.Name, dep) {
				edges = append(edges, GraphEdge{From: m.Name, To: dep, Kind: EdgeOptional})
			}
		}
	}
	return g, edges
}

// defersTo reports whether an edge from m to dep is discarded because dep is
// a post-processor and m is not.
func (s *moduleSet) defersTo(m module.Descriptor, dep string) bool {
	target, ok := s.lookup(dep)
	return ok && target.IsPostProcessor() && !m.IsPostProcessor()
}

func (s *moduleSet) exportGraph(edges []GraphEdge, ordered []module.Descriptor) Graph {
	g := Graph{
		Nodes: make([]GraphNode, len(s.modules)),
		Edges: slices.Clone(edges),
		Order: make([]string, len(ordered)),
	}
	for i, m := range s.modules {
		g.Nodes[i] = GraphNode{Name: m.Name, Role: m.Role, Enabled: m.Enabled}
	}
	for i, m := range ordered {
		g.Order[i] = m.Name
	}
	return g
}

// refine pulls optional dependencies in front of their dependents until a
// full scan moves nothing. An optional edge of module m toward d moves d to
// m's position only when d sits after m and all of d's required dependencies
// sit before m. When optional edges form a cycle the scans can revisit an
// order; refinement stops at the first order seen twice. It returns the
// refined order and the number of moves applied.
func refine(g *dag.Graph, modules []module.Descriptor, placed []int) ([]int, int) {
	order := slices.Clone(placed)
	pos := make([]int, g.Len())
	reindex := func() {
		for p, n := range order {
			pos[n] = p
		}
	}
	reindex()

	seen := make(map[string]bool)
	moves := 0
	for changed := true; changed; {
		key := orderKey(order)
		if seen[key] {
			break
		}
		seen[key] = true

		changed = false
		for m, desc := range modules {
			if !desc.Enabled || desc.IsInfrastructure() || desc.IsPostProcessor() {
				continue
			}
			for _, d := range g.Optional(m) {
				target := modules[d]
				if !target.Enabled || target.IsInfrastructure() {
					continue
				}
				if pos[d] <= pos[m] || !requiredBefore(g, d, pos, pos[m]) {
					continue
				}
				relocate(order, pos[d], pos[m])
				reindex()
				moves++
				changed = true
			}
		}
	}
	return order, moves
}

// orderKey encodes an order of node indexes as a map key.
func orderKey(order []int) string {
	var b strings.Builder
	for _, n := range order {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(',')
	}
	return b.String()
}

func requiredBefore(g *dag.Graph, n int, pos []int, limit int) bool {
	for _, dep := range g.Required(n) {
		if pos[dep] >= limit {
			return false
		}
	}
	return true
}

// relocate moves order[from] to index to, shifting order[to:from] right.
func relocate(order []int, from, to int) {
	n := order[from]
	copy(order[to+1:from+1], order[to:from])
	order[to] = n
}

// verify walks the order, drops repeated entries and confirms every module
// comes after all of its effective required dependencies.
func verify(g *dag.Graph, modules []module.Descriptor, order []int) ([]int, error) {
	seen := make([]bool, len(modules))
	out := make([]int, 0, len(order))
	for _, n := range order {
		if seen[n] {
			continue
		}
		for _, dep := range g.Required(n) {
			if !seen[dep] {
				return nil, &VerificationError{Module: modules[n].Name, Dependency: modules[dep].Name}
			}
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}
