// SPDX-License-Identifier: MPL-2.0

package bootorder

import (
	"fmt"
	"strings"

	"github.com/bootkit/bootkit/pkg/module"
)

const (
	// EdgeRequired is a declared required dependency.
	EdgeRequired EdgeKind = "required"
	// EdgeOptional is a declared optional dependency that survived filtering.
	EdgeOptional EdgeKind = "optional"
	// EdgeInfrastructure is an implicit edge toward an infrastructure module.
	EdgeInfrastructure EdgeKind = "infrastructure"
	// EdgePostProcessor is an implicit edge from a post-processor module.
	EdgePostProcessor EdgeKind = "post-processor"
)

type (
	// EdgeKind classifies an edge of the effective graph.
	EdgeKind string

	// GraphNode is one module in an exported graph.
	GraphNode struct {
		Name    string      `json:"name"`
		Role    module.Role `json:"role"`
		Enabled bool        `json:"enabled"`
	}

	// GraphEdge means "From depends on To".
	GraphEdge struct {
		From string   `json:"from"`
		To   string   `json:"to"`
		Kind EdgeKind `json:"kind"`
	}

	// Graph is the effective dependency graph of a resolution, with the
	// resulting order. Nodes are listed in registration order.
	Graph struct {
		Nodes []GraphNode `json:"nodes"`
		Edges []GraphEdge `json:"edges"`
		Order []string    `json:"order"`
	}
)

// DOT exports Graphviz DOT text. Optional edges are dashed and implicit
// edges dotted.
func (g Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph bootorder {\n")
	b.WriteString("  rankdir=LR;\n")

	aliases := g.aliases()
	for i, n := range g.Nodes {
		attrs := fmt.Sprintf("label=\"%s\\n(%s)\"", escapeDOT(n.Name), escapeDOT(string(n.Role)))
		if !n.Enabled {
			attrs += ", style=dashed, fontcolor=gray"
		}
		fmt.Fprintf(&b, "  n%d [%s];\n", i, attrs)
	}
	for _, e := range g.Edges {
		from, okFrom := aliases[e.From]
		to, okTo := aliases[e.To]
		if !okFrom || !okTo {
			continue
		}
		switch e.Kind {
		case EdgeOptional:
			fmt.Fprintf(&b, "  %s -> %s [style=dashed];\n", from, to)
		case EdgeInfrastructure, EdgePostProcessor:
			fmt.Fprintf(&b, "  %s -> %s [style=dotted, label=\"%s\"];\n", from, to, e.Kind)
		default:
			fmt.Fprintf(&b, "  %s -> %s;\n", from, to)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid flowchart text.
func (g Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	aliases := g.aliases()
	for i, n := range g.Nodes {
		label := escapeMermaid(n.Name) + "<br/>(" + escapeMermaid(string(n.Role)) + ")"
		if !n.Enabled {
			label += "<br/>disabled"
		}
		fmt.Fprintf(&b, "    n%d[\"%s\"]\n", i, label)
	}
	for _, e := range g.Edges {
		from, okFrom := aliases[e.From]
		to, okTo := aliases[e.To]
		if !okFrom || !okTo {
			continue
		}
		switch e.Kind {
		case EdgeOptional:
			fmt.Fprintf(&b, "    %s -.-> %s\n", from, to)
		case EdgeInfrastructure, EdgePostProcessor:
			fmt.Fprintf(&b, "    %s -. %s .-> %s\n", from, e.Kind, to)
		default:
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
		}
	}
	return b.String()
}

func (g Graph) aliases() map[string]string {
	aliases := make(map[string]string, len(g.Nodes))
	for i, n := range g.Nodes {
		aliases[n.Name] = fmt.Sprintf("n%d", i)
	}
	return aliases
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
