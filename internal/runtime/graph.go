package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// ErrUnknownTarget is returned when an edge points at a node that does not exist.
var ErrUnknownTarget = errors.New("edge target is not a node")

// NodeFunc executes a node against a copy of the state. The input for this
// step is in state.LastUserInput; it is empty when the node is being primed.
type NodeFunc func(ctx context.Context, state domain.State) (Result, error)

// Result is a node's output.
type Result struct {
	// State replaces the live state wholesale.
	State domain.State
	// Next overrides edge resolution when set.
	Next string
	// Hold keeps the node active and waits for the next input.
	Hold bool
}

// Node is a named unit of work in the graph.
type Node struct {
	ID   string
	Kind domain.NodeKind
	Run  NodeFunc
}

// Edge is either Fixed or Conditional.
type Edge interface {
	targets() []string
}

// Fixed always leads to Target.
type Fixed struct {
	Target string
}

func (f Fixed) targets() []string { return []string{f.Target} }

// Conditional picks the target from the latest state every time it is
// traversed. Targets lists every id Resolve may return.
type Conditional struct {
	Resolve func(domain.State) string
	Targets []string
	Label   string
}

func (c Conditional) targets() []string { return c.Targets }

// Graph is an immutable node and edge table.
type Graph struct {
	entry string
	order []string
	nodes map[string]Node
	edges map[string]Edge
}

// Builder assembles a Graph.
type Builder struct {
	g    *Graph
	errs []error
}

// NewBuilder starts a graph whose first node is entry.
func NewBuilder(entry string) *Builder {
	return &Builder{g: &Graph{
		entry: entry,
		nodes: make(map[string]Node),
		edges: make(map[string]Edge),
	}}
}

// Node registers a node.
func (b *Builder) Node(id string, kind domain.NodeKind, run NodeFunc) *Builder {
	if _, dup := b.g.nodes[id]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", id))
		return b
	}
	b.g.nodes[id] = Node{ID: id, Kind: kind, Run: run}
	b.g.order = append(b.g.order, id)
	return b
}

// Edge sets the outgoing edge of from.
func (b *Builder) Edge(from string, e Edge) *Builder {
	if _, dup := b.g.edges[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an edge", from))
		return b
	}
	b.g.edges[from] = e
	return b
}

// Build validates that every edge connects known nodes.
func (b *Builder) Build() (*Graph, error) {
	g := b.g
	if _, ok := g.nodes[g.entry]; !ok {
		b.errs = append(b.errs, fmt.Errorf("entry node %q is not registered", g.entry))
	}
	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			b.errs = append(b.errs, fmt.Errorf("edge from unknown node %q", from))
		}
		for _, to := range e.targets() {
			if !g.valid(to) {
				b.errs = append(b.errs, fmt.Errorf("%w: %s -> %s", ErrUnknownTarget, from, to))
			}
		}
	}
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) valid(id string) bool {
	if id == domain.NodeEnd {
		return true
	}
	_, ok := g.nodes[id]
	return ok
}

// Entry returns the first node.
func (g *Graph) Entry() Node {
	return g.nodes[g.entry]
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Resolve follows the edge out of from for the given state.
// Conditional edges are evaluated on every call.
func (g *Graph) Resolve(from string, s domain.State) (string, error) {
	var to string
	switch e := g.edges[from].(type) {
	case Fixed:
		to = e.Target
	case Conditional:
		to = e.Resolve(s)
		if !slices.Contains(e.Targets, to) {
			return "", fmt.Errorf("%w: %s resolved to %q", ErrUnknownTarget, from, to)
		}
	case nil:
		return "", fmt.Errorf("node %q has no outgoing edge", from)
	}
	if !g.valid(to) {
		return "", fmt.Errorf("%w: %s -> %s", ErrUnknownTarget, from, to)
	}
	return to, nil
}

// Export describes the topology for diagram renderers.
func (g *Graph) Export() domain.GraphExport {
	out := domain.GraphExport{Entry: g.entry}
	for _, id := range g.order {
		out.Nodes = append(out.Nodes, domain.NodeInfo{ID: id, Kind: g.nodes[id].Kind})
		switch e := g.edges[id].(type) {
		case Fixed:
			out.Edges = append(out.Edges, domain.EdgeInfo{Source: id, Targets: []string{e.Target}})
		case Conditional:
			out.Edges = append(out.Edges, domain.EdgeInfo{
				Source:      id,
				Targets:     slices.Clone(e.Targets),
				Conditional: true,
				Label:       e.Label,
			})
		}
	}
	return out
}
