// Package dag builds the dependency graph of a logic map.
// It supports cycle detection, topological ordering and minimal dependency
// subgraphs for a set of target fields.
//
// Every traversal runs on an explicit work stack with call-local visited
// marks, so a built Graph is safe for concurrent reads and deep dependency
// chains never exhaust the goroutine stack.
package dag

import (
	"errors"

	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/leapstack-labs/vcol/pkg/token"
)

// Node is a field in the dependency graph.
type Node struct {
	// Name is the field name.
	Name string
	// Edges lists the fields this one references, deduplicated, in order
	// of first appearance.
	Edges []string
	// Real is fixed at creation: true iff the field's logic entry is empty.
	Real bool

	seq int
}

// Seq returns the creation sequence number used for tie-breaking.
func (n *Node) Seq() int {
	return n.seq
}

// Property summarizes a node for display.
type Property struct {
	Name    string
	Edges   []string
	Derived bool
}

// Graph is the dependency graph of a logic map. It is immutable once built.
type Graph struct {
	nodes      map[string]*Node
	order      []string            // creation order
	dependents map[string][]string // field -> fields referencing it
	topo       []string
}

func newGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		dependents: make(map[string][]string),
	}
}

// Build constructs the graph for logic. Every reference to a name without a
// logic entry is collected and reported together; a circular dependency is
// reported as a *CycleError.
func Build(logic *core.Logic) (*Graph, error) {
	g := newGraph()
	var errs []error

	for _, e := range logic.Entries() {
		node := g.node(e.Field, logic)
		for _, ref := range token.FieldRefs(e.Tokens) {
			if !logic.Has(ref) {
				errs = append(errs, &UndefinedFieldError{Field: e.Field, Ref: ref})
				continue
			}
			g.node(ref, logic)
			g.addEdge(node, ref)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if path := g.findCycle(); path != nil {
		return nil, &CycleError{Path: path}
	}

	g.topo = g.postorder(g.order)
	return g, nil
}

// node returns the node for name, creating it on first sight. The
// classification comes from the logic map, not from the order in which
// entries are visited.
func (g *Graph) node(name string, logic *core.Logic) *Node {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	toks, _ := logic.Get(name)
	n := &Node{Name: name, Real: len(toks) == 0, seq: len(g.order)}
	g.nodes[name] = n
	g.order = append(g.order, name)
	return n
}

func (g *Graph) addEdge(from *Node, to string) {
	for _, e := range from.Edges {
		if e == to {
			return
		}
	}
	from.Edges = append(from.Edges, to)
	g.dependents[to] = append(g.dependents[to], from.Name)
}

type color uint8

const (
	white color = iota
	gray
	black
)

type frame struct {
	name string
	next int
}

// findCycle runs a color-marking DFS and returns the first cycle found.
func (g *Graph) findCycle() []string {
	colors := make(map[string]color, len(g.nodes))

	for _, start := range g.order {
		if colors[start] != white {
			continue
		}
		stack := []frame{{name: start}}
		colors[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.nodes[top.name].Edges
			if top.next == len(edges) {
				colors[top.name] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := edges[top.next]
			top.next++

			switch colors[child] {
			case white:
				colors[child] = gray
				stack = append(stack, frame{name: child})
			case gray:
				return cyclePath(stack, child)
			}
		}
	}
	return nil
}

func cyclePath(stack []frame, back string) []string {
	i := len(stack) - 1
	for stack[i].name != back {
		i--
	}
	path := make([]string, 0, len(stack)-i+1)
	for _, f := range stack[i:] {
		path = append(path, f.name)
	}
	return append(path, back)
}

// postorder emits every node reachable from starts after all of its
// dependencies. Starts are processed in order and children in edge order.
func (g *Graph) postorder(starts []string) []string {
	visited := make(map[string]bool)
	var out []string

	for _, start := range starts {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []frame{{name: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.nodes[top.name].Edges
			if top.next == len(edges) {
				out = append(out, top.name)
				stack = stack[:len(stack)-1]
				continue
			}
			child := edges[top.next]
			top.next++
			if !visited[child] {
				visited[child] = true
				stack = append(stack, frame{name: child})
			}
		}
	}
	return out
}

// TopologicalOrder returns every field with dependencies before dependents.
// Ties are broken by node creation order.
func (g *Graph) TopologicalOrder() []string {
	return append([]string(nil), g.topo...)
}

// Dependency returns the minimal evaluation order for targets and the real
// fields among it. Order holds real leaves, derived intermediates and the
// targets themselves; real keeps the same relative order.
func (g *Graph) Dependency(targets []string) (real, order []string, err error) {
	var errs []error
	for _, t := range targets {
		if _, ok := g.nodes[t]; !ok {
			errs = append(errs, &UndefinedFieldError{Ref: t})
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	order = g.postorder(targets)
	for _, name := range order {
		if g.nodes[name].Real {
			real = append(real, name)
		}
	}
	return real, order, nil
}

// Node returns the node for name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// Dependents returns the fields that reference name directly.
func (g *Graph) Dependents(name string) []string {
	return append([]string(nil), g.dependents[name]...)
}

// Properties returns per-field edges and classification in creation order.
func (g *Graph) Properties() []Property {
	out := make([]Property, len(g.order))
	for i, name := range g.order {
		n := g.nodes[name]
		out[i] = Property{
			Name:    name,
			Edges:   append([]string(nil), n.Edges...),
			Derived: !n.Real,
		}
	}
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		count += len(n.Edges)
	}
	return count
}

// Levels groups fields by execution level. Fields without references are at
// level 0; every other field sits one level above its deepest dependency.
// Fields within a level can be evaluated independently and keep topological
// order.
func (g *Graph) Levels() [][]string {
	level := make(map[string]int, len(g.topo))
	var levels [][]string

	for _, name := range g.topo {
		l := 0
		for _, dep := range g.nodes[name].Edges {
			if level[dep]+1 > l {
				l = level[dep] + 1
			}
		}
		level[name] = l
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], name)
	}
	return levels
}
