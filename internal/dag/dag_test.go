package dag

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leapstack-labs/vcol/internal/testutil"
	"github.com/leapstack-labs/vcol/pkg/core"
)

var demoLogic = testutil.DemoLogic

func mustBuild(t *testing.T, logic *core.Logic) *Graph {
	t.Helper()
	g, err := Build(logic)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func TestBuild_Nodes(t *testing.T) {
	g := mustBuild(t, demoLogic())

	if g.NodeCount() != 13 {
		t.Errorf("expected 13 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 17 {
		t.Errorf("expected 17 edges, got %d", g.EdgeCount())
	}

	c, ok := g.Node("c")
	if !ok {
		t.Fatal("expected node c")
	}
	if c.Real {
		t.Error("c should be derived")
	}
	if !reflect.DeepEqual(c.Edges, []string{"i", "j", "k"}) {
		t.Errorf("unexpected edges for c: %v", c.Edges)
	}

	// i is referenced by b before its own entry is reached
	i, _ := g.Node("i")
	if !i.Real {
		t.Error("i should be real")
	}
	if i.Seq() != 1 {
		t.Errorf("expected i to be created second, got seq %d", i.Seq())
	}

	n, _ := g.Node("n")
	if n.Real || len(n.Edges) != 0 {
		t.Errorf("constant field n should be derived with no edges, got %+v", n)
	}
}

func TestBuild_DuplicateReferences(t *testing.T) {
	logic := core.NewLogic().Set("x").Set("sq", "x", "x", "*")
	g := mustBuild(t, logic)

	sq, _ := g.Node("sq")
	if !reflect.DeepEqual(sq.Edges, []string{"x"}) {
		t.Errorf("duplicate edges should be ignored, got %v", sq.Edges)
	}
	if !reflect.DeepEqual(g.Dependents("x"), []string{"sq"}) {
		t.Errorf("unexpected dependents: %v", g.Dependents("x"))
	}
}

func TestBuild_UndefinedFields(t *testing.T) {
	logic := core.NewLogic().
		Set("a", "missing", "c:1", "+").
		Set("b", "a", "other", "*")

	_, err := Build(logic)
	if err == nil {
		t.Fatal("expected error for undefined references")
	}
	if !errors.Is(err, ErrUndefinedField) {
		t.Errorf("expected ErrUndefinedField, got %v", err)
	}

	var undef *UndefinedFieldError
	if !errors.As(err, &undef) || undef.Field != "a" || undef.Ref != "missing" {
		t.Errorf("expected first error to name a -> missing, got %v", undef)
	}

	want := "field \"a\" references undefined field \"missing\"\nfield \"b\" references undefined field \"other\""
	if err.Error() != want {
		t.Errorf("both undefined references should be reported, got %q", err.Error())
	}
}

func TestBuild_Cycle(t *testing.T) {
	logic := core.NewLogic().
		Set("x").
		Set("a", "b", "x", "+").
		Set("b", "c", "c:1", "*").
		Set("c", "a", "c:2", "-")

	_, err := Build(logic)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %T", err)
	}
	if !reflect.DeepEqual(cycle.Path, []string{"a", "b", "c", "a"}) {
		t.Errorf("unexpected cycle path: %v", cycle.Path)
	}
	if err.Error() != "cycle detected: a -> b -> c -> a" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestBuild_SelfReference(t *testing.T) {
	_, err := Build(core.NewLogic().Set("a", "a", "c:1", "+"))

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected *CycleError, got %v", err)
	}
	if !reflect.DeepEqual(cycle.Path, []string{"a", "a"}) {
		t.Errorf("unexpected cycle path: %v", cycle.Path)
	}
}

func TestGraph_TopologicalOrder(t *testing.T) {
	g := mustBuild(t, demoLogic())

	want := []string{"i", "b", "j", "k", "c", "e", "d", "g", "h", "m", "l", "n", "o"}
	got := g.TopologicalOrder()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topological order:\n got  %v\n want %v", got, want)
	}

	// Returned slice is a copy
	got[0] = "mutated"
	if g.TopologicalOrder()[0] != "i" {
		t.Error("TopologicalOrder should return a copy")
	}
}

func TestGraph_TopologicalOrder_Deterministic(t *testing.T) {
	first := mustBuild(t, demoLogic()).TopologicalOrder()
	for i := 0; i < 10; i++ {
		if got := mustBuild(t, demoLogic()).TopologicalOrder(); !reflect.DeepEqual(got, first) {
			t.Fatalf("order changed between builds: %v vs %v", got, first)
		}
	}
}

func TestGraph_Dependency(t *testing.T) {
	g := mustBuild(t, demoLogic())

	tests := []struct {
		name      string
		targets   []string
		wantReal  []string
		wantOrder []string
	}{
		{"comparison chain", []string{"l"}, []string{"j", "k", "h"}, []string{"j", "k", "g", "h", "m", "l"}},
		{"shared leaves", []string{"d", "b"}, []string{"i", "j", "k"}, []string{"i", "j", "k", "e", "d", "b"}},
		{"constant only", []string{"n"}, nil, []string{"n"}},
		{"real target", []string{"h"}, []string{"h"}, []string{"h"}},
		{"duplicate targets", []string{"g", "g"}, []string{"j", "k"}, []string{"j", "k", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			real, order, err := g.Dependency(tt.targets)
			if err != nil {
				t.Fatalf("Dependency failed: %v", err)
			}
			if !reflect.DeepEqual(real, tt.wantReal) {
				t.Errorf("real: got %v, want %v", real, tt.wantReal)
			}
			if !reflect.DeepEqual(order, tt.wantOrder) {
				t.Errorf("order: got %v, want %v", order, tt.wantOrder)
			}
		})
	}
}

func TestGraph_Dependency_UnknownTarget(t *testing.T) {
	g := mustBuild(t, demoLogic())

	_, _, err := g.Dependency([]string{"b", "zz"})
	var undef *UndefinedFieldError
	if !errors.As(err, &undef) || undef.Ref != "zz" {
		t.Fatalf("expected undefined field zz, got %v", err)
	}
	if undef.Error() != `undefined field "zz"` {
		t.Errorf("unexpected message: %s", undef.Error())
	}
}

func TestGraph_Levels(t *testing.T) {
	g := mustBuild(t, demoLogic())

	want := [][]string{
		{"i", "j", "k", "h", "n"},
		{"b", "c", "e", "g", "o"},
		{"d", "m"},
		{"l"},
	}
	if got := g.Levels(); !reflect.DeepEqual(got, want) {
		t.Errorf("levels:\n got  %v\n want %v", got, want)
	}
}

func TestGraph_Properties(t *testing.T) {
	g := mustBuild(t, demoLogic())

	props := g.Properties()
	if len(props) != 13 {
		t.Fatalf("expected 13 properties, got %d", len(props))
	}
	if props[0].Name != "b" || !props[0].Derived || !reflect.DeepEqual(props[0].Edges, []string{"i"}) {
		t.Errorf("unexpected first property: %+v", props[0])
	}
	if props[1].Name != "i" || props[1].Derived {
		t.Errorf("unexpected second property: %+v", props[1])
	}
}

func TestGraph_Nodes_CreationOrder(t *testing.T) {
	g := mustBuild(t, demoLogic())

	var names []string
	for _, n := range g.Nodes() {
		names = append(names, n.Name)
	}
	want := []string{"b", "i", "c", "j", "k", "d", "e", "g", "h", "l", "m", "n", "o"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("creation order: got %v, want %v", names, want)
	}
}

func TestGraph_DeepChain(t *testing.T) {
	const depth = 100000

	logic := core.NewLogic().Set("f0")
	for i := 1; i < depth; i++ {
		logic.Set(fmt.Sprintf("f%d", i), fmt.Sprintf("f%d", i-1), "c:1", "+")
	}

	g := mustBuild(t, logic)
	real, order, err := g.Dependency([]string{fmt.Sprintf("f%d", depth-1)})
	if err != nil {
		t.Fatalf("Dependency failed: %v", err)
	}
	if len(order) != depth || !reflect.DeepEqual(real, []string{"f0"}) {
		t.Errorf("unexpected result: %d fields, real %v", len(order), real)
	}
}

// randomLogic builds an acyclic logic map where field i only references
// fields with a larger index, inserted in shuffled order.
func randomLogic(r *rand.Rand, n int) *core.Logic {
	exprs := make([][]string, n)
	for i := 0; i < n; i++ {
		if i >= n-n/4 || r.Intn(5) == 0 {
			continue
		}
		var toks []string
		refs := 1 + r.Intn(3)
		for k := 0; k < refs; k++ {
			toks = append(toks, fmt.Sprintf("f%d", i+1+r.Intn(n-i-1)))
			if k > 0 {
				toks = append(toks, "+")
			}
		}
		exprs[i] = toks
	}

	logic := core.NewLogic()
	for _, i := range r.Perm(n) {
		logic.Set(fmt.Sprintf("f%d", i), exprs[i]...)
	}
	return logic
}

func TestGraph_RandomAcyclic(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for iter := 0; iter < 50; iter++ {
		logic := randomLogic(r, 5+r.Intn(40))
		g := mustBuild(t, logic)

		order := g.TopologicalOrder()
		if len(order) != logic.Len() {
			t.Fatalf("expected %d fields in order, got %d", logic.Len(), len(order))
		}
		pos := make(map[string]int, len(order))
		for i, name := range order {
			pos[name] = i
		}
		for _, n := range g.Nodes() {
			for _, dep := range n.Edges {
				if pos[dep] >= pos[n.Name] {
					t.Fatalf("%s placed before its dependency %s", n.Name, dep)
				}
			}
		}

		target := order[r.Intn(len(order))]
		real, _, err := g.Dependency([]string{target})
		if err != nil {
			t.Fatalf("Dependency failed: %v", err)
		}
		if got, want := setOf(real), reachableReal(g, target); !reflect.DeepEqual(got, want) {
			t.Fatalf("real fields for %s: got %v, want %v", target, got, want)
		}
	}
}

// reachableReal computes reachable real fields with a plain recursive walk.
func reachableReal(g *Graph, name string) map[string]bool {
	out := make(map[string]bool)
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		node, _ := g.Node(n)
		if node.Real {
			out[n] = true
		}
		for _, e := range node.Edges {
			walk(e)
		}
	}
	walk(name)
	return out
}

func setOf(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
