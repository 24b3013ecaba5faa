package factor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/linear"
	"github.com/san-kum/dyngraph/internal/values"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type Graph struct {
	factors []Factor
}

func NewGraph(fs ...Factor) *Graph {
	return &Graph{factors: append([]Factor(nil), fs...)}
}

func (g *Graph) Add(fs ...Factor)  { g.factors = append(g.factors, fs...) }
func (g *Graph) Merge(o *Graph)    { g.factors = append(g.factors, o.factors...) }
func (g *Graph) Factors() []Factor { return g.factors }
func (g *Graph) Len() int          { return len(g.factors) }
func (g *Graph) At(i int) Factor   { return g.factors[i] }

// Keys returns every key referenced by the graph, ascending.
func (g *Graph) Keys() []keys.Key {
	set := make(map[keys.Key]struct{})
	for _, f := range g.factors {
		for _, k := range f.Keys() {
			set[k] = struct{}{}
		}
	}
	out := make([]keys.Key, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Error sums the factor errors at v.
func (g *Graph) Error(v *values.Values) (float64, error) {
	total := 0.0
	for i, f := range g.factors {
		e, err := Error(f, v)
		if err != nil {
			return 0, errors.Wrapf(err, "factor %d", i)
		}
		total += e
	}
	return total, nil
}

// Linearize builds the Gaussian graph J·δ = −r around v.
func (g *Graph) Linearize(v *values.Values) (*linear.Graph, error) {
	lg := linear.NewGraph()
	for i, f := range g.factors {
		lf, err := Linearize(f, v)
		if err != nil {
			return nil, errors.Wrapf(err, "factor %d", i)
		}
		lg.Add(lf)
	}
	return lg, nil
}

// Components groups the graph's keys into connected islands. A well-posed
// problem has exactly one.
func (g *Graph) Components() [][]keys.Key {
	all := g.Keys()
	ids := make(map[keys.Key]int64, len(all))
	ug := simple.NewUndirectedGraph()
	for i, k := range all {
		ids[k] = int64(i)
		ug.AddNode(simple.Node(i))
	}
	for _, f := range g.factors {
		ks := f.Keys()
		if len(ks) == 0 {
			continue
		}
		for _, k := range ks[1:] {
			if k == ks[0] {
				continue
			}
			ug.SetEdge(simple.Edge{F: simple.Node(ids[ks[0]]), T: simple.Node(ids[k])})
		}
	}

	var out [][]keys.Key
	for _, comp := range topo.ConnectedComponents(ug) {
		group := make([]keys.Key, len(comp))
		for i, n := range comp {
			group[i] = all[n.ID()]
		}
		sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Summary counts factors by constraint name.
func (g *Graph) Summary() map[string]int {
	out := make(map[string]int)
	for _, f := range g.factors {
		out[NameOf(f)]++
	}
	return out
}

// NameOf returns the constraint category of f.
func NameOf(f Factor) string {
	if n, ok := f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", f)
}

func (g *Graph) String() string {
	var b strings.Builder
	for i, f := range g.factors {
		names := make([]string, len(f.Keys()))
		for j, k := range f.Keys() {
			names[j] = k.String()
		}
		fmt.Fprintf(&b, "%d %s(%s) %v\n", i, NameOf(f), strings.Join(names, ", "), f.Model())
	}
	return b.String()
}
