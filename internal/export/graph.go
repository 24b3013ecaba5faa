package export

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/values"
)

type Variable struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Location []float64 `json:"location,omitempty"`
	Value    []float64 `json:"value,omitempty"`
}

type Factor struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
}

// Graph is the JSON form of a located factor graph.
type Graph struct {
	Variables []Variable `json:"variables"`
	Factors   []Factor   `json:"factors"`
}

// valueOf flattens a variable; poses become translation then row-major
// rotation.
func valueOf(v *values.Values, k keys.Key) ([]float64, error) {
	if k.Kind().Dim() == 1 {
		x, err := v.Double(k)
		return []float64{x}, err
	}
	if k.Kind() == keys.Pose {
		p, err := v.Pose(k)
		if err != nil {
			return nil, err
		}
		return append([]float64{p.P.X, p.P.Y, p.P.Z}, p.R[:]...), nil
	}
	x, err := v.Vector(k)
	return append([]float64(nil), x[:]...), err
}

// NewGraph collects every key of g. Values and locations are optional and
// attached where present.
func NewGraph(g *factor.Graph, v *values.Values, loc map[keys.Key]r3.Vector) (*Graph, error) {
	out := &Graph{Variables: []Variable{}, Factors: make([]Factor, 0, g.Len())}
	ks := g.Keys()
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	for _, k := range ks {
		vr := Variable{Name: k.String(), Kind: k.Kind().String()}
		if p, ok := loc[k]; ok {
			vr.Location = []float64{p.X, p.Y, p.Z}
		}
		if v != nil && v.Exists(k) {
			x, err := valueOf(v, k)
			if err != nil {
				return nil, errors.Wrapf(err, "variable %s", k)
			}
			vr.Value = x
		}
		out.Variables = append(out.Variables, vr)
	}
	for _, f := range g.Factors() {
		names := make([]string, len(f.Keys()))
		for i, k := range f.Keys() {
			names[i] = k.String()
		}
		out.Factors = append(out.Factors, Factor{Name: factor.NameOf(f), Keys: names})
	}
	return out, nil
}

func WriteGraphJSON(w io.Writer, g *factor.Graph, v *values.Values, loc map[keys.Key]r3.Vector) error {
	out, err := NewGraph(g, v, loc)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
