// Package values stores solution assignments: one scalar, 6-vector or
// pose per variable key.
package values

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/spatial"
)

var (
	ErrDuplicateKey = errors.New("values: key already present")
	ErrMissingKey   = errors.New("values: key not found")
	ErrWrongType    = errors.New("values: stored value has a different type")
)

// Value is the set of variable types a key can hold.
type Value interface {
	float64 | spatial.Vector6 | spatial.Pose
}

type Values struct {
	m map[keys.Key]any
}

func New() *Values {
	return &Values{m: make(map[keys.Key]any)}
}

func (v *Values) Len() int { return len(v.m) }

func (v *Values) Exists(k keys.Key) bool {
	_, ok := v.m[k]
	return ok
}

// Keys returns all keys in ascending order.
func (v *Values) Keys() []keys.Key {
	out := make([]keys.Key, 0, len(v.m))
	for k := range v.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Insert adds a new key, failing if it already exists.
func Insert[T Value](v *Values, k keys.Key, x T) error {
	if _, ok := v.m[k]; ok {
		return errors.Wrapf(ErrDuplicateKey, "%s", k)
	}
	v.m[k] = x
	return nil
}

// Set adds or replaces a key.
func Set[T Value](v *Values, k keys.Key, x T) {
	v.m[k] = x
}

func Get[T Value](v *Values, k keys.Key) (T, error) {
	var zero T
	raw, ok := v.m[k]
	if !ok {
		return zero, errors.Wrapf(ErrMissingKey, "%s", k)
	}
	x, ok := raw.(T)
	if !ok {
		return zero, errors.Wrapf(ErrWrongType, "%s holds %T, want %T", k, raw, zero)
	}
	return x, nil
}

// MustGet is Get for keys whose presence was already checked.
func MustGet[T Value](v *Values, k keys.Key) T {
	x, err := Get[T](v, k)
	if err != nil {
		panic(err)
	}
	return x
}

func (v *Values) Double(k keys.Key) (float64, error)         { return Get[float64](v, k) }
func (v *Values) Vector(k keys.Key) (spatial.Vector6, error) { return Get[spatial.Vector6](v, k) }
func (v *Values) Pose(k keys.Key) (spatial.Pose, error)      { return Get[spatial.Pose](v, k) }

// Dim returns the tangent dimension of the value stored at k.
func (v *Values) Dim(k keys.Key) int {
	switch v.m[k].(type) {
	case float64:
		return 1
	case spatial.Vector6, spatial.Pose:
		return 6
	}
	return 0
}

// Merge inserts every key of o, failing on the first duplicate.
func (v *Values) Merge(o *Values) error {
	for k, x := range o.m {
		if _, ok := v.m[k]; ok {
			return errors.Wrapf(ErrDuplicateKey, "%s", k)
		}
		v.m[k] = x
	}
	return nil
}

func (v *Values) Clone() *Values {
	c := &Values{m: make(map[keys.Key]any, len(v.m))}
	for k, x := range v.m {
		c.m[k] = x
	}
	return c
}

// Subset copies only the given keys.
func (v *Values) Subset(ks []keys.Key) (*Values, error) {
	c := &Values{m: make(map[keys.Key]any, len(ks))}
	for _, k := range ks {
		x, ok := v.m[k]
		if !ok {
			return nil, errors.Wrapf(ErrMissingKey, "%s", k)
		}
		c.m[k] = x
	}
	return c, nil
}

// RetractKey applies a tangent update to one variable in place.
func (v *Values) RetractKey(k keys.Key, delta []float64) error {
	switch x := v.m[k].(type) {
	case float64:
		v.m[k] = x + delta[0]
	case spatial.Vector6:
		var d spatial.Vector6
		copy(d[:], delta)
		v.m[k] = x.Add(d)
	case spatial.Pose:
		var d spatial.Vector6
		copy(d[:], delta)
		v.m[k] = x.Retract(d)
	case nil:
		return errors.Wrapf(ErrMissingKey, "%s", k)
	default:
		return errors.Errorf("values: cannot retract %T", x)
	}
	return nil
}

// Retract returns a copy with every update in delta applied.
func (v *Values) Retract(delta map[keys.Key][]float64) (*Values, error) {
	c := v.Clone()
	for k, d := range delta {
		if err := c.RetractKey(k, d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (v *Values) String() string {
	s := ""
	for _, k := range v.Keys() {
		s += fmt.Sprintf("%s: %v\n", k, v.m[k])
	}
	return s
}
