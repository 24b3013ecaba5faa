package optimizer

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type Type int

const (
	GaussNewton Type = iota
	LevenbergMarquardt
	Dogleg
)

var typeNames = map[Type]string{
	GaussNewton:        "gauss_newton",
	LevenbergMarquardt: "levenberg_marquardt",
	Dogleg:             "dogleg",
}

var typeAliases = map[string]Type{
	"gn": GaussNewton,
	"lm": LevenbergMarquardt,
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

func (t Type) valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseType accepts the full names and the short forms "gn" and "lm".
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	if t, ok := typeAliases[name]; ok {
		return t, nil
	}
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupportedOptimizer, "%q", name)
}

// Params are passed through to the iteration loop unchanged.
type Params struct {
	Type          Type
	MaxIterations int

	// Iteration stops once the error decrease falls below either tolerance.
	RelativeErrorTol float64
	AbsoluteErrorTol float64

	LambdaInitial    float64
	LambdaFactor     float64
	LambdaUpperBound float64

	DeltaInitial float64
}

func DefaultParams() Params {
	return Params{
		Type:             LevenbergMarquardt,
		MaxIterations:    100,
		RelativeErrorTol: 1e-5,
		AbsoluteErrorTol: 1e-5,
		LambdaInitial:    1e-5,
		LambdaFactor:     10,
		LambdaUpperBound: 1e5,
		DeltaInitial:     1,
	}
}

func (p Params) Validate() error {
	var err error
	if !p.Type.valid() {
		err = multierr.Append(err, errors.Wrapf(ErrUnsupportedOptimizer, "type %d", int(p.Type)))
	}
	if p.MaxIterations <= 0 {
		err = multierr.Append(err, errors.Errorf("optimizer: max iterations must be positive, got %d", p.MaxIterations))
	}
	if p.Type == LevenbergMarquardt && (p.LambdaFactor <= 1 || p.LambdaInitial <= 0) {
		err = multierr.Append(err, errors.New("optimizer: lambda must be positive and its factor above 1"))
	}
	if p.Type == Dogleg && p.DeltaInitial <= 0 {
		err = multierr.Append(err, errors.Errorf("optimizer: initial trust region must be positive, got %g", p.DeltaInitial))
	}
	return err
}
