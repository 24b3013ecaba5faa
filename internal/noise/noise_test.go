package noise

import (
	"errors"
	"testing"
)

func TestWhiten(t *testing.T) {
	tests := []struct {
		name  string
		model *Model
		in    []float64
		want  []float64
	}{
		{"unit", Unit(), []float64{1, -2}, []float64{1, -2}},
		{"isotropic", Isotropic(0.5), []float64{1, -2}, []float64{2, -4}},
		{"diagonal", Diagonal(1, 0.1), []float64{1, 1}, []float64{1, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.model.Whiten(append([]float64(nil), tt.in...))
			for i := range got {
				if diff := got[i] - tt.want[i]; diff > 1e-12 || diff < -1e-12 {
					t.Errorf("row %d: got %g, want %g", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Isotropic(1).Check(6); err != nil {
		t.Errorf("isotropic should accept any dimension: %v", err)
	}
	if err := Diagonal(1, 2).Check(3); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
	if Constrained().Sigma(3) != ConstrainedSigma {
		t.Error("constrained sigma mismatch")
	}
}

func TestInvalidSigmaPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Isotropic(0)
}

func TestIsConstrained(t *testing.T) {
	if !Constrained().IsConstrained() {
		t.Error("constrained model not reported as constrained")
	}
	if Isotropic(ConstrainedSigma).IsConstrained() {
		t.Error("isotropic model reported as constrained")
	}
}
