package sim

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{Q: []float64{1}, V: []float64{2}, A: []float64{3}}, true},
		{"NaN angle", State{Q: []float64{math.NaN()}}, false},
		{"+Inf velocity", State{V: []float64{1, math.Inf(1)}}, false},
		{"-Inf acceleration", State{A: []float64{math.Inf(-1)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Clone(t *testing.T) {
	s := State{Step: 3, Q: []float64{1}, V: []float64{2}, A: []float64{3}}
	c := s.Clone()
	c.Q[0] = 99
	if s.Q[0] != 1 {
		t.Error("Clone did not copy angles")
	}
	if c.Step != 3 {
		t.Errorf("Clone step = %d, want 3", c.Step)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"zero dt", Config{Dt: 0, Steps: 10}, false},
		{"negative dt", Config{Dt: -0.1, Steps: 10}, false},
		{"zero steps", Config{Dt: 0.1, Steps: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, ok = %v", err, tt.ok)
			}
		})
	}
}

func TestSimError(t *testing.T) {
	err := &SimError{Step: 150, Message: "test error"}
	if got, want := err.Error(), "step 150: test error"; got != want {
		t.Errorf("SimError.Error() = %q, want %q", got, want)
	}
	cause := errors.New("boom")
	wrapped := &SimError{Step: 2, Message: "forward dynamics", Wrapped: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("SimError does not unwrap")
	}
}

func TestResultColumn(t *testing.T) {
	r := &Result{
		States: []State{
			{Q: []float64{1, 2}, V: []float64{3, 4}, A: []float64{5, 6}},
			{Q: []float64{7, 8}, V: []float64{9, 10}, A: []float64{11, 12}},
		},
		Torques: [][]float64{{0.1, 0.2}, {0.3, 0.4}},
	}
	for what, want := range map[byte][]float64{
		'q': {2, 8}, 'v': {4, 10}, 'a': {6, 12}, 't': {0.2, 0.4},
	} {
		got := r.Column(what, 1)
		if got[0] != want[0] || got[1] != want[1] {
			t.Errorf("Column(%c) = %v, want %v", what, got, want)
		}
	}
}
