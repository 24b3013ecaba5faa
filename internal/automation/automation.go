// Package automation runs scripted sequences of experiments described in
// YAML.
package automation

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/config"
	"github.com/san-kum/dyngraph/internal/experiment"
	"github.com/san-kum/dyngraph/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	KindSimulate = "simulate"
	KindOptimize = "optimize"
)

// Scenario is a named list of experiment steps.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step selects a robot and an optional preset, then overlays Config, which
// has the same layout as a config file and may be partial.
type Step struct {
	Name   string    `yaml:"name"`
	Kind   string    `yaml:"kind"`
	Robot  string    `yaml:"robot"`
	Preset string    `yaml:"preset"`
	Config yaml.Node `yaml:"config"`
	Save   bool      `yaml:"save"`
}

// StepResult pairs a step with its outcome. RunID is empty unless the step
// was saved.
type StepResult struct {
	Step    string
	Outcome *experiment.Outcome
	RunID   string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		if st.Kind == "" {
			st.Kind = KindSimulate
		}
		if st.Kind != KindSimulate && st.Kind != KindOptimize {
			return nil, errors.Errorf("step %d: unknown kind %q", i+1, st.Kind)
		}
	}
	return &sc, nil
}

// Resolve builds the validated config for a step.
func (st *Step) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if st.Robot != "" {
		cfg.Robot = st.Robot
	}
	if st.Preset != "" {
		p := config.GetPreset(cfg.Robot, st.Preset)
		if p == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", st.Preset, config.ListPresets(cfg.Robot))
		}
		c, err := clone(p)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if !st.Config.IsZero() {
		if err := st.Config.Decode(cfg); err != nil {
			return nil, errors.Wrap(err, "decode step config")
		}
	}
	if st.Robot != "" {
		cfg.Robot = st.Robot
	}
	return cfg, cfg.Validate()
}

// clone deep-copies c so decoding an overlay never writes through to a
// shared preset.
func clone(c *config.Config) (*config.Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out config.Config
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Runner executes scenarios, optionally storing each saved step.
type Runner struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewRunner(store *storage.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{store: store, logger: logger}
}

// Run executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func (r *Runner) Run(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))
	for i := range sc.Steps {
		st := &sc.Steps[i]
		name := st.Name
		if name == "" {
			name = st.Kind
		}
		r.logger.Info("running step",
			zap.String("scenario", sc.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(sc.Steps)),
			zap.String("name", name),
		)

		cfg, err := st.Resolve()
		if err != nil {
			return results, errors.Wrapf(err, "step %d", i+1)
		}
		exp, err := experiment.New(cfg, experiment.WithLogger(r.logger))
		if err != nil {
			return results, errors.Wrapf(err, "step %d", i+1)
		}

		var out *experiment.Outcome
		switch st.Kind {
		case KindOptimize:
			out, err = exp.Optimize(ctx)
		default:
			out, err = exp.Simulate(ctx)
		}
		if err != nil {
			return results, errors.Wrapf(err, "step %d %s", i+1, st.Kind)
		}

		res := StepResult{Step: name, Outcome: out}
		if st.Save && r.store != nil {
			if err := r.store.Init(); err != nil {
				return results, err
			}
			id, err := r.store.Save(out.Meta, out.Run)
			if err != nil {
				return results, errors.Wrapf(err, "step %d save", i+1)
			}
			res.RunID = id
		}
		results = append(results, res)
	}
	return results, nil
}
