package optim

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/config"
	"github.com/san-kum/dyngraph/internal/experiment"
	"github.com/san-kum/dyngraph/internal/storage"
)

// TrackingError is the objective name for RMS joint-angle error against
// the controller target over the whole run.
const TrackingError = "tracking_error"

// PIDGrid holds candidate gains.
type PIDGrid struct {
	Kp, Ki, Kd []float64
}

// TunePID searches grid for the PID gains that minimize metric, which is
// TrackingError or one of the simulation summary metrics. The base config
// is copied for each point and never modified.
func TunePID(ctx context.Context, base *config.Config, grid PIDGrid, metric string, opts ...Option) ([]Evaluation, error) {
	gs, err := NewGridSearch([]string{"kp", "ki", "kd"}, [][]float64{grid.Kp, grid.Ki, grid.Kd}, opts...)
	if err != nil {
		return nil, err
	}
	return gs.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		cfg := *base
		cfg.Controller.Type = "pid"
		cfg.Controller.Kp, cfg.Controller.Ki, cfg.Controller.Kd = p["kp"], p["ki"], p["kd"]
		exp, err := experiment.New(&cfg)
		if err != nil {
			return 0, err
		}
		out, err := exp.Simulate(ctx)
		if err != nil {
			return 0, err
		}
		if metric == TrackingError {
			target := config.JointVector(cfg.Controller.Target, len(out.Run.Joints))
			return RMSError(out.Run, target), nil
		}
		v, ok := out.Meta.Summary[metric]
		if !ok {
			return 0, errors.Errorf("unknown metric: %s", metric)
		}
		return v, nil
	})
}

// RMSError is the root mean square joint-angle deviation from target.
// Diverged runs score +Inf.
func RMSError(run *storage.Run, target []float64) float64 {
	if run.Len() == 0 {
		return math.Inf(1)
	}
	var sum float64
	var n int
	for _, q := range run.Q {
		for j, x := range q {
			d := x - target[j]
			sum += d * d
			n++
		}
	}
	rms := math.Sqrt(sum / float64(n))
	if math.IsNaN(rms) {
		return math.Inf(1)
	}
	return rms
}
