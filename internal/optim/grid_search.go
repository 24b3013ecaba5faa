// Package optim tunes controller gains by exhaustive grid search over
// simulated experiments.
package optim

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Objective scores one parameter assignment; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
	logger     *zap.Logger
}

type Option func(*GridSearch)

func WithWorkers(n int) Option {
	return func(g *GridSearch) { g.workers = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(g *GridSearch) { g.logger = l }
}

func NewGridSearch(params []string, ranges [][]float64, opts ...Option) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, errors.Errorf("grid search: %d names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, errors.Errorf("grid search: empty range for %s", params[i])
		}
	}
	g := &GridSearch{
		paramNames: params,
		ranges:     ranges,
		workers:    runtime.GOMAXPROCS(0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.workers < 1 {
		g.workers = 1
	}
	return g, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// point decodes a flat grid index, last parameter varying fastest.
func (g *GridSearch) point(idx int) map[string]float64 {
	p := make(map[string]float64, len(g.paramNames))
	for d := len(g.ranges) - 1; d >= 0; d-- {
		r := g.ranges[d]
		p[g.paramNames[d]] = r[idx%len(r)]
		idx /= len(r)
	}
	return p
}

// Evaluation is one scored grid point.
type Evaluation struct {
	Params map[string]float64
	Score  float64
}

// Search scores every grid point and returns the evaluations sorted best
// first. Points whose objective fails or is NaN are skipped; an error is
// returned only on cancellation or when no point could be scored.
func (g *GridSearch) Search(ctx context.Context, obj Objective) ([]Evaluation, error) {
	var (
		mu    sync.Mutex
		evals []Evaluation
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := 0; i < g.Size(); i++ {
		params := g.point(i)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := obj(ctx, params)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.logger.Debug("grid point failed", zap.Any("params", params), zap.Error(err))
				return nil
			}
			if math.IsNaN(score) {
				return nil
			}
			mu.Lock()
			evals = append(evals, Evaluation{Params: params, Score: score})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return nil, errors.New("grid search: no grid point could be evaluated")
	}
	sort.SliceStable(evals, func(i, j int) bool { return evals[i].Score < evals[j].Score })
	return evals, nil
}
