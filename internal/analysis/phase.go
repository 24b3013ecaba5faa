package analysis

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/storage"
	"gonum.org/v1/gonum/floats"
)

// PhasePortrait holds one joint's angle and velocity samples.
type PhasePortrait struct {
	Joint string
	Q, V  []float64
}

func NewPhasePortrait(run *storage.Run, joint int) (*PhasePortrait, error) {
	q, err := run.Series("q", joint)
	if err != nil {
		return nil, err
	}
	v, err := run.Series("v", joint)
	if err != nil {
		return nil, err
	}
	if len(q) == 0 {
		return nil, errors.New("analysis: empty run")
	}
	return &PhasePortrait{Joint: run.Joints[joint], Q: q, V: v}, nil
}

func padded(xs []float64) (lo, span float64) {
	lo, hi := floats.Min(xs), floats.Max(xs)
	span = hi - lo
	if span == 0 {
		span = 1
	}
	return lo - span*0.1, span * 1.2
}

// ASCII plots angle across and velocity up, with axes drawn where zero is
// visible.
func (p *PhasePortrait) ASCII(width, height int) string {
	minX, rangeX := padded(p.Q)
	minY, rangeY := padded(p.V)

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	if minX <= 0 && minX+rangeX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			canvas[r][c] = '│'
		}
	}
	if minY <= 0 && minY+rangeY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			canvas[r][c] = '─'
		}
	}
	for i := range p.Q {
		r, c := row(p.V[i]), col(p.Q[i])
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}
