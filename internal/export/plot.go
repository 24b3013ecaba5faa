package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/storage"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var seriesLabels = map[string]string{
	"q":   "joint angle",
	"v":   "joint velocity",
	"a":   "joint acceleration",
	"tau": "joint torque",
}

// Series lists the run columns that can be plotted.
var Series = []string{"q", "v", "a", "tau"}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
}

// JointPlot draws one line per joint of the chosen series against time.
func JointPlot(run *storage.Run, what string) (*plot.Plot, error) {
	label, ok := seriesLabels[what]
	if !ok {
		return nil, errors.Errorf("unknown series: %s", what)
	}
	if run.Len() == 0 {
		return nil, errors.New("plot data invalid: empty run")
	}

	p := plot.New()
	p.Title.Text = label
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = what
	stylePlot(p)

	for j, name := range run.Joints {
		ys, err := run.Series(what, j)
		if err != nil {
			return nil, err
		}
		pts := make(plotter.XYs, len(ys))
		for i := range ys {
			pts[i].X = run.Times[i]
			pts[i].Y = ys[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "joint %s", name)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(j)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}

func SavePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// SaveRunPlots writes <series>.png for every series into dir and returns
// the file paths.
func SaveRunPlots(run *storage.Run, dir string) ([]string, error) {
	paths := make([]string, 0, len(Series))
	for _, what := range Series {
		p, err := JointPlot(run, what)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, what+".png")
		if err := SavePNG(p, 8, 5, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
