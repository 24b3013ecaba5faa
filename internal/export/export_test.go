package export

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"testing"

	"github.com/golang/geo/r3"
	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/storage"
)

func pendulum(t *testing.T) *robot.Robot {
	r, err := robot.NewPendulum(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestLocationsCoverStep(t *testing.T) {
	g := NewWithT(t)
	r := pendulum(t)

	v := dynamics.ZeroValues(r, 3, dynamics.InitOptions{})
	for _, radialLayout := range []bool{true, false} {
		loc := Locations(r, 3, radialLayout)
		g.Expect(loc).To(HaveLen(v.Len()))
		for _, k := range v.Keys() {
			g.Expect(loc).To(HaveKey(k))
		}
	}

	loc := Locations(r, 0, true)
	g.Expect(loc[keys.PoseKey(0, 0)]).To(Equal(r3.Vector{X: 2}))
	p := loc[keys.TwistKey(1, 0)]
	g.Expect(p.X).To(BeNumerically("~", -3, 1e-12))
	g.Expect(math.Abs(p.Y)).To(BeNumerically("<", 1e-12))

	grid := Locations(r, 0, false)
	g.Expect(grid[keys.TorqueKey(0, 0)]).To(Equal(r3.Vector{X: 0.5, Y: 4.5}))
}

func TestTrajectoryLocationsOffset(t *testing.T) {
	g := NewWithT(t)
	r := pendulum(t)

	loc := TrajectoryLocations(r, 2, false)
	g.Expect(loc).To(HaveLen(3 * len(Locations(r, 0, false))))
	g.Expect(loc[keys.PoseKey(1, 2)]).To(Equal(r3.Vector{X: 1 + 2*StepOffset}))
}

func TestGraphJSON(t *testing.T) {
	g := NewWithT(t)
	r := pendulum(t)
	b, err := dynamics.NewBuilder(dynamics.WithGravity(robot.StandardGravity))
	g.Expect(err).NotTo(HaveOccurred())
	graph, err := b.DynamicsGraph(r, 0)
	g.Expect(err).NotTo(HaveOccurred())
	v := dynamics.ZeroValues(r, 0, dynamics.InitOptions{})

	var buf bytes.Buffer
	g.Expect(WriteGraphJSON(&buf, graph, v, Locations(r, 0, true))).To(Succeed())

	var out Graph
	g.Expect(json.Unmarshal(buf.Bytes(), &out)).To(Succeed())
	g.Expect(out.Variables).To(HaveLen(len(graph.Keys())))
	g.Expect(out.Factors).To(HaveLen(graph.Len()))
	for _, vr := range out.Variables {
		g.Expect(vr.Location).To(HaveLen(3))
		switch vr.Kind {
		case keys.Pose.String():
			g.Expect(vr.Value).To(HaveLen(12))
		case keys.Twist.String(), keys.TwistAccel.String(), keys.Wrench.String():
			g.Expect(vr.Value).To(HaveLen(6))
		default:
			g.Expect(vr.Value).To(HaveLen(1))
		}
	}

	bare, err := NewGraph(graph, nil, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(bare.Variables[0].Value).To(BeNil())
	g.Expect(bare.Variables[0].Location).To(BeNil())
}

func TestSaveRunPlots(t *testing.T) {
	g := NewWithT(t)
	run := &storage.Run{
		Joints: []string{"joint1", "joint2"},
		Times:  []float64{0, 0.1, 0.2},
		Q:      [][]float64{{0, 1}, {0.1, 1.1}, {0.2, 1.2}},
		V:      [][]float64{{1, 1}, {1, 1}, {1, 1}},
		A:      [][]float64{{0, 0}, {0, 0}, {0, 0}},
		Tau:    [][]float64{{0, 0}, {0, 0}, {0, 0}},
	}

	paths, err := SaveRunPlots(run, t.TempDir())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(paths).To(HaveLen(4))
	for _, p := range paths {
		info, err := os.Stat(p)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(info.Size()).To(BeNumerically(">", 0))
	}

	_, err = JointPlot(run, "jerk")
	g.Expect(err).To(HaveOccurred())
	_, err = JointPlot(&storage.Run{}, "q")
	g.Expect(err).To(HaveOccurred())
}
