package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
)

func simulate(t *testing.T) (*robot.Robot, *sim.Result) {
	t.Helper()
	r, err := robot.NewDoublePendulum(1, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := dynamics.NewBuilder(dynamics.WithGravity(robot.StandardGravity))
	if err != nil {
		t.Fatal(err)
	}
	s, err := sim.New(r, b, []float64{0.1, 0.2}, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	res, err := s.Run(context.Background(), sim.ConstantTorque{0.5, -0.5}, sim.Config{Dt: 0.01, Steps: 5})
	if err != nil {
		t.Fatal(err)
	}
	return r, res
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	r, res := simulate(t)
	run := FromResult(r, res, 0.01)
	runID, err := st.Save(RunMetadata{
		Kind:       "simulation",
		Robot:      r.Name,
		Dt:         0.01,
		Integrator: "taylor",
		Summary:    map[string]float64{"final_q0": run.Q[4][0]},
	}, run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Robot != "double_pendulum" {
		t.Errorf("expected robot 'double_pendulum', got '%s'", meta.Robot)
	}
	if meta.Steps != 5 {
		t.Errorf("expected 5 steps, got %d", meta.Steps)
	}
	if len(meta.Joints) != 2 {
		t.Errorf("expected 2 joints, got %v", meta.Joints)
	}

	loaded, err := st.LoadRun(runID)
	if err != nil {
		t.Fatalf("load run failed: %v", err)
	}
	if loaded.Len() != 5 {
		t.Fatalf("expected 5 rows, got %d", loaded.Len())
	}
	if loaded.Joints[1] != "joint2" {
		t.Errorf("expected joint2, got %s", loaded.Joints[1])
	}
	if diff := cmp.Diff(run, loaded); diff != "" {
		t.Errorf("run does not round trip (-want +got):\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	r, res := simulate(t)
	for i := 0; i < 3; i++ {
		if _, err := st.Save(RunMetadata{Kind: "simulation", Robot: r.Name}, FromResult(r, res, 0.01)); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.Before(runs[i-1].Timestamp) {
			t.Error("runs not sorted by time")
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "missing")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	r, res := simulate(t)

	runID, err := st.Save(RunMetadata{Robot: r.Name}, FromResult(r, res, 0.01))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{"metadata.json", "states.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestSeries(t *testing.T) {
	r, res := simulate(t)
	run := FromResult(r, res, 0.01)
	q, err := run.Series("q", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(q) != 5 || q[0] != 0.2 {
		t.Errorf("unexpected series %v", q)
	}
	if _, err := run.Series("jerk", 0); err == nil {
		t.Error("expected error for unknown series")
	}
	if _, err := run.Series("q", 2); err == nil {
		t.Error("expected error for joint out of range")
	}
}

func TestFromValues(t *testing.T) {
	r, err := robot.NewPendulum(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	v := dynamics.ZeroValuesTrajectory(r, 3, 0, dynamics.InitOptions{})
	run, err := FromValues(r, v, 3, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if run.Len() != 4 || run.Times[3] != float64(3)*0.1 {
		t.Errorf("unexpected run %+v", run)
	}
	if _, err := FromValues(r, v, 4, 0.1); err == nil {
		t.Error("expected error past the last step")
	}
}
