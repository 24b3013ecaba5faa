package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
	"github.com/san-kum/dyngraph/internal/values"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Robot      string             `json:"robot"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Integrator string             `json:"integrator,omitempty"`
	Controller string             `json:"controller,omitempty"`
	Scheme     string             `json:"scheme,omitempty"`
	Optimizer  string             `json:"optimizer,omitempty"`
	Joints     []string           `json:"joints"`
	Summary    map[string]float64 `json:"summary,omitempty"`
}

// Run is a joint-space trajectory, one row per time step.
type Run struct {
	Joints []string
	Times  []float64
	Q      [][]float64
	V      [][]float64
	A      [][]float64
	Tau    [][]float64
}

func (r *Run) Len() int { return len(r.Times) }

// Series returns one joint's column of q, v, a or tau.
func (r *Run) Series(what string, joint int) ([]float64, error) {
	var rows [][]float64
	switch what {
	case "q":
		rows = r.Q
	case "v":
		rows = r.V
	case "a":
		rows = r.A
	case "tau":
		rows = r.Tau
	default:
		return nil, errors.Errorf("unknown series: %s", what)
	}
	if joint < 0 || joint >= len(r.Joints) {
		return nil, errors.Errorf("joint %d out of range", joint)
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[joint]
	}
	return out, nil
}

// FromResult converts a simulator result with step dt.
func FromResult(r *robot.Robot, res *sim.Result, dt float64) *Run {
	run := &Run{Joints: r.JointNames()}
	for i, st := range res.States {
		run.Times = append(run.Times, float64(st.Step)*dt)
		run.Q = append(run.Q, st.Q)
		run.V = append(run.V, st.V)
		run.A = append(run.A, st.A)
		run.Tau = append(run.Tau, res.Torques[i])
	}
	return run
}

// FromValues reads steps 0..numSteps of a solved trajectory.
func FromValues(r *robot.Robot, v *values.Values, numSteps int, dt float64) (*Run, error) {
	run := &Run{Joints: r.JointNames()}
	for t := 0; t <= numSteps; t++ {
		q, err := dynamics.JointAngles(r, v, t)
		if err != nil {
			return nil, err
		}
		qd, err := dynamics.JointVels(r, v, t)
		if err != nil {
			return nil, err
		}
		qdd, err := dynamics.JointAccels(r, v, t)
		if err != nil {
			return nil, err
		}
		tau, err := dynamics.JointTorques(r, v, t)
		if err != nil {
			return nil, err
		}
		run.Times = append(run.Times, float64(t)*dt)
		run.Q, run.V, run.A, run.Tau = append(run.Q, q), append(run.V, qd), append(run.A, qdd), append(run.Tau, tau)
	}
	return run, nil
}

var columns = []string{"q", "v", "a", "tau"}

func (s *Store) Save(meta RunMetadata, run *Run) (string, error) {
	runID := fmt.Sprintf("%s_%d_%s", meta.Robot, time.Now().UnixNano(), uuid.New().String()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Joints = run.Joints
	meta.Steps = run.Len()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := []string{"time"}
	for _, c := range columns {
		for _, j := range run.Joints {
			header = append(header, c+"_"+j)
		}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	format := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	for i, t := range run.Times {
		row := []string{format(t)}
		for _, block := range [][]float64{run.Q[i], run.V[i], run.A[i], run.Tau[i]} {
			for _, x := range block {
				row = append(row, format(x))
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

// LoadRun parses the states file written by Save.
func (s *Store) LoadRun(runID string) (*Run, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s states", runID)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("run %s: empty states file", runID)
	}

	header := records[0]
	if (len(header)-1)%len(columns) != 0 {
		return nil, errors.Errorf("run %s: malformed header with %d columns", runID, len(header))
	}
	n := (len(header) - 1) / len(columns)
	run := &Run{Joints: make([]string, n)}
	for j := range run.Joints {
		run.Joints[j] = strings.TrimPrefix(header[1+j], "q_")
	}

	for i, record := range records[1:] {
		xs := make([]float64, len(record))
		for j, field := range record {
			if xs[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "run %s row %d", runID, i+1)
			}
		}
		run.Times = append(run.Times, xs[0])
		run.Q = append(run.Q, xs[1:1+n])
		run.V = append(run.V, xs[1+n:1+2*n])
		run.A = append(run.A, xs[1+2*n:1+3*n])
		run.Tau = append(run.Tau, xs[1+3*n:1+4*n])
	}
	return run, nil
}
