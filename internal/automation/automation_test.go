package automation

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/san-kum/dyngraph/internal/config"
	"github.com/san-kum/dyngraph/internal/storage"
)

const scenarioYAML = `
name: pendulum-check
steps:
  - name: spin
    robot: pendulum
    config:
      gravity: [0, 0, 0]
      simulation:
        dt: 0.01
        steps: 10
        torques: [3]
    save: true
  - name: swing-up
    kind: optimize
    robot: pendulum
    config:
      gravity: [0, 0, 0]
      trajectory:
        steps: 4
        dt: 0.1
        goal_angles: [0.1]
`

func TestParseScenario(t *testing.T) {
	g := NewWithT(t)
	sc, err := ParseScenario([]byte(scenarioYAML))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sc.Name).To(Equal("pendulum-check"))
	g.Expect(sc.Steps).To(HaveLen(2))
	g.Expect(sc.Steps[0].Kind).To(Equal(KindSimulate))

	cfg, err := sc.Steps[0].Resolve()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Simulation.Steps).To(Equal(10))
	g.Expect(cfg.Simulation.Integrator).To(Equal("taylor"))
	g.Expect(cfg.Controller.Kp).To(Equal(config.DefaultKp))

	_, err = ParseScenario([]byte("name: empty\n"))
	g.Expect(err).To(HaveOccurred())
	_, err = ParseScenario([]byte("steps:\n  - kind: dance\n"))
	g.Expect(err).To(HaveOccurred())
}

func TestResolvePresetIsNotShared(t *testing.T) {
	g := NewWithT(t)
	names := config.ListPresets("pendulum")
	g.Expect(names).NotTo(BeEmpty())
	before := *config.GetPreset("pendulum", names[0])

	sc, err := ParseScenario([]byte("steps:\n  - robot: pendulum\n    preset: " + names[0] + "\n    config:\n      simulation:\n        steps: 7\n"))
	g.Expect(err).NotTo(HaveOccurred())
	cfg, err := sc.Steps[0].Resolve()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Simulation.Steps).To(Equal(7))
	g.Expect(config.GetPreset("pendulum", names[0]).Simulation.Steps).To(Equal(before.Simulation.Steps))

	sc.Steps[0].Preset = "missing"
	_, err = sc.Steps[0].Resolve()
	g.Expect(err).To(HaveOccurred())
}

func TestRunnerRunsAndSaves(t *testing.T) {
	g := NewWithT(t)
	sc, err := ParseScenario([]byte(scenarioYAML))
	g.Expect(err).NotTo(HaveOccurred())

	st := storage.New(t.TempDir())
	results, err := NewRunner(st, nil).Run(context.Background(), sc)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(2))
	g.Expect(results[0].RunID).NotTo(BeEmpty())
	g.Expect(results[1].RunID).To(BeEmpty())
	g.Expect(results[1].Outcome.Result).NotTo(BeNil())

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(1))
	g.Expect(runs[0].Robot).To(Equal("pendulum"))
}

func TestRunnerStopsOnInvalidStep(t *testing.T) {
	g := NewWithT(t)
	sc, err := ParseScenario([]byte("steps:\n  - robot: nosuchrobot\n"))
	g.Expect(err).NotTo(HaveOccurred())
	results, err := NewRunner(nil, nil).Run(context.Background(), sc)
	g.Expect(err).To(HaveOccurred())
	g.Expect(results).To(BeEmpty())
}
