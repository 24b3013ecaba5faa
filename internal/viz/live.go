package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/geo/r3"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dyngraph/internal/metrics"
	"github.com/san-kum/dyngraph/internal/robot"
	"github.com/san-kum/dyngraph/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 300

	// the simulator is restarted from its current state once it has
	// accumulated this many solved steps
	maxRetainedSteps = 2000
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulator in real time and draws the robot, its joint
// angle history and its mechanical energy.
type Model struct {
	sim     *sim.Simulator
	ctrl    sim.Controller
	robot   *robot.Robot
	gravity r3.Vector
	dt      float64
	title   string

	q0, v0        []float64
	stepsPerFrame int
	elapsed       float64

	canvas   *Canvas
	viewport Viewport
	theme    int
	styles   Styles

	running  bool
	showHelp bool
	err      error

	angles [][]float64
	energy []float64
}

func NewModel(title string, s *sim.Simulator, ctrl sim.Controller, dt float64, gravity r3.Vector) Model {
	q0, v0 := s.InitialState()
	canvas := NewCanvas(width, height)
	m := Model{
		sim:           s,
		ctrl:          ctrl,
		robot:         s.Robot(),
		gravity:       gravity,
		dt:            dt,
		title:         title,
		q0:            q0,
		v0:            v0,
		stepsPerFrame: max(1, int(1.0/60/dt)),
		canvas:        canvas,
		viewport:      Fit(canvas, Reach(s.Robot())),
		styles:        NewStyles(Themes[0]),
		running:       true,
		angles:        make([][]float64, s.Robot().NumJoints()),
		energy:        make([]float64, 0, historyCapacity),
	}
	m.record(s.State())
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			m.stepsPerFrame *= 2
		case "-", "_":
			m.stepsPerFrame = max(1, m.stepsPerFrame/2)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = NewStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil {
			for i := 0; i < m.stepsPerFrame; i++ {
				if err := m.step(); err != nil {
					m.err = err
					m.running = false
					break
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() error {
	st := m.sim.State()
	tau := m.ctrl.Compute(st, m.elapsed)
	if _, err := m.sim.Step(tau, m.dt); err != nil {
		return err
	}
	m.elapsed += m.dt
	next := m.sim.State()
	m.record(next)

	if m.sim.Result().Len() >= maxRetainedSteps {
		return m.restart(next.Q, next.V, next.Step)
	}
	return nil
}

// restart replaces the simulator with one starting from q, v at step t so
// that accumulated results stay bounded.
func (m *Model) restart(q, v []float64, t int) error {
	s, err := sim.New(m.robot, m.sim.Builder(), q, v, sim.WithIntegrator(m.sim.Integrator()))
	if err != nil {
		return err
	}
	s.Reset(t)
	m.sim = s
	return nil
}

func (m *Model) record(st sim.State) {
	for j := range m.angles {
		m.angles[j] = appendBounded(m.angles[j], st.Q[j])
	}
	if kin, err := m.robot.ForwardKinematics(st.Q, st.V, nil); err == nil {
		m.energy = appendBounded(m.energy, metrics.MechanicalEnergy(m.robot, kin, m.gravity))
	}
}

func appendBounded(xs []float64, x float64) []float64 {
	xs = append(xs, x)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) reset() {
	m.err = nil
	m.elapsed = 0
	m.energy = m.energy[:0]
	for j := range m.angles {
		m.angles[j] = m.angles[j][:0]
	}
	if err := m.restart(m.q0, m.v0, 0); err != nil {
		m.err = err
		return
	}
	m.record(m.sim.State())
}

func (m Model) Elapsed() float64 { return m.elapsed }
func (m Model) Running() bool    { return m.running }
func (m Model) Err() error       { return m.err }
func (m Model) State() sim.State { return m.sim.State() }

func (m Model) View() string {
	st := m.sim.State()
	m.canvas.Clear()
	if kin, err := m.robot.ForwardKinematics(st.Q, st.V, nil); err == nil {
		DrawRobot(m.canvas, m.viewport, m.robot, kin)
	}

	var s strings.Builder
	s.WriteString(m.styles.Header.Render(strings.ToUpper(m.title)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(m.styles.Failed.Render("FAILED: "+m.err.Error()) + "\n")
	case m.running:
		s.WriteString(m.styles.Running.Render("RUNNING") + "\n")
	default:
		s.WriteString(m.styles.Paused.Render("PAUSED") + "\n")
	}
	s.WriteString(m.styles.Canvas.Render(m.canvas.String()) + "\n")

	s.WriteString(m.styles.Row("time", fmt.Sprintf("%.3f s", m.elapsed)) + "\n")
	s.WriteString(m.styles.Row("step", fmt.Sprintf("%d (x%d)", st.Step, m.stepsPerFrame)) + "\n")
	for j, name := range m.robot.JointNames() {
		s.WriteString(m.styles.Row(name, fmt.Sprintf("q=%+.3f v=%+.3f a=%+.3f", st.Q[j], st.V[j], st.A[j])) + "\n")
	}
	if n := len(m.energy); n > 0 {
		s.WriteString(m.styles.Row("energy", fmt.Sprintf("%.4f %s", m.energy[n-1], SparklineChart(m.energy, 30))) + "\n")
	}

	if len(m.angles) > 0 && len(m.angles[0]) > 1 {
		chart := asciigraph.PlotMany(m.angles,
			asciigraph.Height(6),
			asciigraph.Width(width),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow),
			asciigraph.Caption("joint angles"))
		s.WriteString(m.styles.Panel.Render(chart) + "\n")
	}

	if m.showHelp {
		s.WriteString(m.styles.Help.Render("space pause · r reset · +/- speed · t theme · q quit"))
	} else {
		s.WriteString(m.styles.Help.Render("? help"))
	}
	return s.String()
}

// Run starts a full-screen program for the model.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
