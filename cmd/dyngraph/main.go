package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/dyngraph/internal/analysis"
	"github.com/san-kum/dyngraph/internal/automation"
	"github.com/san-kum/dyngraph/internal/config"
	"github.com/san-kum/dyngraph/internal/dynamics"
	"github.com/san-kum/dyngraph/internal/experiment"
	"github.com/san-kum/dyngraph/internal/export"
	"github.com/san-kum/dyngraph/internal/factor"
	"github.com/san-kum/dyngraph/internal/keys"
	"github.com/san-kum/dyngraph/internal/optim"
	"github.com/san-kum/dyngraph/internal/storage"
	"github.com/san-kum/dyngraph/internal/values"
	"github.com/san-kum/dyngraph/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string

	dt         float64
	steps      int
	integrator string
	controller string
	q0         []float64
	v0         []float64
	torques    []float64

	scheme    string
	optimizer string
	goal      []float64
	maxIter   int

	series  string
	pngDir  string
	radial  bool
	jsonOut string
	noSave  bool

	kpGrid []float64
	kiGrid []float64
	kdGrid []float64
	metric string
	top    int

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dyngraph",
		Short:         "robot dynamics as constraint graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dyngraph", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	simulateCmd := &cobra.Command{
		Use:   "simulate [robot]",
		Short: "run forward dynamics simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(simulateCmd)
	addSimulationFlags(simulateCmd)
	simulateCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [robot]",
		Short: "optimize a trajectory to the goal angles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOptimization,
	}
	addConfigFlags(optimizeCmd)
	optimizeCmd.Flags().Float64Var(&dt, "dt", config.DefaultTrajDt, "collocation step")
	optimizeCmd.Flags().IntVar(&steps, "steps", config.DefaultTrajSteps, "number of steps")
	optimizeCmd.Flags().Float64SliceVar(&q0, "q0", nil, "initial joint angles")
	optimizeCmd.Flags().Float64SliceVar(&v0, "v0", nil, "initial joint velocities")
	optimizeCmd.Flags().StringVar(&scheme, "scheme", dynamics.Trapezoidal.String(), "collocation scheme")
	optimizeCmd.Flags().StringVar(&optimizer, "optimizer", "levenberg_marquardt", "gauss_newton, levenberg_marquardt or dogleg")
	optimizeCmd.Flags().Float64SliceVar(&goal, "goal", nil, "goal joint angles")
	optimizeCmd.Flags().IntVar(&maxIter, "max-iter", 100, "maximum iterations")
	optimizeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "q", "q, v, a or tau")
	plotCmd.Flags().StringVar(&pngDir, "png", "", "write PNG plots of every series to this directory")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectral and phase-space analysis of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [robot]",
		Short: "grid search PID gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tunePID,
	}
	addConfigFlags(tuneCmd)
	addSimulationFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpGrid, "kp", []float64{10, 25, 50, 100}, "candidate proportional gains")
	tuneCmd.Flags().Float64SliceVar(&kiGrid, "ki", []float64{0, 1}, "candidate integral gains")
	tuneCmd.Flags().Float64SliceVar(&kdGrid, "kd", []float64{1, 5, 10}, "candidate derivative gains")
	tuneCmd.Flags().StringVar(&metric, "metric", optim.TrackingError, "metric to minimize")
	tuneCmd.Flags().IntVar(&top, "top", 5, "number of results to show")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of experiments",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	liveCmd := &cobra.Command{
		Use:   "live [robot]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	addSimulationFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [robot]",
		Short: "list available presets for a robot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for robot: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	robotsCmd := &cobra.Command{
		Use:   "robots",
		Short: "list robots, integrators and controllers",
		Run: func(cmd *cobra.Command, args []string) {
			r := experiment.NewRegistry()
			fmt.Printf("robots:      %v\n", r.ListRobots())
			fmt.Printf("integrators: %v\n", r.ListIntegrators())
			fmt.Printf("controllers: %v\n", r.ListControllers())
		},
	}

	keyCmd := &cobra.Command{
		Use:   "key [key]",
		Short: "decode a variable key",
		Args:  cobra.ExactArgs(1),
		RunE:  decodeKey,
	}

	graphCmd := &cobra.Command{
		Use:   "graph [robot]",
		Short: "summarize the dynamics graph of a robot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  describeGraph,
	}
	addConfigFlags(graphCmd)
	graphCmd.Flags().IntVar(&steps, "steps", 0, "trajectory steps; 0 builds a single step")
	graphCmd.Flags().Float64Var(&dt, "dt", config.DefaultTrajDt, "collocation step")
	graphCmd.Flags().StringVar(&scheme, "scheme", dynamics.Trapezoidal.String(), "collocation scheme")
	graphCmd.Flags().BoolVar(&radial, "radial", false, "radial variable layout")
	graphCmd.Flags().StringVar(&jsonOut, "json", "", "write the located graph as JSON")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "")
			if err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	addConfigFlags(configCmd)

	rootCmd.AddCommand(simulateCmd, optimizeCmd, listCmd, plotCmd, exportCmd, analyzeCmd, tuneCmd, scenarioCmd, liveCmd, presetsCmd, robotsCmd, keyCmd, graphCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().StringVar(&integrator, "integrator", "taylor", "integrator")
	cmd.Flags().StringVar(&controller, "controller", "constant", "controller")
	cmd.Flags().Float64SliceVar(&q0, "q0", nil, "initial joint angles")
	cmd.Flags().Float64SliceVar(&v0, "v0", nil, "initial joint velocities")
	cmd.Flags().Float64SliceVar(&torques, "torque", nil, "constant joint torques")
}

// resolveConfig layers defaults, a preset, a config file, the robot
// argument and explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, robotName string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		presetRobot := robotName
		if presetRobot == "" {
			presetRobot = cfg.Robot
		}
		p := config.GetPreset(presetRobot, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(presetRobot))
		}
		c := *p
		cfg = &c
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if robotName != "" {
		cfg.Robot = robotName
	}

	flags := cmd.Flags()
	changed := func(name string) bool { return flags.Lookup(name) != nil && flags.Changed(name) }
	isSim := flags.Lookup("integrator") != nil
	if changed("dt") {
		if isSim {
			cfg.Simulation.Dt = dt
		} else {
			cfg.Trajectory.Dt = dt
		}
	}
	if changed("steps") {
		if isSim {
			cfg.Simulation.Steps = steps
		} else {
			cfg.Trajectory.Steps = steps
		}
	}
	if changed("integrator") {
		cfg.Simulation.Integrator = integrator
	}
	if changed("controller") {
		cfg.Controller.Type = controller
	}
	if changed("q0") {
		cfg.Simulation.InitialAngles = q0
	}
	if changed("v0") {
		cfg.Simulation.InitialVelocities = v0
	}
	if changed("torque") {
		cfg.Simulation.Torques = torques
	}
	if changed("scheme") {
		cfg.Trajectory.Scheme = scheme
	}
	if changed("optimizer") {
		cfg.Trajectory.Optimizer = optimizer
	}
	if changed("goal") {
		cfg.Trajectory.GoalAngles = goal
	}
	if changed("max-iter") {
		cfg.Trajectory.MaxIterations = maxIter
	}
	return cfg, cfg.Validate()
}

func robotArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := resolveConfig(cmd, robotArg(args))
	if err != nil {
		return nil, err
	}
	return experiment.New(cfg, experiment.WithLogger(logger))
}

func save(out *experiment.Outcome) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(out.Meta, out.Run)
}

func printSummary(summary map[string]float64) {
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, summary[name])
	}
}

func plotSeries(run *storage.Run, what string) error {
	for j, name := range run.Joints {
		data, err := run.Series(what, j)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s %s", what, name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	cfg := exp.Config()
	fmt.Printf("running %s simulation...\n", cfg.Robot)
	start := time.Now()

	out, err := exp.Simulate(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("steps: %d\n", out.Run.Len())

	if !noSave {
		runID, err := save(out)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printSummary(out.Meta.Summary)
	fmt.Println()
	return plotSeries(out.Run, "q")
}

func runOptimization(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	cfg := exp.Config()
	fmt.Printf("optimizing %s trajectory over %d steps (%s, %s)...\n",
		cfg.Robot, cfg.Trajectory.Steps, cfg.Trajectory.Scheme, cfg.Trajectory.Optimizer)
	start := time.Now()

	out, err := exp.Optimize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("converged: %v after %d iterations\n", out.Result.Converged, out.Result.Iterations)

	if !noSave {
		runID, err := save(out)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	printSummary(out.Meta.Summary)
	fmt.Println()
	if err := plotSeries(out.Run, "q"); err != nil {
		return err
	}
	return plotSeries(out.Run, "tau")
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tROBOT\tTIME\tSTEPS\tDT\tSOLVER")

	for _, run := range runs {
		solver := run.Integrator
		if run.Kind == "trajectory" {
			solver = run.Optimizer
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%s\n",
			run.ID,
			run.Kind,
			run.Robot,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			solver,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	run, err := st.LoadRun(runID)
	if err != nil {
		return err
	}
	if run.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	if pngDir != "" {
		paths, err := export.SaveRunPlots(run, pngDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("robot: %s\n", meta.Robot)
	fmt.Printf("samples: %d\n\n", run.Len())
	return plotSeries(run, series)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	run, err := st.LoadRun(args[0])
	if err != nil {
		return err
	}

	for j, name := range run.Joints {
		fmt.Printf("joint %s\n", name)
		q, err := run.Series("q", j)
		if err != nil {
			return err
		}
		if f, err := analysis.DominantFrequency(q, meta.Dt); err == nil {
			fmt.Printf("  dominant frequency: %.4f Hz\n", f)
			if f > 0 {
				fmt.Printf("  period: %.4f s\n", 1/f)
			}
		} else {
			fmt.Printf("  spectrum: %v\n", err)
		}

		pp, err := analysis.NewPhasePortrait(run, j)
		if err != nil {
			return err
		}
		fmt.Println("  phase portrait (q, v):")
		fmt.Println(pp.ASCII(60, 20))
	}
	return nil
}

func tunePID(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, robotArg(args))
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	evals, err := optim.TunePID(ctx, cfg, optim.PIDGrid{Kp: kpGrid, Ki: kiGrid, Kd: kdGrid}, metric, optim.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("tuning finished", zap.Int("evaluated", len(evals)), zap.Duration("elapsed", time.Since(start)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KP\tKI\tKD\t%s\n", strings.ToUpper(metric))
	for i, e := range evals {
		if i == top {
			break
		}
		fmt.Fprintf(w, "%g\t%g\t%g\t%.6f\n", e.Params["kp"], e.Params["ki"], e.Params["kd"], e.Score)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	results, runErr := automation.NewRunner(storage.New(dataDir), logger).Run(ctx, sc)
	for _, r := range results {
		fmt.Printf("%s: %s", r.Step, r.Outcome.Meta.Kind)
		if r.RunID != "" {
			fmt.Printf(" saved as %s", r.RunID)
		}
		fmt.Println()
		printSummary(r.Outcome.Meta.Summary)
	}
	return runErr
}

func liveModel(exp *experiment.Experiment) (tea.Model, error) {
	s, err := exp.NewSimulator()
	if err != nil {
		return nil, err
	}
	ctrl, err := exp.Controller()
	if err != nil {
		return nil, err
	}
	cfg := exp.Config()
	step := max(cfg.Simulation.Dt, 0.005)
	return viz.NewModel(cfg.Robot, s, ctrl, step, cfg.GravityVector()), nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		exp, err := newExperiment(cmd, args)
		if err != nil {
			return err
		}
		m, err := liveModel(exp)
		if err != nil {
			return err
		}
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}

	var items []string
	for _, r := range experiment.NewRegistry().ListRobots() {
		for _, p := range config.ListPresets(r) {
			items = append(items, r+"/"+p)
		}
	}
	picker := viz.NewPicker("DYNGRAPH PRESETS", items, func(item string) (tea.Model, error) {
		robotName, presetName, _ := strings.Cut(item, "/")
		exp, err := experiment.New(config.GetPreset(robotName, presetName), experiment.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return liveModel(exp)
	})
	_, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
	return err
}

func decodeKey(cmd *cobra.Command, args []string) error {
	raw, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return errors.Wrapf(err, "parse key %q", args[0])
	}
	k := keys.Key(raw)
	if !k.Kind().Valid() {
		return errors.Wrapf(keys.ErrUnknownKind, "key %d", raw)
	}
	kind, id, other, t := k.Decode()
	fmt.Printf("%s\tkind=%s id=%d other=%d t=%d\n", k, kind, id, other, t)
	return nil
}

func describeGraph(cmd *cobra.Command, args []string) error {
	exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	r, b := exp.Robot(), exp.Builder()

	var (
		g       *factor.Graph
		initial *values.Values
	)
	if steps > 0 {
		sc, err := dynamics.ParseScheme(scheme)
		if err != nil {
			return err
		}
		if g, err = b.TrajectoryGraph(context.Background(), r, steps, dt, sc); err != nil {
			return err
		}
		initial = dynamics.ZeroValuesTrajectory(r, steps, 0, dynamics.InitOptions{})
	} else {
		if g, err = b.DynamicsGraph(r, 0); err != nil {
			return err
		}
		initial = dynamics.ZeroValues(r, 0, dynamics.InitOptions{})
	}

	summary := g.Summary()
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "robot\t%s\n", r.Name)
	fmt.Fprintf(w, "factors\t%d\n", g.Len())
	fmt.Fprintf(w, "variables\t%d\n", len(g.Keys()))
	fmt.Fprintf(w, "components\t%d\n", len(g.Components()))
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%d\n", name, summary[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if jsonOut == "" {
		return nil
	}
	f, err := os.Create(jsonOut)
	if err != nil {
		return err
	}
	defer f.Close()
	loc := export.Locations(r, 0, radial)
	if steps > 0 {
		loc = export.TrajectoryLocations(r, steps, radial)
	}
	return export.WriteGraphJSON(f, g, initial, loc)
}
