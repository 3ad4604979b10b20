package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/sphsum/internal/config"
	"github.com/san-kum/sphsum/internal/experiment"
	"github.com/san-kum/sphsum/internal/export"
	"github.com/san-kum/sphsum/internal/sim"
	"github.com/san-kum/sphsum/internal/storage"
	"github.com/san-kum/sphsum/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	steps      int
	dt         float64
	workers    int
	backend    string
	scheme     string
	kernelName string
	jsonOut    bool
	noSave     bool
	bodyName   string
	outFile    string
	profileSVG bool
	bins       int
	benchSteps int

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sphsum",
		Short: "SPH density summation lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
				Prefix:          "sphsum",
				Level:           level,
			})
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sphsum", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset...]",
		Short: "run density summation for presets or a case file",
		RunE:  runCases,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "case file path (yaml)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of summation steps")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines per body (0 = all CPUs)")
	runCmd.Flags().StringVar(&backend, "backend", "", "compute backend (cpu, serial)")
	runCmd.Flags().StringVar(&scheme, "scheme", "", "summation scheme for bodies without their own")
	runCmd.Flags().StringVar(&kernelName, "kernel", "", "smoothing kernel")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as json")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run statistics and density map",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&bodyName, "body", "water", "body to draw")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the density profile along x",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "water", "body to plot")
	plotCmd.Flags().IntVar(&bins, "bins", 40, "number of columns")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the density field as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&bodyName, "body", "", "body to draw (default all)")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().BoolVar(&profileSVG, "profile", false, "draw the density profile along x instead")
	exportSVGCmd.Flags().IntVar(&bins, "bins", 40, "number of profile columns")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tDIM\tKERNEL\tSCHEME\tBODIES")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				names := make([]string, len(cfg.Bodies))
				for i, b := range cfg.Bodies {
					names[i] = b.Name
				}
				fmt.Fprintf(w, "%s\t%dd\t%s\t%s\t%s\n", name, cfg.Dimension, cfg.Kernel, cfg.Scheme, strings.Join(names, ","))
			}
			return w.Flush()
		},
	}

	schemesCmd := &cobra.Command{
		Use:   "schemes",
		Short: "list summation schemes",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCHEME\tCONTACT\tDESCRIPTION")
			for _, name := range reg.ListSchemes() {
				contact, _ := reg.NeedsContact(name)
				fmt.Fprintf(w, "%s\t%v\t%s\n", name, contact, reg.Description(name))
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "benchmark a case across backends and worker counts",
		Args:  cobra.ExactArgs(1),
		RunE:  benchCase,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 20, "summation steps per measurement")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCmd, exportSVGCmd, presetsCmd, schemesCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadCases resolves the case file or the named presets and applies the
// command line overrides.
func loadCases(cmd *cobra.Command, args []string) ([]*config.Config, error) {
	var cases []*config.Config
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cases = append(cases, cfg)
	}
	for _, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		cases = append(cases, cfg)
	}
	if len(cases) == 0 {
		cases = append(cases, config.DefaultConfig())
	}

	flags := cmd.Flags()
	for _, cfg := range cases {
		if flags.Changed("steps") {
			cfg.Steps = steps
		}
		if flags.Changed("dt") {
			cfg.Dt = dt
		}
		if flags.Changed("workers") {
			cfg.Workers = workers
		}
		if flags.Changed("backend") {
			cfg.Backend = backend
		}
		if flags.Changed("scheme") {
			cfg.Scheme = scheme
		}
		if flags.Changed("kernel") {
			cfg.Kernel = kernelName
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cases, nil
}

func runCases(cmd *cobra.Command, args []string) error {
	cases, err := loadCases(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := experiment.NewRegistry()
	exps := make([]*experiment.Experiment, len(cases))
	sims := make([]*sim.Simulator, len(cases))
	cfgs := make([]sim.Config, len(cases))
	for i, cfg := range cases {
		exp, err := experiment.New(cfg, reg, sim.WithLogger(logger.With("case", cfg.Name)))
		if err != nil {
			return fmt.Errorf("case %s: %w", cfg.Name, err)
		}
		exps[i], sims[i], cfgs[i] = exp, exp.GetSimulator(), exp.SimConfig()

		particles := 0
		for _, b := range exp.Bodies() {
			particles += b.Size()
		}
		logger.Info("case ready", "case", cfg.Name, "bodies", len(cfg.Bodies), "particles", particles, "scheme", cfg.Scheme)
	}

	results, err := sim.NewEnsemble(runtime.NumCPU(), sims...).Run(ctx, cfgs)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}

	for i, result := range results {
		cfg := cases[i]
		if jsonOut {
			if err := storage.ExportJSON(os.Stdout, cfg, result); err != nil {
				return err
			}
			continue
		}

		runID := "(not saved)"
		if !noSave {
			if runID, err = st.Save(cfg, result, exps[i].Bodies()); err != nil {
				return err
			}
		}
		printSummary(cfg, runID, result)
	}
	return nil
}

func printSummary(cfg *config.Config, runID string, result *sim.Result) {
	fmt.Println(viz.Title.Render(cfg.Name) + viz.Subtle.Render("  "+runID))
	fmt.Printf("%s %d in %v\n", viz.MetricLabel.Render("steps"), result.StepsTaken, result.Elapsed.Round(time.Microsecond))
	for _, body := range result.Bodies {
		values, ok := result.Metrics[body]
		if !ok {
			continue
		}
		fmt.Println(viz.HeaderStyle.Render(body))
		for _, name := range sortedKeys(values) {
			fmt.Printf("  %s %s\n", viz.MetricLabel.Render(name), viz.MetricValue.Render(fmt.Sprintf("%.6g", values[name])))
		}
	}
	fmt.Println()
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
	fmt.Fprintln(w, "ID\tCASE\tTIME\tKERNEL\tSCHEME\tSTEPS\tDT\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.4fs\t%.3fs\n",
			run.ID,
			run.Case,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Kernel,
			run.Scheme,
			run.Steps,
			run.Dt,
			run.ElapsedSec,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	particles, err := st.LoadDensity(runID, bodyName)
	if err != nil {
		return err
	}

	var info strings.Builder
	fmt.Fprintf(&info, "%s %s\n", viz.MetricLabel.Render("case"), meta.Case)
	fmt.Fprintf(&info, "%s %s, %dd\n", viz.MetricLabel.Render("kernel"), meta.Kernel, meta.Dimension)
	fmt.Fprintf(&info, "%s %s on %s\n", viz.MetricLabel.Render("scheme"), meta.Scheme, meta.Backend)
	fmt.Fprintf(&info, "%s %d x %.4gs\n", viz.MetricLabel.Render("steps"), meta.Steps, meta.Dt)
	for _, b := range meta.Bodies {
		fmt.Fprintf(&info, "%s %d particles, rho0 %g, %s\n", viz.MetricLabel.Render(b.Name), b.Particles, b.Rho0, b.Scheme)
	}
	fmt.Println(viz.BoxWithTitle(meta.ID, strings.TrimRight(info.String(), "\n"), 64))

	values, ok := meta.Metrics[bodyName]
	if ok {
		fmt.Println()
		for _, name := range sortedKeys(values) {
			fmt.Printf("%s %s\n", viz.MetricLabel.Render(name), viz.MetricValue.Render(fmt.Sprintf("%.6g", values[name])))
		}
		fmt.Printf("%s %s\n", viz.MetricLabel.Render("at or below rho0"), viz.ProgressBar(values["clamped_fraction"], 40))
	}

	if len(particles) == 0 {
		fmt.Println(viz.StatusError.Render("no particles for body " + bodyName))
		return nil
	}

	rho0 := rho0Of(meta, bodyName)
	m := viz.NewDensityMap(60, 20, rho0, 0.01)
	m.Plot(points(particles))
	fmt.Println()
	fmt.Println(viz.Separator(60))
	fmt.Print(m.Render())

	xs, rho := profile(particles, 60)
	if len(xs) > 0 {
		fmt.Println(viz.SparklineChart(rho, 60))
	}
	fmt.Println(viz.StatusOK.Render("ok") + viz.Subtle.Render(" red: below rho0, yellow: above, green: within 1%"))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	particles, err := st.LoadDensity(runID, bodyName)
	if err != nil {
		return err
	}

	xs, rho := profile(particles, bins)
	if len(rho) == 0 {
		return fmt.Errorf("no data to plot for body %s", bodyName)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("case: %s\n", meta.Case)
	fmt.Printf("particles: %d\n\n", len(particles))

	graph := asciigraph.Plot(rho,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s mean density, x from %.3g to %.3g", bodyName, xs[0], xs[len(xs)-1])),
	)
	fmt.Println(graph)
	return nil
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

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	particles, err := st.LoadDensity(runID, bodyName)
	if err != nil {
		return err
	}
	if len(particles) == 0 {
		return fmt.Errorf("no particles to export")
	}

	var svg string
	if profileSVG {
		xs, rho := profile(particles, bins)
		svg = export.ProfileToSVG(xs, rho, 800, 300, "#00ffff")
	} else {
		body := bodyName
		if body == "" {
			body = particles[0].Body
		}
		svg = export.DensityToSVG(points(particles), rho0Of(meta, body), 0, 800, 800)
	}
	if svg == "" {
		return fmt.Errorf("not enough data to draw")
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Info("svg written", "path", path, "particles", len(particles))
	return nil
}

func benchCase(cmd *cobra.Command, args []string) error {
	base := config.GetPreset(args[0])
	if base == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}

	type variant struct {
		backend string
		workers int
	}
	variants := []variant{{"serial", 1}}
	for n := 1; n <= runtime.NumCPU(); n *= 2 {
		variants = append(variants, variant{"cpu", n})
	}

	reg := experiment.NewRegistry()
	fmt.Printf("benchmarking %s, %d steps\n\n", args[0], benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tWORKERS\tPARTICLES\tTIME\tSTEPS/SEC\tPARTICLES/SEC")

	for _, v := range variants {
		cfg := base.Clone()
		cfg.Backend, cfg.Workers, cfg.Steps = v.backend, v.workers, benchSteps

		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return err
		}
		summed := 0
		for _, st := range exp.GetSimulator().Stages() {
			if st.Summation != nil {
				summed += st.Body.Size()
			}
		}

		result, err := exp.Run(context.Background())
		if err != nil {
			return err
		}
		secs := result.Elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%.0f\t%.3g\n",
			v.backend, v.workers, summed, result.Elapsed.Round(time.Microsecond),
			float64(result.StepsTaken)/secs, float64(summed*result.StepsTaken)/secs)
	}

	return w.Flush()
}

func rho0Of(meta *storage.RunMetadata, body string) float64 {
	for _, b := range meta.Bodies {
		if b.Name == body {
			return b.Rho0
		}
	}
	return 1
}

func points(particles []storage.Particle) []viz.Point {
	out := make([]viz.Point, len(particles))
	for i, p := range particles {
		out[i] = viz.Point{X: p.Pos.X, Y: p.Pos.Y, Rho: p.Rho}
	}
	return out
}
