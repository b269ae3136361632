package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/xylab/internal/config"
	"github.com/san-kum/xylab/internal/storage"
	"github.com/san-kum/xylab/internal/sweep"
	"github.com/san-kum/xylab/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	sizes        []int
	tempMin      float64
	tempMax      float64
	tempStep     float64
	tempList     []float64
	engine       string
	chains       int
	iterations   int
	warmup       int
	targetAccept float64
	maxTreeDepth int
	coupling     float64
	seed         int64
	vortSamples  int
	noWarmStart  bool

	sampleSize int
	sampleTemp float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xylab",
		Short: "2d xy model monte carlo lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".xylab", "data directory")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a temperature/lattice-size sweep",
		RunE:  runSweep,
	}
	addSweepFlags(sweepCmd)

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "sample a single lattice/temperature point",
		RunE:  runSample,
	}
	addSweepFlags(sampleCmd)
	sampleCmd.Flags().IntVar(&sampleSize, "size", 4, "lattice side length")
	sampleCmd.Flags().Float64Var(&sampleTemp, "temp", 0.9, "bath temperature")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a sweep with live progress view",
		RunE:  runLive,
	}
	addSweepFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results against temperature",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run results as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run results as csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(args[0], os.Stdout)
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available sweep presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(sweepCmd, sampleCmd, liveCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{4}, "lattice side lengths")
	cmd.Flags().Float64Var(&tempMin, "temp-min", 0.1, "lowest temperature")
	cmd.Flags().Float64Var(&tempMax, "temp-max", 2.0, "highest temperature")
	cmd.Flags().Float64Var(&tempStep, "temp-step", 0.1, "temperature increment")
	cmd.Flags().Float64SliceVar(&tempList, "temps", nil, "explicit temperature list")
	cmd.Flags().StringVar(&engine, "engine", "hmc", "sampler engine (hmc, metropolis)")
	cmd.Flags().IntVar(&chains, "chains", config.DefaultChains, "independent chains per point")
	cmd.Flags().IntVar(&iterations, "iters", config.DefaultIterations, "recorded draws per chain")
	cmd.Flags().IntVar(&warmup, "warmup", 0, "warmup iterations (0 = iters/2)")
	cmd.Flags().Float64Var(&targetAccept, "accept", config.DefaultTargetAccept, "target acceptance rate")
	cmd.Flags().IntVar(&maxTreeDepth, "max-depth", config.DefaultMaxTreeDepth, "max trajectory depth")
	cmd.Flags().Float64Var(&coupling, "j", config.DefaultCoupling, "interaction coupling")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano()%1_000_000_000, "random seed")
	cmd.Flags().IntVar(&vortSamples, "vorticity-samples", config.DefaultVorticitySamples, "draws per point for vortex density")
	cmd.Flags().BoolVar(&noWarmStart, "no-warm-start", false, "do not seed each temperature from the previous one")
}

// buildConfig resolves preset, config file and CLI flags, in
// increasing priority.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("sizes") {
		cfg.Sizes = sizes
	}
	if flags.Changed("temps") {
		cfg.Temps = config.TempGrid{List: tempList}
	} else if flags.Changed("temp-min") || flags.Changed("temp-max") || flags.Changed("temp-step") {
		cfg.Temps = config.TempGrid{Min: tempMin, Max: tempMax, Step: tempStep}
	}
	if flags.Changed("engine") {
		cfg.Engine = engine
	}
	if flags.Changed("chains") {
		cfg.Chains = chains
	}
	if flags.Changed("iters") {
		cfg.Iterations = iterations
	}
	if flags.Changed("warmup") {
		cfg.Warmup = warmup
	}
	if flags.Changed("accept") {
		cfg.TargetAccept = targetAccept
	}
	if flags.Changed("max-depth") {
		cfg.MaxTreeDepth = maxTreeDepth
	}
	if flags.Changed("j") {
		cfg.Coupling = coupling
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("vorticity-samples") {
		cfg.VorticitySamples = vortSamples
	}
	if flags.Changed("no-warm-start") {
		cfg.WarmStart = !noWarmStart
	}

	return cfg, cfg.Validate()
}

func newDriver(cfg *config.Config) (*sweep.Driver, error) {
	eng, err := sweep.EngineFor(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return sweep.New(cfg, eng), nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	driver, err := newDriver(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %d points with %s engine...\n", len(driver.Points()), cfg.Engine)
	start := time.Now()

	results, err := driver.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))
	printResults(results)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, results)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Sizes = []int{sampleSize}
	cfg.Temps = config.TempGrid{List: []float64{sampleTemp}}
	if err := cfg.Validate(); err != nil {
		return err
	}

	driver, err := newDriver(cfg)
	if err != nil {
		return err
	}

	results, err := driver.Run(context.Background())
	if err != nil {
		return err
	}

	r := results[0]
	fmt.Printf("lattice:        %dx%d\n", r.Size, r.Size)
	fmt.Printf("temperature:    %.4f\n", r.Temp)
	fmt.Printf("energy/spin:    %.6f\n", r.MeanEnergy)
	fmt.Printf("energy var:     %.6f\n", r.EnergyVar)
	fmt.Printf("specific heat:  %.6f\n", r.SpecificHeat)
	fmt.Printf("vortex density: %.6f\n", r.VortexDensity)
	fmt.Printf("rhat:           %.4f\n", r.Rhat)
	fmt.Printf("n_eff:          %.0f\n", r.ESS)
	if r.LowConfidence {
		fmt.Println("warning: diagnostics outside acceptance bounds; statistics are low confidence")
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	driver, err := newDriver(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(len(driver.Points())))

	driver.SetObserver(func(r sweep.Result) {
		p.Send(viz.PointMsg(r))
	})

	// Quitting the view cancels the sweep; the channel hands the
	// results back once the goroutine has actually stopped.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		results []sweep.Result
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		results, runErr := driver.Run(ctx)
		done <- outcome{results, runErr}
		p.Send(viz.DoneMsg{Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()

	out := <-done
	if out.err != nil {
		if errors.Is(out.err, context.Canceled) {
			return nil
		}
		return out.err
	}
	printResults(out.results)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, out.results)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func printResults(results []sweep.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tTEMP\tENERGY\tC\tVORTEX\tRHAT\tN_EFF\tFLAG")
	for _, r := range results {
		flag := ""
		if r.LowConfidence {
			flag = "low-confidence"
		}
		fmt.Fprintf(w, "%dx%d\t%.3f\t%.4f\t%.4f\t%.4f\t%.3f\t%.0f\t%s\n",
			r.Size, r.Size, r.Temp, r.MeanEnergy, r.SpecificHeat, r.VortexDensity, r.Rhat, r.ESS, flag)
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tENGINE\tPOINTS\tFLAGGED")
	for _, run := range runs {
		engine := ""
		if run.Config != nil {
			engine = run.Config.Engine
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			engine,
			run.Points,
			run.Flagged,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	results, err := st.LoadResults(args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no data to plot")
	}

	bySize := make(map[int][]sweep.Result)
	var order []int
	for _, r := range results {
		if _, ok := bySize[r.Size]; !ok {
			order = append(order, r.Size)
		}
		bySize[r.Size] = append(bySize[r.Size], r)
	}
	sort.Ints(order)

	for _, size := range order {
		rs := bySize[size]
		sort.Slice(rs, func(i, j int) bool { return rs[i].Temp < rs[j].Temp })
		if len(rs) < 2 {
			continue
		}

		fmt.Printf("lattice %dx%d\n\n", size, size)
		plots := []struct {
			caption string
			value   func(sweep.Result) float64
		}{
			{"energy per spin vs T", func(r sweep.Result) float64 { return r.MeanEnergy }},
			{"specific heat vs T", func(r sweep.Result) float64 { return r.SpecificHeat }},
			{"vortex density vs T", func(r sweep.Result) float64 { return r.VortexDensity }},
		}
		for _, pl := range plots {
			data := make([]float64, len(rs))
			for i, r := range rs {
				data[i] = pl.value(r)
			}
			fmt.Println(asciigraph.Plot(data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(pl.caption),
			))
			fmt.Println()
		}
	}
	return nil
}
