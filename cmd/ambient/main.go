package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/ambient/internal/config"
	"github.com/san-kum/ambient/internal/logging"
	"github.com/san-kum/ambient/internal/preload"
	"github.com/san-kum/ambient/internal/scenario"
	"github.com/san-kum/ambient/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool
	logFile    string
	logger     *zap.Logger
	// field overrides
	count    int
	seed     int64
	theme    string
	eager    bool
	fps      int
	failures int
	// headless runs
	steps   int
	every   int
	dt      float64
	pointer string
	// sweeps
	sweepSteps   int
	sweepSeed    int64
	sweepPointer string
	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepPoints  int
	// output
	outDir   string
	svgOut   string
	gifOut   string
	pngOut   string
	metric   string
	frameAt  int
	gifWidth int
	pngScale int
	caption  string
	// hosts
	addr      string
	watch     bool
	resources []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ambient",
		Short: "pointer-reactive particle hero with a lazily loaded motion runtime",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// the TUI owns the terminal, so it only logs when given a file
			if cmd == cmd.Root() && logFile == "" {
				logger = zap.NewNop()
				return nil
			}
			var err error
			logger, err = logging.New(verbose, logFile)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: runHero,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".ambient", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")

	addFieldFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVar(&count, "count", config.DefaultCount, "number of particles")
		cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	}
	addLoaderFlags := func(cmd *cobra.Command) {
		cmd.Flags().BoolVar(&eager, "eager", false, "load the motion runtime immediately")
		cmd.Flags().IntVar(&failures, "fail-first", 0, "fail the first N runtime imports")
		cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
		cmd.Flags().BoolVar(&watch, "watch", false, "reload the config file when it changes")
	}

	addFieldFlags(rootCmd)
	addLoaderFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "colour theme")
	rootCmd.Flags().StringVar(&outDir, "out", ".", "directory for snapshots and recordings")
	rootCmd.Flags().StringSliceVar(&resources, "preload", nil, "files or URLs to preload")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "step a field headlessly and save the run",
		Args:  cobra.NoArgs,
		RunE:  runField,
	}
	addFieldFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 600, "number of steps")
	runCmd.Flags().IntVar(&every, "every", 10, "capture a frame every N steps")
	runCmd.Flags().Float64Var(&dt, "dt", 1, "frames per step")
	runCmd.Flags().StringVar(&pointer, "pointer", "orbit", fmt.Sprintf("pointer path %v", scenario.PointerNames()))

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one field parameter and tabulate metrics",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&count, "count", config.DefaultCount, "number of particles")
	sweepCmd.Flags().Int64Var(&sweepSeed, "seed", 42, "random seed")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 300, "steps per point")
	sweepCmd.Flags().Float64Var(&dt, "dt", 1, "frames per step")
	sweepCmd.Flags().StringVar(&sweepPointer, "pointer", "center", "pointer path")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "attraction", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "", "metric to plot (default all)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a captured frame as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&frameAt, "frame", -1, "frame index, negative counts from the end")
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringVar(&metric, "metric", "", "export this metric series instead of a frame")

	exportGIFCmd := &cobra.Command{
		Use:   "export-gif [run_id]",
		Short: "render every captured frame into an animated GIF",
		Args:  cobra.ExactArgs(1),
		RunE:  exportGIF,
	}
	exportGIFCmd.Flags().StringVarP(&gifOut, "output", "o", "ambient.gif", "output file")
	exportGIFCmd.Flags().IntVar(&gifWidth, "width", 320, "image width in pixels")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render a captured frame as PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().IntVar(&frameAt, "frame", -1, "frame index, negative counts from the end")
	exportPNGCmd.Flags().StringVarP(&pngOut, "output", "o", "ambient.png", "output file")
	exportPNGCmd.Flags().IntVar(&pngScale, "scale", 2, "pixel scale")
	exportPNGCmd.Flags().StringVar(&caption, "caption", "", "caption text (default run id and step)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run metrics per frame to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the resolved configuration to a yaml file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "ambient.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the field over websocket",
		Args:  cobra.NoArgs,
		RunE:  serveField,
	}
	addFieldFlags(serveCmd)
	addLoaderFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark field stepping",
		Args:  cobra.NoArgs,
		RunE:  benchField,
	}

	preloadCmd := &cobra.Command{
		Use:   "preload [resource...]",
		Short: "preload files or URLs and report progress",
		RunE:  runPreload,
	}

	rootCmd.AddCommand(runCmd, scenarioCmd, sweepCmd, listCmd, plotCmd, exportSVGCmd, exportGIFCmd, exportPNGCmd, exportCSVCmd, exportCmd, presetsCmd, initCmd, serveCmd, benchCmd, preloadCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Field.Count = count
	}
	if flags.Changed("seed") {
		cfg.Field.Seed = seed
	}
	if flags.Changed("theme") {
		cfg.Render.Theme = theme
	}
	if flags.Changed("eager") {
		cfg.Loader.Eager = eager
	}
	if flags.Changed("fail-first") {
		cfg.Loader.FailFirst = failures
	}
	if flags.Changed("fps") {
		cfg.Render.FPS = fps
	}
	if flags.Changed("addr") {
		cfg.Stream.Addr = addr
	}
	if flags.Changed("preload") {
		cfg.Preload.Resources = resources
	}
	return cfg, cfg.Validate()
}

func runHero(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	res := make([]preload.Resource, 0, len(cfg.Preload.Resources))
	for _, r := range cfg.Preload.Resources {
		res = append(res, preload.Parse(r, nil))
	}

	m, err := viz.NewModel(viz.Options{
		Config:    cfg,
		Logger:    logger,
		Resources: res,
		OutDir:    outDir,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if watch && configFile != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			err := config.Watch(ctx, configFile, logger, func(c *config.Config) {
				p.Send(viz.ConfigMsg{Config: c})
			})
			if err != nil {
				logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
