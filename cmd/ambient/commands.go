package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ambient/internal/config"
	"github.com/san-kum/ambient/internal/events"
	"github.com/san-kum/ambient/internal/export"
	"github.com/san-kum/ambient/internal/frame"
	"github.com/san-kum/ambient/internal/loader"
	"github.com/san-kum/ambient/internal/metrics"
	"github.com/san-kum/ambient/internal/motion"
	"github.com/san-kum/ambient/internal/particles"
	"github.com/san-kum/ambient/internal/preload"
	"github.com/san-kum/ambient/internal/scenario"
	"github.com/san-kum/ambient/internal/storage"
	"github.com/san-kum/ambient/internal/stream"
)

func runField(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	field, err := cfg.NewField()
	if err != nil {
		return err
	}
	defer field.Dispose()

	step := scenario.Step{
		Preset:  preset,
		Pointer: pointer,
		Steps:   steps,
		Dt:      dt,
		Every:   every,
	}
	logger.Info("starting run",
		zap.Int("count", field.Len()),
		zap.Int("steps", steps),
		zap.String("pointer", pointer),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := scenario.Execute(ctx, field, step)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if err := scenario.Save(st, field, res); err != nil {
		return err
	}
	logger.Debug("run saved", zap.String("id", res.RunID), zap.Duration("elapsed", res.Elapsed))

	printResult(res)
	return nil
}

func printResult(res *scenario.Result) {
	fmt.Printf("run %s: %d steps, %d frames in %v\n",
		res.RunID, res.Step.Steps, len(res.Frames), res.Elapsed.Round(time.Millisecond))
	for _, name := range metrics.Names() {
		fmt.Printf("  %-10s %.4f\n", name, res.Metrics[name])
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	results, err := scenario.Run(ctx, sc, st, logger)
	for i := range results {
		printResult(&results[i])
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	sw := &scenario.Sweep{
		Base: scenario.Step{
			Preset:  preset,
			Pointer: sweepPointer,
			Steps:   sweepSteps,
			Dt:      dt,
			Every:   sweepSteps,
			Seed:    sweepSeed,
		},
		Param:  sweepParam,
		Min:    sweepMin,
		Max:    sweepMax,
		Points: sweepPoints,
	}
	if cmd.Flags().Changed("count") {
		sw.Base.Count = count
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := scenario.RunSweep(ctx, sw, logger)
	if err != nil {
		return err
	}

	names := metrics.Names()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s", strings.ToUpper(sw.Param))
	for _, name := range names {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(name))
	}
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "%.4f", r.Value)
		for _, name := range names {
			fmt.Fprintf(w, "\t%.4f", r.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tCOUNT\tSTEPS\tPOINTER\tENERGY")

	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.4f\n",
			run.ID,
			name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Count,
			run.Steps,
			run.Pointer,
			run.Metrics["energy"],
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

	names := metrics.Names()
	if metric != "" {
		names = []string{metric}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d\n", meta.Count)
	fmt.Printf("steps: %d\n\n", meta.Steps)

	for _, name := range names {
		data, err := st.Series(runID, name)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("no data to plot")
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

// pickFrame resolves a possibly negative frame index.
func pickFrame(frames []storage.Frame, idx int) (storage.Frame, error) {
	if len(frames) == 0 {
		return storage.Frame{}, export.ErrNoFrames
	}
	if idx < 0 {
		idx += len(frames)
	}
	if idx < 0 || idx >= len(frames) {
		return storage.Frame{}, fmt.Errorf("frame %d out of range (0..%d)", idx, len(frames)-1)
	}
	return frames[idx], nil
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if metric != "" {
		data, err := st.Series(meta.ID, metric)
		if err != nil {
			return err
		}
		return writeOutput(svgOut, []byte(export.SeriesToSVG(data, 800, 200, "#00d4ff")))
	}

	frames, err := st.LoadFrames(meta.ID)
	if err != nil {
		return err
	}
	fr, err := pickFrame(frames, frameAt)
	if err != nil {
		return err
	}
	return writeOutput(svgOut, []byte(export.SVG(fr.Particles, meta.Bounds, export.DefaultBackground)))
}

// rasterFor sizes a raster width pixels wide with the run's aspect ratio.
func rasterFor(meta *storage.RunMetadata, width int) *export.Raster {
	if width < 1 {
		width = 1
	}
	height := width
	if meta.Bounds.Width > 0 {
		height = int(math.Round(float64(width) * meta.Bounds.Height / meta.Bounds.Width))
	}
	if height < 1 {
		height = 1
	}
	return export.NewRaster(width, height, export.DefaultBackground)
}

func exportGIF(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(meta.ID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return export.ErrNoFrames
	}

	// one GIF frame per captured step, played back at the capture rate
	delay := 4
	if len(frames) > 1 {
		gap := float64(frames[1].Step-frames[0].Step) * meta.Dt
		delay = max(2, int(math.Round(gap*100/config.DefaultFPS)))
	}

	r := rasterFor(meta, gifWidth)
	gifRec := export.NewGIFRecorder(delay, 0)
	for _, fr := range frames {
		particles.Draw(r, fr.Particles, meta.Bounds)
		gifRec.Capture(r)
	}
	if err := gifRec.Save(gifOut); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames)\n", gifOut, gifRec.Len())
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(meta.ID)
	if err != nil {
		return err
	}
	fr, err := pickFrame(frames, frameAt)
	if err != nil {
		return err
	}

	b := meta.Bounds
	r := rasterFor(meta, int(math.Ceil(b.Width)))
	particles.Draw(r, fr.Particles, b)

	text := caption
	if text == "" {
		text = fmt.Sprintf("%s step %d", meta.ID, fr.Step)
	}
	var buf bytes.Buffer
	if err := export.PNG(&buf, r, pngScale, text); err != nil {
		return err
	}
	return writeOutput(pngOut, buf.Bytes())
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

// exportCSV writes one row per captured frame with every metric evaluated
// on that frame.
func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	if _, err := st.Load(runID); err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	return writeMetricsCSV(os.Stdout, frames)
}

func writeMetricsCSV(out io.Writer, frames []storage.Frame) error {
	names := metrics.Names()
	w := csv.NewWriter(out)
	if err := w.Write(append([]string{"step", "particles"}, names...)); err != nil {
		return err
	}
	for _, fr := range frames {
		row := []string{strconv.Itoa(fr.Step), strconv.Itoa(len(fr.Particles))}
		for _, name := range names {
			v, _ := metrics.Snapshot(name, fr.Particles)
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func serveField(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	triggers, err := cfg.TriggerEvents()
	if err != nil {
		return err
	}

	field, err := cfg.NewField()
	if err != nil {
		return err
	}
	defer field.Dispose()

	bus := events.NewBus()
	bundle := &motion.Bundle{
		Delay:     cfg.Loader.ImportDelay,
		FailFirst: cfg.Loader.FailFirst,
		FPS:       cfg.Render.FPS,
	}
	ld, err := loader.New(loader.Config{
		Eager:    cfg.Loader.Eager,
		Triggers: triggers,
		Import:   bundle.Import,
		Events:   bus,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer ld.Close()

	loop := frame.NewLoop()
	if err := field.Attach(loop, nil); err != nil {
		return err
	}
	loop.Subscribe(func(float64) {
		if a, ok := ld.Facade().(motion.Animator); ok {
			a.Tick()
		}
	})

	srv, err := stream.NewServer(stream.Config{
		Field:    field,
		Events:   bus,
		Status:   ld,
		Interval: cfg.Stream.Interval,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Stream.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ignoreCancel(loop.Run(ctx, cfg.Render.FPS)) })
	g.Go(func() error { return ignoreCancel(srv.Run(ctx)) })
	g.Go(func() error {
		logger.Info("streaming field", zap.String("addr", httpSrv.Addr), zap.Int("particles", field.Len()))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	if watch && configFile != "" {
		g.Go(func() error {
			return config.Watch(ctx, configFile, logger, func(c *config.Config) {
				if err := field.Tune(c.Field.Options); err != nil {
					logger.Warn("ignoring config reload", zap.Error(err))
					return
				}
				logger.Info("field retuned", zap.String("path", configFile))
			})
		})
	}

	err = g.Wait()
	logger.Info("stream stopped", zap.Uint64("frames", loop.Frames()), zap.String("loader", ld.Status().String()))
	return err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func benchField(cmd *cobra.Command, args []string) error {
	counts := []int{100, 1000, 5000}
	benchSteps := []int{100, 1000}

	fmt.Println("benchmarking particle field")
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tSTEPS\tTIME\tSTEPS/SEC\tPARTICLE-STEPS/SEC")

	b := particles.Bounds{Width: config.DefaultWidth, Height: config.DefaultHeight}
	for _, n := range counts {
		for _, s := range benchSteps {
			field, err := particles.New(n, b, particles.WithSeed(42))
			if err != nil {
				return err
			}
			field.SetPointer(b.Width/2, b.Height/2, true)

			start := time.Now()
			for i := 0; i < s; i++ {
				field.Step(1)
			}
			elapsed := time.Since(start)

			rate := float64(s) / elapsed.Seconds()
			fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.0f\n",
				n, s, elapsed.Round(time.Microsecond), rate, rate*float64(n))
		}
	}

	return w.Flush()
}

func runPreload(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	entries := args
	if len(entries) == 0 {
		entries = cfg.Preload.Resources
	}
	if len(entries) == 0 {
		fmt.Println("nothing to preload")
		return nil
	}

	client := &http.Client{Timeout: cfg.Preload.Timeout}
	res := make([]preload.Resource, len(entries))
	for i, e := range entries {
		res[i] = preload.Parse(e, client)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	pl := &preload.Preloader{
		Concurrency: cfg.Preload.Concurrency,
		Timeout:     cfg.Preload.Timeout,
		Logger:      logger,
	}
	final, err := pl.Run(ctx, res, func(p preload.Progress) {
		fmt.Printf("%s %d/%d %s\n", bar.ViewAs(p.Fraction()), p.Done, p.Total, p.Last)
	})
	if err != nil {
		return err
	}
	fmt.Printf("preloaded %d/%d (%d failed)\n", final.Done-final.Failed, final.Total, final.Failed)
	return nil
}
