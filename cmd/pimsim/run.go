package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pimsim/internal/export"
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/script"
	"github.com/san-kum/pimsim/internal/session"
	"github.com/san-kum/pimsim/internal/sim"
	"github.com/san-kum/pimsim/internal/storage"
	"github.com/spf13/cobra"
)

func runScript(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer e.logs.Close()

	code, err := readScript(args[0])
	if err != nil {
		return err
	}
	m, err := session.ParseMode(mode)
	if err != nil {
		return err
	}

	// without --time, run past the end of the autonomous period so the
	// session gets to stop on its own
	d := e.cfg.AutoDuration + 2*e.cfg.TickPeriod
	if duration > 0 {
		d = time.Duration(duration * float64(time.Second))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := sim.New(script.NewStarlark())
	s.SetLogger(e.logs.Logger, e.logs.Sampled)
	s.SetInstruments(e.ins)

	cfg := sim.Config{
		Mode:     m,
		Duration: d,
		Start:    e.cfg.Start(e.layout),
		Layout:   e.layout,
		Session:  e.cfg.Session(),
	}

	if len(starts) > 0 {
		return runEnsemble(ctx, s, code, cfg)
	}

	for _, mt := range metrics.Defaults() {
		s.AddMetric(mt)
	}
	ix, err := e.influx(ctx)
	if err != nil {
		return err
	}
	if ix != nil {
		defer ix.Close()
		s.AddObserver(ix.Sink(map[string]string{"script": args[0], "mode": string(m)}))
	}

	fmt.Printf("running %s (%s) on %s for %v\n", args[0], m, e.cfg.Layout, d)
	result, runErr := s.Run(ctx, code, cfg)
	if result == nil {
		return runErr
	}
	printResult(result)

	if saveRun {
		st, index, err := openStore(e.logs.Logger)
		if err != nil {
			return err
		}
		defer index.Close()
		runID, err := st.Save(args[0], e.cfg.Layout, cfg.Start.Type, result)
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved run: %s\n", runID)
	}
	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, args[0], e.cfg.Layout, result); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}
	if svgOut != "" {
		if err := writeFieldSVG(svgOut, e, cfg.Start.Type, result); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func printResult(r *sim.Result) {
	fmt.Printf("\nelapsed: %.2fs\n", r.Elapsed.Seconds())
	fmt.Printf("ticks: %d\n", len(r.Samples))
	if p, ok := r.Final(); ok {
		fmt.Printf("final: %s\n", p)
	}
	switch {
	case r.TimedOut:
		fmt.Println("autonomous period over")
	case r.Stopped:
		fmt.Println("stopped early")
	}

	if len(r.Metrics) > 0 {
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tVALUE")
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%.4f\n", name, r.Metrics[name])
		}
		w.Flush()
	}

	if len(r.Logs) > 0 {
		fmt.Println("\nlogs:")
		for _, line := range r.Logs {
			fmt.Printf("  %s\n", line)
		}
	}

	if len(r.Samples) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(
			[][]float64{r.Trace(0), r.Trace(1), r.Trace(2)},
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
			asciigraph.Caption("line sensors: left, center, right"),
		))
	}
}

func runEnsemble(ctx context.Context, s *sim.Simulator, code string, cfg sim.Config) error {
	infos := make([]robot.StartInfo, 0, len(starts))
	for _, arg := range starts {
		info, err := parseStart(arg, cfg.Start.Type)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}

	fmt.Printf("running %d starts (%s) for %v\n\n", len(infos), cfg.Mode, cfg.Duration)
	results, runErr := sim.NewEnsemble(s, infos, metrics.Defaults).Run(ctx, code, cfg)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tFINAL\tTICKS\tDISTANCE\tLINE_TIME\tTRACTION")
	for i, r := range results {
		if r == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\n", starts[i])
			continue
		}
		final := "-"
		if p, ok := r.Final(); ok {
			final = fmt.Sprintf("%.1f,%.1f,%.0f", p.X, p.Y, p.Dir)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\n",
			starts[i],
			final,
			len(r.Samples),
			r.Metrics["distance"],
			r.Metrics["line_time"],
			r.Metrics["traction"],
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// parseStart reads x,y,dir where dir is a direction name or degrees.
func parseStart(arg, robotType string) (robot.StartInfo, error) {
	parts := strings.Split(arg, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return robot.StartInfo{}, fmt.Errorf("bad start %q: want x,y[,dir]", arg)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return robot.StartInfo{}, fmt.Errorf("bad start %q: %w", arg, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return robot.StartInfo{}, fmt.Errorf("bad start %q: %w", arg, err)
	}
	var dir float64
	if len(parts) == 3 {
		name := strings.TrimSpace(parts[2])
		d, ok := field.StartDirection(name)
		if !ok {
			if d, err = strconv.ParseFloat(name, 64); err != nil {
				return robot.StartInfo{}, fmt.Errorf("bad start direction %q", name)
			}
		}
		dir = d
	}
	return robot.StartInfo{X: x, Y: y, Dir: dir, Type: robotType}, nil
}

// writeFieldSVG draws the layout as defined at the start of the run with
// the path travelled and the robot at its final pose.
func writeFieldSVG(path string, e *env, robotType string, r *sim.Result) error {
	f := e.cfg.NewField()
	if err := f.Define(*e.layout); err != nil {
		return err
	}

	out := export.FieldSVG{
		Width:   f.Width,
		Height:  f.Height,
		Scale:   4,
		Objects: f.Snapshot(),
	}
	for _, s := range r.Samples {
		out.Path = append(out.Path, geom.Vec{s.Pose.X, s.Pose.Y})
	}
	if p, ok := r.Final(); ok {
		t := robot.LookupType(robotType)
		body := geom.Corners(p.X, p.Y, p.Dir, t.Height, t.Width)
		out.Robot = &body
	}
	return os.WriteFile(path, []byte(out.Render()), 0644)
}
