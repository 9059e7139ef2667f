package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/config"
	"github.com/san-kum/pimsim/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func showLayouts(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		l, err := config.LoadLayout(args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(l)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tWALLS\tINTERACTABLES\tRAMPS\tTAPE\tSTART")
	for _, name := range config.ListPresets() {
		l := config.GetPreset(name)
		start := "-"
		if l.Start != nil {
			start = fmt.Sprintf("%.0f,%.0f %s", l.Start.X, l.Start.Y, l.Start.Dir)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			name, len(l.Walls), len(l.Interactables), len(l.Ramps), len(l.TapeLines), start)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, ix, err := openStore(zerolog.Nop())
	if err != nil {
		return err
	}
	defer ix.Close()

	// runs saved by older versions or copied in have no index entry yet
	if _, err := st.Reindex(ix); err != nil {
		return err
	}

	q := storage.Query{Script: listScript, Mode: listMode, Limit: listLimit}
	if f := cmd.Flag("layout"); f != nil && f.Changed {
		q.Layout = layoutName
	}
	runs, err := ix.Find(q)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCRIPT\tMODE\tLAYOUT\tTIME\tDURATION\tTICKS\tDISTANCE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2fs\t%d\t%.2f\n",
			run.ID,
			run.Script,
			run.Mode,
			run.Layout,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Ticks,
			run.Distance,
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

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("script: %s (%s)\n", meta.Script, meta.Mode)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(i int) float64
	}{
		{"x (in)", func(i int) float64 { return samples[i].Pose.X }},
		{"y (in)", func(i int) float64 { return samples[i].Pose.Y }},
		{"dir (deg)", func(i int) float64 { return samples[i].Pose.Dir }},
		{"center line sensor", func(i int) float64 { return samples[i].Sensors[1] }},
	}
	for _, s := range series {
		data := make([]float64, len(samples))
		for i := range samples {
			data[i] = s.value(i)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(meta.Metrics) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METRIC\tVALUE")
		names := make([]string, 0, len(meta.Metrics))
		for name := range meta.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%.4f\n", name, meta.Metrics[name])
		}
		return w.Flush()
	}
	return nil
}
