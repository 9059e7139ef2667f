package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/config"
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/logging"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	layoutName string
	robotType  string
	// run
	mode     string
	duration float64
	saveRun  bool
	jsonOut  string
	svgOut   string
	starts   []string
	// serve
	addr     string
	codeFile string
	// watch
	theme string
	// list
	listScript string
	listMode   string
	listLimit  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pimsim",
		Short:         "differential drive robot simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pimsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().StringVar(&layoutName, "layout", "", "preset name or layout file")
	rootCmd.PersistentFlags().StringVar(&robotType, "robot", "", "robot type (light, medium, heavy)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve a session over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address")
	serveCmd.Flags().StringVar(&codeFile, "code", "", "script to upload before the first client connects")

	runCmd := &cobra.Command{
		Use:   "run [script]",
		Short: "run a script headless",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	runCmd.Flags().StringVar(&mode, "mode", "auto", "mode (teleop, auto)")
	runCmd.Flags().Float64Var(&duration, "time", 0, "seconds to run, the autonomous period when 0")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "save the run to the data directory")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "write the run as json")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "write the field and path as svg")
	runCmd.Flags().StringArrayVar(&starts, "from", nil, "start position x,y,dir; repeat to run several")

	watchCmd := &cobra.Command{
		Use:   "watch [script]",
		Short: "run a script with live visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  watchScript,
	}
	watchCmd.Flags().StringVar(&theme, "theme", "field", "color theme")
	watchCmd.Flags().StringVar(&svgOut, "svg", "", "write the last frame as svg on exit")

	checkCmd := &cobra.Command{
		Use:   "check [script]",
		Short: "compile a script and list its entry points",
		Args:  cobra.ExactArgs(1),
		RunE:  checkScript,
	}

	layoutsCmd := &cobra.Command{
		Use:   "layouts [name]",
		Short: "list preset layouts or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showLayouts,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	listCmd.Flags().StringVar(&listScript, "script", "", "only runs of this script")
	listCmd.Flags().StringVar(&listMode, "mode", "", "only runs in this mode")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "at most this many runs")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	rootCmd.AddCommand(serveCmd, runCmd, watchCmd, checkCmd, layoutsCmd, listCmd, plotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every command that drives a session starts from.
type env struct {
	cfg    *config.Config
	layout *field.Layout
	logs   *logging.Loggers
	ins    *metrics.Instruments
}

// setup loads the config and applies the persistent flags over it. Log
// output goes to console.
func setup(cmd *cobra.Command, console io.Writer) (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		cfg.Log.Level = logLevel
	}
	if f := cmd.Flag("layout"); f != nil && f.Changed {
		cfg.Layout = layoutName
	}
	if robotType != "" {
		cfg.Robot.Type = robotType
	}

	layout, err := config.LoadLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}

	logs, err := logging.Setup(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Graylog: cfg.Log.Graylog,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	ins, err := metrics.New()
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return &env{cfg: cfg, layout: layout, logs: logs, ins: ins}, nil
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

// influx connects the per-tick sink when influx.url is configured. It
// returns nil otherwise.
func (e *env) influx(ctx context.Context) (*metrics.Influx, error) {
	c := e.cfg.Influx
	if c.URL == "" {
		return nil, nil
	}
	return metrics.ConnectInflux(ctx, c.URL, c.Token, c.Org, c.Bucket, e.logs.Logger)
}

// openStore returns the run store under --data with its sqlite index.
func openStore(log zerolog.Logger) (*storage.Store, *storage.Index, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, nil, err
	}
	ix, err := storage.OpenIndex(filepath.Join(dataDir, "runs.db"), log)
	if err != nil {
		return nil, nil, err
	}
	st.UseIndex(ix)
	return st, ix, nil
}
