package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/pimsim/internal/export"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/session"
	"github.com/san-kum/pimsim/internal/viz"
	"github.com/spf13/cobra"
)

const watchReportBuffer = 512

func watchScript(cmd *cobra.Command, args []string) error {
	// the terminal belongs to the viewer; logs only reach the file and
	// graylog outputs
	e, err := setup(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer e.logs.Close()

	code, err := readScript(args[0])
	if err != nil {
		return err
	}

	reports := report.NewChan(watchReportBuffer)
	opts := []session.Option{
		session.WithReporter(report.Multi{reports, report.NewLogger(e.logs.Logger)}),
		session.WithLogger(e.logs.Logger),
		session.WithSampledLogger(e.logs.Sampled),
		session.WithMetrics(e.ins),
		session.WithField(e.cfg.NewField()),
	}
	ix, err := e.influx(cmd.Context())
	if err != nil {
		return err
	}
	if ix != nil {
		defer ix.Close()
		opts = append(opts, session.WithObserver(ix.Sink(map[string]string{"script": args[0]})))
	}
	sess, err := session.New(e.cfg.Session(), opts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.DefineObjects(*e.layout); err != nil {
		return err
	}
	if err := sess.UploadCode(code); err != nil {
		return err
	}

	model := viz.NewModel(sess, reports.C(), viz.Options{
		Start:        e.cfg.Start(e.layout),
		FieldWidth:   e.cfg.Field.Width,
		FieldHeight:  e.cfg.Field.Height,
		AutoDuration: e.cfg.AutoDuration,
		Theme:        theme,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if dropped := reports.Dropped(); dropped > 0 {
		e.logs.Logger.Warn().Uint64("dropped", dropped).Msg("viewer fell behind")
	}

	if svgOut != "" {
		m, ok := final.(viz.Model)
		if !ok {
			return fmt.Errorf("unexpected model %T", final)
		}
		if err := os.WriteFile(svgOut, []byte(export.CanvasToSVG(m.Canvas(), 4)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}
	return nil
}
