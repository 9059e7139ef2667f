package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/server"
	"github.com/san-kum/pimsim/internal/session"
	"github.com/spf13/cobra"
)

func serve(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer e.logs.Close()
	log := e.logs.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	hub := server.NewHub(log)
	opts := []session.Option{
		session.WithReporter(report.Multi{hub, report.NewLogger(log)}),
		session.WithLogger(log),
		session.WithSampledLogger(e.logs.Sampled),
		session.WithMetrics(e.ins),
		session.WithField(e.cfg.NewField()),
	}
	ix, err := e.influx(ctx)
	if err != nil {
		return err
	}
	if ix != nil {
		defer ix.Close()
		opts = append(opts, session.WithObserver(ix.Sink(map[string]string{"addr": addr})))
	}
	sess, err := session.New(e.cfg.Session(), opts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.DefineObjects(*e.layout); err != nil {
		return err
	}
	if codeFile != "" {
		code, err := readScript(codeFile)
		if err != nil {
			return err
		}
		if err := sess.UploadCode(code); err != nil {
			return err
		}
	}

	srv := server.New(sess, hub,
		server.WithPath(e.cfg.Server.Path),
		server.WithLogger(log),
		server.WithStart(e.cfg.Start(e.layout)),
		server.WithContext(ctx),
	)
	log.Info().
		Str("addr", addr).
		Str("path", e.cfg.Server.Path).
		Str("layout", e.cfg.Layout).
		Str("session", sess.ID().String()).
		Msg("serving")
	return srv.ListenAndServe(ctx, addr)
}
