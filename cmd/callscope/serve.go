package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/callscope/internal/api"
	"github.com/MikeSquared-Agency/callscope/internal/hermes"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and NATS submission listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.events != nil {
			if err := a.events.Subscribe(hermes.SubjectCallSubmit, a.proc.HandleSubmit); err != nil {
				return err
			}
		} else {
			slog.Warn("NATS not configured, running without events")
		}

		port := servePort
		if port == 0 {
			port = cfg.Port
		}
		srv := api.NewServer(port, a.proc, api.Options{
			MaxFileSize:     cfg.MaxFileSize,
			AllowedOrigins:  cfg.AllowedOrigins,
			AnalysisTimeout: cfg.AnalysisTimeout,
		}, slog.Default())

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		slog.Info("callscope ready", "port", port, "env", cfg.Env)
		if err := g.Wait(); err != nil {
			return err
		}
		slog.Info("callscope stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from CALLSCOPE_PORT)")
	rootCmd.AddCommand(serveCmd)
}
