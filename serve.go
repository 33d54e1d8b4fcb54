package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shimwrapper-dashboard/api"
	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/runner"
	"shimwrapper-dashboard/store"
	"shimwrapper-dashboard/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API and watch the project files",
	RunE:  runServe,
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().String("static-dir", "", "directory with the dashboard UI")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	defer bus.Close()

	st := store.NewManager(cfg.Root, logger.Named("store"))
	rn := runner.NewManager(runner.Config{
		Root:    cfg.Root,
		Command: cfg.Command(),
		Bus:     bus,
		Logger:  logger.Named("runner"),
	})
	w, err := watch.New(cfg.Root, bus, logger.Named("watch"))
	if err != nil {
		return err
	}

	deps := api.Deps{
		Store:    st,
		Runner:   rn,
		Bus:      bus,
		Logger:   logger.Named("http"),
		Cooldown: cfg.RunCooldown,
		Timeout:  cfg.HTTPTimeout,
	}
	if cfg.StaticDir != "" {
		deps.Static = os.DirFS(cfg.StaticDir)
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.RegisterRoutes(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("dashboard listening",
			zap.String("addr", srv.Addr),
			zap.String("root", cfg.Root))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return w.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rn.Stop(shutdownCtx); err != nil {
			logger.Warn("stop runner", zap.Error(err))
		}
		// Hijacked websocket connections are not tracked by Shutdown;
		// closing the bus ends the event streams.
		bus.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
