package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"job_fetcher/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run scheduled searches until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, appOptions{publisher: true, tracing: true})
		if err != nil {
			return err
		}
		defer a.close()

		sched := scheduler.NewScheduler(a.searchService(), scheduler.Config{
			Spec:         a.cfg.Search.Schedule,
			StartupDelay: a.cfg.Search.StartupDelay,
			RunTimeout:   a.cfg.Search.RunTimeout,
		}, a.logger)

		a.logger.Info("starting job fetcher",
			zap.String("version", version),
			zap.String("schedule", a.cfg.Search.Schedule),
			zap.String("database", a.cfg.Database.Driver),
			zap.Bool("publisher", a.publisher != nil),
		)

		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("scheduler error", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
