package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/spf13/cobra"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the document validation workers and the expiry sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			container, err := NewContainer(cfg, false)
			if err != nil {
				return err
			}
			defer container.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logx.Infof("Starting %d validation workers", cfg.Worker.Count)
			container.NewValidationWorker().Run(ctx)
			logx.Info("Workers stopped")
			return nil
		},
	}
}

func newExpireCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark valid documents past their expiry date as expired, once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			container, err := NewContainer(cfg, false)
			if err != nil {
				return err
			}
			defer container.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			n, err := container.DocumentService.SweepExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			logx.Infof("Expired %d documents", n)
			return nil
		},
	}
}
