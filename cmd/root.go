package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/finman/finman/internal/app"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagWorkers int
)

var rootCmd = &cobra.Command{
	Use:          "finman",
	Short:        "Personal finance tracker",
	Long:         "Budget threshold monitoring and recurring bill tracking.",
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "./config/application.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "Users processed concurrently by jobs (0 uses the configured value)")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openApplication(ctx context.Context) (*app.Application, error) {
	application, err := app.NewApplication(ctx, flagConfig)
	if err != nil {
		log.Errorf("failed to initialize application: %v", err)
		return nil, err
	}
	return application, nil
}

func workers(application *app.Application) int {
	if flagWorkers > 0 {
		return flagWorkers
	}
	return application.Config().Scheduler.Workers
}
