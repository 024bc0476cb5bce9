// Command elevator-scheduler runs the request scheduler: it reads the
// durable request stream and dispatches each request to the
// best-scoring elevator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elevatorsim/controlplane/pkg/app"
	"github.com/elevatorsim/controlplane/pkg/config"
	"github.com/elevatorsim/controlplane/pkg/log"
	"github.com/elevatorsim/controlplane/pkg/scheduler"
	"github.com/spf13/cobra"
)

var (
	numElevators int
	schedulerID  string
	redisAddr    string
	logLevel     string
	logFormat    string
	configFile   string
)

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "elevator-scheduler",
		Short: "Runs the elevator request scheduler process",
		RunE:  run,
	}
	rootCmd.Flags().IntVar(&numElevators, "num-elevators", cfg.NumElevators, "number of elevators to manage")
	rootCmd.Flags().StringVar(&schedulerID, "scheduler-id", cfg.SchedulerID, "consumer id within the scheduler consumer group")
	rootCmd.Flags().StringVar(&redisAddr, "redis-addr", cfg.RedisAddr, "redis address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level")
	rootCmd.Flags().StringVar(&logFormat, "log-format", cfg.LogFormat, "log format (console|json)")
	rootCmd.Flags().StringVar(&configFile, "config-file", "elevator.yaml", "optional YAML overrides file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	cfg.NumElevators = numElevators
	cfg.SchedulerID = schedulerID
	cfg.RedisAddr = redisAddr
	cfg.LogLevel = logLevel
	cfg.LogFormat = logFormat
	cfg, err := config.LoadFile(configFile, cfg)
	if err != nil {
		return fmt.Errorf("load config file: %w", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogFormat == "json",
	})
	logger := log.WithComponent("elevator-scheduler")

	deps, err := app.NewDeps(cfg, logger)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer deps.Close()

	ctx := context.Background()
	ids := app.ElevatorIDs(cfg.NumElevators)
	sched := scheduler.New(cfg.SchedulerID, deps.Broker, deps.Store, ids)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	logger.Info().Str("scheduler_id", cfg.SchedulerID).Msg("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down scheduler")
	sched.Stop()
	return nil
}
