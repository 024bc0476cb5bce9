// Command elevator-controller runs one controller process that owns
// every elevator car in the cluster, subscribing each to its command
// topic and driving its movement task.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elevatorsim/controlplane/pkg/app"
	"github.com/elevatorsim/controlplane/pkg/config"
	"github.com/elevatorsim/controlplane/pkg/controller"
	"github.com/elevatorsim/controlplane/pkg/elevator"
	"github.com/elevatorsim/controlplane/pkg/log"
	"github.com/spf13/cobra"
)

var (
	numFloors    int
	numElevators int
	redisAddr    string
	logLevel     string
	logFormat    string
	configFile   string
)

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "elevator-controller",
		Short: "Runs the elevator controller process",
		RunE:  run,
	}
	rootCmd.Flags().IntVar(&numFloors, "num-floors", cfg.NumFloors, "number of floors in the building")
	rootCmd.Flags().IntVar(&numElevators, "num-elevators", cfg.NumElevators, "number of elevators to manage")
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
	cfg.NumFloors = numFloors
	cfg.NumElevators = numElevators
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
	logger := log.WithComponent("elevator-controller")

	deps, err := app.NewDeps(cfg, logger)
	if err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}
	defer deps.Close()

	ctx := context.Background()
	ids := app.ElevatorIDs(cfg.NumElevators)
	controllers := make([]*controller.Controller, 0, len(ids))
	for _, id := range ids {
		e := elevator.New(id)
		c := controller.New(e, deps.Store, deps.Broker, cfg.NumFloors)
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("start controller %s: %w", id, err)
		}
		controllers = append(controllers, c)
		logger.Info().Str("elevator_id", id).Msg("controller started")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down controllers")
	for _, c := range controllers {
		c.Stop()
	}
	return nil
}
