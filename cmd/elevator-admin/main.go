// Command elevator-admin exposes operator tooling over the request
// stream and elevator snapshot cache: trimming/inspecting the stream,
// and listing current elevator snapshots. These mirror the ingress
// endpoints for stream trimming and snapshot listing without standing
// up an HTTP surface.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/elevatorsim/controlplane/pkg/app"
	"github.com/elevatorsim/controlplane/pkg/config"
	"github.com/elevatorsim/controlplane/pkg/elevator"
	"github.com/elevatorsim/controlplane/pkg/errs"
	"github.com/elevatorsim/controlplane/pkg/log"
	"github.com/elevatorsim/controlplane/pkg/scheduler"
	"github.com/elevatorsim/controlplane/pkg/statestore"
	"github.com/spf13/cobra"
)

func main() {
	log.Init(log.Config{Level: log.InfoLevel})
	cfg := config.Load()

	var redisAddr string
	var numElevators int

	rootCmd := &cobra.Command{Use: "elevator-admin", Short: "Operator tooling for the elevator control plane"}
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", cfg.RedisAddr, "redis address")
	rootCmd.PersistentFlags().IntVar(&numElevators, "num-elevators", cfg.NumElevators, "number of elevators")

	newDeps := func() (*app.Deps, error) {
		depsCfg := cfg
		depsCfg.RedisAddr = redisAddr
		return app.NewDeps(depsCfg, log.Logger)
	}

	requestsCmd := &cobra.Command{Use: "requests", Short: "Inspect and maintain the request stream"}

	var minID string
	var maxLen int64
	trimCmd := &cobra.Command{
		Use:   "trim",
		Short: "Trim the request stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			haveMinID := minID != ""
			haveMaxLen := maxLen > 0
			if haveMinID == haveMaxLen {
				return errs.BadArgument("exactly one of --min-id or --maxlen is required")
			}

			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.Close()
			ctx := context.Background()
			if haveMinID {
				return deps.Broker.TrimMinID(ctx, scheduler.RequestStream, minID)
			}
			return deps.Broker.TrimMaxLen(ctx, scheduler.RequestStream, maxLen)
		},
	}
	trimCmd.Flags().StringVar(&minID, "min-id", "", "trim entries older than this stream id")
	trimCmd.Flags().Int64Var(&maxLen, "maxlen", 0, "cap the stream to this many entries")

	var lo, hi string
	rangeCmd := &cobra.Command{
		Use:   "range",
		Short: "List stream entries between two ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.Close()
			if lo == "" {
				lo = "-"
			}
			if hi == "" {
				hi = "+"
			}
			entries, err := deps.Broker.Range(context.Background(), scheduler.RequestStream, lo, hi)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			for _, e := range entries {
				enc.Encode(e)
			}
			return nil
		},
	}
	rangeCmd.Flags().StringVar(&lo, "lo", "-", "range start id")
	rangeCmd.Flags().StringVar(&hi, "hi", "+", "range end id")

	requestsCmd.AddCommand(trimCmd, rangeCmd)

	elevatorsCmd := &cobra.Command{Use: "elevators", Short: "Inspect elevator snapshots"}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List current elevator snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newDeps()
			if err != nil {
				return err
			}
			defer deps.Close()
			ctx := context.Background()
			enc := json.NewEncoder(os.Stdout)
			for _, id := range app.ElevatorIDs(numElevators) {
				data, err := deps.Store.Get(ctx, statestore.ElevatorKey(id))
				if err != nil {
					continue
				}
				var e elevator.Elevator
				if err := json.Unmarshal(data, &e); err != nil {
					continue
				}
				enc.Encode(&e)
			}
			return nil
		},
	}
	elevatorsCmd.AddCommand(listCmd)

	rootCmd.AddCommand(requestsCmd, elevatorsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errs.Is(err, errs.KindBadArgument) {
			fmt.Fprintln(os.Stderr, rootCmd.UsageString())
		}
		os.Exit(1)
	}
}
