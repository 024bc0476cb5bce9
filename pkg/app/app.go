// Package app wires the concrete adapters (Redis client, state store,
// broker) and constructs the domain components from a loaded Config,
// so supervisors build dependencies once and inject them, instead of
// each component reaching for a global.
package app

import (
	"fmt"

	"github.com/elevatorsim/controlplane/pkg/broker"
	"github.com/elevatorsim/controlplane/pkg/config"
	"github.com/elevatorsim/controlplane/pkg/statestore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Deps holds the shared adapters every process-level component needs.
type Deps struct {
	Store  statestore.Store
	Broker *broker.Broker
	Config config.Config

	redisClient *redis.Client
}

// NewDeps dials Redis per cfg and returns the shared adapters. Close
// must be called on shutdown.
func NewDeps(cfg config.Config, logger zerolog.Logger) (*Deps, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Deps{
		Store:       statestore.NewRedisStoreFromClient(client),
		Broker:      broker.New(client, logger),
		Config:      cfg,
		redisClient: client,
	}, nil
}

// ElevatorIDs returns the deterministic list of elevator ids the
// cluster manages: "1".."N", matching the command/status topic naming
// convention (elevator:commands:{id}).
func ElevatorIDs(numElevators int) []string {
	ids := make([]string, numElevators)
	for i := 0; i < numElevators; i++ {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	return ids
}

// Close releases the shared Redis connection.
func (d *Deps) Close() error {
	return d.redisClient.Close()
}
