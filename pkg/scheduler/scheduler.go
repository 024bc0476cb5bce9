// Package scheduler reads pending requests off the durable request
// stream, scores every known elevator against each request, and
// dispatches the winner by publishing a command to that car's command
// topic: a background goroutine with Start/Stop and a pure scoring
// helper, driven by a blocking consumer-group read instead of a ticker,
// per the at-least-once delivery contract the request stream provides.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/elevatorsim/controlplane/pkg/broker"
	"github.com/elevatorsim/controlplane/pkg/controller"
	"github.com/elevatorsim/controlplane/pkg/elevator"
	"github.com/elevatorsim/controlplane/pkg/log"
	"github.com/elevatorsim/controlplane/pkg/metrics"
	"github.com/elevatorsim/controlplane/pkg/request"
	"github.com/elevatorsim/controlplane/pkg/statestore"
	"github.com/rs/zerolog"
)

const (
	RequestStream = "elevator:requests:stream"
	requestGroup  = "scheduler-group"
	blockMillis   = 1000 // shutdown must be observed within one second
)

// Scheduler assigns pending requests to elevators.
type Scheduler struct {
	id     string
	bus    *broker.Broker
	store  statestore.Store
	logger zerolog.Logger

	elevatorIDs []string

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Scheduler that considers elevatorIDs as dispatch
// candidates.
func New(id string, bus *broker.Broker, store statestore.Store, elevatorIDs []string) *Scheduler {
	return &Scheduler{
		id:          id,
		bus:         bus,
		store:       store,
		logger:      log.WithComponent("scheduler"),
		elevatorIDs: elevatorIDs,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start creates the consumer group (if absent), drains any backlog of
// previously-delivered-but-unacked entries, and begins the live read
// loop in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.bus.EnsureGroup(ctx, RequestStream, requestGroup); err != nil {
		return err
	}
	if err := s.drainBacklog(ctx); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

// Stop signals the read loop to exit and waits for it to do so.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) drainBacklog(ctx context.Context) error {
	lastID := "0"
	for {
		entries, err := s.bus.ReadGroup(ctx, RequestStream, requestGroup, s.id, lastID, 0)
		if err != nil {
			return fmt.Errorf("drain backlog: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		for _, e := range entries {
			s.handleEntry(ctx, e)
		}
		lastID = entries[len(entries)-1].ID
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		entries, err := s.bus.ReadGroup(ctx, RequestStream, requestGroup, s.id, ">", blockMillis)
		if err != nil {
			s.logger.Error().Err(err).Msg("read group failed, continuing")
			continue
		}
		for _, e := range entries {
			s.handleEntry(ctx, e)
		}
	}
}

func (s *Scheduler) handleEntry(ctx context.Context, e broker.Entry) {
	timer := metrics.NewTimer()
	req, err := request.FromWireMap(e.Values)
	if err != nil {
		s.logger.Error().Err(err).Str("entry_id", e.ID).Msg("discarding malformed request, acking to avoid poison-pill redelivery")
		s.bus.Ack(ctx, RequestStream, requestGroup, e.ID)
		return
	}

	var elevatorID, commandName string
	var destFloor int

	if req.Type == request.KindInternal {
		// Internal request bypasses scoring entirely.
		elevatorID = req.ElevatorID
		destFloor = req.DestinationFloor
		commandName = "add_destination"
	} else {
		snapshots, err := s.fetchSnapshots(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to load elevator snapshots, leaving entry unacked for retry")
			return
		}
		best, err := selectBestElevator(snapshots, req)
		if err != nil {
			metrics.RequestsFailed.Inc()
			s.logger.Warn().Err(err).Str("request_id", req.ID).Msg("no_suitable_elevator")
			s.bus.Ack(ctx, RequestStream, requestGroup, e.ID)
			return
		}
		elevatorID = best
		destFloor = req.Floor
		commandName = "go_to_floor"
	}

	cmd := controller.Command{Command: commandName, Floor: destFloor, RequestID: req.ID}
	if err := s.bus.PublishJSON(ctx, "elevator:commands:"+elevatorID, cmd); err != nil {
		s.logger.Error().Err(err).Str("elevator_id", elevatorID).Msg("failed to dispatch command, leaving entry unacked")
		return
	}

	timer.ObserveDuration(metrics.SchedulingLatency)
	metrics.RequestsScheduled.Inc()
	s.bus.Ack(ctx, RequestStream, requestGroup, e.ID)
	s.logger.Info().
		Str("request_id", req.ID).
		Str("elevator_id", elevatorID).
		Int("destination_floor", destFloor).
		Msg("dispatched request")
}

func (s *Scheduler) fetchSnapshots(ctx context.Context) ([]elevator.Elevator, error) {
	snapshots := make([]elevator.Elevator, 0, len(s.elevatorIDs))
	for _, id := range s.elevatorIDs {
		data, err := s.store.Get(ctx, statestore.ElevatorKey(id))
		if err == statestore.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load snapshot for %s: %w", id, err)
		}
		var e elevator.Elevator
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode snapshot for %s: %w", id, err)
		}
		snapshots = append(snapshots, e)
	}
	return snapshots, nil
}

// selectBestElevator scores every candidate and returns the id of the
// lowest-scoring one, breaking ties by lowest elevator id.
//
// score = |current_floor - request_floor|
//
//	idle:   score -= 1          (idle cars are preferred)
//	moving: on the way?  score *= 0.8
//	        otherwise     score *= 5.0
func selectBestElevator(snapshots []elevator.Elevator, req *request.Request) (string, error) {
	if len(snapshots) == 0 {
		return "", fmt.Errorf("no elevator snapshots available")
	}

	sorted := append([]elevator.Elevator(nil), snapshots...)
	sort.Slice(sorted, func(i, j int) bool { return elevatorIDLess(sorted[i].ID, sorted[j].ID) })

	bestIdx := -1
	bestScore := math.Inf(1)
	for i, e := range sorted {
		score := float64(abs(e.CurrentFloor - req.Floor))
		switch e.Status {
		case elevator.StatusIdle:
			score -= 1
		default:
			if onTheWay(e, req) {
				score *= 0.8
			} else {
				score *= 5.0
			}
		}
		if score < bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return "", fmt.Errorf("no suitable elevator for request %s", req.ID)
	}
	return sorted[bestIdx].ID, nil
}

// onTheWay reports whether e is already travelling in req's direction
// and has not yet passed req's floor.
func onTheWay(e elevator.Elevator, req *request.Request) bool {
	switch e.Status {
	case elevator.StatusMovingUp:
		return req.Direction == request.DirectionUp && req.Floor >= e.CurrentFloor
	case elevator.StatusMovingDown:
		return req.Direction == request.DirectionDown && req.Floor <= e.CurrentFloor
	default:
		return false
	}
}

// elevatorIDLess orders elevator ids numerically when both parse as
// integers (the normal "1".."N" convention), falling back to a plain
// string comparison otherwise.
func elevatorIDLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
