// Package controller drives one elevator's state machine: it
// subscribes to that car's command topic, applies commands to the
// in-memory Elevator, persists snapshots, publishes status changes,
// and runs the movement task that walks the destination queue.
// Grounded on the per-task ticker-and-select cancellation shape a
// worker loop uses to drive a long-running job to completion while
// staying responsive to shutdown.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/elevatorsim/controlplane/pkg/broker"
	"github.com/elevatorsim/controlplane/pkg/elevator"
	"github.com/elevatorsim/controlplane/pkg/errs"
	"github.com/elevatorsim/controlplane/pkg/log"
	"github.com/elevatorsim/controlplane/pkg/metrics"
	"github.com/elevatorsim/controlplane/pkg/statestore"
	"github.com/rs/zerolog"
)

// Command is the flat payload delivered on an elevator's command
// topic. "go_to_floor" and "add_destination" both carry a destination
// floor; go_to_floor takes priority (it is prepended to the queue),
// add_destination is appended.
type Command struct {
	Command       string `json:"command"`
	Floor         int    `json:"floor"`
	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// StatusEvent is the payload published on an elevator's status topic:
// the snapshot (id as a number, matching the state-store schema) plus a
// numeric timestamp, per the wire contract.
type StatusEvent struct {
	ID           int    `json:"id"`
	CurrentFloor int    `json:"current_floor"`
	Status       string `json:"status"`
	DoorStatus   string `json:"door_status"`
	Destinations []int  `json:"destinations"`
	Timestamp    int64  `json:"timestamp"`
}

func commandTopic(elevatorID string) string { return "elevator:commands:" + elevatorID }
func statusTopic(elevatorID string) string  { return "elevator:status:" + elevatorID }

// Controller owns exactly one Elevator; no other goroutine in the
// process touches that Elevator's fields directly. A mutex protects
// every field the command loop and the movement task could otherwise
// race on, held across each transition+publish+persist step.
type Controller struct {
	mu       sync.Mutex
	elevator *elevator.Elevator

	store  statestore.Store
	bus    *broker.Broker
	logger zerolog.Logger

	numFloors int
	moving    bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Controller for e.
func New(e *elevator.Elevator, store statestore.Store, bus *broker.Broker, numFloors int) *Controller {
	return &Controller{
		elevator:  e,
		store:     store,
		bus:       bus,
		logger:    log.WithElevatorID(e.ID),
		numFloors: numFloors,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start loads (or persists the initial) snapshot, subscribes to the
// command topic, and begins processing commands. It returns once the
// subscription is established; processing continues in background
// goroutines until Stop is called.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.loadOrInit(ctx); err != nil {
		return err
	}
	sub, err := c.bus.Subscribe(ctx, commandTopic(c.elevator.ID))
	if err != nil {
		return fmt.Errorf("subscribe to command topic: %w", err)
	}
	go c.commandLoop(ctx, sub)
	return nil
}

func (c *Controller) loadOrInit(ctx context.Context) error {
	data, err := c.store.Get(ctx, statestore.ElevatorKey(c.elevator.ID))
	if err == statestore.ErrNotFound {
		return c.persist(ctx)
	}
	if err != nil {
		return err
	}
	var loaded elevator.Elevator
	if err := json.Unmarshal(data, &loaded); err != nil {
		return errs.Parse("failed to decode persisted snapshot", err)
	}
	loaded.FloorTravelTime = c.elevator.FloorTravelTime
	loaded.DoorOperationTime = c.elevator.DoorOperationTime
	c.mu.Lock()
	c.elevator = &loaded
	c.mu.Unlock()
	return nil
}

// Stop signals every background goroutine to exit and blocks until the
// command loop has exited. It does not wait for a running movement
// task; that task returns at its next timed wait without further
// mutation, and the last-persisted snapshot remains authoritative.
func (c *Controller) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Controller) commandLoop(ctx context.Context, sub *broker.Subscription) {
	defer close(c.doneCh)
	defer sub.Unsubscribe()
	for {
		select {
		case payload, ok := <-sub.Messages():
			if !ok {
				return
			}
			c.handlePayload(ctx, payload)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) handlePayload(ctx context.Context, payload []byte) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommandProcessingLatency)

	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		c.logger.Error().Err(err).Msg("discarding malformed command")
		return
	}
	if err := elevator.Validate(cmd.Floor, c.numFloors); err != nil {
		c.logger.Warn().Int("floor", cmd.Floor).Msg("discarding out-of-range command")
		return
	}

	switch cmd.Command {
	case "go_to_floor":
		c.handleGoToFloor(ctx, cmd.Floor)
	case "add_destination":
		c.handleAddDestination(ctx, cmd.Floor)
	default:
		c.logger.Warn().Str("command", cmd.Command).Msg("discarding unknown command")
	}
}

func (c *Controller) handleGoToFloor(ctx context.Context, floor int) {
	c.mu.Lock()
	atCurrentFloor := floor == c.elevator.CurrentFloor
	queueEmpty := len(c.elevator.Destinations) == 0
	c.mu.Unlock()

	if atCurrentFloor && queueEmpty {
		c.runDoorCycle(ctx)
		return
	}

	c.mu.Lock()
	c.elevator.PrependDestination(floor)
	shouldStart := !c.moving
	if shouldStart {
		c.moving = true
	}
	c.mu.Unlock()

	c.persist(ctx)
	c.publishStatus(ctx)
	if shouldStart {
		go c.runMovement(ctx)
	}
}

func (c *Controller) handleAddDestination(ctx context.Context, floor int) {
	c.mu.Lock()
	atCurrentFloor := floor == c.elevator.CurrentFloor
	queueEmpty := len(c.elevator.Destinations) == 0
	c.mu.Unlock()

	if atCurrentFloor && queueEmpty {
		c.runDoorCycle(ctx)
		return
	}

	c.mu.Lock()
	changed := c.elevator.AddDestination(floor)
	shouldStart := changed && !c.moving
	if shouldStart {
		c.moving = true
	}
	c.mu.Unlock()

	if changed {
		c.persist(ctx)
		c.publishStatus(ctx)
	}
	if shouldStart {
		go c.runMovement(ctx)
	}
}

// runDoorCycle opens the door, dwells 2s, and closes it again, for the
// "already at the requested floor" case. Publishes and persists at
// each transition.
func (c *Controller) runDoorCycle(ctx context.Context) {
	c.mu.Lock()
	c.elevator.DoorStatus = elevator.DoorOpen
	doorOpTime := c.elevator.DoorOperationTime
	c.mu.Unlock()
	c.persist(ctx)
	c.publishStatus(ctx)
	if !c.sleep(doorOpTime) {
		return
	}

	if !c.sleep(elevator.DefaultDwellTime) {
		return
	}

	c.mu.Lock()
	c.elevator.DoorStatus = elevator.DoorClosed
	c.mu.Unlock()
	c.persist(ctx)
	c.publishStatus(ctx)
	c.sleep(doorOpTime)
}

// runMovement is the single background task per controller: while the
// queue is non-empty it peeks the head as `target` (the destination is
// popped only on arrival, per the "destination popped only upon
// arrival" invariant — a crash mid-travel leaves the target in the
// persisted queue for recovery to resume), transitions to MOVING_*,
// publishes, waits the full travel time for that hop, arrives (sets
// current_floor, removes target from the queue), then runs the
// open/dwell/close door sequence
// before looping.
func (c *Controller) runMovement(ctx context.Context) {
	for {
		c.mu.Lock()
		target, ok := c.elevator.NextDestination()
		if !ok {
			c.elevator.SettleIdle()
			c.moving = false
			c.mu.Unlock()
			c.persist(ctx)
			c.publishStatus(ctx)
			return
		}
		c.elevator.Status = c.elevator.DirectionTo(target)
		travelFloors := abs(target - c.elevator.CurrentFloor)
		travelTime := time.Duration(travelFloors) * c.elevator.FloorTravelTime
		doorOpTime := c.elevator.DoorOperationTime
		c.mu.Unlock()

		c.persist(ctx)
		c.publishStatus(ctx)

		travelTimer := metrics.NewTimer()
		if !c.sleep(travelTime) {
			return
		}
		travelTimer.ObserveDuration(metrics.TravelDuration)

		c.mu.Lock()
		c.elevator.CurrentFloor = target
		// Remove target itself: a go_to_floor received during travel may
		// have been prepended ahead of it.
		for i, f := range c.elevator.Destinations {
			if f == target {
				c.elevator.Destinations = append(c.elevator.Destinations[:i], c.elevator.Destinations[i+1:]...)
				break
			}
		}
		c.elevator.Status = elevator.StatusIdle
		c.mu.Unlock()
		c.persist(ctx)
		c.publishStatus(ctx)

		doorTimer := metrics.NewTimer()

		c.mu.Lock()
		c.elevator.DoorStatus = elevator.DoorOpen
		c.mu.Unlock()
		c.persist(ctx)
		c.publishStatus(ctx)
		if !c.sleep(doorOpTime) {
			return
		}

		if !c.sleep(elevator.DefaultDwellTime) {
			return
		}

		c.mu.Lock()
		c.elevator.DoorStatus = elevator.DoorClosed
		c.mu.Unlock()
		c.persist(ctx)
		c.publishStatus(ctx)
		doorTimer.ObserveDuration(metrics.DoorCycleDuration)
		if !c.sleep(doorOpTime) {
			return
		}
	}
}

// sleep waits for d or until stopCh closes, reporting false on the
// latter so callers can return immediately without further mutation.
func (c *Controller) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.stopCh:
		return false
	}
}

func (c *Controller) persist(ctx context.Context) error {
	c.mu.Lock()
	data, err := json.Marshal(c.elevator)
	elevatorID := c.elevator.ID
	status := string(c.elevator.Status)
	queueDepth := len(c.elevator.Destinations)
	c.mu.Unlock()
	if err != nil {
		return errs.Parse("failed to marshal elevator snapshot", err)
	}
	if err := c.store.Set(ctx, statestore.ElevatorKey(elevatorID), data); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist elevator snapshot")
		return err
	}
	for _, s := range []elevator.Status{elevator.StatusIdle, elevator.StatusMovingUp, elevator.StatusMovingDown} {
		v := 0.0
		if string(s) == status {
			v = 1.0
		}
		metrics.ElevatorStatus.WithLabelValues(elevatorID, string(s)).Set(v)
	}
	metrics.ElevatorDestinationQueueDepth.WithLabelValues(elevatorID).Set(float64(queueDepth))
	return nil
}

func (c *Controller) publishStatus(ctx context.Context) {
	c.mu.Lock()
	elevatorID := c.elevator.ID
	id, idErr := strconv.Atoi(elevatorID)
	event := StatusEvent{
		ID:           id,
		CurrentFloor: c.elevator.CurrentFloor,
		Status:       string(c.elevator.Status),
		DoorStatus:   string(c.elevator.DoorStatus),
		Destinations: append([]int(nil), c.elevator.Destinations...),
		Timestamp:    time.Now().Unix(),
	}
	c.mu.Unlock()
	if idErr != nil {
		c.logger.Error().Err(idErr).Msg("elevator id is not numeric, dropping status event")
		return
	}
	if err := c.bus.PublishJSON(ctx, statusTopic(elevatorID), event); err != nil {
		c.logger.Error().Err(err).Msg("failed to publish status event")
	}
}

// Snapshot returns a copy of the elevator's current state.
func (c *Controller) Snapshot() elevator.Elevator {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := *c.elevator
	snap.Destinations = append([]int(nil), c.elevator.Destinations...)
	return snap
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
