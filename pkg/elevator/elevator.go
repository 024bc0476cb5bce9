// Package elevator holds the Elevator value type: its status, its
// ordered destination queue, and the pure transitions the controller
// drives it through. Nothing here talks to a store or broker.
package elevator

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/elevatorsim/controlplane/pkg/errs"
)

// Status is the elevator's motion state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusMovingUp   Status = "moving_up"
	StatusMovingDown Status = "moving_down"
)

// DoorStatus is the elevator's door state.
type DoorStatus string

const (
	DoorOpen   DoorStatus = "open"
	DoorClosed DoorStatus = "closed"
)

// Default timing constants, overridable per Elevator for testing.
const (
	DefaultFloorTravelTime   = time.Second
	DefaultDoorOperationTime = 1500 * time.Millisecond
	DefaultDwellTime         = 2 * time.Second
)

// Elevator is the full snapshot of one car's state. Fields are exported
// plain data; mutation happens through the methods below so invariants
// (no duplicate destinations, no self-enqueue) hold at every call site.
// ID is kept as a string internally (it is used throughout as a map key
// and topic-name suffix), but the wire/persisted representation encodes
// it as the numeric id the schema calls for; see MarshalJSON.
type Elevator struct {
	ID                string
	CurrentFloor      int
	Status            Status
	DoorStatus        DoorStatus
	Destinations      []int
	FloorTravelTime   time.Duration
	DoorOperationTime time.Duration
}

// wireElevator is the exact schema: {id:int, current_floor:int,
// status:string, door_status:string, destinations:int[]}. No other
// field is persisted or served.
type wireElevator struct {
	ID           int    `json:"id"`
	CurrentFloor int    `json:"current_floor"`
	Status       string `json:"status"`
	DoorStatus   string `json:"door_status"`
	Destinations []int  `json:"destinations"`
}

// MarshalJSON encodes the elevator as the five-field wire schema, with
// id as a number.
func (e *Elevator) MarshalJSON() ([]byte, error) {
	id, err := strconv.Atoi(e.ID)
	if err != nil {
		return nil, errs.Parse("elevator id is not numeric", err)
	}
	destinations := e.Destinations
	if destinations == nil {
		destinations = []int{}
	}
	return json.Marshal(wireElevator{
		ID:           id,
		CurrentFloor: e.CurrentFloor,
		Status:       string(e.Status),
		DoorStatus:   string(e.DoorStatus),
		Destinations: destinations,
	})
}

// UnmarshalJSON decodes the five-field wire schema back into an
// Elevator. Timing fields are not part of the wire schema and are left
// at their zero value; callers restore them from defaults.
func (e *Elevator) UnmarshalJSON(data []byte) error {
	var w wireElevator
	if err := json.Unmarshal(data, &w); err != nil {
		return errs.Parse("failed to decode elevator snapshot", err)
	}
	e.ID = strconv.Itoa(w.ID)
	e.CurrentFloor = w.CurrentFloor
	e.Status = Status(w.Status)
	e.DoorStatus = DoorStatus(w.DoorStatus)
	e.Destinations = w.Destinations
	return nil
}

// New constructs an idle, closed-door elevator parked at the ground
// floor (floor 1), with the default timing constants.
func New(id string) *Elevator {
	return &Elevator{
		ID:                id,
		CurrentFloor:      1,
		Status:            StatusIdle,
		DoorStatus:        DoorClosed,
		Destinations:      nil,
		FloorTravelTime:   DefaultFloorTravelTime,
		DoorOperationTime: DefaultDoorOperationTime,
	}
}

// AddDestination appends floor to the destination queue unless it is
// the current floor (nothing to travel to) or already queued
// (idempotent re-delivery of the same command is a no-op). Returns
// true if the queue changed.
func (e *Elevator) AddDestination(floor int) bool {
	if floor == e.CurrentFloor {
		return false
	}
	for _, f := range e.Destinations {
		if f == floor {
			return false
		}
	}
	e.Destinations = append(e.Destinations, floor)
	return true
}

// PrependDestination inserts floor at the head of the queue (highest
// priority, used by go_to_floor) unless it is the current floor or
// already queued. Returns true if the queue changed.
func (e *Elevator) PrependDestination(floor int) bool {
	if floor == e.CurrentFloor {
		return false
	}
	for _, f := range e.Destinations {
		if f == floor {
			return false
		}
	}
	e.Destinations = append([]int{floor}, e.Destinations...)
	return true
}

// NextDestination returns the head of the queue and whether one exists.
func (e *Elevator) NextDestination() (int, bool) {
	if len(e.Destinations) == 0 {
		return 0, false
	}
	return e.Destinations[0], true
}

// PopDestination removes the head of the queue, if any.
func (e *Elevator) PopDestination() {
	if len(e.Destinations) == 0 {
		return
	}
	e.Destinations = e.Destinations[1:]
}

// DirectionTo returns the travel status implied by moving from the
// current floor toward floor. Returns StatusIdle if already there.
func (e *Elevator) DirectionTo(floor int) Status {
	switch {
	case floor > e.CurrentFloor:
		return StatusMovingUp
	case floor < e.CurrentFloor:
		return StatusMovingDown
	default:
		return StatusIdle
	}
}

// SettleIdle marks the elevator idle, used once the destination queue
// drains. DoorStatus is left unchanged.
func (e *Elevator) SettleIdle() {
	e.Status = StatusIdle
}

// Validate checks that floor lies within [1, numFloors].
func Validate(floor, numFloors int) error {
	if floor < 1 || floor > numFloors {
		return errs.Validation("floor out of range")
	}
	return nil
}
