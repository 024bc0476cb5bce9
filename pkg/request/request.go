// Package request models the two kinds of elevator requests the system
// accepts: an external hall call (floor + direction) and an internal
// car call (elevator id + destination floor). Both share an envelope
// of id/timestamp/status fields, so Request is one struct with a Kind
// discriminator rather than an interface hierarchy, matching the
// flat wire schema a Redis stream entry encodes.
package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/elevatorsim/controlplane/pkg/errs"
	"github.com/google/uuid"
)

// Kind discriminates the two request variants.
type Kind string

const (
	KindExternal Kind = "external"
	KindInternal Kind = "internal"
)

// Direction is the hall-call direction for an external request.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Status is the request's lifecycle state. The system never mutates a
// request's status after creation — stream acknowledgement is the
// implicit completion signal — so PENDING is the only value any
// request actually carries.
type Status string

const (
	StatusPending Status = "pending"
)

// Request is the tagged-variant envelope for both request kinds.
type Request struct {
	ID        string    `json:"id"`
	Type      Kind      `json:"request_type"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`

	// External fields
	Floor     int       `json:"floor,omitempty"`
	Direction Direction `json:"direction,omitempty"`

	// Internal fields
	ElevatorID       string `json:"elevator_id,omitempty"`
	DestinationFloor int    `json:"destination_floor,omitempty"`
}

// NewExternal builds a validated hall call. Direction is accepted
// case-insensitively.
func NewExternal(floor int, dir Direction, numFloors int) (*Request, error) {
	dir = normalizeDirection(dir)
	if dir != DirectionUp && dir != DirectionDown {
		return nil, errs.Validation("direction must be up or down")
	}
	if floor < 1 || floor > numFloors {
		return nil, errs.Validation("floor out of range")
	}
	return &Request{
		ID:        uuid.New().String(),
		Type:      KindExternal,
		Timestamp: time.Now(),
		Status:    StatusPending,
		Floor:     floor,
		Direction: dir,
	}, nil
}

func normalizeDirection(dir Direction) Direction {
	switch strings.ToLower(string(dir)) {
	case string(DirectionUp):
		return DirectionUp
	case string(DirectionDown):
		return DirectionDown
	default:
		return dir
	}
}

// NewInternal builds a validated car call.
func NewInternal(elevatorID string, destFloor int, numFloors int) (*Request, error) {
	if elevatorID == "" {
		return nil, errs.Validation("elevator_id is required")
	}
	if destFloor < 1 || destFloor > numFloors {
		return nil, errs.Validation("destination_floor out of range")
	}
	return &Request{
		ID:               uuid.New().String(),
		Type:             KindInternal,
		Timestamp:        time.Now(),
		Status:           StatusPending,
		ElevatorID:       elevatorID,
		DestinationFloor: destFloor,
	}, nil
}

// ToWireMap flattens Request into the string-keyed map a stream entry
// stores its fields as.
func (r *Request) ToWireMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":            r.ID,
		"request_type":  string(r.Type),
		"timestamp":     r.Timestamp.Format(time.RFC3339Nano),
		"status":        string(r.Status),
	}
	switch r.Type {
	case KindExternal:
		m["floor"] = r.Floor
		m["direction"] = string(r.Direction)
	case KindInternal:
		m["elevator_id"] = r.ElevatorID
		m["destination_floor"] = r.DestinationFloor
	}
	return m
}

// FromWireMap parses the flat string-keyed schema a stream entry
// carries back into a Request, tolerating the loosely-typed values a
// broker client hands back (everything arrives as a string).
func FromWireMap(m map[string]string) (*Request, error) {
	r := &Request{
		ID:     m["id"],
		Type:   Kind(m["request_type"]),
		Status: Status(m["status"]),
	}
	if ts, ok := m["timestamp"]; ok && ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, errs.Parse("invalid timestamp", err)
		}
		r.Timestamp = parsed
	}
	switch r.Type {
	case KindExternal:
		floor, err := parseIntField(m, "floor")
		if err != nil {
			return nil, err
		}
		r.Floor = floor
		r.Direction = normalizeDirection(Direction(m["direction"]))
	case KindInternal:
		r.ElevatorID = m["elevator_id"]
		destFloor, err := parseIntField(m, "destination_floor")
		if err != nil {
			return nil, err
		}
		r.DestinationFloor = destFloor
	default:
		return nil, errs.Parse(fmt.Sprintf("unknown request_type %q", m["request_type"]), nil)
	}
	return r, nil
}

func parseIntField(m map[string]string, key string) (int, error) {
	var n int
	_, err := fmt.Sscanf(m[key], "%d", &n)
	if err != nil {
		return 0, errs.Parse(fmt.Sprintf("invalid %s", key), err)
	}
	return n, nil
}
