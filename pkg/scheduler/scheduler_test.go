package scheduler

import (
	"testing"

	"github.com/elevatorsim/controlplane/pkg/elevator"
	"github.com/elevatorsim/controlplane/pkg/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idleAt(id string, floor int) elevator.Elevator {
	return elevator.Elevator{ID: id, CurrentFloor: floor, Status: elevator.StatusIdle, DoorStatus: elevator.DoorClosed}
}

func TestSelectBestElevator_IdleNearestTieBreak(t *testing.T) {
	snapshots := []elevator.Elevator{idleAt("1", 1), idleAt("2", 1), idleAt("3", 1)}
	req, err := request.NewExternal(3, request.DirectionUp, 10)
	require.NoError(t, err)

	id, err := selectBestElevator(snapshots, req)
	require.NoError(t, err)
	assert.Equal(t, "1", id)
}

func TestSelectBestElevator_OnTheWayBonus(t *testing.T) {
	snapshots := []elevator.Elevator{
		idleAt("1", 1),
		{ID: "2", CurrentFloor: 5, Status: elevator.StatusMovingUp, DoorStatus: elevator.DoorClosed, Destinations: []int{6}},
		idleAt("3", 10),
	}
	req, err := request.NewExternal(6, request.DirectionUp, 10)
	require.NoError(t, err)

	id, err := selectBestElevator(snapshots, req)
	require.NoError(t, err)
	assert.Equal(t, "2", id)
}

func TestSelectBestElevator_NoSnapshotsErrors(t *testing.T) {
	req, err := request.NewExternal(3, request.DirectionUp, 10)
	require.NoError(t, err)
	_, err = selectBestElevator(nil, req)
	assert.Error(t, err)
}

func TestElevatorIDLess(t *testing.T) {
	assert.True(t, elevatorIDLess("2", "10"))
	assert.False(t, elevatorIDLess("10", "2"))
	assert.True(t, elevatorIDLess("1", "2"))
}

func TestOnTheWay(t *testing.T) {
	up := elevator.Elevator{CurrentFloor: 5, Status: elevator.StatusMovingUp}
	reqUp, _ := request.NewExternal(6, request.DirectionUp, 10)
	assert.True(t, onTheWay(up, reqUp))

	reqBehind, _ := request.NewExternal(4, request.DirectionUp, 10)
	assert.False(t, onTheWay(up, reqBehind))

	down := elevator.Elevator{CurrentFloor: 5, Status: elevator.StatusMovingDown}
	reqDown, _ := request.NewExternal(3, request.DirectionDown, 10)
	assert.True(t, onTheWay(down, reqDown))
}
