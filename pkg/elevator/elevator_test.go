package elevator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsIdleAtGroundFloor(t *testing.T) {
	e := New("1")
	assert.Equal(t, 1, e.CurrentFloor)
	assert.Equal(t, StatusIdle, e.Status)
	assert.Equal(t, DoorClosed, e.DoorStatus)
	assert.Empty(t, e.Destinations)
}

func TestAddDestinationRejectsCurrentFloor(t *testing.T) {
	e := New("1")
	assert.False(t, e.AddDestination(1))
	assert.Empty(t, e.Destinations)
}

func TestAddDestinationRejectsDuplicates(t *testing.T) {
	e := New("1")
	require.True(t, e.AddDestination(5))
	assert.False(t, e.AddDestination(5))
	assert.Equal(t, []int{5}, e.Destinations)
}

func TestAddDestinationAppendsAtTail(t *testing.T) {
	e := New("1")
	e.AddDestination(5)
	e.AddDestination(3)
	assert.Equal(t, []int{5, 3}, e.Destinations)
}

func TestPrependDestinationTakesPriority(t *testing.T) {
	e := New("1")
	e.AddDestination(5)
	e.PrependDestination(3)
	assert.Equal(t, []int{3, 5}, e.Destinations)
}

func TestPrependDestinationRejectsCurrentFloorAndDuplicates(t *testing.T) {
	e := New("1")
	assert.False(t, e.PrependDestination(1))
	e.AddDestination(4)
	assert.False(t, e.PrependDestination(4))
	assert.Equal(t, []int{4}, e.Destinations)
}

func TestPopDestinationOnEmptyQueueIsNoop(t *testing.T) {
	e := New("1")
	e.PopDestination()
	assert.Empty(t, e.Destinations)
}

func TestDirectionTo(t *testing.T) {
	e := New("1")
	e.CurrentFloor = 5
	assert.Equal(t, StatusMovingUp, e.DirectionTo(7))
	assert.Equal(t, StatusMovingDown, e.DirectionTo(2))
	assert.Equal(t, StatusIdle, e.DirectionTo(5))
}

func TestMarshalJSONEncodesNumericIDAndExactSchema(t *testing.T) {
	e := New("3")
	e.AddDestination(7)
	data, err := json.Marshal(e)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":3,"current_floor":1,"status":"idle","door_status":"closed","destinations":[7]}`, string(data))
}

func TestUnmarshalJSONDecodesWireSchema(t *testing.T) {
	var e Elevator
	err := json.Unmarshal([]byte(`{"id":5,"current_floor":2,"status":"moving_up","door_status":"open","destinations":[4,6]}`), &e)
	require.NoError(t, err)
	assert.Equal(t, "5", e.ID)
	assert.Equal(t, 2, e.CurrentFloor)
	assert.Equal(t, StatusMovingUp, e.Status)
	assert.Equal(t, DoorOpen, e.DoorStatus)
	assert.Equal(t, []int{4, 6}, e.Destinations)
}

func TestValidateRejectsOutOfRangeFloors(t *testing.T) {
	assert.Error(t, Validate(0, 10))
	assert.Error(t, Validate(11, 10))
	assert.NoError(t, Validate(1, 10))
	assert.NoError(t, Validate(10, 10))
}
