package broker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, zerolog.Nop())
}

func TestPublishAndRange(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	id, err := b.Publish(ctx, "elevator:requests:stream", map[string]interface{}{"id": "r1", "request_type": "external"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entries, err := b.Range(ctx, "elevator:requests:stream", "-", "+")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "r1", entries[0].Values["id"])
}

func TestGroupCreateReadAck(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	stream := "elevator:requests:stream"
	_, err := b.Publish(ctx, stream, map[string]interface{}{"id": "r1"})
	require.NoError(t, err)

	require.NoError(t, b.EnsureGroup(ctx, stream, "scheduler-group"))
	// Creating the group twice must be idempotent.
	require.NoError(t, b.EnsureGroup(ctx, stream, "scheduler-group"))

	// "$" means only future entries: r1 predates the group and is never
	// delivered to it (the "0" pass only returns entries already
	// delivered to this consumer and not yet acked). Only r2, published
	// after the group exists, reaches the ">" read.
	_, err = b.Publish(ctx, stream, map[string]interface{}{"id": "r2"})
	require.NoError(t, err)

	entries, err := b.ReadGroup(ctx, stream, "scheduler-group", "consumer-1", ">", 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "r2", entries[0].Values["id"])

	require.NoError(t, b.Ack(ctx, stream, "scheduler-group", entries[0].ID))
}

func TestTrimMinIDAndMaxLen(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)
	stream := "elevator:requests:stream"

	var lastID string
	for i := 0; i < 5; i++ {
		id, err := b.Publish(ctx, stream, map[string]interface{}{"n": i})
		require.NoError(t, err)
		lastID = id
	}

	require.NoError(t, b.TrimMinID(ctx, stream, lastID))
	require.NoError(t, b.TrimMaxLen(ctx, stream, 1))
}

func TestPubSubDeliversPayload(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t)

	sub, err := b.Subscribe(ctx, "elevator:status:1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, b.PublishJSON(ctx, "elevator:status:1", map[string]int{"current_floor": 3}))

	select {
	case payload := <-sub.Messages():
		require.JSONEq(t, `{"current_floor":3}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pubsub message")
	}
}
