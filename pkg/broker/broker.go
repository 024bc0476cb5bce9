// Package broker adapts the durable-stream and ephemeral-pubsub
// primitives the control plane depends on onto Redis. Streams back the
// at-least-once request pipeline (consumer groups, ack, backlog
// redelivery); pub/sub backs command dispatch and status fan-out.
package broker

import (
	"context"
	"errors"
	"strings"

	"github.com/elevatorsim/controlplane/pkg/errs"
	"github.com/elevatorsim/controlplane/pkg/retry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Entry is one stream record: its id and its flattened field map.
type Entry struct {
	ID     string
	Values map[string]string
}

// Broker wraps a go-redis client with the stream/pubsub operations the
// scheduler and controllers need, retrying transient failures on
// stream reads (ReadGroup).
type Broker struct {
	client *redis.Client
	logger zerolog.Logger
	retry  retry.Policy
}

// New wraps an already-constructed client (shared with the state
// store, or pointed at a separate instance).
func New(client *redis.Client, logger zerolog.Logger) *Broker {
	return &Broker{client: client, logger: logger, retry: retry.Default()}
}

// Publish appends values to stream and returns the assigned entry id.
// Publish failures propagate immediately and are not retried; only
// stream reads carry the backoff policy.
func (b *Broker) Publish(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", errs.Broker("publish failed", err)
	}
	return id, nil
}

// EnsureGroup creates group on stream starting from "$" (new entries
// only), tolerating the group already existing.
func (b *Broker) EnsureGroup(ctx context.Context, stream, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return errs.Broker("create group failed", err)
	}
	return nil
}

// ReadGroup blocks up to blockMs for new entries assigned to consumer
// within group when lastID is ">", or otherwise reads that consumer's
// pending (delivered but unacked) entries with ids after lastID ("0"
// starts the at-startup pending-entries pass every consumer group must
// perform before reading ">"). Each call returns at most 10 entries.
// Transient failures are retried with backoff.
func (b *Broker) ReadGroup(ctx context.Context, stream, group, consumer, lastID string, blockMs int64) ([]Entry, error) {
	var entries []Entry
	err := b.retry.Do(ctx, func() error {
		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, lastID},
			Count:    10,
			Block:    msDuration(blockMs),
		}).Result()
		if errors.Is(err, redis.Nil) {
			entries = nil
			return nil
		}
		if err != nil {
			return err
		}
		entries = flatten(res)
		return nil
	})
	if err != nil {
		return nil, errs.Broker("read group failed", err)
	}
	return entries, nil
}

// Ack acknowledges ids within group on stream.
func (b *Broker) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := b.client.XAck(ctx, stream, group, ids...).Err(); err != nil {
		return errs.Broker("ack failed", err)
	}
	return nil
}

// Range returns entries between start and stop inclusive (XRANGE).
func (b *Broker) Range(ctx context.Context, stream, start, stop string) ([]Entry, error) {
	res, err := b.client.XRange(ctx, stream, start, stop).Result()
	if err != nil {
		return nil, errs.Broker("range failed", err)
	}
	entries := make([]Entry, 0, len(res))
	for _, m := range res {
		entries = append(entries, Entry{ID: m.ID, Values: stringify(m.Values)})
	}
	return entries, nil
}

// TrimMinID drops entries older than minID.
func (b *Broker) TrimMinID(ctx context.Context, stream, minID string) error {
	if err := b.client.XTrimMinID(ctx, stream, minID).Err(); err != nil {
		return errs.Broker("trim by min id failed", err)
	}
	return nil
}

// TrimMaxLen caps stream length to maxLen, approximately.
func (b *Broker) TrimMaxLen(ctx context.Context, stream string, maxLen int64) error {
	if err := b.client.XTrimMaxLenApprox(ctx, stream, maxLen, 0).Err(); err != nil {
		return errs.Broker("trim by max len failed", err)
	}
	return nil
}

func flatten(streams []redis.XStream) []Entry {
	var entries []Entry
	for _, s := range streams {
		for _, m := range s.Messages {
			entries = append(entries, Entry{ID: m.ID, Values: stringify(m.Values)})
		}
	}
	return entries
}

func stringify(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = stringsFormat(v)
	}
	return out
}
