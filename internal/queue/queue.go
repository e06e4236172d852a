// Package queue adapts the Redis-backed dispatch queue the relay uses to
// hand trade commands to the execution client. All commands share a single
// group identifier, which keys the underlying list: one group, one FIFO
// stream, so ordering holds across concurrent producers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueUnavailable wraps any broker-level failure. Callers surface it as
// an HTTP failure; there is no automatic retry.
var ErrQueueUnavailable = errors.New("queue unavailable")

// Entry is a queued command plus its broker metadata.
type Entry struct {
	Body          string `json:"body"`
	DedupID       string `json:"dedup_id"`
	GroupID       string `json:"group_id"`
	SentTimestamp int64  `json:"sent_timestamp"` // unix milliseconds
}

// Age returns how long ago the entry was enqueued, relative to now.
func (e *Entry) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.SentTimestamp) * time.Millisecond
}

// Receipt acknowledges an enqueue. Duplicate is set when the broker
// coalesced the message against an earlier one with the same dedup key.
type Receipt struct {
	MessageID string `json:"message_id"`
	Duplicate bool   `json:"duplicate"`
}

// Adapter wraps the Redis client with the queue contract the relay needs:
// enqueue with deduplication, destructive dequeue of at most one message.
type Adapter struct {
	rdb         *redis.Client
	name        string
	groupID     string
	dedupWindow time.Duration
}

// NewAdapter creates a queue adapter for the named queue and group.
func NewAdapter(rdb *redis.Client, name, groupID string, dedupWindow time.Duration) *Adapter {
	return &Adapter{
		rdb:         rdb,
		name:        name,
		groupID:     groupID,
		dedupWindow: dedupWindow,
	}
}

// streamKey is the Redis list holding the group's FIFO stream.
func (a *Adapter) streamKey() string {
	return a.name + ":" + a.groupID
}

// dedupKey marks a dedup id as seen for the length of the dedup window.
func (a *Adapter) dedupKey(id string) string {
	return a.name + ":dedup:" + id
}

// Enqueue appends a command to the stream under the given deduplication key.
// A second enqueue with the same key inside the dedup window is coalesced:
// nothing is pushed and the receipt reports Duplicate.
func (a *Adapter) Enqueue(ctx context.Context, body, dedupID string) (*Receipt, error) {
	if dedupID != "" {
		fresh, err := a.rdb.SetNX(ctx, a.dedupKey(dedupID), 1, a.dedupWindow).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: dedup check: %v", ErrQueueUnavailable, err)
		}
		if !fresh {
			return &Receipt{MessageID: dedupID, Duplicate: true}, nil
		}
	}

	entry := Entry{
		Body:          body,
		DedupID:       dedupID,
		GroupID:       a.groupID,
		SentTimestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return nil, fmt.Errorf("marshal queue entry: %w", err)
	}

	if err := a.rdb.RPush(ctx, a.streamKey(), data).Err(); err != nil {
		if dedupID != "" {
			// The dedup marker is already committed. Roll it back so a retry
			// of the same signal is not coalesced against a message that
			// never reached the stream.
			if delErr := a.rdb.Del(ctx, a.dedupKey(dedupID)).Err(); delErr != nil {
				log.Printf("Failed to roll back dedup key %s: %v", dedupID, delErr)
			}
		}
		return nil, fmt.Errorf("%w: push: %v", ErrQueueUnavailable, err)
	}
	return &Receipt{MessageID: dedupID}, nil
}

// DequeueOne pops the oldest entry from the group's stream, acknowledging it
// in the same step. Returns (nil, nil) when the queue is empty. A message
// popped here is gone; if the caller crashes before delivering it, the
// polling client simply finds nothing and retries.
func (a *Adapter) DequeueOne(ctx context.Context) (*Entry, error) {
	data, err := a.rdb.LPop(ctx, a.streamKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pop: %v", ErrQueueUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode queue entry: %w", err)
	}
	return &entry, nil
}
