package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs.
const (
	CreateQueue = "catalog.creation"
	UpdateQueue = "catalog.updating"
	DeleteQueue = "catalog.deletion"
)

const (
	EntityAuthor = "author"
	EntityBook   = "book"
)

// popTimeout bounds each blocking pop so that consumers notice a done context.
const popTimeout = 2 * time.Second

// ErrQueueEmpty is returned by Pop when no event arrived in time.
var ErrQueueEmpty = errors.New("queue: no event available")

// Ensure both queues implement Queuer.
var (
	_ Queuer = (*redisQueue)(nil)
	_ Queuer = (*discardQueue)(nil)
)

// CatalogEvent describes a committed change on an author or a book.
type CatalogEvent struct {
	Entity   string          `json:"entity"`
	EntityID string          `json:"entityId"`
	At       time.Time       `json:"at"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// NewCatalogEvent builds an event carrying the entity state as data.
func NewCatalogEvent(entity, id string, at time.Time, state interface{}) CatalogEvent {
	event := CatalogEvent{Entity: entity, EntityID: id, At: at}
	if state != nil {
		if data, err := json.Marshal(state); err == nil {
			event.Data = data
		}
	}
	return event
}

// Queuer describes a queue.
type Queuer interface {
	Push(ctx context.Context, qid string, event CatalogEvent) error
	Pop(ctx context.Context, qids ...string) (string, CatalogEvent, error)
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push enqueues an event onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, event CatalogEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, eventBytes).Err()
}

// Pop returns the first dequeued event from the list of queue ids.
// It returns ErrQueueEmpty when nothing arrived within popTimeout.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, CatalogEvent, error) {
	var event CatalogEvent
	var qid string
	infos, err := q.client.BLPop(ctx, popTimeout, qids...).Result()
	if errors.Is(err, redis.Nil) {
		return qid, event, ErrQueueEmpty
	}
	if err != nil {
		return qid, event, err
	}

	if err = json.Unmarshal([]byte(infos[1]), &event); err != nil {
		return qid, event, err
	}
	qid = infos[0]
	return qid, event, nil
}

// discardQueue drops every event. It is used when the events feed is disabled.
type discardQueue struct{}

func NewDiscardQueue() Queuer {
	return &discardQueue{}
}

func (q *discardQueue) Push(_ context.Context, _ string, _ CatalogEvent) error {
	return nil
}

// Pop blocks until the context is done since nothing is ever queued.
func (q *discardQueue) Pop(ctx context.Context, _ ...string) (string, CatalogEvent, error) {
	<-ctx.Done()
	return "", CatalogEvent{}, ctx.Err()
}
