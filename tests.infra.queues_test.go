package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startTestRedis runs an in-process redis server and returns a connected client.
func startTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	config := &Config{Redis: RedisConfig{Host: server.Host(), Port: server.Port()}}
	client, err := GetRedisClient(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestGetRedisClient_Unreachable(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	host, port := server.Host(), server.Port()
	server.Close()
	_, err = GetRedisClient(&Config{Redis: RedisConfig{Host: host, Port: port, DialTimeout: 200 * time.Millisecond}})
	assert.Error(t, err)
}

func TestRedisQueue_PushPop(t *testing.T) {
	server, client := startTestRedis(t)
	queue := NewRedisQueue(client)
	ctx := context.Background()
	at := NewMockClocker().Now()

	require.NoError(t, queue.Push(ctx, UpdateQueue, NewCatalogEvent(EntityBook, "b:1", at, Book{ID: "b:1", Title: "Efuru"})))
	require.NoError(t, queue.Push(ctx, CreateQueue, NewCatalogEvent(EntityAuthor, "a:1", at, nil)))

	items, err := server.List(UpdateQueue)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	qid, event, err := queue.Pop(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	require.NoError(t, err)
	assert.Equal(t, CreateQueue, qid)
	assert.Equal(t, EntityAuthor, event.Entity)
	assert.Equal(t, "a:1", event.EntityID)

	qid, event, err = queue.Pop(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	require.NoError(t, err)
	assert.Equal(t, UpdateQueue, qid)
	assert.True(t, at.Equal(event.At))
	assert.Contains(t, string(event.Data), "Efuru")
}

func TestRedisQueue_PopEmpty(t *testing.T) {
	_, client := startTestRedis(t)
	queue := NewRedisQueue(client)
	_, _, err := queue.Pop(context.Background(), DeleteQueue)
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRedisQueue_PopMalformed(t *testing.T) {
	server, client := startTestRedis(t)
	_, err := server.Lpush(DeleteQueue, "not-json")
	require.NoError(t, err)
	_, _, err = NewRedisQueue(client).Pop(context.Background(), DeleteQueue)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrQueueEmpty))
}

func TestDiscardQueue(t *testing.T) {
	queue := NewDiscardQueue()
	assert.NoError(t, queue.Push(context.Background(), CreateQueue, CatalogEvent{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := queue.Pop(ctx, CreateQueue)
	assert.ErrorIs(t, err, context.Canceled)
}

// recordingJournal collects appended entries for the consumer tests.
type recordingJournal struct {
	mu      sync.Mutex
	actions []string
	ids     []string
}

func (rj *recordingJournal) Append(_ context.Context, action string, event CatalogEvent) error {
	rj.mu.Lock()
	defer rj.mu.Unlock()
	rj.actions = append(rj.actions, action)
	rj.ids = append(rj.ids, event.EntityID)
	return nil
}

func (rj *recordingJournal) Recent(_ context.Context, _ int) ([]JournalEntry, error) {
	return nil, nil
}

func (rj *recordingJournal) snapshot() ([]string, []string) {
	rj.mu.Lock()
	defer rj.mu.Unlock()
	return append([]string(nil), rj.actions...), append([]string(nil), rj.ids...)
}

func TestJournalConsumer_Consume(t *testing.T) {
	_, client := startTestRedis(t)
	queue := NewRedisQueue(client)
	journal := &recordingJournal{}
	consumer := NewJournalConsumer(zap.NewNop(), queue, journal)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue) }()

	at := NewMockClocker().Now()
	require.NoError(t, queue.Push(ctx, CreateQueue, NewCatalogEvent(EntityAuthor, "a:1", at, nil)))
	require.NoError(t, queue.Push(ctx, UpdateQueue, NewCatalogEvent(EntityAuthor, "a:1", at, nil)))
	require.NoError(t, queue.Push(ctx, DeleteQueue, NewCatalogEvent(EntityBook, "b:7", at, nil)))
	require.NoError(t, queue.Push(ctx, "catalog.unknown", NewCatalogEvent(EntityBook, "b:8", at, nil)))

	assert.Eventually(t, func() bool {
		actions, _ := journal.snapshot()
		return len(actions) == 3
	}, 5*time.Second, 20*time.Millisecond)

	actions, ids := journal.snapshot()
	assert.ElementsMatch(t, []string{"created", "updated", "deleted"}, actions)
	assert.ElementsMatch(t, []string{"a:1", "a:1", "b:7"}, ids)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(popTimeout + 3*time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}

func TestJournalConsumer_CatalogServiceFeed(t *testing.T) {
	_, client := startTestRedis(t)
	queue := NewRedisQueue(client)
	storage := NewMemoryCatalogStorage(zap.NewNop(), NewMockUIDHandler(true))
	cs := NewCatalogService(zap.NewNop(), NewMockClocker(), storage, queue)

	bj := newTestBoltJournal(t)
	consumer := NewJournalConsumer(zap.NewNop(), queue, bj)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue) }()

	author, err := cs.CreateAuthor(ctx, Fields{"name": "Flora Nwapa"})
	require.NoError(t, err)
	require.NoError(t, cs.DeleteAuthor(ctx, author.ID))

	assert.Eventually(t, func() bool {
		entries, err := bj.Recent(ctx, 0)
		return err == nil && len(entries) == 2
	}, 5*time.Second, 20*time.Millisecond)

	entries, err := bj.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, author.ID, entries[0].Event.EntityID)
}
