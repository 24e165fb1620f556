package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2024, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Tue, 02 Jul 2024 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler with predictable sequential ids.
type MockUIDHandler struct {
	counter uint64
	Valid   bool
}

// NewMockUIDHandler returns a mocked instance with predictable ids.
func NewMockUIDHandler(valid bool) *MockUIDHandler {
	return &MockUIDHandler{Valid: valid}
}

// Generate constructs ids like `a:000001`.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return fmt.Sprintf("%s:%06d", prefix, atomic.AddUint64(&muid.counter, 1))
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_, _ string) bool {
	return muid.Valid
}

// MockQueue records the pushed events. PushErr makes every push fail.
type MockQueue struct {
	mu      sync.Mutex
	Pushed  map[string][]CatalogEvent
	PushErr error
}

func NewMockQueue() *MockQueue {
	return &MockQueue{Pushed: map[string][]CatalogEvent{}}
}

func (mq *MockQueue) Push(ctx context.Context, qid string, event CatalogEvent) error {
	if mq.PushErr != nil {
		return mq.PushErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.Pushed[qid] = append(mq.Pushed[qid], event)
	return nil
}

func (mq *MockQueue) Pop(ctx context.Context, _ ...string) (string, CatalogEvent, error) {
	<-ctx.Done()
	return "", CatalogEvent{}, ctx.Err()
}

func (mq *MockQueue) Count(qid string) int {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	return len(mq.Pushed[qid])
}

// cancelOnCommitStorage cancels the caller context once a write succeeds,
// like a client hanging up right after its change was stored.
type cancelOnCommitStorage struct {
	CatalogStorage
	cancel context.CancelFunc
}

func (s *cancelOnCommitStorage) Update(ctx context.Context, fn func(tx CatalogWriter) error) error {
	err := s.CatalogStorage.Update(ctx, fn)
	if err == nil {
		s.cancel()
	}
	return err
}

// MockJournal implements a fake Journal.
type MockJournal struct {
	AppendFunc func(ctx context.Context, action string, event CatalogEvent) error
	RecentFunc func(ctx context.Context, limit int) ([]JournalEntry, error)
}

func (mj *MockJournal) Append(ctx context.Context, action string, event CatalogEvent) error {
	return mj.AppendFunc(ctx, action, event)
}

func (mj *MockJournal) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	return mj.RecentFunc(ctx, limit)
}

// MockCatalogService implements CatalogServiceProvider with overridable funcs.
type MockCatalogService struct {
	CreateAuthorFunc    func(ctx context.Context, fields Fields) (Author, error)
	GetAuthorFunc       func(ctx context.Context, id string) (Author, error)
	ListAuthorsFunc     func(ctx context.Context, q ListQuery) ([]Author, error)
	UpdateAuthorFunc    func(ctx context.Context, id string, fields Fields) (Author, error)
	DeleteAuthorFunc    func(ctx context.Context, id string) error
	ListAuthorBooksFunc func(ctx context.Context, id string) ([]BookView, error)
	CreateBookFunc      func(ctx context.Context, fields Fields) (BookView, error)
	GetBookFunc         func(ctx context.Context, id string) (BookView, error)
	ListBooksFunc       func(ctx context.Context, q ListQuery) ([]BookView, error)
	UpdateBookFunc      func(ctx context.Context, id string, fields Fields, partial bool) (BookView, error)
	DeleteBookFunc      func(ctx context.Context, id string) error
}

func (m *MockCatalogService) CreateAuthor(ctx context.Context, fields Fields) (Author, error) {
	return m.CreateAuthorFunc(ctx, fields)
}

func (m *MockCatalogService) GetAuthor(ctx context.Context, id string) (Author, error) {
	return m.GetAuthorFunc(ctx, id)
}

func (m *MockCatalogService) ListAuthors(ctx context.Context, q ListQuery) ([]Author, error) {
	return m.ListAuthorsFunc(ctx, q)
}

func (m *MockCatalogService) UpdateAuthor(ctx context.Context, id string, fields Fields) (Author, error) {
	return m.UpdateAuthorFunc(ctx, id, fields)
}

func (m *MockCatalogService) DeleteAuthor(ctx context.Context, id string) error {
	return m.DeleteAuthorFunc(ctx, id)
}

func (m *MockCatalogService) ListAuthorBooks(ctx context.Context, id string) ([]BookView, error) {
	return m.ListAuthorBooksFunc(ctx, id)
}

func (m *MockCatalogService) CreateBook(ctx context.Context, fields Fields) (BookView, error) {
	return m.CreateBookFunc(ctx, fields)
}

func (m *MockCatalogService) GetBook(ctx context.Context, id string) (BookView, error) {
	return m.GetBookFunc(ctx, id)
}

func (m *MockCatalogService) ListBooks(ctx context.Context, q ListQuery) ([]BookView, error) {
	return m.ListBooksFunc(ctx, q)
}

func (m *MockCatalogService) UpdateBook(ctx context.Context, id string, fields Fields, partial bool) (BookView, error) {
	return m.UpdateBookFunc(ctx, id, fields, partial)
}

func (m *MockCatalogService) DeleteBook(ctx context.Context, id string) error {
	return m.DeleteBookFunc(ctx, id)
}

// newTestConfig returns the minimal configuration used by handlers.
func newTestConfig() *Config {
	return &Config{
		OpsEndpointsEnable: true,
		Server: ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		Limiter: LimiterConfig{
			Enabled: false,
			RPS:     defaultLimiterRPS,
			Burst:   defaultLimiterBurst,
			IdleTTL: defaultLimiterTTL,
		},
	}
}

// newTestCatalogService wires the real service on a fresh memory catalog.
func newTestCatalogService() (CatalogServiceProvider, *MockQueue) {
	queue := NewMockQueue()
	storage := NewMemoryCatalogStorage(zap.NewNop(), NewMockUIDHandler(true))
	return NewCatalogService(zap.NewNop(), NewMockClocker(), storage, queue), queue
}

// newTestAPIHandler builds an api handler on top of the given catalog service.
func newTestAPIHandler(config *Config, cs CatalogServiceProvider, journal Journal) *APIHandler {
	clock := NewMockClocker()
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: clock.Now()}, clock, NewMockUIDHandler(true), cs, journal)
}
