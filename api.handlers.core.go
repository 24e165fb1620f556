package main

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// RecordStatus counts one more response sent with the given code.
func (s *Statistics) RecordStatus(code int) {
	s.mu.Lock()
	s.status[code]++
	s.mu.Unlock()
}

// Maintenance holds app maintenance mode infos.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	message string
	started time.Time
}

func (m *Maintenance) Enable(message string, at time.Time) {
	m.mu.Lock()
	m.message, m.started = message, at
	m.mu.Unlock()
	m.enabled.Store(true)
}

func (m *Maintenance) Disable() {
	m.enabled.Store(false)
	m.mu.Lock()
	m.message, m.started = "", time.Time{}
	m.mu.Unlock()
}

// Infos returns the current reason and start time of the maintenance.
func (m *Maintenance) Infos() (string, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.message, m.started
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger    *zap.Logger
	config    *Config
	stats     *Statistics
	mode      *Maintenance
	clock     Clocker
	ids       UIDHandler
	validator *Validator
	catalog   CatalogServiceProvider
	journal   Journal
	limiters  *ClientLimiters
}

// NewAPIHandler provides a new instance of APIHandler. The journal is
// nil when the events feed is disabled.
func NewAPIHandler(
	logger *zap.Logger,
	config *Config,
	stats *Statistics,
	clock Clocker,
	ids UIDHandler,
	cs CatalogServiceProvider,
	journal Journal,
) *APIHandler {
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:    logger,
		config:    config,
		stats:     stats,
		mode:      &Maintenance{},
		clock:     clock,
		ids:       ids,
		validator: NewValidator(clock),
		catalog:   cs,
		journal:   journal,
		limiters:  NewClientLimiters(config.Limiter),
	}
}
