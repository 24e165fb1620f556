package main

import (
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// ClientLimiters keeps one token bucket per client ip. Buckets of clients
// idle for longer than the configured ttl are evicted.
type ClientLimiters struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, *rate.Limiter]
	limit rate.Limit
	burst int
}

// NewClientLimiters starts the eviction loop. Call Stop to release it.
func NewClientLimiters(config LimiterConfig) *ClientLimiters {
	cache := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](config.IdleTTL))
	go cache.Start()
	return &ClientLimiters{
		cache: cache,
		limit: rate.Limit(config.RPS),
		burst: config.Burst,
	}
}

// Allow consumes one token from the client bucket.
func (cl *ClientLimiters) Allow(ip string) bool {
	cl.mu.Lock()
	item := cl.cache.Get(ip)
	if item == nil {
		item = cl.cache.Set(ip, rate.NewLimiter(cl.limit, cl.burst), ttlcache.DefaultTTL)
	}
	cl.mu.Unlock()
	return item.Value().Allow()
}

// Len returns the number of tracked clients.
func (cl *ClientLimiters) Len() int {
	return cl.cache.Len()
}

func (cl *ClientLimiters) Stop() {
	cl.cache.Stop()
}
