package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"vellum/internal/issuance/models"
	"vellum/pkg/platform/circuit"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_record_cache_hits_total",
		Help: "Issuance record lookups served from Redis",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vellum_record_cache_misses_total",
		Help: "Issuance record lookups that fell through to the primary store",
	})
)

// Redis key prefix for cached issuance records.
const recordKeyPrefix = "issuance:record:"

// Records is the authoritative store a Cache decorates.
type Records interface {
	Save(ctx context.Context, record *models.IssuanceRecord) error
	FindByID(ctx context.Context, issuanceID string) (*models.IssuanceRecord, error)
	List(ctx context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error)
	Search(ctx context.Context, query string) ([]*models.IssuanceRecord, error)
	Stats(ctx context.Context) (models.IssuanceStats, error)
}

// Cache is a read-through Redis cache over an issuance record store.
// Public certificate lookups hit FindByID far more often than anything
// else, so only that path is cached; List, Search and Stats always go to
// the primary store.
//
// Redis is optional capacity, never correctness: every cache failure
// falls through to the primary store, and a circuit breaker stops
// hammering a dead Redis, probing it periodically until it recovers.
type Cache struct {
	inner   Records
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger

	probeMu    sync.Mutex
	probeEvery time.Duration
	lastProbe  time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL overrides how long cached records live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger for degradation and recovery events.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProbeInterval overrides how often an open circuit lets a lookup
// through to test whether Redis has recovered.
func WithProbeInterval(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.probeEvery = d
		}
	}
}

// NewCache wraps inner with a Redis read-through cache.
func NewCache(inner Records, client *redis.Client, opts ...CacheOption) *Cache {
	c := &Cache{
		inner:      inner,
		client:     client,
		ttl:        24 * time.Hour,
		breaker:    circuit.New("record-cache"),
		logger:     slog.Default(),
		probeEvery: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Save writes through to the primary store, then seeds the cache so the
// notification deep link resolves without a primary read. A cache write
// failure never fails the save.
func (c *Cache) Save(ctx context.Context, record *models.IssuanceRecord) error {
	if err := c.inner.Save(ctx, record); err != nil {
		return err
	}
	if c.tryRedis() {
		c.seed(ctx, record)
	}
	return nil
}

// FindByID returns the record from Redis when present, falling back to
// the primary store and seeding the cache on a miss.
func (c *Cache) FindByID(ctx context.Context, issuanceID string) (*models.IssuanceRecord, error) {
	if c.tryRedis() {
		payload, err := c.client.Get(ctx, recordKeyPrefix+issuanceID).Bytes()
		switch {
		case err == nil:
			var record models.IssuanceRecord
			if unmarshalErr := json.Unmarshal(payload, &record); unmarshalErr == nil {
				c.recordSuccess()
				cacheHits.Inc()
				return &record, nil
			}
			// Corrupt entry: drop it and treat as a miss.
			c.client.Del(ctx, recordKeyPrefix+issuanceID)
			c.recordSuccess()
		case errors.Is(err, redis.Nil):
			c.recordSuccess()
		default:
			c.recordFailure(err)
		}
	}

	record, err := c.inner.FindByID(ctx, issuanceID)
	if err != nil {
		return nil, err
	}
	cacheMisses.Inc()
	if c.tryRedis() {
		c.seed(ctx, record)
	}
	return record, nil
}

func (c *Cache) List(ctx context.Context, limit, offset int) ([]*models.IssuanceRecord, int, error) {
	return c.inner.List(ctx, limit, offset)
}

func (c *Cache) Search(ctx context.Context, query string) ([]*models.IssuanceRecord, error) {
	return c.inner.Search(ctx, query)
}

func (c *Cache) Stats(ctx context.Context) (models.IssuanceStats, error) {
	return c.inner.Stats(ctx)
}

func (c *Cache) seed(ctx context.Context, record *models.IssuanceRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, recordKeyPrefix+record.IssuanceID, payload, c.ttl).Err(); err != nil {
		c.recordFailure(err)
		return
	}
	c.recordSuccess()
}

// tryRedis reports whether this call should touch Redis. While the
// circuit is open, at most one call per probe interval goes through to
// test recovery.
func (c *Cache) tryRedis() bool {
	if !c.breaker.IsOpen() {
		return true
	}
	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	if time.Since(c.lastProbe) < c.probeEvery {
		return false
	}
	c.lastProbe = time.Now()
	return true
}

func (c *Cache) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("record cache recovered, resuming cached lookups")
	}
}

func (c *Cache) recordFailure(err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.Warn("record cache unavailable, serving lookups from primary store",
			"error", err)
	}
}
