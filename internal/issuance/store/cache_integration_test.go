//go:build integration

package store_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"vellum/internal/issuance/models"
	"vellum/internal/issuance/store"
	"vellum/pkg/platform/sentinel"
	"vellum/pkg/testutil/containers"
)

type RecordCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRecordCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RecordCacheSuite))
}

func (s *RecordCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RecordCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func cachedRecord() *models.IssuanceRecord {
	return &models.IssuanceRecord{
		IssuanceID:  uuid.NewString(),
		Recipient:   models.Recipient{Name: "Ann Lee", Email: "ann@x.com", Program: "Data Engineering"},
		IssuedAt:    time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC),
		ArtifactURL: "https://objects.example.com/certificates/a.png",
		ContentType: "image/png",
	}
}

// TestReadThrough seeds the cache on a primary-store hit, then proves the
// next lookup is served from Redis by pointing a second cache at an empty
// primary store.
func (s *RecordCacheSuite) TestReadThrough() {
	ctx := context.Background()
	record := cachedRecord()

	primary := store.NewMemory()
	s.Require().NoError(primary.Save(ctx, record))

	cache := store.NewCache(primary, s.redis.Client)
	found, err := cache.FindByID(ctx, record.IssuanceID)
	s.Require().NoError(err)
	s.Equal(record.Recipient, found.Recipient)

	cacheOnly := store.NewCache(store.NewMemory(), s.redis.Client)
	found, err = cacheOnly.FindByID(ctx, record.IssuanceID)
	s.Require().NoError(err)
	s.Equal(record.IssuanceID, found.IssuanceID)
	s.Equal(record.ArtifactURL, found.ArtifactURL)
	s.True(found.IssuedAt.Equal(record.IssuedAt))
}

func (s *RecordCacheSuite) TestSaveSeedsCacheWithTTL() {
	ctx := context.Background()
	record := cachedRecord()

	cache := store.NewCache(store.NewMemory(), s.redis.Client, store.WithTTL(time.Hour))
	s.Require().NoError(cache.Save(ctx, record))

	ttl, err := s.redis.Client.TTL(ctx, "issuance:record:"+record.IssuanceID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Minute)
	s.LessOrEqual(ttl, time.Hour)
}

func (s *RecordCacheSuite) TestUnknownIDMissesToPrimary() {
	cache := store.NewCache(store.NewMemory(), s.redis.Client)
	_, err := cache.FindByID(context.Background(), uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RecordCacheSuite) TestDuplicateSavePassesThrough() {
	ctx := context.Background()
	record := cachedRecord()

	cache := store.NewCache(store.NewMemory(), s.redis.Client)
	s.Require().NoError(cache.Save(ctx, record))
	s.Require().ErrorIs(cache.Save(ctx, record), sentinel.ErrConflict)
}

// TestCorruptEntryFallsThrough plants garbage under a record's key and
// verifies the lookup still resolves from the primary store.
func (s *RecordCacheSuite) TestCorruptEntryFallsThrough() {
	ctx := context.Background()
	record := cachedRecord()

	primary := store.NewMemory()
	s.Require().NoError(primary.Save(ctx, record))
	s.Require().NoError(s.redis.Client.Set(ctx, "issuance:record:"+record.IssuanceID, "{not json", 0).Err())

	cache := store.NewCache(primary, s.redis.Client)
	found, err := cache.FindByID(ctx, record.IssuanceID)
	s.Require().NoError(err)
	s.Equal(record.Recipient, found.Recipient)
}

// TestRedisOutageDegradesToPrimary drives the circuit open against a dead
// Redis and verifies lookups keep succeeding from the primary store.
func (s *RecordCacheSuite) TestRedisOutageDegradesToPrimary() {
	ctx := context.Background()
	record := cachedRecord()

	primary := store.NewMemory()
	s.Require().NoError(primary.Save(ctx, record))

	cache := store.NewCache(primary, deadRedisClient(s.T()),
		store.WithProbeInterval(time.Millisecond))

	for i := 0; i < 10; i++ {
		found, err := cache.FindByID(ctx, record.IssuanceID)
		s.Require().NoError(err)
		s.Equal(record.IssuanceID, found.IssuanceID)
	}
}

// deadRedisClient returns a client pointed at a port nothing listens on.
func deadRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}
