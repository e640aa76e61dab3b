package cache

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Report cache keys. Mutating operations drop all of them; TTLs bound how
// stale a report can get if an invalidation is lost.
const (
	KeyItemStatistics   = "reports:item_statistics"
	KeyDashboardSummary = "reports:dashboard_summary"
	KeyStockMovement    = "reports:stock_movement"
)

// ReportKeys lists every cached report key for fan-out invalidation
var ReportKeys = []string{KeyItemStatistics, KeyDashboardSummary, KeyStockMovement}

// Invalidator is the slice of the cache the services depend on: after any
// mutation they only need to signal "report data changed".
type Invalidator interface {
	InvalidateReports()
}

// ReportCache wraps a Redis client with JSON get/set and invalidation.
// A nil client disables caching entirely, reads miss and writes are dropped.
type ReportCache struct {
	client *redis.Client
}

// NewReportCache connects using REDIS_ADDR / REDIS_PASS. Without REDIS_ADDR
// the cache runs disabled, which keeps local development redis-free.
func NewReportCache() *ReportCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, report caching disabled")
		return &ReportCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       0,
	})
	return &ReportCache{client: client}
}

// NewReportCacheWithClient wires an explicit client (tests use this)
func NewReportCacheWithClient(client *redis.Client) *ReportCache {
	return &ReportCache{client: client}
}

// Get unmarshals the cached value into dest, returning false on miss
func (c *ReportCache) Get(key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(context.Background(), key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// Set stores value as JSON under key with the given TTL, best-effort
func (c *ReportCache) Set(key string, value interface{}, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(context.Background(), key, raw, ttl).Err(); err != nil {
		log.Printf("Warning: failed to cache %s: %v", key, err)
	}
}

// InvalidateReports drops every report key. Called after a mutating
// operation commits; a failed delete leaves stale entries until their TTL.
func (c *ReportCache) InvalidateReports() {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(context.Background(), ReportKeys...).Err(); err != nil {
		log.Printf("Warning: failed to invalidate report cache: %v", err)
	}
}
