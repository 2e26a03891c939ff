package services

import (
	"sync"
	"time"

	"rivo_booking_go/models"
)

// OffTimeCache memoizes per-day off-time computations. Contents are purely
// derivable from tenant config, so the only invalidation trigger is a config
// change for that tenant.
type OffTimeCache struct {
	mu   sync.RWMutex
	days map[string][]OffTimeInterval // "tenantID|2006-01-02" -> intervals
}

// NewOffTimeCache creates an empty cache
func NewOffTimeCache() *OffTimeCache {
	return &OffTimeCache{days: make(map[string][]OffTimeInterval)}
}

// Package-level cache shared by slot generation and handlers
var offTimeCache = NewOffTimeCache()

// DayOffTimes returns the off-time intervals of one civil day, computing and
// memoizing on first use
func (c *OffTimeCache) DayOffTimes(tenantID string, cfg *models.TenantConfig, day time.Time) ([]OffTimeInterval, error) {
	loc := cfg.Location()
	key := tenantID + "|" + StartOfDay(day, loc).Format("2006-01-02")

	c.mu.RLock()
	cached, ok := c.days[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	computed, err := computeDayOffTimes(cfg, day, loc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.days[key] = computed
	c.mu.Unlock()
	return computed, nil
}

// Invalidate drops every cached day of a tenant
func (c *OffTimeCache) Invalidate(tenantID string) {
	prefix := tenantID + "|"
	c.mu.Lock()
	for k := range c.days {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.days, k)
		}
	}
	c.mu.Unlock()
}

// InvalidateOffTimeCache must be called whenever a tenant's calendar
// configuration changes
func InvalidateOffTimeCache(tenantID string) {
	offTimeCache.Invalidate(tenantID)
}
