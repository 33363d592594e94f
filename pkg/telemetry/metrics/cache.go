package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheStats is a point-in-time view of a cache's cumulative statistics.
type CacheStats struct {
	Size             uint64
	HitCount         uint64
	MissCount        uint64
	EvictionCount    uint64
	LoadSuccessCount uint64
	LoadFailureCount uint64
}

// RequestCount returns the number of lookups, hits plus misses.
func (s CacheStats) RequestCount() uint64 { return s.HitCount + s.MissCount }

// LoadCount returns the number of loads, successful or not.
func (s CacheStats) LoadCount() uint64 { return s.LoadSuccessCount + s.LoadFailureCount }

// CacheStatsProvider is implemented by caches that can report statistics.
type CacheStatsProvider interface {
	Stats() CacheStats
}

// CacheStatsFunc adapts a function to CacheStatsProvider.
type CacheStatsFunc func() CacheStats

// Stats implements CacheStatsProvider.
func (f CacheStatsFunc) Stats() CacheStats { return f() }

// cacheCollector exposes the statistics of every cache attached to it,
// one series per cache, distinguished by the "cache" label.
//
// Metrics (names carry the category prefix):
//   - cache_hit_total: Total cache hits
//   - cache_miss_total: Total cache misses
//   - cache_requests_total: Total lookups, hits plus misses
//   - cache_eviction_total: Total evictions
//   - cache_load_failure_total: Total failed loads
//   - cache_loads_total: Total loads, successful or not
//   - cache_size: Current number of entries
type cacheCollector struct {
	hit         *prometheus.Desc
	miss        *prometheus.Desc
	requests    *prometheus.Desc
	eviction    *prometheus.Desc
	loadFailure *prometheus.Desc
	loads       *prometheus.Desc
	size        *prometheus.Desc

	declared []SampleFamily

	mu     sync.RWMutex
	names  []string
	caches []CacheStatsProvider
}

var cacheLabelNames = []string{"cache"}

func newCacheCollector(nc *nameCodec, category Category) *cacheCollector {
	cc := &cacheCollector{}

	descs := []struct {
		desc **prometheus.Desc
		name string
		typ  Type
		help string
	}{
		{&cc.hit, "cache_hit_total", TypeCounter, "Total number of cache hits"},
		{&cc.miss, "cache_miss_total", TypeCounter, "Total number of cache misses"},
		{&cc.requests, "cache_requests_total", TypeCounter, "Total number of cache requests"},
		{&cc.eviction, "cache_eviction_total", TypeCounter, "Total number of cache evictions"},
		{&cc.loadFailure, "cache_load_failure_total", TypeCounter, "Total number of failed cache loads"},
		{&cc.loads, "cache_loads_total", TypeCounter, "Total number of cache loads"},
		{&cc.size, "cache_size", TypeGauge, "Current number of entries in the cache"},
	}
	for _, d := range descs {
		name := nc.ToExternalName(category, d.name)
		if d.typ == TypeCounter {
			name = nc.ToExternalCounterName(category, d.name)
		}
		*d.desc = prometheus.NewDesc(name, d.help, cacheLabelNames, nil)
		cc.declared = append(cc.declared, declare(name, d.typ, d.help))
	}

	return cc
}

// addCache attaches cache under name. Name uniqueness is checked by the
// caller.
func (cc *cacheCollector) addCache(name string, cache CacheStatsProvider) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.names = append(cc.names, name)
	cc.caches = append(cc.caches, cache)
}

// tracked wraps the collector for the registry manager.
func (cc *cacheCollector) tracked() *collector {
	return newCollector(cc, cacheLabelNames, cc.declared...)
}

// Describe implements prometheus.Collector.
func (cc *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cc.hit
	ch <- cc.miss
	ch <- cc.requests
	ch <- cc.eviction
	ch <- cc.loadFailure
	ch <- cc.loads
	ch <- cc.size
}

// Collect implements prometheus.Collector.
func (cc *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	cc.mu.RLock()
	names := cc.names
	caches := cc.caches
	cc.mu.RUnlock()

	for i, cache := range caches {
		name := names[i]
		stats := cache.Stats()

		ch <- prometheus.MustNewConstMetric(cc.hit, prometheus.CounterValue, float64(stats.HitCount), name)
		ch <- prometheus.MustNewConstMetric(cc.miss, prometheus.CounterValue, float64(stats.MissCount), name)
		ch <- prometheus.MustNewConstMetric(cc.requests, prometheus.CounterValue, float64(stats.RequestCount()), name)
		ch <- prometheus.MustNewConstMetric(cc.eviction, prometheus.CounterValue, float64(stats.EvictionCount), name)
		ch <- prometheus.MustNewConstMetric(cc.loadFailure, prometheus.CounterValue, float64(stats.LoadFailureCount), name)
		ch <- prometheus.MustNewConstMetric(cc.loads, prometheus.CounterValue, float64(stats.LoadCount()), name)
		ch <- prometheus.MustNewConstMetric(cc.size, prometheus.GaugeValue, float64(stats.Size), name)
	}
}
