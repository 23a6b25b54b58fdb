// Package metrics keeps the in-process counters behind /api/metrics.
// The endpoint exposes a resettable point-in-time snapshot, which is why
// these are plain counters rather than a monotonic metrics registry.
package metrics

import (
	"sort"
	"sync"
)

const maxExecSamples = 500

type Collector struct {
	mu                sync.Mutex
	totalQueries      int64
	cacheHits         int64
	cacheMisses       int64
	activeQueries     int64
	activeConnections int64
	execTimes         []float64
}

// Snapshot is the serialized form returned by /api/metrics, joined with the
// index counts the caller supplies.
type Snapshot struct {
	TotalQueries      int64     `json:"total_queries"`
	CacheHits         int64     `json:"cache_hits"`
	CacheMisses       int64     `json:"cache_misses"`
	ActiveQueries     int64     `json:"active_queries"`
	ActiveConnections int64     `json:"active_connections"`
	AvgExecSec        float64   `json:"avg_exec_sec"`
	P95ExecSec        float64   `json:"p95_exec_sec"`
	RecentExecTimes   []float64 `json:"recent_exec_times"`
	IndexedDocuments  int64     `json:"indexed_documents"`
	IndexedChunks     int64     `json:"indexed_chunks"`
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) QueryStarted() {
	c.mu.Lock()
	c.totalQueries++
	c.mu.Unlock()
}

func (c *Collector) CacheHit() {
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

func (c *Collector) CacheMiss() {
	c.mu.Lock()
	c.cacheMisses++
	c.mu.Unlock()
}

// ActiveQuery brackets one in-flight query execution.
func (c *Collector) ActiveQuery(delta int64) {
	c.mu.Lock()
	c.activeQueries += delta
	c.mu.Unlock()
}

// ActiveConnection brackets one checked-out database connection.
func (c *Collector) ActiveConnection(delta int64) {
	c.mu.Lock()
	c.activeConnections += delta
	c.mu.Unlock()
}

// RecordExecTime appends one execution sample, trimming the ring to the last
// 500 entries.
func (c *Collector) RecordExecTime(sec float64) {
	c.mu.Lock()
	c.execTimes = append(c.execTimes, sec)
	if len(c.execTimes) > maxExecSamples {
		c.execTimes = c.execTimes[len(c.execTimes)-maxExecSamples:]
	}
	c.mu.Unlock()
}

// Snapshot computes the aggregate view. indexedDocs and indexedChunks come
// from the metadata store.
func (c *Collector) Snapshot(indexedDocs, indexedChunks int64) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		TotalQueries:      c.totalQueries,
		CacheHits:         c.cacheHits,
		CacheMisses:       c.cacheMisses,
		ActiveQueries:     c.activeQueries,
		ActiveConnections: c.activeConnections,
		RecentExecTimes:   []float64{},
		IndexedDocuments:  indexedDocs,
		IndexedChunks:     indexedChunks,
	}

	if n := len(c.execTimes); n > 0 {
		var sum float64
		for _, t := range c.execTimes {
			sum += t
		}
		s.AvgExecSec = sum / float64(n)

		sorted := append([]float64(nil), c.execTimes...)
		sort.Float64s(sorted)
		idx := int(0.95 * float64(n))
		if idx > n-1 {
			idx = n - 1
		}
		s.P95ExecSec = sorted[idx]

		recent := c.execTimes
		if len(recent) > 20 {
			recent = recent[len(recent)-20:]
		}
		s.RecentExecTimes = append(s.RecentExecTimes, recent...)
	}
	return s
}

// Reset zeroes every counter and drops the timing samples.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.totalQueries = 0
	c.cacheHits = 0
	c.cacheMisses = 0
	c.activeQueries = 0
	c.activeConnections = 0
	c.execTimes = nil
	c.mu.Unlock()
}
