package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.QueryStarted()
	c.QueryStarted()
	c.CacheHit()
	c.CacheMiss()
	c.ActiveQuery(1)
	c.ActiveConnection(1)
	c.ActiveConnection(1)
	c.ActiveConnection(-1)

	s := c.Snapshot(3, 42)
	assert.EqualValues(t, 2, s.TotalQueries)
	assert.EqualValues(t, 1, s.CacheHits)
	assert.EqualValues(t, 1, s.CacheMisses)
	assert.EqualValues(t, 1, s.ActiveQueries)
	assert.EqualValues(t, 1, s.ActiveConnections)
	assert.EqualValues(t, 3, s.IndexedDocuments)
	assert.EqualValues(t, 42, s.IndexedChunks)
}

func TestCollectorExecTimes(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.RecordExecTime(float64(i) / 100)
	}

	s := c.Snapshot(0, 0)
	assert.InDelta(t, 0.505, s.AvgExecSec, 1e-9)
	assert.InDelta(t, 0.96, s.P95ExecSec, 1e-9)
	assert.Len(t, s.RecentExecTimes, 20)
	assert.InDelta(t, 1.0, s.RecentExecTimes[19], 1e-9)
}

func TestCollectorExecRingCap(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 700; i++ {
		c.RecordExecTime(1)
	}
	c.mu.Lock()
	n := len(c.execTimes)
	c.mu.Unlock()
	assert.Equal(t, 500, n)
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.QueryStarted()
	c.CacheHit()
	c.RecordExecTime(0.5)

	c.Reset()
	s := c.Snapshot(0, 0)
	assert.Zero(t, s.TotalQueries)
	assert.Zero(t, s.CacheHits)
	assert.Zero(t, s.AvgExecSec)
	assert.Empty(t, s.RecentExecTimes)
}
