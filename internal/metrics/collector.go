// Package metrics provides in-memory statistics for service requests.
package metrics

import (
	"math"
	"sync"
	"time"
)

// RequestMetrics holds aggregated metrics for a single request kind.
type RequestMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// RequestSnapshot provides computed stats from raw metrics.
type RequestSnapshot struct {
	Count       int64
	Errors      int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the full client statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Upload        *RequestSnapshot
	Poll          *RequestSnapshot
	Listing       *RequestSnapshot
	Stores        *RequestSnapshot
	Ask           *RequestSnapshot
}

// Request kinds recorded by the collector.
const (
	OpUpload  = "upload"
	OpPoll    = "poll"
	OpListing = "listing"
	OpStores  = "stores"
	OpAsk     = "ask"
)

// Collector aggregates in-memory request statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*RequestMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*RequestMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for a request kind.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *RequestMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &RequestMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// Record records the outcome of one request.
func (c *Collector) Record(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if err != nil {
		m.Errors++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotOp creates a snapshot for a request kind, returning nil if no data.
func snapshotOp(m *RequestMetrics) *RequestSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &RequestSnapshot{
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Upload:        snapshotOp(c.ops[OpUpload]),
		Poll:          snapshotOp(c.ops[OpPoll]),
		Listing:       snapshotOp(c.ops[OpListing]),
		Stores:        snapshotOp(c.ops[OpStores]),
		Ask:           snapshotOp(c.ops[OpAsk]),
	}
}
