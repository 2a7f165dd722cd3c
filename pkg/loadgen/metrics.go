package loadgen

import (
	"sort"
	"sync"
	"time"
)

// OperationResult is the outcome of a single request.
type OperationResult struct {
	Kind     string
	Duration time.Duration
	Err      error
}

// LatencyStats summarizes request latencies in milliseconds.
type LatencyStats struct {
	Min    int64
	Max    int64
	Mean   float64
	Median int64
	P90    int64
	P99    int64
}

// Snapshot is an aggregated view of a run.
type Snapshot struct {
	TotalOperations int64
	TotalErrors     int64
	SuccessRate     float64
	Throughput      float64
	Latency         LatencyStats
	ErrorsByType    map[string]int64
	ByKind          map[string]int64
}

// Collector aggregates operation results across workers.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time

	totalOps  int64
	failedOps int64
	latencies []int64

	errorsByType map[string]int64
	byKind       map[string]int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime:    time.Now(),
		latencies:    make([]int64, 0, 10000),
		errorsByType: make(map[string]int64),
		byKind:       make(map[string]int64),
	}
}

// Record adds one result.
func (c *Collector) Record(result OperationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalOps++
	c.byKind[result.Kind]++
	if result.Err != nil {
		c.failedOps++
		c.errorsByType[result.Err.Error()]++
		return
	}
	c.latencies = append(c.latencies, result.Duration.Milliseconds())
}

// GetSnapshot returns the aggregated metrics so far.
func (c *Collector) GetSnapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &Snapshot{
		TotalOperations: c.totalOps,
		TotalErrors:     c.failedOps,
		ErrorsByType:    make(map[string]int64, len(c.errorsByType)),
		ByKind:          make(map[string]int64, len(c.byKind)),
	}
	for k, v := range c.errorsByType {
		snap.ErrorsByType[k] = v
	}
	for k, v := range c.byKind {
		snap.ByKind[k] = v
	}

	if c.totalOps > 0 {
		snap.SuccessRate = float64(c.totalOps-c.failedOps) / float64(c.totalOps) * 100
	}
	if elapsed := time.Since(c.startTime).Seconds(); elapsed > 0 {
		snap.Throughput = float64(c.totalOps) / elapsed
	}

	if len(c.latencies) > 0 {
		sorted := make([]int64, len(c.latencies))
		copy(sorted, c.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var total int64
		for _, l := range sorted {
			total += l
		}
		snap.Latency = LatencyStats{
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Mean:   float64(total) / float64(len(sorted)),
			Median: sorted[len(sorted)/2],
			P90:    sorted[int(float64(len(sorted))*0.90)],
			P99:    sorted[int(float64(len(sorted))*0.99)],
		}
	}

	return snap
}
