// Package metrics collects request statistics for the remote task API client.
// file: internal/metrics/client_metrics.go
package metrics

import (
	"sync"
	"time"
)

// DefaultErrorBufferSize is the number of recent errors kept when none is given.
const DefaultErrorBufferSize = 20

// ClientMetrics is a point-in-time snapshot of client activity.
type ClientMetrics struct {
	StartTime time.Time     `json:"startTime"`
	Uptime    time.Duration `json:"uptime"`

	// Remote API calls, one per HTTP attempt.
	APICallCount    int `json:"apiCallCount"`
	APIErrorCount   int `json:"apiErrorCount"`
	APIAvgLatencyMs int `json:"apiAvgLatencyMs"`

	// Latency per operation name, as a running average in ms.
	OperationLatencies map[string]int `json:"operationLatencies"`

	CacheHits   int `json:"cacheHits"`
	CacheMisses int `json:"cacheMisses"`

	// Cooldowns counts 429 responses that triggered a retry pause.
	Cooldowns int `json:"cooldowns"`
	// LimiterWaits counts suspensions by the local rate limiter.
	LimiterWaits     int           `json:"limiterWaits"`
	LimiterWaitTotal time.Duration `json:"limiterWaitTotal"`

	LastErrors []ErrorInfo `json:"lastErrors,omitempty"`
}

// ErrorInfo contains details about an error that occurred.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Status    int       `json:"status,omitempty"`
}

// Collector accumulates ClientMetrics. It is safe for concurrent use.
type Collector struct {
	metrics     ClientMetrics
	errorBuffer []ErrorInfo
	bufferSize  int
	now         func() time.Time
	mu          sync.RWMutex
}

// NewCollector creates a collector keeping the last errorBufferSize errors.
func NewCollector(errorBufferSize int) *Collector {
	if errorBufferSize <= 0 {
		errorBufferSize = DefaultErrorBufferSize
	}
	c := &Collector{
		bufferSize:  errorBufferSize,
		errorBuffer: make([]ErrorInfo, 0, errorBufferSize),
		now:         time.Now,
	}
	c.metrics.StartTime = c.now()
	c.metrics.OperationLatencies = make(map[string]int)
	return c
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() ClientMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.metrics
	out.Uptime = c.now().Sub(c.metrics.StartTime)
	out.OperationLatencies = make(map[string]int, len(c.metrics.OperationLatencies))
	for k, v := range c.metrics.OperationLatencies {
		out.OperationLatencies[k] = v
	}
	if len(c.errorBuffer) > 0 {
		out.LastErrors = make([]ErrorInfo, len(c.errorBuffer))
		copy(out.LastErrors, c.errorBuffer)
	}
	return out
}

// RecordAPICall records one HTTP attempt against the remote API.
func (c *Collector) RecordAPICall(operation string, latency time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latencyMs := int(latency.Milliseconds())
	c.metrics.APICallCount++
	if err != nil {
		c.metrics.APIErrorCount++
	}
	n := c.metrics.APICallCount
	c.metrics.APIAvgLatencyMs = int((float64(c.metrics.APIAvgLatencyMs*(n-1)) + float64(latencyMs)) / float64(n))

	if existing, ok := c.metrics.OperationLatencies[operation]; ok {
		c.metrics.OperationLatencies[operation] = (existing + latencyMs) / 2
	} else {
		c.metrics.OperationLatencies[operation] = latencyMs
	}
}

// RecordCacheLookup counts a cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.metrics.CacheHits++
	} else {
		c.metrics.CacheMisses++
	}
}

// RecordCooldown counts a 429 retry pause.
func (c *Collector) RecordCooldown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Cooldowns++
}

// RecordLimiterWait counts a rate limiter suspension of length d.
func (c *Collector) RecordLimiterWait(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.LimiterWaits++
	c.metrics.LimiterWaitTotal += d
}

// RecordError adds an error to the ring buffer, evicting the oldest when full.
func (c *Collector) RecordError(operation, message string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errorBuffer) >= c.bufferSize {
		c.errorBuffer = c.errorBuffer[1:]
	}
	c.errorBuffer = append(c.errorBuffer, ErrorInfo{
		Timestamp: c.now(),
		Operation: operation,
		Message:   message,
		Status:    status,
	})
}
