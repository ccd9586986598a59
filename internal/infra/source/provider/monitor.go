package provider

import (
	"sync"
	"time"
)

// SourceStatus represents the health state of a sequence source.
type SourceStatus int

const (
	StatusHealthy   SourceStatus = iota // Source is answering normally
	StatusDegraded                      // Source is slow or missing often
	StatusThrottled                     // Source answered 429 recently
	StatusBlocked                       // Source answered 403 recently
)

func (s SourceStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// HealthStatus is a point-in-time view of a source.
type HealthStatus struct {
	Status           SourceStatus
	Latency          time.Duration
	ErrorRate        float64
	Requests         int
	Valid            int
	Misses           int
	TransportErrors  int
	ThrottleCount429 int
	ThrottleCount403 int
	LastSuccessAt    time.Time
	LastFailureAt    time.Time
}

// SourceMonitor tracks latency, error rate and throttling for one source.
// It only observes; routing decisions stay with the fixed priority order.
type SourceMonitor struct {
	name string

	mu              sync.RWMutex
	recentLatencies []time.Duration
	maxWindow       int
	valid           int
	misses          int
	transportErrors int
	status429Count  int
	status403Count  int
	lastThrottle    time.Time
	retryAfter      time.Duration
	lastSuccessAt   time.Time
	lastFailureAt   time.Time

	slowThreshold     time.Duration
	degradedThreshold float64
}

// NewSourceMonitor creates a monitor with default thresholds.
func NewSourceMonitor(name string) *SourceMonitor {
	return &SourceMonitor{
		name:              name,
		recentLatencies:   make([]time.Duration, 0, 50),
		maxWindow:         50,
		slowThreshold:     5 * time.Second,
		degradedThreshold: 0.5,
	}
}

// RecordSuccess records a valid response and its latency.
func (m *SourceMonitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.valid++
	m.lastSuccessAt = time.Now()
	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordMiss records a response that arrived but was not a usable record.
func (m *SourceMonitor) RecordMiss(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	m.lastFailureAt = time.Now()

	switch statusCode {
	case 429:
		m.status429Count++
		m.lastThrottle = m.lastFailureAt
		m.retryAfter = time.Minute
	case 403:
		m.status403Count++
		m.lastThrottle = m.lastFailureAt
		m.retryAfter = 10 * time.Minute
	}
}

// RecordFailure records a transport error.
func (m *SourceMonitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transportErrors++
	m.lastFailureAt = time.Now()
}

// Status returns the current status of the source.
func (m *SourceMonitor) Status() SourceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *SourceMonitor) statusLocked() SourceStatus {
	inWindow := time.Since(m.lastThrottle) < m.retryAfter
	if m.status403Count > 0 && inWindow {
		return StatusBlocked
	}
	if m.status429Count > 0 && inWindow {
		return StatusThrottled
	}

	total := m.valid + m.misses + m.transportErrors
	if total >= 5 && float64(m.misses+m.transportErrors)/float64(total) > m.degradedThreshold {
		return StatusDegraded
	}
	if avg := m.averageLatencyLocked(); len(m.recentLatencies) > 10 && avg > m.slowThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

func (m *SourceMonitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range m.recentLatencies {
		total += l
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Health returns a snapshot of the monitor.
func (m *SourceMonitor) Health() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.valid + m.misses + m.transportErrors
	h := HealthStatus{
		Status:           m.statusLocked(),
		Latency:          m.averageLatencyLocked(),
		Requests:         total,
		Valid:            m.valid,
		Misses:           m.misses,
		TransportErrors:  m.transportErrors,
		ThrottleCount429: m.status429Count,
		ThrottleCount403: m.status403Count,
		LastSuccessAt:    m.lastSuccessAt,
		LastFailureAt:    m.lastFailureAt,
	}
	if total > 0 {
		h.ErrorRate = float64(m.misses+m.transportErrors) / float64(total)
	}
	return h
}
