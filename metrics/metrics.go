// Package metrics provides lightweight, lock-free counters for
// tracking connector activity.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks connect-path activity for a connector.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	dialsStarted     atomic.Int64
	dialsSucceeded   atomic.Int64
	dialsFailed      atomic.Int64
	handshakesOK     atomic.Int64
	handshakesFailed atomic.Int64
	policyRejects    atomic.Int64
	streamsActive    atomic.Int64
	streamsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Dial metrics ─────────────────────────────────────────────────────

// DialStarted records that a raw dial was attempted.
func (c *Collector) DialStarted() {
	if c == nil {
		return
	}
	c.dialsStarted.Add(1)
}

// DialSucceeded records a raw connection being established.
func (c *Collector) DialSucceeded() {
	if c == nil {
		return
	}
	c.dialsSucceeded.Add(1)
}

// DialFailed records a raw dial failure and remembers the message.
func (c *Collector) DialFailed(msg string) {
	if c == nil {
		return
	}
	c.dialsFailed.Add(1)
	c.recordError(msg)
}

// ── Handshake metrics ────────────────────────────────────────────────

// HandshakeSucceeded records a completed TLS handshake.
func (c *Collector) HandshakeSucceeded() {
	if c == nil {
		return
	}
	c.handshakesOK.Add(1)
}

// HandshakeFailed records a failed TLS handshake.
func (c *Collector) HandshakeFailed(msg string) {
	if c == nil {
		return
	}
	c.handshakesFailed.Add(1)
	c.recordError(msg)
}

// PolicyRejected records a target refused before any I/O because
// HTTPS was required.
func (c *Collector) PolicyRejected() {
	if c == nil {
		return
	}
	c.policyRejects.Add(1)
}

// ── Stream metrics ───────────────────────────────────────────────────

// StreamOpened increments both the active and total stream counters.
func (c *Collector) StreamOpened() {
	if c == nil {
		return
	}
	c.streamsActive.Add(1)
	c.streamsTotal.Add(1)
}

// StreamClosed decrements the active stream counter.
func (c *Collector) StreamClosed() {
	if c == nil {
		return
	}
	c.streamsActive.Add(-1)
}

// ActiveStreams returns the current number of open streams.
func (c *Collector) ActiveStreams() int64 {
	if c == nil {
		return 0
	}
	return c.streamsActive.Load()
}

func (c *Collector) recordError(msg string) {
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	DialsStarted     int64  `json:"dials_started"`
	DialsSucceeded   int64  `json:"dials_succeeded"`
	DialsFailed      int64  `json:"dials_failed"`
	HandshakesOK     int64  `json:"handshakes_ok"`
	HandshakesFailed int64  `json:"handshakes_failed"`
	PolicyRejects    int64  `json:"policy_rejects"`
	StreamsActive    int64  `json:"streams_active"`
	StreamsTotal     int64  `json:"streams_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		DialsStarted:     c.dialsStarted.Load(),
		DialsSucceeded:   c.dialsSucceeded.Load(),
		DialsFailed:      c.dialsFailed.Load(),
		HandshakesOK:     c.handshakesOK.Load(),
		HandshakesFailed: c.handshakesFailed.Load(),
		PolicyRejects:    c.policyRejects.Load(),
		StreamsActive:    c.streamsActive.Load(),
		StreamsTotal:     c.streamsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}
