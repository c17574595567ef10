package transport

import "time"

// Stats records the timestamped milestones of connection setup, used
// for latency diagnostics.  A dialer fills the first five fields; the
// connector layer fills the TLS pair after a successful handshake.
// Unreached milestones stay at the zero time.
type Stats struct {
	StartTime time.Time // dial attempt began

	DNSStart time.Time
	DNSEnd   time.Time

	ConnectStart time.Time
	ConnectEnd   time.Time

	TLSHandshakeStart time.Time
	TLSHandshakeEnd   time.Time
}

// Clone returns a copy of s.  A nil receiver yields nil.
func (s *Stats) Clone() *Stats {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// MergeTLS returns a copy of s with the TLS handshake milestones set,
// leaving the dial-time fields untouched.  A nil receiver yields nil:
// a connection that carried no telemetry gains none from the
// handshake, rather than a partially-filled record.
func (s *Stats) MergeTLS(start, end time.Time) *Stats {
	if s == nil {
		return nil
	}
	c := *s
	c.TLSHandshakeStart = start
	c.TLSHandshakeEnd = end
	return &c
}

// DNSDuration returns the time spent resolving, or 0 when unrecorded.
func (s *Stats) DNSDuration() time.Duration {
	if s == nil || s.DNSStart.IsZero() || s.DNSEnd.IsZero() {
		return 0
	}
	return s.DNSEnd.Sub(s.DNSStart)
}

// ConnectDuration returns the time spent connecting, or 0 when unrecorded.
func (s *Stats) ConnectDuration() time.Duration {
	if s == nil || s.ConnectStart.IsZero() || s.ConnectEnd.IsZero() {
		return 0
	}
	return s.ConnectEnd.Sub(s.ConnectStart)
}

// TLSHandshakeDuration returns the time spent in the TLS handshake,
// or 0 when unrecorded.
func (s *Stats) TLSHandshakeDuration() time.Duration {
	if s == nil || s.TLSHandshakeStart.IsZero() || s.TLSHandshakeEnd.IsZero() {
		return 0
	}
	return s.TLSHandshakeEnd.Sub(s.TLSHandshakeStart)
}
