package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_MergeTLS(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	raw := &Stats{
		StartTime:    base,
		DNSStart:     base.Add(1 * time.Millisecond),
		DNSEnd:       base.Add(2 * time.Millisecond),
		ConnectStart: base.Add(2 * time.Millisecond),
		ConnectEnd:   base.Add(10 * time.Millisecond),
	}

	start := base.Add(10 * time.Millisecond)
	end := base.Add(15 * time.Millisecond)
	merged := raw.MergeTLS(start, end)

	require.NotNil(t, merged)
	assert.Equal(t, raw.StartTime, merged.StartTime)
	assert.Equal(t, raw.DNSStart, merged.DNSStart)
	assert.Equal(t, raw.DNSEnd, merged.DNSEnd)
	assert.Equal(t, raw.ConnectStart, merged.ConnectStart)
	assert.Equal(t, raw.ConnectEnd, merged.ConnectEnd)
	assert.Equal(t, start, merged.TLSHandshakeStart)
	assert.Equal(t, end, merged.TLSHandshakeEnd)

	// Merging returns a copy; the original is untouched.
	assert.True(t, raw.TLSHandshakeStart.IsZero())
}

func TestStats_MergeTLS_NilStaysNil(t *testing.T) {
	var s *Stats
	assert.Nil(t, s.MergeTLS(time.Now(), time.Now()))
}

func TestStats_Clone(t *testing.T) {
	var nilStats *Stats
	assert.Nil(t, nilStats.Clone())

	s := &Stats{StartTime: time.Now()}
	c := s.Clone()
	require.NotNil(t, c)
	assert.NotSame(t, s, c)
	assert.Equal(t, *s, *c)
}

func TestStats_Durations(t *testing.T) {
	var nilStats *Stats
	assert.Zero(t, nilStats.DNSDuration())
	assert.Zero(t, nilStats.ConnectDuration())
	assert.Zero(t, nilStats.TLSHandshakeDuration())

	base := time.Now()
	s := &Stats{
		DNSStart:          base,
		DNSEnd:            base.Add(2 * time.Millisecond),
		ConnectStart:      base.Add(2 * time.Millisecond),
		ConnectEnd:        base.Add(5 * time.Millisecond),
		TLSHandshakeStart: base.Add(5 * time.Millisecond),
		TLSHandshakeEnd:   base.Add(11 * time.Millisecond),
	}
	assert.Equal(t, 2*time.Millisecond, s.DNSDuration())
	assert.Equal(t, 3*time.Millisecond, s.ConnectDuration())
	assert.Equal(t, 6*time.Millisecond, s.TLSHandshakeDuration())

	// Half-recorded milestones report zero, not a nonsense span.
	partial := &Stats{ConnectStart: base}
	assert.Zero(t, partial.ConnectDuration())
}
