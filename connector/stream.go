package connector

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"maybetls/metrics"
	"maybetls/transport"
)

// streamKind tags the two variants of a Stream.  The tag is decided
// once, at construction, and never changes.
type streamKind uint8

const (
	kindPlain streamKind = iota
	kindEncrypted
)

// connectionStater is the capability a handshaker's conn must expose
// for TLSConnectionState to report anything.  *tls.Conn implements it.
type connectionStater interface {
	ConnectionState() tls.ConnectionState
}

// Stream is a single established connection that is either plain or
// TLS-encrypted.  It forwards every operation to whichever variant it
// holds, with no buffering or transformation, so upper protocol layers
// need not know which kind of connection they have.
type Stream struct {
	kind      streamKind
	plain     net.Conn
	encrypted net.Conn
	stats     *transport.Stats

	metrics   *metrics.Collector
	closeOnce sync.Once
	closeErr  error
}

// newPlainStream wraps a raw connection without touching its
// telemetry: the stream reports whatever the dialer attached, if
// anything.
func newPlainStream(conn net.Conn) *Stream {
	var stats *transport.Stats
	if r, ok := conn.(transport.StatsReporter); ok {
		stats = r.ConnectionStats()
	}
	return &Stream{kind: kindPlain, plain: conn, stats: stats}
}

// newEncryptedStream wraps a TLS connection with the merged stats
// record produced by the connector.
func newEncryptedStream(conn net.Conn, stats *transport.Stats) *Stream {
	return &Stream{kind: kindEncrypted, encrypted: conn, stats: stats}
}

// conn returns the variant this stream holds.
func (s *Stream) conn() net.Conn {
	if s.kind == kindEncrypted {
		return s.encrypted
	}
	return s.plain
}

// IsTLS reports whether the stream is the encrypted variant.
func (s *Stream) IsTLS() bool { return s.kind == kindEncrypted }

// ConnectionStats returns the setup milestones for this connection,
// or nil when the dialer recorded none.  For encrypted streams the
// record includes the TLS handshake milestones.
func (s *Stream) ConnectionStats() *transport.Stats { return s.stats }

// TLSConnectionState returns the TLS state of an encrypted stream.
// The second return is false for plain streams and for handshakers
// whose conns do not expose a connection state.
func (s *Stream) TLSConnectionState() (tls.ConnectionState, bool) {
	if s.kind != kindEncrypted {
		return tls.ConnectionState{}, false
	}
	cs, ok := s.encrypted.(connectionStater)
	if !ok {
		return tls.ConnectionState{}, false
	}
	return cs.ConnectionState(), true
}

// ── net.Conn forwarding ──────────────────────────────────────────────

func (s *Stream) Read(p []byte) (int, error)  { return s.conn().Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.conn().Write(p) }

// Close closes the held connection.  Closing an encrypted stream
// closes the underlying raw connection through the TLS layer.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn().Close()
		s.metrics.StreamClosed()
	})
	return s.closeErr
}

func (s *Stream) LocalAddr() net.Addr  { return s.conn().LocalAddr() }
func (s *Stream) RemoteAddr() net.Addr { return s.conn().RemoteAddr() }

func (s *Stream) SetDeadline(t time.Time) error      { return s.conn().SetDeadline(t) }
func (s *Stream) SetReadDeadline(t time.Time) error  { return s.conn().SetReadDeadline(t) }
func (s *Stream) SetWriteDeadline(t time.Time) error { return s.conn().SetWriteDeadline(t) }

var _ net.Conn = (*Stream)(nil)
var _ transport.StatsReporter = (*Stream)(nil)
