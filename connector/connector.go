// Package connector selects a transport per target: plain byte stream
// for http-style URLs, TLS-upgraded stream for https URLs, both behind
// one Stream type so callers never branch on the connection kind.
package connector

import (
	"context"
	"fmt"
	"net/url"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"maybetls/metrics"
	"maybetls/transport"
	"maybetls/util"
)

// Connector dials targets by URL and decides, from the scheme, whether
// the resulting stream is handed back plain or upgraded to TLS first.
//
// A Connector is safe for concurrent Connect calls; each call captures
// its own snapshot of the HTTPS-only policy, so toggling it never
// affects calls already in flight.
type Connector struct {
	forceHTTPS bool
	dialer     transport.Dialer
	handshaker Handshaker
	clk        clock.Clock
	collector  *metrics.Collector
}

// New returns a connector with the default TCP dialer and the default
// TLS handshaker.
//
// By default the connector hands back a plain stream for http URLs.
// Call HTTPSOnly(true) to refuse them instead.
//
// New panics if the default TLS context cannot be built.  To handle
// that error yourself, construct the handshaker with NewHandshaker and
// use NewWithHandshaker.
func New() *Connector {
	return NewWithDialer(transport.NewTCPDialer())
}

// NewWithDialer returns a connector that uses the given raw dialer and
// the default TLS handshaker.
//
// Like New, it panics if the default TLS context cannot be built; use
// NewHandshaker + NewWithHandshaker for the recoverable path.
func NewWithDialer(d transport.Dialer) *Connector {
	return NewWithHandshaker(d, mustHandshaker())
}

// NewWithHandshaker composes a connector from its two collaborators.
// It never fails: any fallible setup belongs to the collaborators'
// own constructors.
func NewWithHandshaker(d transport.Dialer, h Handshaker) *Connector {
	return &Connector{
		dialer:     d,
		handshaker: h,
		clk:        clock.New(),
	}
}

// HTTPSOnly toggles the policy of refusing non-https targets.  When
// enabled, Connect fails with ErrHTTPSRequired before any I/O.
func (c *Connector) HTTPSOnly(enable bool) {
	c.forceHTTPS = enable
}

// SetMetrics attaches a collector.  A nil collector (the default)
// disables accounting.
func (c *Connector) SetMetrics(m *metrics.Collector) {
	c.collector = m
}

// Clone returns a copy whose HTTPS-only flag is independent of the
// original.  The dialer and handshaker handles are shared; both are
// concurrency-safe by contract.
func (c *Connector) Clone() *Connector {
	cp := *c
	return &cp
}

// Close releases the underlying dialer's resources.
func (c *Connector) Close() error {
	return c.dialer.Close()
}

// Connect parses rawurl and establishes a stream to it.
func (c *Connector) Connect(ctx context.Context, rawurl string) (*Stream, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}
	return c.ConnectURL(ctx, u)
}

// ConnectURL establishes a stream to u: https targets are dialed and
// then upgraded by the handshaker, everything else is handed back as a
// plain stream.  Cancelling ctx aborts whichever stage is in flight.
func (c *Connector) ConnectURL(ctx context.Context, u *url.URL) (*Stream, error) {
	isHTTPS := u.Scheme == "https"

	log := logrus.WithFields(logrus.Fields{
		"attempt": shortID(),
		"url":     u.Redacted(),
	})

	// Policy check happens before the dialer is touched.
	if !isHTTPS && c.forceHTTPS {
		c.collector.PolicyRejected()
		log.Warn("refusing plaintext target: https required")
		return nil, ErrHTTPSRequired
	}

	// The TLS identity is the URL host, IPv6 brackets stripped.
	serverName := util.ServerName(u)

	c.collector.DialStarted()
	conn, err := c.dialer.DialURL(ctx, u)
	if err != nil {
		c.collector.DialFailed(err.Error())
		return nil, &DialError{URL: u.Redacted(), Err: err}
	}
	c.collector.DialSucceeded()

	if !isHTTPS {
		log.Debug("plain stream established")
		return c.finish(newPlainStream(conn)), nil
	}

	var raw *transport.Stats
	if r, ok := conn.(transport.StatsReporter); ok {
		raw = r.ConnectionStats()
	}

	tlsStart := c.clk.Now()
	tlsConn, err := c.handshaker.Handshake(ctx, serverName, conn)
	if err != nil {
		// The handshaker has closed the raw connection.
		c.collector.HandshakeFailed(err.Error())
		log.WithError(err).Warn("tls handshake failed")
		return nil, &HandshakeError{ServerName: serverName, Err: err}
	}
	tlsEnd := c.clk.Now()
	c.collector.HandshakeSucceeded()

	log.WithFields(logrus.Fields{
		"server_name": serverName,
		"handshake":   tlsEnd.Sub(tlsStart),
	}).Debug("encrypted stream established")

	return c.finish(newEncryptedStream(tlsConn, raw.MergeTLS(tlsStart, tlsEnd))), nil
}

// finish attaches accounting to a constructed stream.
func (c *Connector) finish(s *Stream) *Stream {
	s.metrics = c.collector
	c.collector.StreamOpened()
	return s
}

// shortID returns a compact id for correlating concurrent attempts in
// logs.
func shortID() string {
	return uuid.NewString()[:8]
}
