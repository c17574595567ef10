package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/benbjohnson/clock"

	"maybetls/util"
)

// TCPDialer establishes plain TCP connections, optionally binding to a
// specific source port and recording connection-setup telemetry.
//
// The zero value is usable and records no telemetry; NewTCPDialer
// returns a dialer with telemetry on and a sane timeout.
type TCPDialer struct {
	Timeout   time.Duration
	LocalPort int  // optional source-port binding (0 = ephemeral)
	Telemetry bool // record DNS/connect milestones on dialed conns

	// Clock supplies timestamps for telemetry.  Nil means the wall
	// clock; tests inject clock.Mock.
	Clock clock.Clock

	// Resolver overrides DNS resolution.  Nil means net.DefaultResolver.
	Resolver *net.Resolver
}

// NewTCPDialer returns a TCP dialer with telemetry enabled and a
// 30-second dial timeout.
func NewTCPDialer() *TCPDialer {
	return &TCPDialer{Timeout: 30 * time.Second, Telemetry: true}
}

func (d *TCPDialer) clock() clock.Clock {
	if d.Clock != nil {
		return d.Clock
	}
	return clock.New()
}

func (d *TCPDialer) resolver() *net.Resolver {
	if d.Resolver != nil {
		return d.Resolver
	}
	return net.DefaultResolver
}

// DialURL connects to the URL's host over TCP, using the URL's port or
// the scheme's default.  With telemetry on, the returned conn
// implements StatsReporter.
func (d *TCPDialer) DialURL(ctx context.Context, u *url.URL) (net.Conn, error) {
	address, err := util.HostPort(u)
	if err != nil {
		return nil, err
	}
	if !d.Telemetry {
		return d.Dial(ctx, "tcp", address)
	}
	return d.dialWithStats(ctx, address)
}

// Dial connects to address over TCP without recording telemetry.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer, err := d.netDialer(network)
	if err != nil {
		return nil, err
	}
	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }

// dialWithStats resolves and connects as two explicit steps so each
// milestone can be timestamped, then wraps the conn with the record.
func (d *TCPDialer) dialWithStats(ctx context.Context, address string) (net.Conn, error) {
	clk := d.clock()
	stats := &Stats{StartTime: clk.Now()}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", address, err)
	}

	stats.DNSStart = clk.Now()
	addrs, err := d.resolver().LookupHost(ctx, host)
	stats.DNSEnd = clk.Now()
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve %q: no addresses", host)
	}

	dialer, err := d.netDialer("tcp")
	if err != nil {
		return nil, err
	}

	stats.ConnectStart = clk.Now()
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addrs[0], port))
	stats.ConnectEnd = clk.Now()
	if err != nil {
		return nil, err
	}

	return &statsConn{Conn: conn, stats: stats}, nil
}

// netDialer builds the underlying net.Dialer, applying the timeout and
// the optional source-port binding.
func (d *TCPDialer) netDialer(network string) (*net.Dialer, error) {
	dialer := &net.Dialer{Timeout: d.Timeout}

	if d.LocalPort > 0 {
		local := fmt.Sprintf(":%d", d.LocalPort)
		a, err := net.ResolveTCPAddr(network, local)
		if err != nil {
			return nil, fmt.Errorf("resolve local addr: %w", err)
		}
		dialer.LocalAddr = a
	}
	return dialer, nil
}

// statsConn pairs a dialed connection with its setup milestones.
type statsConn struct {
	net.Conn
	stats *Stats
}

func (c *statsConn) ConnectionStats() *Stats { return c.stats }
