// Package transport provides abstractions for establishing raw network
// connections.  Dialers handle the "how" of reaching a target — plain
// TCP or an SSH-tunnelled hop — independent of whether the resulting
// byte stream is later upgraded to TLS (which is the connector layer's
// job).
package transport

import (
	"context"
	"net"
	"net/url"
)

// Dialer opens an outbound connection to the target named by a URL.
// Implementations include a plain TCP dialer and an SSH-tunnelled
// dialer that routes traffic through an encrypted gateway.
type Dialer interface {
	// DialURL establishes a connection to the URL's host, using the
	// URL's port or the scheme's default port.  Implementations must
	// honour context cancellation.
	DialURL(ctx context.Context, u *url.URL) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// StatsReporter is the optional telemetry capability of a dialed
// connection.  Dialers that record connection-setup milestones return
// conns implementing it; callers discover the capability with a type
// assertion, the same way net/http discovers optional interfaces.
type StatsReporter interface {
	// ConnectionStats returns the setup milestones for this
	// connection, or nil when telemetry was not recorded.
	ConnectionStats() *Stats
}
