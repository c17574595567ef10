package connector

import (
	"errors"
	"fmt"
)

// ErrHTTPSRequired is returned by Connect when the connector is in
// HTTPS-only mode and the target is not an https URL.  It is detected
// before the dialer is invoked — no I/O happens for a rejected target.
var ErrHTTPSRequired = errors.New("https required but URI was not https")

// DialError reports a failure to establish the raw connection.  The
// underlying dialer error is available through Unwrap.
type DialError struct {
	URL string
	Err error
}

func (e *DialError) Error() string {
	return fmt.Sprintf("dial %s: %v", e.URL, e.Err)
}

func (e *DialError) Unwrap() error { return e.Err }

// HandshakeError reports a failed TLS handshake over an established
// raw connection.  The handshaker's error is available through Unwrap.
type HandshakeError struct {
	ServerName string
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls handshake with %q: %v", e.ServerName, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }
