package connector

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
)

// Handshaker upgrades an established raw connection to an encrypted
// one.  Implementations must be safe for concurrent use across calls —
// a handshaker is a shared configuration handle, not per-connection
// state.
//
// On failure the handshaker closes conn; the caller must not reuse it.
type Handshaker interface {
	Handshake(ctx context.Context, serverName string, conn net.Conn) (net.Conn, error)
}

// TLSHandshaker is the default Handshaker, negotiating TLS with
// crypto/tls.  The config it holds is treated as read-only; each
// handshake works on a clone.
type TLSHandshaker struct {
	config *tls.Config
}

// NewHandshaker builds a TLSHandshaker from cfg.  A nil cfg means the
// system defaults: host roots and TLS ≥ 1.2.  This is the recoverable
// construction path — it returns an error where New and NewWithDialer
// panic.
func NewHandshaker(cfg *tls.Config) (*TLSHandshaker, error) {
	if cfg == nil {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("loading system root CAs: %w", err)
		}
		cfg = &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}
	}
	return &TLSHandshaker{config: cfg.Clone()}, nil
}

// mustHandshaker backs the panicking constructors.  Failing to build
// the default TLS context is a fatal startup condition, not a per-call
// error.
func mustHandshaker() *TLSHandshaker {
	h, err := NewHandshaker(nil)
	if err != nil {
		panic(fmt.Sprintf("connector: default TLS context: %v", err))
	}
	return h
}

// Handshake negotiates TLS over conn, presenting serverName for
// certificate verification.  conn is closed on failure.
func (h *TLSHandshaker) Handshake(ctx context.Context, serverName string, conn net.Conn) (net.Conn, error) {
	cfg := h.config.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
