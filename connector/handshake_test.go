package connector

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maybetls/transport"
)

// newLoopbackTLS generates a self-signed certificate for 127.0.0.1 and
// returns the server certificate plus a pool trusting it.
func newLoopbackTLS(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "maybetls loopback"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	cert := tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}

	parsed, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(parsed)

	return cert, pool
}

// serveTLSOnce accepts one connection, completes the server handshake,
// sends greeting, and closes.
func serveTLSOnce(t *testing.T, ln net.Listener, cert tls.Certificate, greeting string) {
	t.Helper()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		srv := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{cert}})
		defer srv.Close()
		if err := srv.Handshake(); err != nil {
			return
		}
		if greeting != "" {
			srv.Write([]byte(greeting)) //nolint:errcheck
		}
	}()
}

func TestTLSHandshaker_Loopback(t *testing.T) {
	cert, pool := newLoopbackTLS(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveTLSOnce(t, ln, cert, "hello")

	hs, err := NewHandshaker(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
	require.NoError(t, err)

	c := NewWithHandshaker(transport.NewTCPDialer(), hs)
	defer c.Close()

	target := fmt.Sprintf("https://127.0.0.1:%d/", ln.Addr().(*net.TCPAddr).Port)
	stream, err := c.Connect(context.Background(), target)
	require.NoError(t, err)
	defer stream.Close()

	assert.True(t, stream.IsTLS())

	buf := make([]byte, 5)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	state, ok := stream.TLSConnectionState()
	require.True(t, ok)
	assert.GreaterOrEqual(t, state.Version, uint16(tls.VersionTLS12))

	// The default TCP dialer records telemetry, so the merged record
	// must be present with ordered milestones.
	stats := stream.ConnectionStats()
	require.NotNil(t, stats)
	assert.False(t, stats.DNSEnd.Before(stats.DNSStart))
	assert.False(t, stats.ConnectEnd.Before(stats.ConnectStart))
	assert.False(t, stats.TLSHandshakeStart.Before(stats.ConnectEnd))
	assert.False(t, stats.TLSHandshakeEnd.Before(stats.TLSHandshakeStart))
	assert.Positive(t, stats.TLSHandshakeDuration())
}

func TestTLSHandshaker_UntrustedServerFails(t *testing.T) {
	cert, _ := newLoopbackTLS(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveTLSOnce(t, ln, cert, "")

	// Empty root pool: the server certificate cannot verify.
	hs, err := NewHandshaker(&tls.Config{RootCAs: x509.NewCertPool(), MinVersion: tls.VersionTLS12})
	require.NoError(t, err)

	c := NewWithHandshaker(transport.NewTCPDialer(), hs)
	defer c.Close()

	target := fmt.Sprintf("https://127.0.0.1:%d/", ln.Addr().(*net.TCPAddr).Port)
	_, err = c.Connect(context.Background(), target)
	require.Error(t, err)

	var he *HandshakeError
	assert.ErrorAs(t, err, &he)
}

func TestNewHandshaker_ClonesConfig(t *testing.T) {
	cfg := &tls.Config{ServerName: "fixed.example"}
	hs, err := NewHandshaker(cfg)
	require.NoError(t, err)

	cfg.ServerName = "mutated.example"
	assert.Equal(t, "fixed.example", hs.config.ServerName)
}

func TestHandshake_CancelledContext(t *testing.T) {
	hs, err := NewHandshaker(&tls.Config{RootCAs: x509.NewCertPool()})
	require.NoError(t, err)

	// A pipe with nobody answering: the handshake can only end via ctx.
	client, server := net.Pipe()
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = hs.Handshake(ctx, "example.com", client)
	assert.Error(t, err)
}
