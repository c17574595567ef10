// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ServerName extracts the host from a URL for use as a TLS server name.
// IPv6 brackets are stripped, so "https://[::1]:8443/" yields "::1".
// A URL without a host yields the empty string.
func ServerName(u *url.URL) string {
	return strings.Trim(u.Hostname(), "[]")
}

// SchemeDefaultPort returns the conventional port for a URL scheme,
// or "" when the scheme has no well-known port.
func SchemeDefaultPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	default:
		return ""
	}
}

// HostPort returns the "host:port" dial address for a URL, filling in
// the scheme's default port when the URL carries none.
func HostPort(u *url.URL) (string, error) {
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("url %q has no host", u.Redacted())
	}

	port := u.Port()
	if port == "" {
		port = SchemeDefaultPort(u.Scheme)
	}
	if port == "" {
		return "", fmt.Errorf("url %q has no port and scheme %q has no default", u.Redacted(), u.Scheme)
	}
	return net.JoinHostPort(host, port), nil
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
