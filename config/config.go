// Package config defines the runtime configuration for the maybetls
// probe tool and provides helpers for parsing tunnel specifications.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds every tuneable for a single probe run.
type Config struct {
	// ── Target ───────────────────────────────────────────────────────
	URL        string
	ForceHTTPS bool // refuse plaintext targets
	Insecure   bool // skip certificate verification
	Timeout    time.Duration
	LocalPort  int // source-port binding (0 = ephemeral)

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw [user@]host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	JSON    bool // machine-readable report
}

// Validate checks the configuration for contradictions and fills in
// derived fields (tunnel spec parsing).
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("no target URL given")
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("target %q: %w", c.URL, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("target %q has no scheme (use http:// or https://)", c.URL)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("target %q has no host", c.URL)
	}

	if c.TunnelSpec != "" {
		user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
		if err != nil {
			return err
		}
		c.TunnelEnabled = true
		c.TunnelUser = user
		c.TunnelHost = host
		c.TunnelPort = port
	}

	return nil
}

// ParseTunnelSpec splits "[user@]host[:port]" into its parts.  Port
// defaults to 22 and user to "" (the tunnel layer may fall back to the
// current user).
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	rest := spec
	port = 22

	if i := strings.Index(rest, "@"); i >= 0 {
		user = rest[:i]
		rest = rest[i+1:]
	}
	if rest == "" {
		return "", "", 0, fmt.Errorf("tunnel spec %q has no host", spec)
	}

	if i := strings.LastIndex(rest, ":"); i >= 0 {
		p, perr := strconv.Atoi(rest[i+1:])
		if perr != nil || p < 1 || p > 65535 {
			return "", "", 0, fmt.Errorf("tunnel spec %q: invalid port %q", spec, rest[i+1:])
		}
		port = p
		rest = rest[:i]
	}
	if rest == "" {
		return "", "", 0, fmt.Errorf("tunnel spec %q has no host", spec)
	}

	return user, rest, port, nil
}
