// Package cmd wires up the CLI flags and runs a single connection probe.
package cmd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"maybetls/config"
	"maybetls/connector"
	"maybetls/metrics"
	"maybetls/transport"
	"maybetls/tunnel"
)

// version is overridable at link time:
//
//	go build -ldflags "-X maybetls/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args, connects to the target once, and reports how
// the connection was set up.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	fs := flag.NewFlagSet("maybetls", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.ForceHTTPS, "force-https", "F", false, "Refuse plaintext targets")
	fs.BoolVarP(&cfg.Insecure, "insecure", "k", false, "Skip certificate verification")
	fs.IntVarP(&cfg.LocalPort, "local-port", "p", 0, "Local source port (0 = ephemeral)")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 30, "Timeout in seconds")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", "", "Dial via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.JSON, "json", false, "Machine-readable report")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("maybetls %s\n", version)
		return nil
	}

	if fs.NArg() != 1 {
		printUsage(fs)
		return fmt.Errorf("expected exactly one URL argument")
	}
	cfg.URL = fs.Arg(0)
	cfg.Timeout = time.Duration(timeoutSec) * time.Second

	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg.Verbose)

	return probe(ctx, cfg, os.Stdout)
}

// probe performs one connect through the library and writes a report.
func probe(ctx context.Context, cfg *config.Config, out io.Writer) error {
	dialer := buildDialer(cfg)

	handshaker, err := buildHandshaker(cfg)
	if err != nil {
		return err
	}

	conn := connector.NewWithHandshaker(dialer, handshaker)
	defer conn.Close()

	conn.HTTPSOnly(cfg.ForceHTTPS)

	collector := metrics.New()
	conn.SetMetrics(collector)

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	stream, err := conn.Connect(ctx, cfg.URL)
	if err != nil {
		return err
	}
	defer stream.Close()

	return writeReport(out, cfg, stream, collector)
}

// buildDialer picks the raw connector: a plain TCP dialer with
// telemetry, or an SSH-tunnelled one when -T was given.
func buildDialer(cfg *config.Config) transport.Dialer {
	if !cfg.TunnelEnabled {
		d := transport.NewTCPDialer()
		d.Timeout = cfg.Timeout
		d.LocalPort = cfg.LocalPort
		return d
	}
	return transport.NewSSHDialer(&tunnel.SSHConfig{
		User:          cfg.TunnelUser,
		Host:          cfg.TunnelHost,
		Port:          cfg.TunnelPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.Timeout,
	})
}

func buildHandshaker(cfg *config.Config) (connector.Handshaker, error) {
	if !cfg.Insecure {
		return connector.NewHandshaker(nil)
	}
	//nolint:gosec // user opted out of certificate verification
	return connector.NewHandshaker(&tls.Config{InsecureSkipVerify: true})
}

// report is the JSON shape of a probe result.
type report struct {
	URL        string           `json:"url"`
	Encrypted  bool             `json:"encrypted"`
	RemoteAddr string           `json:"remote_addr"`
	DNS        string           `json:"dns,omitempty"`
	Connect    string           `json:"connect,omitempty"`
	Handshake  string           `json:"tls_handshake,omitempty"`
	TLSVersion string           `json:"tls_version,omitempty"`
	Metrics    metrics.Snapshot `json:"metrics"`
}

func writeReport(out io.Writer, cfg *config.Config, stream *connector.Stream, collector *metrics.Collector) error {
	r := report{
		URL:        cfg.URL,
		Encrypted:  stream.IsTLS(),
		RemoteAddr: stream.RemoteAddr().String(),
		Metrics:    collector.Snapshot(),
	}

	if stats := stream.ConnectionStats(); stats != nil {
		r.DNS = stats.DNSDuration().String()
		r.Connect = stats.ConnectDuration().String()
		if stream.IsTLS() {
			r.Handshake = stats.TLSHandshakeDuration().String()
		}
	}
	if state, ok := stream.TLSConnectionState(); ok {
		r.TLSVersion = tls.VersionName(state.Version)
	}

	if cfg.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	kind := "plain"
	if r.Encrypted {
		kind = "encrypted"
	}
	fmt.Fprintf(out, "%s → %s (%s)\n", r.URL, r.RemoteAddr, kind)
	if r.DNS != "" {
		fmt.Fprintf(out, "  dns      %s\n", r.DNS)
		fmt.Fprintf(out, "  connect  %s\n", r.Connect)
	}
	if r.Handshake != "" {
		fmt.Fprintf(out, "  tls      %s (%s)\n", r.Handshake, r.TLSVersion)
	}
	return nil
}

func setupLogging(verbosity int) {
	switch {
	case verbosity <= 0:
		logrus.SetLevel(logrus.WarnLevel)
	case verbosity == 1:
		logrus.SetLevel(logrus.InfoLevel)
	case verbosity == 2:
		logrus.SetLevel(logrus.DebugLevel)
	default:
		logrus.SetLevel(logrus.TraceLevel)
	}
	logrus.SetOutput(os.Stderr)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `maybetls %s - scheme-selecting TLS connection probe

Usage:
  maybetls [options] URL

Connects to URL once, upgrading to TLS when the scheme is https, and
prints how the connection was established.

Options:
%s`, version, fs.FlagUsages())
}
