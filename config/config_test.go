package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid https", Config{URL: "https://example.com/", Timeout: time.Second}, false},
		{"valid http", Config{URL: "http://example.com:8080/x"}, false},
		{"missing url", Config{}, true},
		{"no scheme", Config{URL: "example.com"}, true},
		{"no host", Config{URL: "https:///path"}, true},
		{"with tunnel", Config{URL: "https://example.com/", TunnelSpec: "ops@gw.example:2222"}, false},
		{"bad tunnel", Config{URL: "https://example.com/", TunnelSpec: "@"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_FillsTunnelFields(t *testing.T) {
	cfg := Config{URL: "https://example.com/", TunnelSpec: "ops@gw.example:2222"}
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.TunnelEnabled)
	assert.Equal(t, "ops", cfg.TunnelUser)
	assert.Equal(t, "gw.example", cfg.TunnelHost)
	assert.Equal(t, 2222, cfg.TunnelPort)
}

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		spec     string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"gw.example", "", "gw.example", 22, false},
		{"ops@gw.example", "ops", "gw.example", 22, false},
		{"ops@gw.example:2222", "ops", "gw.example", 2222, false},
		{"gw.example:2222", "", "gw.example", 2222, false},
		{"", "", "", 0, true},
		{"ops@", "", "", 0, true},
		{"gw.example:notaport", "", "", 0, true},
		{"gw.example:99999", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, user)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}
