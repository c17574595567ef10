package tunnel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSHTunnel_Defaults(t *testing.T) {
	tn := NewSSHTunnel(&SSHConfig{Host: "gateway.example"})
	assert.Equal(t, 22, tn.config.Port)
	assert.NotZero(t, tn.config.ConnTimeout)
}

func TestSSHTunnel_DialBeforeConnect(t *testing.T) {
	tn := NewSSHTunnel(&SSHConfig{Host: "gateway.example"})

	_, err := tn.Dial(context.Background(), "tcp", "target.example:80")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, tn.IsAlive())
}

func TestSSHTunnel_CloseIdempotent(t *testing.T) {
	tn := NewSSHTunnel(&SSHConfig{Host: "gateway.example"})
	assert.NoError(t, tn.Close())
	assert.NoError(t, tn.Close())
}
