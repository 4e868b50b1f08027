package serve_test

import (
	"context"
	"testing"
	"time"

	"intellifinance/fincat/cmd/root/roottest"
	"intellifinance/fincat/cmd/serve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "serve", serve.Cmd.Use)
	assert.Contains(t, serve.Cmd.Short, "HTTP")
	assert.Contains(t, serve.Cmd.Long, "/api/v1")
	assert.NotNil(t, serve.Cmd.Flags().Lookup("address"))
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	cfg := roottest.Config(t, "retrain:\n  enabled: true\n  schedule: \"0 3 * * *\"\n  timezone: UTC\n")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := roottest.RunContext(t, ctx, serve.Cmd, "serve", "--config", cfg, "--address", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestServeCommand_BadAddress(t *testing.T) {
	cfg := roottest.Config(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := roottest.RunContext(t, ctx, serve.Cmd, "serve", "--config", cfg, "--address", "127.0.0.1:99999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server failed")
}
