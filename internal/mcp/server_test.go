package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)

	srv, err := NewServer(&cli.App{}, nil)
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.NotEmpty(t, tools)
}

func TestServe_RequiresConfig(t *testing.T) {
	assert.Error(t, Serve(context.Background(), nil, &cli.App{}, nil))
}

func TestMCPLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := mcpLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	logger.Warn("slow")
	logger.Debug("trace")

	assert.Contains(t, buf.String(), "msg=slow")
	assert.Contains(t, buf.String(), "msg=trace")
	assert.Empty(t, fieldsToArgs(nil))
}
