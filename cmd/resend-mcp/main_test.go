package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixieDoug/resend-mcp-http-server/internal/config"
)

// unsetenv clears key for the duration of the test so dotenv loading can set it.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestRootWithoutSubcommandPrintsHelp(t *testing.T) {
	err := newRootCommand(strings.NewReader(""), io.Discard, io.Discard).ParseAndRun(context.Background(), nil)
	require.ErrorIs(t, err, flag.ErrHelp)
}

func TestServeFailsWithoutAPIKey(t *testing.T) {
	unsetenv(t, "RESEND_API_KEY")
	t.Chdir(t.TempDir())

	err := newRootCommand(strings.NewReader(""), io.Discard, io.Discard).ParseAndRun(context.Background(), []string{"serve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestStdioServesFromEnvFile(t *testing.T) {
	unsetenv(t, "RESEND_API_KEY")
	unsetenv(t, "SENDER_EMAIL_ADDRESS")
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RESEND_API_KEY=re_from_env_file\nSENDER_EMAIL_ADDRESS=noreply@example.com\n"), 0o600))

	in := strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"tools/list"}` + "\n")
	var out bytes.Buffer
	err := newRootCommand(in, &out, io.Discard).ParseAndRun(context.Background(), []string{"-env-file", envFile, "stdio"})
	require.NoError(t, err)

	var resp struct {
		ID     json.RawMessage `json:"id"`
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Properties map[string]json.RawMessage `json:"properties"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp))
	assert.Equal(t, "7", string(resp.ID))
	require.Len(t, resp.Result.Tools, 2)
	assert.NotContains(t, resp.Result.Tools[0].InputSchema.Properties, "from")
}

func TestMissingExplicitEnvFileFails(t *testing.T) {
	err := newRootCommand(strings.NewReader(""), io.Discard, io.Discard).
		ParseAndRun(context.Background(), []string{"-env-file", filepath.Join(t.TempDir(), "nope.env"), "stdio"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"
	var buf bytes.Buffer
	logger := newLogger(cfg, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
