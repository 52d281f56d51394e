package logging

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelInfo, Output: &buf})

	logger.Warn("build id refreshed", "team_slug", "west-ham-united", "error", errors.New("stale"))
	logger.Debug("not written")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, sonic.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "WARN", entry["level"])
	require.Equal(t, "build id refreshed", entry["msg"])
	require.Equal(t, "west-ham-united", entry["team_slug"])
	require.Equal(t, "stale", entry["error"])
}

func TestNew_FileSinkReceivesEntries(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "crawler.log")
	logger := New(Options{Level: LevelDebug, Output: &buf, FilePath: path})

	logger.Info("landing page fetched")
	require.NoError(t, logger.Sync())
	require.NoError(t, logger.Sync())

	require.Contains(t, buf.String(), "landing page fetched")
	require.FileExists(t, path)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected nop logger from nil receiver")
	}
}
