package logx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestLogger sets up a logger with a bytes.Buffer for testing.
func setupTestLogger() *bytes.Buffer {
	var buf bytes.Buffer
	logWriterLock.Lock()
	logWriter = &buf
	logWriterLock.Unlock()
	return &buf
}

// resetTestLogger resets the logger to default stderr.
func resetTestLogger() {
	logWriterLock.Lock()
	logWriter = nil
	logWriterLock.Unlock()
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-agent")
	assert.Equal(t, "test-agent", logger.GetAgentID())
}

func TestLogFormat(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	logger := NewLogger("architect")
	logger.Info("Test message with %s", "formatting")

	output := buf.String()
	assert.Contains(t, output, "[architect]")
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "Test message with formatting")
}

func TestLogLevels(t *testing.T) {
	logger := NewLogger("test-agent")

	tests := []struct {
		level    Level
		logFunc  func(string, ...any)
		expected string
	}{
		{LevelDebug, logger.Debug, "DEBUG"},
		{LevelInfo, logger.Info, "INFO"},
		{LevelWarn, logger.Warn, "WARN"},
		{LevelError, logger.Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := setupTestLogger()
			defer resetTestLogger()

			if tt.level == LevelDebug {
				SetDebugConfig(true)
				defer SetDebugConfig(false)
			}

			tt.logFunc("test message")
			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestDebugSuppressedWhenDisabled(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	SetDebugConfig(false)
	NewLogger("quiet").Debug("should not appear")
	assert.Empty(t, buf.String())
}

func TestDomainFiltering(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	SetDebugConfig(true)
	SetDebugDomains([]string{"resource", "architect"})
	defer func() {
		SetDebugConfig(false)
		SetDebugDomains(nil)
	}()

	ctx := WithAgentID(context.Background(), "arch-1")
	Debug(ctx, "resource", "probe %s", "https://a.test")
	Debug(ctx, "taskrequest", "filtered out")

	output := buf.String()
	assert.Contains(t, output, "[arch-1]")
	assert.Contains(t, output, "[resource] probe https://a.test")
	assert.NotContains(t, output, "filtered out")
	assert.True(t, IsDebugEnabledForDomain("architect"))
	assert.False(t, IsDebugEnabledForDomain("pipeline"))
}

func TestEnvironmentVariableConfiguration(t *testing.T) {
	t.Setenv("DEBUG", "1")
	t.Setenv("DEBUG_DOMAINS", "architect, resource")
	initDebugFromEnv()
	defer func() {
		SetDebugConfig(false)
		SetDebugDomains(nil)
	}()

	assert.True(t, IsDebugEnabled())
	assert.True(t, IsDebugEnabledForDomain("resource"))
	assert.False(t, IsDebugEnabledForDomain("pipeline"))
}

func TestMultipleAgents(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	NewLogger("architect").Info("Determining scope")
	NewLogger("pipeline").Info("Run started")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[architect]")
	assert.Contains(t, lines[1], "[pipeline]")
}

func TestTimestampFormat(t *testing.T) {
	buf := setupTestLogger()
	defer resetTestLogger()

	NewLogger("test").Info("timestamp test")

	output := buf.String()
	start := strings.Index(output, "[")
	end := strings.Index(output, "]")
	require.True(t, start >= 0 && end > start, "could not find timestamp in %q", output)

	_, err := time.Parse(timestampFormat, output[start+1:end])
	assert.NoError(t, err)
}

func TestRecentLogEntriesFilterByAgent(t *testing.T) {
	setupTestLogger()
	defer resetTestLogger()

	since := time.Now().UTC().Add(-time.Second)
	NewLogger("buffer-agent-a").Warn("first")
	NewLogger("buffer-agent-b").Error("second")

	entries := GetRecentLogEntries("buffer-agent-a", since)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, "buffer-agent-a", e.AgentID)
	}
	assert.Equal(t, "first", entries[len(entries)-1].Message)
}

func TestInitializeLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitializeLogFile(dir, 1, false))

	NewLogger("file-agent").Info("written to disk")
	require.NoError(t, CloseLogFile())

	data, err := os.ReadFile(filepath.Join(dir, "autodev.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")

	// Closing twice is harmless.
	assert.NoError(t, CloseLogFile())
}
