package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"HOTKEY", "LOG_LEVEL", "ENABLE_FILE_LOGGING", "LOG_FILE",
	"FRAME_RATE", "SHOW_EDITORS", "OUTPUT_DIR", "RECORD_FPS", EnvPathEnvVar,
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultHotkey, cfg.Hotkey)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.EnableFileLogging)
	assert.Equal(t, DefaultLogFile, cfg.LogFile)
	assert.Equal(t, DefaultFrameRate, cfg.FrameRate)
	assert.True(t, cfg.ShowEditors)
	assert.Empty(t, cfg.OutputDir)
	assert.Equal(t, DefaultRecordFPS, cfg.RecordFPS)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOTKEY", "Ctrl+Shift+T")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("FRAME_RATE", "60")
	t.Setenv("SHOW_EDITORS", "false")
	t.Setenv("OUTPUT_DIR", " /tmp/shots ")
	t.Setenv("RECORD_FPS", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Shift+T", cfg.Hotkey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.EnableFileLogging)
	assert.Equal(t, 60, cfg.FrameRate)
	assert.False(t, cfg.ShowEditors)
	assert.Equal(t, "/tmp/shots", cfg.OutputDir)
	assert.Equal(t, DefaultRecordFPS, cfg.RecordFPS, "non-positive values fall back to the default")
}

func TestLoadEnvFileOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("HOTKEY=Alt+P\nRECORD_FPS=15\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("HOTKEY")
		os.Unsetenv("RECORD_FPS")
	})

	cfg, err := LoadWithOptions(LoadOptions{EnvFileOverride: path, LogLevelOverride: "trace"})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.EnvPath)
	assert.Equal(t, "Alt+P", cfg.Hotkey)
	assert.Equal(t, 15, cfg.RecordFPS)
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestProcessEnvironmentWinsOverEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOTKEY", "Ctrl+1")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HOTKEY=Alt+P\n"), 0o600))

	cfg, err := LoadWithOptions(LoadOptions{EnvFileOverride: path})
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+1", cfg.Hotkey)
}

func TestEnvPathVariable(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "alt.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_FILE=alt.log\n"), 0o600))
	t.Setenv(EnvPathEnvVar, path)
	t.Cleanup(func() { os.Unsetenv("LOG_FILE") })

	cfg, err := Load()
	require.NoError(t, err)
	if cfg.EnvPath != path {
		t.Skipf("a .env next to the test binary takes precedence: %s", cfg.EnvPath)
	}
	assert.Equal(t, "alt.log", cfg.LogFile)
}
