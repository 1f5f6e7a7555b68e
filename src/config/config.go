package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvPathEnvVar    = "REGION_CAPTURE_ENV"
	DefaultHotkey    = "Ctrl+Shift+X"
	DefaultLogLevel  = "info"
	DefaultLogFile   = "region_capture.log"
	DefaultFrameRate = 120
	DefaultRecordFPS = 30
)

type LoadOptions struct {
	// EnvFileOverride is loaded instead of the discovered .env file.
	EnvFileOverride  string
	LogLevelOverride string
}

type Config struct {
	EnvPath           string
	Hotkey            string
	LogLevel          string
	EnableFileLogging bool
	LogFile           string
	FrameRate         int
	ShowEditors       bool
	OutputDir         string
	RecordFPS         int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) an explicit env file from the command line
	// 2) .env in the application (executable) directory
	// 3) otherwise REGION_CAPTURE_ENV as a path to a config file
	envPath := strings.TrimSpace(opts.EnvFileOverride)
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	if envPath != "" {
		// Values already present in the process environment win.
		_ = godotenv.Load(envPath)
	}

	logLevel := getEnvWithDefault("LOG_LEVEL", DefaultLogLevel)
	if override := strings.TrimSpace(opts.LogLevelOverride); override != "" {
		logLevel = override
	}

	cfg := &Config{
		EnvPath:           envPath,
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		LogLevel:          strings.ToLower(logLevel),
		EnableFileLogging: getEnvBool("ENABLE_FILE_LOGGING", false),
		LogFile:           getEnvWithDefault("LOG_FILE", DefaultLogFile),
		FrameRate:         getEnvPositiveInt("FRAME_RATE", DefaultFrameRate),
		ShowEditors:       getEnvBool("SHOW_EDITORS", true),
		OutputDir:         strings.TrimSpace(os.Getenv("OUTPUT_DIR")),
		RecordFPS:         getEnvPositiveInt("RECORD_FPS", DefaultRecordFPS),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
