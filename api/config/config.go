package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every knob the server needs. It is built once at startup and
// passed down explicitly; nothing in the archive packages reads globals.
type Config struct {
	// RootDir is the directory holding the CamX_YYYY-MM-DD folders.
	RootDir string
	// VideoExt is the recording file extension, including the dot.
	VideoExt string
	// Cameras optionally whitelists camera identifiers. Empty = accept any
	// folder matching the naming convention.
	Cameras []string

	Port        int
	LogLevel    string
	RecentHours int

	// CacheTTL > 0 enables the in-memory scan snapshot with that lifetime.
	// Zero keeps the scan-per-query behavior.
	CacheTTL time.Duration
	// WatchEnabled invalidates the snapshot on filesystem events. Only
	// meaningful when CacheTTL > 0.
	WatchEnabled bool

	MonitorInterval   time.Duration
	WarningThreshold  float64
	CriticalThreshold float64
}

// Load builds a Config from environment variables, falling back to the
// compiled-in defaults. CLI flags may override the result afterwards.
func Load() *Config {
	return &Config{
		RootDir:           getEnv("CAMSTREAM_ROOT", DefaultRootDir),
		VideoExt:          getEnv("CAMSTREAM_VIDEO_EXT", DefaultVideoExt),
		Cameras:           getEnvList("CAMSTREAM_CAMERAS"),
		Port:              getEnvInt("CAMSTREAM_PORT", DefaultPort),
		LogLevel:          getEnv("CAMSTREAM_LOG_LEVEL", DefaultLogLevel),
		RecentHours:       getEnvInt("CAMSTREAM_RECENT_HOURS", DefaultRecentHours),
		CacheTTL:          getEnvDuration("CAMSTREAM_CACHE_TTL", DefaultCacheTTL),
		WatchEnabled:      getEnvBool("CAMSTREAM_WATCH", false),
		MonitorInterval:   getEnvDuration("CAMSTREAM_MONITOR_INTERVAL", DefaultMonitorInterval),
		WarningThreshold:  DefaultWarningThreshold,
		CriticalThreshold: DefaultCriticalThreshold,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList parses a comma-separated env var, e.g. "Cam1,Cam2".
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
