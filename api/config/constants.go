package config

import "time"

// Compiled-in defaults. Everything here can be overridden through environment
// variables or CLI flags (see config.go).
const (
	DefaultRootDir     = "/media/cameras"
	DefaultVideoExt    = ".mp4"
	DefaultPort        = 8000
	DefaultLogLevel    = "INFO"
	DefaultRecentHours = 2

	// Snapshot cache is off by default: every query re-scans the tree so the
	// index always reflects current disk state.
	DefaultCacheTTL = time.Duration(0)

	// Archive disk monitoring
	DefaultMonitorInterval   = 5 * time.Minute
	DefaultWarningThreshold  = 85.0
	DefaultCriticalThreshold = 95.0
)
