package internal

import (
	"errors"
	"math"
	"time"
)

// Sentinel errors shared across the archive packages.
var (
	// ErrIndexUnavailable means the archive root is missing or unreadable.
	// Handlers must surface this distinctly from "no recordings yet".
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrNotFound means a unique id did not resolve to a regular file inside
	// the archive root.
	ErrNotFound = errors.New("video not found")
)

// VideoRecord is one indexed recording. Records are rebuilt from disk on
// every scan and never mutated afterwards.
type VideoRecord struct {
	// CameraID comes from the folder name, e.g. "Cam1".
	CameraID string
	// FolderDate is the calendar date from the folder name. It is the
	// grouping date for queries even when ResolvedAt drifted to another day.
	FolderDate string
	// ResolvedAt is the best-effort recording instant: the timestamp embedded
	// in the filename when present, otherwise the file's mtime.
	ResolvedAt time.Time
	// Filename is the base file name only.
	Filename string
	// UniqueID reversibly encodes (folder name, filename); safe in URLs.
	UniqueID string
	// PhysicalPath is the absolute path on disk. Never exposed over HTTP.
	PhysicalPath string
	SizeBytes    int64
}

// VideoSummary is the projection returned by queries. PhysicalPath stays out
// on purpose; callers go through the reverse lookup to reach the file.
type VideoSummary struct {
	CameraID  string  `json:"camera_id"`
	Date      string  `json:"date"`
	UniqueID  string  `json:"unique_id"`
	Timestamp string  `json:"timestamp"`
	SizeMB    float64 `json:"size_mb"`
}

// Summary projects a record for display.
func (r *VideoRecord) Summary() VideoSummary {
	return VideoSummary{
		CameraID:  r.CameraID,
		Date:      r.FolderDate,
		UniqueID:  r.UniqueID,
		Timestamp: r.ResolvedAt.Format("2006-01-02T15:04:05"),
		SizeMB:    math.Round(float64(r.SizeBytes)/(1024*1024)*100) / 100,
	}
}
