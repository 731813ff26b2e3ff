package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sgonzalezm/cam-stream/api/internal"
)

var (
	scansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "camstream_scans_total",
		Help: "Number of archive scans performed",
	})
	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "camstream_scan_duration_seconds",
		Help:    "Duration of a full archive scan",
		Buckets: prometheus.DefBuckets,
	})
	recordsIndexed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camstream_records_indexed",
		Help: "Records produced by the most recent scan",
	})
	entriesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camstream_entries_skipped_total",
		Help: "Filesystem entries excluded from the index",
	}, []string{"reason"})
)

// Config holds scanner settings. Passed in explicitly; the scanner keeps no
// ambient state.
type Config struct {
	// Root is the archive directory containing the camera folders.
	Root string
	// VideoExt is the recording extension including the dot, e.g. ".mp4".
	VideoExt string
	// Cameras optionally restricts indexing to these camera ids.
	Cameras []string
	// CacheTTL > 0 enables the snapshot cache.
	CacheTTL time.Duration
}

// Stats summarizes one scan for operability endpoints and the CLI.
type Stats struct {
	Indexed   int `json:"indexed"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// Scanner walks the archive root and produces the record list. Every call is
// a full traversal; results reflect disk state at call time. The scanner has
// no mutable per-scan state, so concurrent Scan calls are safe.
type Scanner struct {
	cfg     Config
	cameras map[string]struct{}
	cache   *snapshotCache
	log     *internal.Logger
}

func New(cfg Config, log *internal.Logger) *Scanner {
	s := &Scanner{cfg: cfg, log: log.Component("scanner")}
	if len(cfg.Cameras) > 0 {
		s.cameras = make(map[string]struct{}, len(cfg.Cameras))
		for _, c := range cfg.Cameras {
			s.cameras[strings.ToLower(c)] = struct{}{}
		}
	}
	if cfg.CacheTTL > 0 {
		s.cache = newSnapshotCache(cfg.CacheTTL)
	}
	return s
}

// Root returns the configured archive root.
func (s *Scanner) Root() string {
	return s.cfg.Root
}

// Scan enumerates the archive and returns the current record list.
func (s *Scanner) Scan() ([]internal.VideoRecord, error) {
	records, _, err := s.ScanWithStats()
	return records, err
}

// ScanWithStats is Scan plus skip accounting.
func (s *Scanner) ScanWithStats() ([]internal.VideoRecord, Stats, error) {
	if s.cache != nil {
		if records, stats, ok := s.cache.get(); ok {
			return records, stats, nil
		}
	}

	start := time.Now()
	var stats Stats

	dirs, err := os.ReadDir(s.cfg.Root)
	if err != nil {
		return nil, stats, fmt.Errorf("%w: cannot read root %s: %v", internal.ErrIndexUnavailable, s.cfg.Root, err)
	}

	var records []internal.VideoRecord
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		m := folderRe.FindStringSubmatch(dir.Name())
		if m == nil {
			s.log.Debug("skipping folder %q: does not match camera convention", dir.Name())
			entriesSkipped.WithLabelValues("folder").Inc()
			stats.Skipped++
			continue
		}
		if s.cameras != nil {
			if _, ok := s.cameras[strings.ToLower(m[1])]; !ok {
				s.log.Debug("skipping folder %q: camera %s not whitelisted", dir.Name(), m[1])
				entriesSkipped.WithLabelValues("camera").Inc()
				stats.Skipped++
				continue
			}
		}

		subdir := filepath.Join(s.cfg.Root, dir.Name())
		entries, err := os.ReadDir(subdir)
		if err != nil {
			// One unreadable camera folder must not fail the scan.
			s.log.Warn("cannot read %s: %v", subdir, err)
			entriesSkipped.WithLabelValues("unreadable_dir").Inc()
			stats.Skipped++
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), strings.ToLower(s.cfg.VideoExt)) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				// Raced with rotation or deletion; skip.
				s.log.Debug("entry vanished mid-scan: %s", entry.Name())
				entriesSkipped.WithLabelValues("vanished").Inc()
				stats.Skipped++
				continue
			}

			record, err := Resolve(s.cfg.Root, filepath.Join(subdir, entry.Name()), info)
			if err != nil {
				switch {
				case errors.Is(err, ErrMalformed):
					s.log.Warn("excluding %s: %v", entry.Name(), err)
					entriesSkipped.WithLabelValues("malformed").Inc()
					stats.Malformed++
				default:
					s.log.Debug("excluding %s: %v", entry.Name(), err)
					entriesSkipped.WithLabelValues("not_applicable").Inc()
					stats.Skipped++
				}
				continue
			}
			records = append(records, *record)
		}
	}

	scansTotal.Inc()
	scanDuration.Observe(time.Since(start).Seconds())
	recordsIndexed.Set(float64(len(records)))
	stats.Indexed = len(records)

	if s.cache != nil {
		s.cache.set(records, stats)
	}
	return records, stats, nil
}

// ResolvePhysicalPath turns a unique id back into an on-disk path, bound to
// this scanner's root.
func (s *Scanner) ResolvePhysicalPath(uniqueID string) (string, error) {
	return ResolvePhysicalPath(s.cfg.Root, uniqueID)
}

// Invalidate drops the cached snapshot, if any. The filesystem watcher calls
// this so cached results never outlive a change on disk by more than the
// notification latency.
func (s *Scanner) Invalidate() {
	if s.cache != nil {
		s.cache.purge()
	}
}
