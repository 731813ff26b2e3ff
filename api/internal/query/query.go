package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sgonzalezm/cam-stream/api/internal"
	"github.com/sgonzalezm/cam-stream/api/internal/indexer"
)

// ErrInvalidDate flags a by-date query whose date is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// maxRecentHours caps the recent window. Anything larger overflows the
// duration math; a century covers every recording that can exist.
const maxRecentHours = 100 * 365 * 24

// CameraCount is the per-camera tally for the camera listing endpoint.
type CameraCount struct {
	Camera string `json:"camera"`
	Count  int    `json:"count"`
}

// Engine answers the three query shapes over a fresh scan. It holds no
// record state of its own; every query fetches the scanner's current view.
type Engine struct {
	scanner            *indexer.Scanner
	defaultRecentHours int
	now                func() time.Time
}

func New(scanner *indexer.Scanner, defaultRecentHours int) *Engine {
	return &Engine{
		scanner:            scanner,
		defaultRecentHours: defaultRecentHours,
		now:                time.Now,
	}
}

// Recent returns videos whose resolved timestamp falls within the last
// `hours` hours, newest first. hours <= 0 falls back to the configured
// default. camera filters case-insensitively when non-empty.
func (e *Engine) Recent(hours int, camera string) ([]internal.VideoSummary, error) {
	if hours <= 0 {
		hours = e.defaultRecentHours
	}
	if hours > maxRecentHours {
		hours = maxRecentHours
	}
	records, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	cutoff := e.now().Add(-time.Duration(hours) * time.Hour)
	matched := make([]internal.VideoRecord, 0, len(records))
	for _, r := range records {
		if r.ResolvedAt.Before(cutoff) {
			continue
		}
		if !cameraMatches(r.CameraID, camera) {
			continue
		}
		matched = append(matched, r)
	}

	// Newest first.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ResolvedAt.After(matched[j].ResolvedAt)
	})
	return project(matched), nil
}

// DatesByCamera returns, per camera, the distinct folder dates that have at
// least one recording, newest date first.
func (e *Engine) DatesByCamera(camera string) (map[string][]string, error) {
	records, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]map[string]struct{})
	for _, r := range records {
		if !cameraMatches(r.CameraID, camera) {
			continue
		}
		if seen[r.CameraID] == nil {
			seen[r.CameraID] = make(map[string]struct{})
		}
		seen[r.CameraID][r.FolderDate] = struct{}{}
	}

	result := make(map[string][]string, len(seen))
	for cam, dates := range seen {
		list := make([]string, 0, len(dates))
		for d := range dates {
			list = append(list, d)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(list)))
		result[cam] = list
	}
	return result, nil
}

// ByDate returns the videos whose folder date equals date, in chronological
// order so a day can be replayed as a timeline. The opposite sort direction
// from Recent is intentional.
func (e *Engine) ByDate(date, camera string) ([]internal.VideoSummary, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	records, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	matched := make([]internal.VideoRecord, 0, len(records))
	for _, r := range records {
		if r.FolderDate != date {
			continue
		}
		if !cameraMatches(r.CameraID, camera) {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ResolvedAt.Before(matched[j].ResolvedAt)
	})
	return project(matched), nil
}

// Cameras lists the cameras present in the index with their recording counts,
// busiest first.
func (e *Engine) Cameras() ([]CameraCount, error) {
	records, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.CameraID]++
	}
	out := make([]CameraCount, 0, len(counts))
	for cam, n := range counts {
		out = append(out, CameraCount{Camera: cam, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Camera < out[j].Camera
	})
	return out, nil
}

// ResolvePhysicalPath maps a unique id back to a file for streaming or
// download. The only way a physical path leaves the query layer.
func (e *Engine) ResolvePhysicalPath(uniqueID string) (string, error) {
	return e.scanner.ResolvePhysicalPath(uniqueID)
}

func cameraMatches(cameraID, filter string) bool {
	return filter == "" || strings.EqualFold(cameraID, filter)
}

func project(records []internal.VideoRecord) []internal.VideoSummary {
	out := make([]internal.VideoSummary, 0, len(records))
	for i := range records {
		out = append(out, records[i].Summary())
	}
	return out
}
