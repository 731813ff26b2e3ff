package query

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sgonzalezm/cam-stream/api/internal"
	"github.com/sgonzalezm/cam-stream/api/internal/indexer"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.ERROR, "", io.Discard)
}

func writeClip(t *testing.T, root, folder, name string, mtime time.Time) {
	t.Helper()
	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

// newTestEngine builds an engine over a fixture archive with a pinned clock
// of 2025-12-08 18:00 local.
func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	scanner := indexer.New(indexer.Config{Root: root, VideoExt: ".mp4"}, testLogger())
	e := New(scanner, 2)
	e.now = func() time.Time {
		return time.Date(2025, 12, 8, 18, 0, 0, 0, time.Local)
	}
	return e
}

func fixtureArchive(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	// Cam1: two clips with embedded timestamps on 2025-12-08, one old clip
	// from the day before.
	writeClip(t, root, "Cam1_2025-12-08", "2025-12-08_17-46-33.mp4", time.Time{})
	writeClip(t, root, "Cam1_2025-12-08", "2025-12-08_16-30-00.mp4", time.Time{})
	writeClip(t, root, "Cam1_2025-12-07", "2025-12-07_23-59-59.mp4", time.Time{})
	// Cam2: no embedded stamp, mtime 09:00 that day.
	writeClip(t, root, "Cam2_2025-12-08", "clip.mp4",
		time.Date(2025, 12, 8, 9, 0, 0, 0, time.Local))
	return root
}

func TestRecentFiltersAndSortsDescending(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	// 18:00 minus 2h: only the 17:46 and 16:30 clips qualify.
	videos, err := e.Recent(2, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	if videos[0].Timestamp != "2025-12-08T17:46:33" || videos[1].Timestamp != "2025-12-08T16:30:00" {
		t.Errorf("order = [%s, %s], want newest first", videos[0].Timestamp, videos[1].Timestamp)
	}

	// A huge window picks up everything, still newest first.
	videos, err = e.Recent(999999, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 4 {
		t.Fatalf("got %d videos, want 4", len(videos))
	}
	for i := 1; i < len(videos); i++ {
		if videos[i].Timestamp > videos[i-1].Timestamp {
			t.Errorf("timestamps not non-increasing at %d: %s > %s", i, videos[i].Timestamp, videos[i-1].Timestamp)
		}
	}
	if videos[0].CameraID != "Cam1" {
		t.Errorf("first video camera = %s, want Cam1 (latest timestamp)", videos[0].CameraID)
	}
}

func TestRecentCameraFilterIsCaseInsensitive(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	videos, err := e.Recent(999999, "cam2")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 || videos[0].CameraID != "Cam2" {
		t.Fatalf("videos = %+v, want the single Cam2 clip", videos)
	}
}

func TestRecentNonPositiveHoursUsesDefault(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	// Default is 2 hours, same as the explicit call.
	explicit, err := e.Recent(2, "")
	if err != nil {
		t.Fatal(err)
	}
	defaulted, err := e.Recent(0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(defaulted) != len(explicit) {
		t.Errorf("default window returned %d videos, explicit 2h returned %d", len(defaulted), len(explicit))
	}
}

// A window big enough to overflow the duration math must behave like
// "everything", not like an empty future cutoff.
func TestRecentHugeWindowDoesNotOverflow(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	videos, err := e.Recent(10_000_000, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 4 {
		t.Errorf("got %d videos, want all 4", len(videos))
	}
}

func TestByDateSortsAscending(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	videos, err := e.ByDate("2025-12-08", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 3 {
		t.Fatalf("got %d videos, want 3", len(videos))
	}
	for i := 1; i < len(videos); i++ {
		if videos[i].Timestamp < videos[i-1].Timestamp {
			t.Errorf("timestamps not non-decreasing at %d", i)
		}
	}
	for _, v := range videos {
		if v.Date != "2025-12-08" {
			t.Errorf("video date = %s, want 2025-12-08", v.Date)
		}
	}
}

// Grouping is by folder date even when the mtime fallback drifted to the
// next day. The timestamp shows the drift; the date does not.
func TestByDateGroupsByFolderDateDespiteDrift(t *testing.T) {
	root := t.TempDir()
	writeClip(t, root, "Cam1_2025-12-08", "late.mp4",
		time.Date(2025, 12, 9, 0, 15, 0, 0, time.Local))
	e := newTestEngine(t, root)

	videos, err := e.ByDate("2025-12-08", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(videos))
	}
	if videos[0].Timestamp != "2025-12-09T00:15:00" {
		t.Errorf("timestamp = %s, want the drifted mtime", videos[0].Timestamp)
	}

	if videos, _ := e.ByDate("2025-12-09", ""); len(videos) != 0 {
		t.Errorf("clip leaked into 2025-12-09: %+v", videos)
	}
}

func TestByDateRejectsBadDate(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	for _, date := range []string{"08-12-2025", "2025-13-01", "yesterday", ""} {
		if _, err := e.ByDate(date, ""); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ByDate(%q): err = %v, want ErrInvalidDate", date, err)
		}
	}
}

func TestDatesByCamera(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))
	// Duplicate date for Cam1 to prove deduplication.
	writeClip(t, e.scanner.Root(), "Cam1_2025-12-08", "extra.mp4",
		time.Date(2025, 12, 8, 12, 0, 0, 0, time.Local))

	dates, err := e.DatesByCamera("")
	if err != nil {
		t.Fatal(err)
	}

	cam1 := dates["Cam1"]
	if len(cam1) != 2 || cam1[0] != "2025-12-08" || cam1[1] != "2025-12-07" {
		t.Errorf("Cam1 dates = %v, want [2025-12-08 2025-12-07]", cam1)
	}
	cam2 := dates["Cam2"]
	if len(cam2) != 1 || cam2[0] != "2025-12-08" {
		t.Errorf("Cam2 dates = %v, want [2025-12-08]", cam2)
	}

	filtered, err := e.DatesByCamera("CAM1")
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 {
		t.Errorf("filtered dates = %v, want Cam1 only", filtered)
	}
}

func TestCamerasSortedByCount(t *testing.T) {
	e := newTestEngine(t, fixtureArchive(t))

	cameras, err := e.Cameras()
	if err != nil {
		t.Fatal(err)
	}
	if len(cameras) != 2 {
		t.Fatalf("got %d cameras, want 2", len(cameras))
	}
	if cameras[0].Camera != "Cam1" || cameras[0].Count != 3 {
		t.Errorf("cameras[0] = %+v, want Cam1 with 3", cameras[0])
	}
}

func TestQueriesSurfaceScanFailure(t *testing.T) {
	scanner := indexer.New(indexer.Config{Root: "/nonexistent/cameras", VideoExt: ".mp4"}, testLogger())
	e := New(scanner, 2)

	if _, err := e.Recent(2, ""); !errors.Is(err, internal.ErrIndexUnavailable) {
		t.Errorf("Recent: err = %v, want ErrIndexUnavailable", err)
	}
	if _, err := e.DatesByCamera(""); !errors.Is(err, internal.ErrIndexUnavailable) {
		t.Errorf("DatesByCamera: err = %v, want ErrIndexUnavailable", err)
	}
	if _, err := e.ByDate("2025-12-08", ""); !errors.Is(err, internal.ErrIndexUnavailable) {
		t.Errorf("ByDate: err = %v, want ErrIndexUnavailable", err)
	}
}

func TestMalformedClipExcludedFromEveryQuery(t *testing.T) {
	root := fixtureArchive(t)
	writeClip(t, root, "Cam1_2025-12-08", "2025-13-40_25-61-00.mp4", time.Time{})
	e := newTestEngine(t, root)

	videos, err := e.Recent(999999, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 4 {
		t.Errorf("Recent: %d videos, want 4 (malformed excluded)", len(videos))
	}
	byDate, err := e.ByDate("2025-12-08", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(byDate) != 3 {
		t.Errorf("ByDate: %d videos, want 3", len(byDate))
	}
}

// Projections never expose the physical path; the round trip to a path only
// works through the reverse lookup.
func TestResolvePhysicalPathRoundTrip(t *testing.T) {
	root := fixtureArchive(t)
	e := newTestEngine(t, root)

	videos, err := e.Recent(999999, "cam2")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(videos))
	}

	path, err := e.ResolvePhysicalPath(videos[0].UniqueID)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "Cam2_2025-12-08", "clip.mp4")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}
