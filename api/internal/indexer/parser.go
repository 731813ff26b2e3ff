package indexer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sgonzalezm/cam-stream/api/internal"
)

// Folder convention: Cam<digits>_<YYYY-MM-DD>, e.g. Cam1_2025-12-08.
var folderRe = regexp.MustCompile(`^(Cam\d+)_(\d{4}-\d{2}-\d{2})$`)

// Embedded filename timestamp: YYYY-MM-DD_HH-MM-SS anywhere in the base name.
// The hyphens in the time part are positional separators, not literal times.
var stampRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})_(\d{2}-\d{2}-\d{2})`)

// Resolver outcomes that are not records. Both mean "skip this entry and keep
// scanning"; they differ only in what gets logged.
var (
	// ErrNotApplicable: the entry does not belong to the archive convention.
	ErrNotApplicable = errors.New("not an archive recording")
	// ErrMalformed: the entry looked like a recording but its embedded
	// timestamp fails calendar validation.
	ErrMalformed = errors.New("malformed recording timestamp")
)

// Resolve extracts a VideoRecord from a candidate path under root. info must
// be the candidate's FileInfo; the caller already holds it from the directory
// walk, so Resolve never stats.
func Resolve(root, candidate string, info fs.FileInfo) (*internal.VideoRecord, error) {
	rel, err := filepath.Rel(root, candidate)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%w: %s outside root", ErrNotApplicable, candidate)
	}

	folderName := rel
	if i := strings.IndexRune(rel, filepath.Separator); i >= 0 {
		folderName = rel[:i]
	}

	m := folderRe.FindStringSubmatch(folderName)
	if m == nil {
		return nil, fmt.Errorf("%w: folder %q does not match convention", ErrNotApplicable, folderName)
	}
	cameraID := m[1]
	folderDate := m[2]
	if _, err := time.Parse("2006-01-02", folderDate); err != nil {
		return nil, fmt.Errorf("%w: folder %q has invalid date", ErrNotApplicable, folderName)
	}

	filename := filepath.Base(candidate)
	resolvedAt, err := resolveTimestamp(filename, info)
	if err != nil {
		return nil, err
	}

	return &internal.VideoRecord{
		CameraID:     cameraID,
		FolderDate:   folderDate,
		ResolvedAt:   resolvedAt,
		Filename:     filename,
		UniqueID:     EncodeID(folderName, filename),
		PhysicalPath: candidate,
		SizeBytes:    info.Size(),
	}, nil
}

// resolveTimestamp prefers the timestamp embedded in the filename; without
// one it falls back to the raw mtime. The fallback is deliberately NOT
// combined with the folder date, so a file touched after recording can carry
// a timestamp whose date differs from FolderDate.
func resolveTimestamp(filename string, info fs.FileInfo) (time.Time, error) {
	m := stampRe.FindStringSubmatch(filename)
	if m == nil {
		return info.ModTime(), nil
	}
	// 17-46-33 -> 17:46:33
	timePart := strings.ReplaceAll(m[2], "-", ":")
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", m[1]+" "+timePart, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q in %q: %v", ErrMalformed, m[0], filename, err)
	}
	return ts, nil
}

// EncodeID builds the opaque handle for a recording. base64url over
// folder + "/" + filename: a path separator can never occur inside either
// segment, so the join is reversible without escaping.
func EncodeID(folderName, filename string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(folderName + "/" + filename))
}

// DecodeID reverses EncodeID, refusing anything that could not have been
// produced by a scan.
func DecodeID(uniqueID string) (folderName, filename string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(uniqueID)
	if err != nil {
		return "", "", fmt.Errorf("%w: bad encoding", internal.ErrNotFound)
	}
	folderName, filename, ok := strings.Cut(string(raw), "/")
	if !ok || folderName == "" || filename == "" {
		return "", "", fmt.Errorf("%w: bad id shape", internal.ErrNotFound)
	}
	// Reject traversal and nested paths. The folder must still look like a
	// camera folder; the filename must be a bare name.
	if !folderRe.MatchString(folderName) {
		return "", "", fmt.Errorf("%w: folder segment rejected", internal.ErrNotFound)
	}
	if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", "", fmt.Errorf("%w: file segment rejected", internal.ErrNotFound)
	}
	return folderName, filename, nil
}

// ResolvePhysicalPath is the inverse of the unique-id encoding: it turns a
// handle back into an absolute path, verifying the result is an existing
// regular file inside root.
func ResolvePhysicalPath(root, uniqueID string) (string, error) {
	folderName, filename, err := DecodeID(uniqueID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(root, folderName, filename)

	// Belt and braces: the decoded segments are already validated, but the
	// joined path must still sit under root.
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: escapes root", internal.ErrNotFound)
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", internal.ErrNotFound, filepath.Join(folderName, filename))
	}
	return path, nil
}
