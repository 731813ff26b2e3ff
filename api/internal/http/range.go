package httpx

import (
	"net/http"
	"os"
)

// ServeFileRange serves a file honoring Range requests so browser players
// can seek. http.ServeContent does the byte-range negotiation; the file's
// mtime doubles as the modtime for conditional requests.
func ServeFileRange(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, path, info.ModTime(), f)
}
