// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vidbridge/vidbridge/internal/fsutil"
	"github.com/vidbridge/vidbridge/internal/jobkey"
	"github.com/vidbridge/vidbridge/internal/log"
	"github.com/vidbridge/vidbridge/internal/metrics"
)

// handleStreamFile serves manifest and segment files from a job's output
// directory. Resolution is strictly confined to the streams root: traversal
// attempts, symlink escapes and unknown jobs all collapse into 404 so the
// handler leaks nothing about the disk layout.
func (s *Server) handleStreamFile(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "fileserver")

	jobID := chi.URLParam(r, "jobID")
	rest := chi.URLParam(r, "*")

	if !jobkey.Valid(jobID) {
		metrics.IncFileRequestDenied("bad_job_id")
		http.NotFound(w, r)
		return
	}
	if rest == "" || strings.HasSuffix(rest, "/") {
		metrics.IncFileRequestDenied("directory_listing")
		http.NotFound(w, r)
		return
	}

	full, err := fsutil.ConfineRelPath(s.cfg.StreamsDir(), filepath.Join(jobID, rest))
	if err != nil {
		logger.Warn().
			Str(log.FieldPath, r.URL.Path).
			Err(err).
			Msg("stream file request denied")
		metrics.IncFileRequestDenied("path_escape")
		http.NotFound(w, r)
		return
	}
	if err := fsutil.IsRegularFile(full); err != nil {
		metrics.IncFileRequestDenied("not_found")
		http.NotFound(w, r)
		return
	}

	if ctype := contentTypeFor(full); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	http.ServeFile(w, r, full)
}

// contentTypeFor resolves the media MIME type by file extension. Unknown
// extensions are passed through for the file server's own detection.
func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		return ""
	}
}
