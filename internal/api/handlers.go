// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/vidbridge/vidbridge/internal/jobkey"
	"github.com/vidbridge/vidbridge/internal/log"
	"github.com/vidbridge/vidbridge/internal/probe"
	"github.com/vidbridge/vidbridge/internal/transcode"
)

const maxConvertBody = 1 << 20

type convertRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "convert")

	var req convertRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxConvertBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "missing 'url' field",
		})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "missing 'url' field",
		})
		return
	}

	key, err := jobkey.Compute(req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "invalid 'url' value",
		})
		return
	}

	// The creation gate applies to new jobs only; hitting cached content is
	// never throttled.
	if s.registry.Get(key) == nil {
		if retryAfter, ok := s.gate.Check(); !ok {
			secs := int(math.Ceil(retryAfter.Seconds()))
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":               "rate_limited",
				"retry_after_seconds": secs,
			})
			return
		}
	}

	job, created := s.orch.Submit(key, jobkey.Normalize(req.URL))
	if created {
		logger.Info().
			Str(log.FieldJobKey, key).
			Str(log.FieldSourceURL, req.URL).
			Msg("new transcode job created")
	}

	result := s.poller.AwaitReady(r.Context(), job, s.cfg.ReadyTimeout)
	link := s.hlsLink(key)

	switch result {
	case transcode.WaitReady:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "success",
			"hls_link": link,
		})

	case transcode.WaitFailed:
		// Full diagnostics stay server-side; the caller gets a sanitized
		// message only.
		logger.Error().
			Str(log.FieldJobKey, key).
			Str("diagnostic", job.Diagnostic()).
			Msg("job failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": sanitizedFailure(job),
		})

	case transcode.WaitTimedOut:
		if s.cfg.ReadyOptimistic {
			// Eventual-consistency contract: the link may momentarily 404
			// while segments are still being written.
			writeJSON(w, http.StatusOK, map[string]any{
				"status":   "success",
				"hls_link": link,
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": "stream not ready in time",
		})
	}
}

func (s *Server) hlsLink(key string) string {
	path := "/static/streams/" + key + "/" + transcode.MasterPlaylist
	if s.cfg.PublicURL == "" {
		return path
	}
	return s.cfg.PublicURL + path
}

// sanitizedFailure maps internal failure detail to a caller-safe message.
// Raw subprocess output is never exposed.
func sanitizedFailure(job *transcode.Job) string {
	if strings.HasPrefix(job.Diagnostic(), probe.ErrProbe.Error()) {
		return "source inspection failed"
	}
	return "transcoding failed"
}
