// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vidbridge/vidbridge/internal/log"
)

// handleCatalog is a stateless passthrough to a configured third-party
// catalog API. The core pipeline never depends on it; it exists so clients
// can browse upstream metadata through the same origin and API key.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "catalog")

	if s.cfg.UpstreamAPIURL == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "catalog upstream not configured",
		})
		return
	}

	target := s.cfg.UpstreamAPIURL + "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid catalog path",
		})
		return
	}
	// The upstream rejects requests without a browser-ish identity and a
	// per-request signature header.
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("X-Signature-Version", "web2")
	req.Header.Set("X-Signature", randomHex(16))

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("target", target).Msg("catalog upstream request failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "upstream unavailable",
		})
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if ctype := resp.Header.Get("Content-Type"); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// searchRequest is the body shape the search upstream expects. The filter
// lists are always present, empty unless the client narrows the search.
type searchRequest struct {
	SearchText string   `json:"search_text"`
	Tags       []string `json:"tags"`
	Brands     []string `json:"brands"`
	Blacklist  []string `json:"blacklist"`
	OrderBy    []string `json:"order_by"`
	Ordering   []string `json:"ordering"`
	Page       int      `json:"page"`
}

// handleSearch forwards a query to the separate search upstream, which
// speaks POST-with-JSON-body rather than the catalog API's GET surface.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "search")

	if s.cfg.SearchUpstreamURL == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "search upstream not configured",
		})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	body := searchRequest{
		SearchText: r.URL.Query().Get("query"),
		Tags:       []string{},
		Brands:     []string{},
		Blacklist:  []string{},
		OrderBy:    []string{},
		Ordering:   []string{},
		Page:       page,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "cannot encode search request",
		})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.SearchUpstreamURL, bytes.NewReader(payload))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "invalid search upstream",
		})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("search upstream request failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "upstream unavailable",
		})
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if ctype := resp.Header.Get("Content-Type"); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
