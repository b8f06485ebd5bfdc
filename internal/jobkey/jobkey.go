// SPDX-License-Identifier: MIT

// Package jobkey derives stable content-addressed identifiers for transcode
// jobs from source URLs. Keys are cache identifiers, not security tokens.
package jobkey

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidInput is returned for empty or malformed source URLs.
var ErrInvalidInput = errors.New("invalid source URL")

// Normalize returns the canonical form of a source URL used for hashing.
// Only surrounding whitespace is stripped; redirects are not resolved, so two
// URLs that alias the same content hash to distinct keys.
func Normalize(raw string) string {
	return strings.TrimSpace(raw)
}

// Compute derives the job key for the given source URL. The digest is stable
// across process restarts so cached output survives a restart.
func Compute(raw string) (string, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidInput, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidInput)
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}

// Valid reports whether s looks like a key produced by Compute. Used to
// reject bogus job identifiers in request paths before touching the disk.
func Valid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
