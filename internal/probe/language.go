package probe

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DisplayName resolves an ISO language code to a human-readable name for the
// player's audio menu. Codes that cannot be resolved fall back to an
// index-derived name so every rendition stays selectable.
func DisplayName(code string, ordinal int) string {
	fallback := fmt.Sprintf("Audio %d", ordinal)

	code = strings.TrimSpace(code)
	if code == "" || code == "und" {
		return fallback
	}

	tag, err := language.Parse(code)
	if err != nil {
		return fallback
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return fallback
}
