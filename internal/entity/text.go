package entity

import (
	"regexp"
	"strings"
)

// CAD text carries inline formatting codes (MTEXT): \P paragraph breaks,
// {...} property groups where the payload follows the last semicolon, and
// \f...; style runs. CleanText strips these down to the human-readable text.
var (
	groupRe  = regexp.MustCompile(`\{([^}]*)\}`)
	codeRe   = regexp.MustCompile(`\\[A-Za-z][^;{}\\]*;`)
	escRe    = regexp.MustCompile(`\\[A-Za-z]+`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// CleanText removes CAD formatting codes and collapses whitespace.
func CleanText(t string) string {
	if t == "" {
		return ""
	}

	t = strings.ReplaceAll(t, `\P`, " ")

	// {...} groups keep only the payload after the last semicolon.
	t = groupRe.ReplaceAllStringFunc(t, func(m string) string {
		inner := m[1 : len(m)-1]
		parts := strings.Split(inner, ";")
		for i := len(parts) - 1; i >= 0; i-- {
			if p := strings.TrimSpace(parts[i]); p != "" {
				return p
			}
		}
		return ""
	})

	t = codeRe.ReplaceAllString(t, "")
	t = escRe.ReplaceAllString(t, "")
	t = spacesRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
