package boundary

import (
	"regexp"
	"strings"
)

// Explicit sensitivity markers attach a declared tier to a field. Two spellings
// are recognized, covering annotation and comment syntax across all supported
// languages:
//
//	@sensitive(restricted)     @Sensitive("restricted")     #[Sensitive('restricted')]
//	// sensitive: restricted   # sensitive: restricted
var (
	markerCallRe    = regexp.MustCompile(`@\[?[Ss]ensitive\s*\(\s*['"]?(\w+)['"]?\s*\)`)
	markerCommentRe = regexp.MustCompile(`(?:^|[^\w@])[Ss]ensitive\s*:\s*(\w+)`)
)

// MarkerTier scans one source line for an explicit sensitivity marker and
// returns the declared tier together with the matched marker text
func MarkerTier(line string) (Tier, string, bool) {
	if m := markerCallRe.FindStringSubmatch(line); m != nil {
		if tier, err := ParseTier(m[1]); err == nil {
			return tier, m[0], true
		}
	}
	if m := markerCommentRe.FindStringSubmatch(line); m != nil {
		if tier, err := ParseTier(m[1]); err == nil {
			return tier, m[0], true
		}
	}
	return "", "", false
}

// markedTier resolves the declared tier for a field on line i. The field's
// own line is checked first, then preceding comment and annotation lines up
// to a small window, so a marker above a decorator still attaches.
func markedTier(lines []string, i int) (Tier, string, bool) {
	if tier, marker, ok := MarkerTier(lines[i]); ok {
		return tier, marker, ok
	}
	for j := i - 1; j >= 0 && i-j <= 4; j-- {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			break
		}
		if tier, marker, ok := MarkerTier(trimmed); ok {
			return tier, marker, ok
		}
		if !attachedLine(trimmed) {
			break
		}
	}
	return "", "", false
}

// attachedLine reports whether a line belongs to the declaration below it:
// comments, decorators, annotations and attribute lists
func attachedLine(trimmed string) bool {
	switch {
	case strings.HasPrefix(trimmed, "@"),
		strings.HasPrefix(trimmed, "#"),
		strings.HasPrefix(trimmed, "//"),
		strings.HasPrefix(trimmed, "/*"),
		strings.HasPrefix(trimmed, "*"),
		strings.HasPrefix(trimmed, "["):
		return true
	}
	return false
}
