package skill

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameLength     = 120
	maxTargetLength   = 200
	maxLandmarkLength = 200
)

var multiSpace = regexp.MustCompile(`\s+`)

// SanitizeName cleans a script or bundle name: control characters out,
// whitespace collapsed, length capped.
func SanitizeName(name string) string {
	return sanitizeLine(name, maxNameLength)
}

// SanitizeTarget cleans an action target before it is embedded in a
// rendered script or a prompt.
func SanitizeTarget(target string) string {
	return sanitizeLine(target, maxTargetLength)
}

// SanitizeLandmark cleans a landmark text. Landmarks come straight from
// OCR output, which occasionally carries stray control characters.
func SanitizeLandmark(landmark string) string {
	return sanitizeLine(landmark, maxLandmarkLength)
}

func sanitizeLine(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		// Whitespace control characters (tabs, newlines) become word
		// separators; everything else non-printable is dropped.
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := multiSpace.ReplaceAllString(b.String(), " ")
	out = strings.TrimSpace(out)
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
