// Package fingerprint reduces a screen to a stable identity so the
// exploration engine can tell a genuinely new screen from one it has
// already visited, even when volatile regions (clock, counters) differ
// between two observations of the same screen.
package fingerprint

import (
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

const (
	// DefaultThreshold is the Jaccard similarity at or above which two
	// fingerprints identify the same screen.
	DefaultThreshold = 0.8

	// DefaultStatusBarFraction is the height of the top band whose
	// elements (clock, battery, carrier) never reach a fingerprint.
	DefaultStatusBarFraction = 0.06
)

var (
	clockPattern   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	numericPattern = regexp.MustCompile(`^[0-9]+([.,][0-9]+)*%?$`)
)

// Fingerprint is the identity of one screen: the sorted, deduplicated set
// of stable texts plus a hash of that set usable as a graph node key.
type Fingerprint struct {
	Texts []string `json:"texts"`
	Hash  string   `json:"hash"`
}

// Empty reports whether no text survived filtering.
func (f Fingerprint) Empty() bool {
	return len(f.Texts) == 0
}

// Engine holds the comparison tunables. The zero value is not useful;
// construct with NewEngine and override fields before first use.
type Engine struct {
	// Threshold is the most behavior-sensitive constant in the engine:
	// lower values merge distinct screens, higher values re-add screens
	// whose volatile labels changed between observations.
	Threshold float64

	// StatusBarFraction excludes elements with Y below it.
	StatusBarFraction float64

	// CaseFold lowercases texts before comparison.
	CaseFold bool
}

// NewEngine returns an engine with the default tunables.
func NewEngine() *Engine {
	return &Engine{
		Threshold:         DefaultThreshold,
		StatusBarFraction: DefaultStatusBarFraction,
		CaseFold:          true,
	}
}

// Extract builds the fingerprint of a screen from its text elements and,
// optionally, non-text detections. Detection labels let a strategy fold
// icon identity into the fingerprint; pass nil to ignore them.
//
// An element participates only if its trimmed text is non-empty, it sits
// below the status-bar band, and the text is neither a clock reading nor
// bare numeric content. Confidence never affects filtering.
func (e *Engine) Extract(elements []screen.Element, detections []screen.Detection) Fingerprint {
	set := make(map[string]struct{}, len(elements))
	for _, el := range elements {
		if !e.includeElement(el) {
			continue
		}
		set[e.normalize(el.Text)] = struct{}{}
	}
	for _, d := range detections {
		label := e.normalize(d.Label)
		if label == "" {
			continue
		}
		set[label] = struct{}{}
	}

	texts := make([]string, 0, len(set))
	for t := range set {
		texts = append(texts, t)
	}
	sort.Strings(texts)

	return Fingerprint{Texts: texts, Hash: hashTexts(texts)}
}

// Similarity returns the Jaccard index of the two text sets. Two empty
// fingerprints are identical blank screens and score 1.0.
func (e *Engine) Similarity(a, b Fingerprint) float64 {
	if len(a.Texts) == 0 && len(b.Texts) == 0 {
		return 1.0
	}
	if len(a.Texts) == 0 || len(b.Texts) == 0 {
		return 0.0
	}

	// Both sides are sorted, so a single merge pass counts the
	// intersection.
	i, j, inter := 0, 0, 0
	for i < len(a.Texts) && j < len(b.Texts) {
		switch {
		case a.Texts[i] == b.Texts[j]:
			inter++
			i++
			j++
		case a.Texts[i] < b.Texts[j]:
			i++
		default:
			j++
		}
	}

	union := len(a.Texts) + len(b.Texts) - inter
	return float64(inter) / float64(union)
}

// Equal reports whether the two fingerprints identify the same screen.
func (e *Engine) Equal(a, b Fingerprint) bool {
	return e.Similarity(a, b) >= e.Threshold
}

// Landmark picks the text most likely to still be present when a recorded
// path is replayed: the longest fingerprint-eligible text, ties broken
// lexicographically. Returns "" when nothing qualifies.
func (e *Engine) Landmark(elements []screen.Element) string {
	best := ""
	for _, el := range elements {
		if !e.includeElement(el) {
			continue
		}
		text := strings.TrimSpace(el.Text)
		if len(text) > len(best) || (len(text) == len(best) && text < best) {
			best = text
		}
	}
	return best
}

func (e *Engine) includeElement(el screen.Element) bool {
	text := strings.TrimSpace(el.Text)
	if text == "" {
		return false
	}
	if el.Y < e.StatusBarFraction {
		return false
	}
	if clockPattern.MatchString(text) {
		return false
	}
	if numericPattern.MatchString(text) {
		return false
	}
	return true
}

func (e *Engine) normalize(s string) string {
	s = strings.TrimSpace(s)
	if e.CaseFold {
		s = strings.ToLower(s)
	}
	return s
}

// NormalizeText is the normalization shared by everything that keys on
// element text (tried-sets, skip matching): trim then casefold.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func hashTexts(texts []string) string {
	// 0x1f keeps adjacent texts from running together under the hash.
	sum := blake2b.Sum256([]byte(strings.Join(texts, "\x1f")))
	return hex.EncodeToString(sum[:16])
}
