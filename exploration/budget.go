package exploration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
)

// ErrInvalidBudget marks budget validation failures.
var ErrInvalidBudget = errors.New("invalid exploration budget")

// Budget bounds a single exploration run. Exhausting any limit ends the
// run as a normal, successful completion.
type Budget struct {
	// MaxDepth is the deepest node the strategy will expand.
	MaxDepth int

	// MaxScreens caps distinct screens discovered in one run.
	MaxScreens int

	// MaxActionsPerScreen caps attempted candidates per node before the
	// explorer backtracks.
	MaxActionsPerScreen int

	// ScrollLimit caps scroll attempts per node when a screen runs out
	// of untried candidates.
	ScrollLimit int

	// MaxDuration is the wall-clock ceiling for the run.
	MaxDuration time.Duration

	// SkipPatterns lists texts whose elements exploration should avoid
	// (destructive or exiting actions: "sign out", "delete", ...).
	// Matching is case-insensitive on normalized text.
	SkipPatterns []string
}

// DefaultBudget returns limits suited to a short unattended run.
func DefaultBudget() Budget {
	return Budget{
		MaxDepth:            5,
		MaxScreens:          25,
		MaxActionsPerScreen: 8,
		ScrollLimit:         3,
		MaxDuration:         10 * time.Minute,
	}
}

// Validate rejects budgets that could never make progress.
func (b Budget) Validate() error {
	if b.MaxDepth <= 0 {
		return fmt.Errorf("%w: max depth must be positive", ErrInvalidBudget)
	}
	if b.MaxScreens <= 0 {
		return fmt.Errorf("%w: max screens must be positive", ErrInvalidBudget)
	}
	if b.MaxActionsPerScreen <= 0 {
		return fmt.Errorf("%w: max actions per screen must be positive", ErrInvalidBudget)
	}
	if b.ScrollLimit < 0 {
		return fmt.Errorf("%w: scroll limit must not be negative", ErrInvalidBudget)
	}
	if b.MaxDuration <= 0 {
		return fmt.Errorf("%w: max duration must be positive", ErrInvalidBudget)
	}
	return nil
}

// MatchesSkip reports whether the text matches any skip pattern.
func (b Budget) MatchesSkip(text string) bool {
	norm := fingerprint.NormalizeText(text)
	if norm == "" {
		return false
	}
	for _, p := range b.SkipPatterns {
		pattern := fingerprint.NormalizeText(p)
		if pattern == "" {
			continue
		}
		if strings.Contains(norm, pattern) {
			return true
		}
	}
	return false
}
