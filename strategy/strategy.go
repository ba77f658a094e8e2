// Package strategy holds the per-app-category exploration policies. The
// search loop in the explorer stays generic; everything genre-specific
// (what a screen is, which elements are worth trying, when to stop, how
// to get back) goes through the Strategy interface.
package strategy

import (
	"errors"
	"fmt"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

// ErrUnknownCategory is returned by New for an unrecognized category.
var ErrUnknownCategory = errors.New("unknown strategy category")

// ScreenType is a strategy's coarse classification of a screen.
type ScreenType string

const (
	ScreenList    ScreenType = "list"
	ScreenDetail  ScreenType = "detail"
	ScreenModal   ScreenType = "modal"
	ScreenTabHome ScreenType = "tab_home"
	ScreenFeed    ScreenType = "feed"
	ScreenUnknown ScreenType = "unknown"
)

// BacktrackAction is how a strategy wants to leave the current screen.
type BacktrackAction string

const (
	// BacktrackBack takes a single step back.
	BacktrackBack BacktrackAction = "back"
	// BacktrackHome returns all the way to the start screen.
	BacktrackHome BacktrackAction = "home"
	// BacktrackNone means there is nowhere to go back to.
	BacktrackNone BacktrackAction = "none"
)

// Strategy is the capability set an app-category policy provides.
// Implementations are stateless beyond their construction inputs and
// safe to share across concurrent runs.
type Strategy interface {
	// ClassifyScreen judges what kind of screen the elements and
	// classifier hints describe. Pure, no side effects.
	ClassifyScreen(elements []screen.Element, hints []string) ScreenType

	// RankElements orders candidates most-likely-to-reveal-new-state
	// first. Already-tried and skip-matching elements are deprioritized,
	// not removed; ties keep the original top-to-bottom element order.
	// The tried set is keyed by normalized element text.
	RankElements(elements []screen.Element, icons []screen.Detection, tried map[string]bool, depth int, st ScreenType) []screen.Element

	// ShouldSkip is a quick exclusion test usable before attempting an
	// action on an element with this text.
	ShouldSkip(text string) bool

	// IsTerminal reports whether the screen should not be expanded
	// further. Specializations evaluate the base condition first and OR
	// in their own.
	IsTerminal(elements []screen.Element, depth int, st ScreenType) bool

	// BacktrackMethod picks how to leave the current screen, from the
	// available hints and the current depth.
	BacktrackMethod(hints []string, depth int) BacktrackAction

	// ExtractFingerprint returns the identity hash of a screen. May
	// fold non-text detections into the identity.
	ExtractFingerprint(elements []screen.Element, icons []screen.Detection) string
}

// Category selects a strategy implementation.
type Category string

const (
	CategoryGeneric    Category = "generic"
	CategorySocialFeed Category = "social_feed"
)

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryGeneric, CategorySocialFeed:
		return true
	}
	return false
}

// New creates the strategy for an app category.
func New(category Category, engine *fingerprint.Engine, budget exploration.Budget) (Strategy, error) {
	switch category {
	case CategoryGeneric:
		return NewGeneric(engine, budget), nil
	case CategorySocialFeed:
		return NewSocialFeed(engine, budget), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}
