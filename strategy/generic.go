package strategy

import (
	"sort"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

// Role weights for ranking. Navigation dominates because it is the role
// most likely to reveal a new screen.
const (
	scoreNavigation  = 100
	scoreStateChange = 60
	scoreUnknown     = 40
	scoreInfo        = 10
	scoreDecoration  = 0

	// Penalties push candidates to the back without removing them, so
	// a screen made entirely of tried or skippable elements still
	// produces a deterministic order.
	penaltyTried = 1000
	penaltySkip  = 500
)

// listScreenMinItems is how many navigation elements make a screen read
// as a list rather than a detail page.
const listScreenMinItems = 4

// Generic is the default exploration policy: role-driven ranking,
// content-based classification, terminal at the depth budget, single
// step back unless hints say the screen is detached from the app.
type Generic struct {
	engine *fingerprint.Engine
	budget exploration.Budget
}

// NewGeneric creates the default strategy.
func NewGeneric(engine *fingerprint.Engine, budget exploration.Budget) *Generic {
	if engine == nil {
		engine = fingerprint.NewEngine()
	}
	return &Generic{engine: engine, budget: budget}
}

// ClassifyScreen judges the screen from classifier hints first, then
// from its element mix.
func (g *Generic) ClassifyScreen(elements []screen.Element, hints []string) ScreenType {
	if screen.HasHint(hints, "modal") || screen.HasHint(hints, "dialog") {
		return ScreenModal
	}
	if screen.HasHint(hints, "tab") {
		return ScreenTabHome
	}

	nav := 0
	info := 0
	for _, el := range elements {
		switch el.Role {
		case screen.RoleNavigation:
			nav++
		case screen.RoleInfo:
			info++
		}
	}
	if nav >= listScreenMinItems {
		return ScreenList
	}
	if len(elements) > 0 && info > nav {
		return ScreenDetail
	}
	return ScreenUnknown
}

// RankElements scores every element and sorts descending. sort.SliceStable
// keeps the original top-to-bottom, left-to-right order on ties, so the
// same snapshot always ranks the same way.
func (g *Generic) RankElements(elements []screen.Element, icons []screen.Detection, tried map[string]bool, depth int, st ScreenType) []screen.Element {
	ranked := make([]screen.Element, len(elements))
	copy(ranked, elements)

	score := func(el screen.Element) int {
		s := 0
		switch el.Role {
		case screen.RoleNavigation:
			s = scoreNavigation
		case screen.RoleStateChange:
			s = scoreStateChange
		case screen.RoleUnknown:
			s = scoreUnknown
		case screen.RoleInfo:
			s = scoreInfo
		case screen.RoleDecoration:
			s = scoreDecoration
		}
		if tried[fingerprint.NormalizeText(el.Text)] {
			s -= penaltyTried
		}
		if g.ShouldSkip(el.Text) {
			s -= penaltySkip
		}
		return s
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	return ranked
}

// ShouldSkip matches against the budget's skip patterns.
func (g *Generic) ShouldSkip(text string) bool {
	return g.budget.MatchesSkip(text)
}

// IsTerminal stops expansion at the depth budget or on an empty screen.
func (g *Generic) IsTerminal(elements []screen.Element, depth int, st ScreenType) bool {
	if depth >= g.budget.MaxDepth {
		return true
	}
	return len(elements) == 0
}

// BacktrackMethod prefers a single step back. A screen whose hints mark
// it as detached from the app (an external browser, a share sheet) has
// no back path worth trusting, so the run returns home instead.
func (g *Generic) BacktrackMethod(hints []string, depth int) BacktrackAction {
	if depth <= 0 {
		return BacktrackNone
	}
	if screen.HasHint(hints, "external") || screen.HasHint(hints, "no-back") {
		return BacktrackHome
	}
	return BacktrackBack
}

// ExtractFingerprint delegates to the engine. The generic policy ignores
// icon detections; identity comes from text alone.
func (g *Generic) ExtractFingerprint(elements []screen.Element, icons []screen.Detection) string {
	return g.engine.Extract(elements, nil).Hash
}

// Engine exposes the fingerprint engine for wrapping strategies.
func (g *Generic) Engine() *fingerprint.Engine {
	return g.engine
}
