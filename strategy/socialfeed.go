package strategy

import (
	"strings"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

// feedNoise lists engagement affordances and promoted content that make
// a feed app look infinitely deep. Tapping them never reveals app
// structure, so the social-feed policy filters them out entirely rather
// than just deprioritizing.
var feedNoise = []string{
	"like",
	"liked",
	"share",
	"repost",
	"retweet",
	"comment",
	"reply",
	"follow",
	"subscribe",
	"sponsored",
	"promoted",
	"suggested for you",
	"ad",
}

// detailDepthCap is the tighter depth limit the social-feed policy puts
// on detail and profile screens. A feed's detail pages chain into each
// other forever (post -> profile -> post -> ...), so they get a shorter
// leash than the rest of the app.
const detailDepthCap = 2

// SocialFeed decorates Generic for feed-centric apps. It keeps the base
// algorithm's contract and adds noise filtering, feed classification,
// icon-aware fingerprints, and the detail depth cap.
type SocialFeed struct {
	base *Generic
}

// NewSocialFeed creates the social-feed strategy.
func NewSocialFeed(engine *fingerprint.Engine, budget exploration.Budget) *SocialFeed {
	return &SocialFeed{base: NewGeneric(engine, budget)}
}

// ClassifyScreen upgrades a list with engagement affordances to a feed;
// everything else follows the base classification.
func (s *SocialFeed) ClassifyScreen(elements []screen.Element, hints []string) ScreenType {
	st := s.base.ClassifyScreen(elements, hints)
	if screen.HasHint(hints, "feed") {
		return ScreenFeed
	}
	if st == ScreenList && s.countNoise(elements) >= 2 {
		return ScreenFeed
	}
	if st == ScreenUnknown && screen.HasHint(hints, "profile") {
		return ScreenDetail
	}
	return st
}

// RankElements removes feed noise before handing the rest to the base
// ranking, so a like button can never outrank real navigation no matter
// how the classifier labeled it.
func (s *SocialFeed) RankElements(elements []screen.Element, icons []screen.Detection, tried map[string]bool, depth int, st ScreenType) []screen.Element {
	kept := make([]screen.Element, 0, len(elements))
	for _, el := range elements {
		if isFeedNoise(el.Text) {
			continue
		}
		kept = append(kept, el)
	}
	return s.base.RankElements(kept, icons, tried, depth, st)
}

// ShouldSkip adds feed noise on top of the budget's skip patterns.
func (s *SocialFeed) ShouldSkip(text string) bool {
	if s.base.ShouldSkip(text) {
		return true
	}
	return isFeedNoise(text)
}

// IsTerminal evaluates the base condition first and ORs in the tighter
// cap for detail/profile screens.
func (s *SocialFeed) IsTerminal(elements []screen.Element, depth int, st ScreenType) bool {
	if s.base.IsTerminal(elements, depth, st) {
		return true
	}
	return st == ScreenDetail && depth >= detailDepthCap
}

// BacktrackMethod follows the base policy.
func (s *SocialFeed) BacktrackMethod(hints []string, depth int) BacktrackAction {
	return s.base.BacktrackMethod(hints, depth)
}

// ExtractFingerprint folds icon detections into the identity. Feed
// screens often share most of their text (trending tags, suggested
// accounts); the icon row is what tells two tabs apart.
func (s *SocialFeed) ExtractFingerprint(elements []screen.Element, icons []screen.Detection) string {
	return s.base.Engine().Extract(elements, icons).Hash
}

func (s *SocialFeed) countNoise(elements []screen.Element) int {
	n := 0
	for _, el := range elements {
		if isFeedNoise(el.Text) {
			n++
		}
	}
	return n
}

func isFeedNoise(text string) bool {
	norm := fingerprint.NormalizeText(text)
	if norm == "" {
		return false
	}
	for _, noise := range feedNoise {
		if norm == noise || strings.HasPrefix(norm, noise+" ") {
			return true
		}
	}
	return false
}
