package screen

import (
	"strings"
)

// Role classifies what interacting with an element is expected to do.
// Roles are assigned by an external classifier before a snapshot reaches
// the exploration engine.
type Role string

const (
	// RoleDecoration is visual chrome with no behavior.
	RoleDecoration Role = "decoration"
	// RoleInfo is static content (labels, body text).
	RoleInfo Role = "info"
	// RoleNavigation moves to another screen when activated.
	RoleNavigation Role = "navigation"
	// RoleStateChange mutates state on the current screen (toggles, inputs).
	RoleStateChange Role = "state_change"
	// RoleUnknown is the default for unclassified elements.
	RoleUnknown Role = "unknown"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleDecoration, RoleInfo, RoleNavigation, RoleStateChange, RoleUnknown:
		return true
	}
	return false
}

// Element is a single recognized text element on a screen. Coordinates are
// normalized to 0..1 with the origin at the top-left corner.
type Element struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Role       Role    `json:"role"`
}

// Detection is a non-text visual detection (an icon, an image region).
type Detection struct {
	Label      string  `json:"label"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Snapshot is everything the engine knows about one observed screen.
// ImageRef is an opaque pointer to a stored screenshot and may be empty.
type Snapshot struct {
	Elements   []Element   `json:"elements"`
	Hints      []string    `json:"hints,omitempty"`
	Detections []Detection `json:"detections,omitempty"`
	ImageRef   string      `json:"image_ref,omitempty"`
}

// NewSnapshot builds a snapshot from caller-owned slices. The slices are
// copied so later mutation by the caller cannot change a captured screen.
func NewSnapshot(elements []Element, hints []string, detections []Detection, imageRef string) Snapshot {
	s := Snapshot{ImageRef: imageRef}
	if len(elements) > 0 {
		s.Elements = make([]Element, len(elements))
		copy(s.Elements, elements)
	}
	if len(hints) > 0 {
		s.Hints = make([]string, len(hints))
		copy(s.Hints, hints)
	}
	if len(detections) > 0 {
		s.Detections = make([]Detection, len(detections))
		copy(s.Detections, detections)
	}
	return s
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return NewSnapshot(s.Elements, s.Hints, s.Detections, s.ImageRef)
}

// Texts returns the element texts in element order.
func (s Snapshot) Texts() []string {
	out := make([]string, 0, len(s.Elements))
	for _, el := range s.Elements {
		out = append(out, el.Text)
	}
	return out
}

// HasHint reports whether any classifier hint contains the given substring,
// case-insensitively.
func (s Snapshot) HasHint(substr string) bool {
	return HasHint(s.Hints, substr)
}

// HasHint reports whether any of the hints contains the given substring,
// case-insensitively.
func HasHint(hints []string, substr string) bool {
	needle := strings.ToLower(substr)
	for _, h := range hints {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// RoleClassifier is the contract an element classifier satisfies. The
// engine never classifies elements itself; platform-specific classifiers
// live with the perception layer. Implementations must be pure: same
// element in, same role out, no side effects.
type RoleClassifier interface {
	Classify(el Element) Role
}
