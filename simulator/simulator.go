// Package simulator is an in-memory device: a small app described in a
// YAML fixture, exposed through the device contracts. It backs the
// CLI's local mode and the integration tests; nothing in it talks to a
// real screen.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/device"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

var (
	// ErrInvalidFixture marks fixture validation failures.
	ErrInvalidFixture = errors.New("invalid simulator fixture")

	// ErrUnknownScreen is returned when a transition points at a screen
	// the fixture never defines.
	ErrUnknownScreen = errors.New("unknown screen")
)

// Fixture is the YAML description of a simulated app.
type Fixture struct {
	App     string          `yaml:"app"`
	Start   string          `yaml:"start"`
	Screens []FixtureScreen `yaml:"screens"`
}

// FixtureScreen is one screen of the simulated app.
type FixtureScreen struct {
	Name        string              `yaml:"name"`
	Hints       []string            `yaml:"hints,omitempty"`
	Elements    []FixtureElement    `yaml:"elements"`
	Icons       []FixtureIcon       `yaml:"icons,omitempty"`
	Transitions []FixtureTransition `yaml:"transitions,omitempty"`
}

// FixtureElement is one recognized text element.
type FixtureElement struct {
	Text       string  `yaml:"text"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Confidence float64 `yaml:"confidence"`
	Role       string  `yaml:"role"`
}

// FixtureIcon is one non-text detection.
type FixtureIcon struct {
	Label      string  `yaml:"label"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Confidence float64 `yaml:"confidence"`
}

// FixtureTransition moves the simulator to another screen when the
// matching action lands on the matching target.
type FixtureTransition struct {
	Action string `yaml:"action"`
	Target string `yaml:"target"`
	To     string `yaml:"to"`
}

// Simulator implements device.Perception and device.Execution over a
// fixture. Swiping back pops the navigation history; pressing home
// returns to the start screen.
type Simulator struct {
	mu      sync.Mutex
	app     string
	start   string
	screens map[string]FixtureScreen
	current string
	history []string
}

var _ device.Device = (*Simulator)(nil)

// Load reads and validates a fixture file.
func Load(path string) (*Simulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return New(fx)
}

// New builds a simulator from an in-memory fixture.
func New(fx Fixture) (*Simulator, error) {
	if fx.App == "" {
		return nil, fmt.Errorf("%w: app name is required", ErrInvalidFixture)
	}
	if len(fx.Screens) == 0 {
		return nil, fmt.Errorf("%w: at least one screen is required", ErrInvalidFixture)
	}

	screens := make(map[string]FixtureScreen, len(fx.Screens))
	for _, s := range fx.Screens {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: screen without a name", ErrInvalidFixture)
		}
		screens[s.Name] = s
	}

	start := fx.Start
	if start == "" {
		start = fx.Screens[0].Name
	}
	if _, ok := screens[start]; !ok {
		return nil, fmt.Errorf("%w: start screen %q: %s", ErrInvalidFixture, start, ErrUnknownScreen)
	}
	for _, s := range fx.Screens {
		for _, tr := range s.Transitions {
			if _, ok := screens[tr.To]; !ok {
				return nil, fmt.Errorf("%w: screen %q transition to %q: %s", ErrInvalidFixture, s.Name, tr.To, ErrUnknownScreen)
			}
		}
	}

	return &Simulator{
		app:     fx.App,
		start:   start,
		screens: screens,
		current: start,
	}, nil
}

// App returns the simulated app's name.
func (s *Simulator) App() string {
	return s.app
}

// Current returns the current screen name, for test assertions.
func (s *Simulator) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset puts the simulator back on the start screen with empty history.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.start
	s.history = nil
}

// Observe returns a snapshot of the current screen.
func (s *Simulator) Observe(ctx context.Context) (*screen.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.screens[s.current]
	if !ok {
		return nil, device.ErrNoScreen
	}

	elements := make([]screen.Element, 0, len(fs.Elements))
	for _, el := range fs.Elements {
		role := screen.Role(el.Role)
		if !role.IsValid() {
			role = screen.RoleUnknown
		}
		conf := el.Confidence
		if conf == 0 {
			conf = 0.9
		}
		elements = append(elements, screen.Element{
			Text:       el.Text,
			X:          el.X,
			Y:          el.Y,
			Confidence: conf,
			Role:       role,
		})
	}
	detections := make([]screen.Detection, 0, len(fs.Icons))
	for _, ic := range fs.Icons {
		detections = append(detections, screen.Detection{
			Label:      ic.Label,
			X:          ic.X,
			Y:          ic.Y,
			Confidence: ic.Confidence,
		})
	}

	snap := screen.NewSnapshot(elements, fs.Hints, detections, "sim://"+s.current)
	return &snap, nil
}

// Perform executes one action. Actions that match no transition leave
// the screen unchanged and still succeed, which is exactly how a real
// no-effect tap behaves.
func (s *Simulator) Perform(ctx context.Context, action exploration.ActionType, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case exploration.ActionLaunch:
		s.current = s.start
		s.history = nil
		return nil

	case exploration.ActionPressKey:
		if fingerprint.NormalizeText(target) == "home" {
			s.current = s.start
			s.history = nil
		}
		return nil

	case exploration.ActionSwipe:
		if fingerprint.NormalizeText(target) == "back" {
			if n := len(s.history); n > 0 {
				s.current = s.history[n-1]
				s.history = s.history[:n-1]
			}
			return nil
		}
	}

	fs := s.screens[s.current]

	// Taps must land on a visible element.
	if action == exploration.ActionTap && !s.hasElement(fs, target) {
		return device.ErrTargetNotFound
	}

	norm := fingerprint.NormalizeText(target)
	for _, tr := range fs.Transitions {
		if exploration.ActionType(tr.Action) != action {
			continue
		}
		if fingerprint.NormalizeText(tr.Target) != norm {
			continue
		}
		s.history = append(s.history, s.current)
		s.current = tr.To
		return nil
	}
	return nil
}

func (s *Simulator) hasElement(fs FixtureScreen, target string) bool {
	norm := fingerprint.NormalizeText(target)
	for _, el := range fs.Elements {
		if fingerprint.NormalizeText(el.Text) == norm {
			return true
		}
	}
	return false
}
