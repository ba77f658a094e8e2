package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/device"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/explorer"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/skill"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

func loadSettings(t *testing.T) *Simulator {
	t.Helper()
	sim, err := Load("testdata/settings.yaml")
	require.NoError(t, err)
	return sim
}

func TestLoad(t *testing.T) {
	t.Run("valid fixture", func(t *testing.T) {
		sim := loadSettings(t)
		assert.Equal(t, "Settings", sim.App())
		assert.Equal(t, "home", sim.Current())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load("testdata/does-not-exist.yaml")
		assert.Error(t, err)
	})
}

func TestNew_Validation(t *testing.T) {
	t.Run("missing app name", func(t *testing.T) {
		_, err := New(Fixture{Screens: []FixtureScreen{{Name: "home"}}})
		assert.ErrorIs(t, err, ErrInvalidFixture)
	})

	t.Run("no screens", func(t *testing.T) {
		_, err := New(Fixture{App: "Settings"})
		assert.ErrorIs(t, err, ErrInvalidFixture)
	})

	t.Run("transition to unknown screen", func(t *testing.T) {
		_, err := New(Fixture{
			App: "Settings",
			Screens: []FixtureScreen{{
				Name:        "home",
				Transitions: []FixtureTransition{{Action: "tap", Target: "X", To: "nowhere"}},
			}},
		})
		assert.ErrorIs(t, err, ErrInvalidFixture)
	})
}

func TestSimulator_Observe(t *testing.T) {
	sim := loadSettings(t)
	snap, err := sim.Observe(context.Background())
	require.NoError(t, err)

	texts := snap.Texts()
	assert.Contains(t, texts, "General")
	assert.Contains(t, texts, "9:41")
	assert.Equal(t, "sim://home", snap.ImageRef)

	var general screen.Element
	for _, el := range snap.Elements {
		if el.Text == "General" {
			general = el
		}
	}
	assert.Equal(t, screen.RoleNavigation, general.Role)
}

func TestSimulator_Perform(t *testing.T) {
	ctx := context.Background()

	t.Run("tap follows a transition", func(t *testing.T) {
		sim := loadSettings(t)
		require.NoError(t, sim.Perform(ctx, exploration.ActionTap, "General"))
		assert.Equal(t, "general", sim.Current())
	})

	t.Run("tap on missing element fails", func(t *testing.T) {
		sim := loadSettings(t)
		err := sim.Perform(ctx, exploration.ActionTap, "Bluetooth")
		assert.ErrorIs(t, err, device.ErrTargetNotFound)
		assert.Equal(t, "home", sim.Current())
	})

	t.Run("tap without transition is a no-effect success", func(t *testing.T) {
		sim := loadSettings(t)
		require.NoError(t, sim.Perform(ctx, exploration.ActionTap, "Settings"))
		assert.Equal(t, "home", sim.Current())
	})

	t.Run("swipe back pops history", func(t *testing.T) {
		sim := loadSettings(t)
		require.NoError(t, sim.Perform(ctx, exploration.ActionTap, "General"))
		require.NoError(t, sim.Perform(ctx, exploration.ActionTap, "About"))
		require.NoError(t, sim.Perform(ctx, exploration.ActionSwipe, "back"))
		assert.Equal(t, "general", sim.Current())
		require.NoError(t, sim.Perform(ctx, exploration.ActionSwipe, "back"))
		assert.Equal(t, "home", sim.Current())
	})

	t.Run("swipe back at the root stays put", func(t *testing.T) {
		sim := loadSettings(t)
		require.NoError(t, sim.Perform(ctx, exploration.ActionSwipe, "back"))
		assert.Equal(t, "home", sim.Current())
	})

	t.Run("press home returns to the start screen", func(t *testing.T) {
		sim := loadSettings(t)
		require.NoError(t, sim.Perform(ctx, exploration.ActionTap, "General"))
		require.NoError(t, sim.Perform(ctx, exploration.ActionPressKey, "home"))
		assert.Equal(t, "home", sim.Current())
	})
}

// The simulator is the integration surface for the whole engine: drive
// an autonomous run over the fixture and check the compiled bundle.
func TestSimulator_AutonomousRun(t *testing.T) {
	sim := loadSettings(t)
	eng := fingerprint.NewEngine()
	budget := exploration.DefaultBudget()

	session := exploration.NewSession(eng, logger.Nop())
	require.NoError(t, session.Start(sim.App(), []string{"map the settings tree"}))

	snap, err := sim.Observe(context.Background())
	require.NoError(t, err)
	_, err = session.Capture(exploration.CaptureInput{
		Elements: snap.Elements, Hints: snap.Hints, Detections: snap.Detections, ScreenshotRef: snap.ImageRef,
	})
	require.NoError(t, err)

	exp, err := explorer.New(explorer.Config{
		Session:    session,
		Strategy:   strategy.NewGeneric(eng, budget),
		Perception: sim,
		Execution:  sim,
		Budget:     budget,
	})
	require.NoError(t, err)
	require.NoError(t, exp.MarkStarted())

	var bundle *skill.Bundle
	for i := 0; i < 100; i++ {
		out, err := exp.Step(context.Background())
		require.NoError(t, err)
		if out.Kind == explorer.OutcomeFinished {
			bundle = out.Bundle
			break
		}
		require.NotEqual(t, explorer.OutcomePaused, out.Kind, "run should not get stuck: %s", out.Description)
	}
	require.NotNil(t, bundle, "run did not finish")

	// All four fixture screens are reachable within the budget.
	assert.Equal(t, 4, session.Graph().NodeCount())
	assert.True(t, exp.Completed())
}
