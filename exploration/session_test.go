package exploration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

// elems builds mid-screen navigation elements from texts, clear of the
// status-bar band.
func elems(texts ...string) []screen.Element {
	out := make([]screen.Element, 0, len(texts))
	for i, t := range texts {
		out = append(out, screen.Element{
			Text:       t,
			X:          0.5,
			Y:          0.2 + float64(i)*0.1,
			Confidence: 0.95,
			Role:       screen.RoleNavigation,
		})
	}
	return out
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(fingerprint.NewEngine(), logger.NewTestLogger())
}

func TestSession_Start(t *testing.T) {
	t.Run("successfully start session", func(t *testing.T) {
		s := newTestSession(t)
		err := s.Start("Settings", []string{"explore general settings"})
		require.NoError(t, err)
		assert.True(t, s.Active())
		assert.Equal(t, "Settings", s.AppName())
		assert.Equal(t, "explore general settings", s.Goal())
	})

	t.Run("start while active returns error", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))
		err := s.Start("Settings", []string{"goal"})
		assert.ErrorIs(t, err, ErrSessionActive)
	})

	t.Run("empty app name returns error", func(t *testing.T) {
		s := newTestSession(t)
		err := s.Start("  ", []string{"goal"})
		assert.ErrorIs(t, err, ErrInvalidAppName)
	})

	t.Run("no goals returns error", func(t *testing.T) {
		s := newTestSession(t)
		err := s.Start("Settings", nil)
		assert.ErrorIs(t, err, ErrNoGoals)
	})

	t.Run("blank goals are dropped", func(t *testing.T) {
		s := newTestSession(t)
		err := s.Start("Settings", []string{"", "  ", "real goal"})
		require.NoError(t, err)
		assert.Equal(t, "real goal", s.Goal())
	})
}

func TestSession_Capture(t *testing.T) {
	t.Run("first capture creates exactly one node", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))

		res, err := s.Capture(CaptureInput{Elements: elems("Settings", "General")})
		require.NoError(t, err)
		assert.Equal(t, CaptureNewScreen, res.Outcome)
		assert.Equal(t, 0, res.Depth)
		assert.Equal(t, 1, s.Graph().NodeCount())
		assert.Equal(t, 0, s.Graph().EdgeCount())
		assert.Len(t, s.Screens(), 1)
	})

	t.Run("capture before start returns error", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.Capture(CaptureInput{Elements: elems("Settings")})
		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("similar screen is a duplicate and leaves narrative unchanged", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))
		_, err := s.Capture(CaptureInput{Elements: elems("Settings", "General", "Display", "Sound", "About")})
		require.NoError(t, err)

		// 4 of 5 texts shared: Jaccard 4/6 < 0.8 would differ, so share
		// all five and vary only a volatile numeric badge.
		again := append(elems("Settings", "General", "Display", "Sound", "About"), screen.Element{
			Text: "3", X: 0.9, Y: 0.3, Confidence: 0.9, Role: screen.RoleInfo,
		})
		res, err := s.Capture(CaptureInput{Elements: again, ActionType: ActionTap, ArrivedVia: "General"})
		require.NoError(t, err)
		assert.Equal(t, CaptureDuplicate, res.Outcome)
		assert.False(t, res.Outcome.Accepted())
		assert.Equal(t, 1, s.Graph().NodeCount())
		assert.Len(t, s.Screens(), 1)
	})

	t.Run("new screen adds node and edge", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))
		_, err := s.Capture(CaptureInput{Elements: elems("Settings", "General")})
		require.NoError(t, err)

		res, err := s.Capture(CaptureInput{
			Elements:   elems("About", "Software Version"),
			ActionType: ActionTap,
			ArrivedVia: "General",
		})
		require.NoError(t, err)
		assert.Equal(t, CaptureNewScreen, res.Outcome)
		assert.Equal(t, 1, res.Depth)
		assert.Equal(t, 2, s.Graph().NodeCount())

		edges := s.Graph().Edges()
		require.Len(t, edges, 1)
		assert.Equal(t, ActionTap, edges[0].Action.Type)
		assert.Equal(t, "General", edges[0].Action.Target)
		assert.False(t, edges[0].Action.WasDuplicate)
	})

	t.Run("returning to a known screen closes a cycle", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))

		first, err := s.Capture(CaptureInput{Elements: elems("Settings", "General")})
		require.NoError(t, err)

		// Same screen, reordered texts: still the first node's identity,
		// but it is the current node so this is a plain duplicate.
		res, err := s.Capture(CaptureInput{Elements: elems("General", "Settings")})
		require.NoError(t, err)
		assert.Equal(t, CaptureDuplicate, res.Outcome)

		_, err = s.Capture(CaptureInput{
			Elements:   elems("About", "iOS Version"),
			ActionType: ActionTap,
			ArrivedVia: "General",
		})
		require.NoError(t, err)

		back, err := s.Capture(CaptureInput{
			Elements:   elems("Settings", "General"),
			ActionType: ActionSwipe,
			ArrivedVia: "back",
		})
		require.NoError(t, err)
		assert.Equal(t, CaptureCycleClosed, back.Outcome)
		assert.Equal(t, first.NodeID, back.NodeID)
		assert.Equal(t, 2, back.VisitCount)
		assert.Equal(t, 2, s.Graph().NodeCount())

		edges := s.Graph().Edges()
		require.Len(t, edges, 2)
		assert.True(t, edges[1].Action.WasDuplicate)
		assert.Equal(t, first.NodeID, edges[1].To)

		// Revisit appears in the narrative but adds no node.
		screens := s.Screens()
		require.Len(t, screens, 3)
		assert.True(t, screens[2].Revisit)
	})
}

func TestSession_Finalize(t *testing.T) {
	t.Run("finalize without screens returns error", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))
		_, err := s.Finalize()
		assert.ErrorIs(t, err, ErrNoScreens)
	})

	t.Run("finalize before start returns error", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.Finalize()
		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("single goal deactivates session", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"goal"}))
		_, err := s.Capture(CaptureInput{Elements: elems("Settings", "General")})
		require.NoError(t, err)

		res, err := s.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "Settings", res.AppName)
		assert.Equal(t, "goal", res.Goal)
		assert.Len(t, res.Screens, 1)
		assert.Equal(t, 1, res.Graph.NodeCount())
		assert.False(t, s.Active())
	})

	t.Run("remaining goals keep session active", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"first goal", "second goal"}))
		_, err := s.Capture(CaptureInput{Elements: elems("Settings", "General")})
		require.NoError(t, err)

		res, err := s.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "first goal", res.Goal)
		assert.True(t, s.Active())
		assert.Equal(t, "second goal", s.Goal())

		// Graph and narrative persist into the next goal.
		_, err = s.Capture(CaptureInput{
			Elements:   elems("About", "Software Version"),
			ActionType: ActionTap,
			ArrivedVia: "General",
		})
		require.NoError(t, err)

		last, err := s.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "second goal", last.Goal)
		assert.Len(t, last.Screens, 2)
		assert.False(t, s.Active())
	})

	t.Run("graph snapshot is detached from the live graph", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, s.Start("Settings", []string{"first", "second"}))
		_, err := s.Capture(CaptureInput{Elements: elems("Settings", "General")})
		require.NoError(t, err)

		res, err := s.Finalize()
		require.NoError(t, err)

		res.Graph.Nodes[0].VisitCount = 99
		res.Graph.Nodes[0].Snapshot.Elements[0].Text = "corrupted"

		live := s.Graph().Nodes()[0]
		assert.Equal(t, 1, live.VisitCount)
		assert.Equal(t, "Settings", live.Snapshot.Elements[0].Text)
	})
}
