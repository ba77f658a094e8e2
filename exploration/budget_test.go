package exploration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_Validate(t *testing.T) {
	t.Run("default budget is valid", func(t *testing.T) {
		require.NoError(t, DefaultBudget().Validate())
	})

	t.Run("rejects non-positive limits", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Budget)
		}{
			{"zero max depth", func(b *Budget) { b.MaxDepth = 0 }},
			{"zero max screens", func(b *Budget) { b.MaxScreens = 0 }},
			{"zero actions per screen", func(b *Budget) { b.MaxActionsPerScreen = 0 }},
			{"negative scroll limit", func(b *Budget) { b.ScrollLimit = -1 }},
			{"zero duration", func(b *Budget) { b.MaxDuration = 0 }},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				b := DefaultBudget()
				tc.mutate(&b)
				assert.ErrorIs(t, b.Validate(), ErrInvalidBudget)
			})
		}
	})

	t.Run("zero scroll limit is allowed", func(t *testing.T) {
		b := DefaultBudget()
		b.ScrollLimit = 0
		b.MaxDuration = time.Second
		assert.NoError(t, b.Validate())
	})
}

func TestBudget_MatchesSkip(t *testing.T) {
	b := Budget{SkipPatterns: []string{"Sign Out", "delete"}}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact pattern", "Sign Out", true},
		{"case insensitive", "sign out", true},
		{"substring match", "Delete Account", true},
		{"unrelated text", "General", false},
		{"empty text", "  ", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.MatchesSkip(tc.text))
		})
	}
}
