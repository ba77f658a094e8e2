package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

func TestExplorationJob_Validate(t *testing.T) {
	t.Run("valid job", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings", Category: strategy.CategoryGeneric}
		assert.NoError(t, j.Validate())
	})

	t.Run("missing app name", func(t *testing.T) {
		j := &ExplorationJob{Category: strategy.CategoryGeneric}
		assert.ErrorIs(t, j.Validate(), ErrInvalidAppName)
	})

	t.Run("invalid category", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings", Category: strategy.Category("bogus")}
		assert.ErrorIs(t, j.Validate(), ErrInvalidCategory)
	})
}

func TestExplorationJob_Goals(t *testing.T) {
	t.Run("goals from config", func(t *testing.T) {
		j := &ExplorationJob{
			AppName: "Settings",
			Config:  JSONMap{"goals": []interface{}{"find about screen", "map the tabs"}},
		}
		assert.Equal(t, []string{"find about screen", "map the tabs"}, j.Goals())
	})

	t.Run("default goal when config is empty", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings"}
		assert.Equal(t, []string{"explore Settings"}, j.Goals())
	})

	t.Run("non-string entries are dropped", func(t *testing.T) {
		j := &ExplorationJob{
			AppName: "Settings",
			Config:  JSONMap{"goals": []interface{}{"real goal", float64(7), ""}},
		}
		assert.Equal(t, []string{"real goal"}, j.Goals())
	})
}

func TestExplorationJob_Budget(t *testing.T) {
	t.Run("defaults without overrides", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings"}
		assert.Equal(t, exploration.DefaultBudget(), j.Budget())
	})

	t.Run("config overrides apply", func(t *testing.T) {
		j := &ExplorationJob{
			AppName: "Settings",
			Config: JSONMap{
				"max_depth":            float64(2),
				"max_screens":          float64(10),
				"max_duration_seconds": float64(30),
				"skip_patterns":        []interface{}{"Delete Account"},
			},
		}
		b := j.Budget()
		assert.Equal(t, 2, b.MaxDepth)
		assert.Equal(t, 10, b.MaxScreens)
		assert.Equal(t, 30*time.Second, b.MaxDuration)
		assert.Contains(t, b.SkipPatterns, "Delete Account")
		// Untouched fields keep the defaults.
		assert.Equal(t, exploration.DefaultBudget().ScrollLimit, b.ScrollLimit)
	})
}

func TestExplorationJob_Lifecycle(t *testing.T) {
	t.Run("start then complete", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings", Status: StatusCreated}
		assert.NoError(t, j.Start())
		assert.Equal(t, StatusRunning, j.Status)
		assert.NotNil(t, j.StartTime)

		assert.NoError(t, j.Complete(StatusSuccess, JSONMap{"screens": float64(4)}))
		assert.Equal(t, StatusSuccess, j.Status)
		assert.NotNil(t, j.EndTime)
		assert.NotNil(t, j.Duration)
	})

	t.Run("double start fails", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings", Status: StatusCreated}
		assert.NoError(t, j.Start())
		assert.ErrorIs(t, j.Start(), ErrJobAlreadyStarted)
	})

	t.Run("complete before start fails", func(t *testing.T) {
		j := &ExplorationJob{AppName: "Settings", Status: StatusCreated}
		assert.ErrorIs(t, j.Complete(StatusSuccess, nil), ErrJobNotRunning)
	})
}
