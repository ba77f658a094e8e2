package job

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidAppName    = errors.New("app_name is required")
	ErrInvalidCategory   = errors.New("invalid strategy category")
	ErrInvalidStatus     = errors.New("invalid job status")
	ErrJobAlreadyStarted = errors.New("job already started")
	ErrJobNotRunning     = errors.New("job is not running")
)

type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
	StatusSuccess Status = "success"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusRunning, StatusFailed, StatusSuccess:
		return true
	}
	return false
}

// JSONMap is a custom type for JSON columns.
type JSONMap map[string]interface{}

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONMap: not a byte slice")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*j = m
	return nil
}

// ExplorationJob is one queued exploration run: which app to explore,
// under which strategy, toward which goals. Goals, budget overrides and
// the fixture path live in the Config column; the run summary lands in
// Result.
type ExplorationJob struct {
	ID        uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	AppName   string            `json:"app_name" gorm:"type:varchar(255);not null"`
	Category  strategy.Category `json:"category" gorm:"type:varchar(50);not null;default:'generic'"`
	Status    Status            `json:"status" gorm:"type:varchar(20);not null;default:'created';index:idx_exploration_jobs_status"`
	Config    JSONMap           `json:"config" gorm:"type:json"`
	Result    JSONMap           `json:"result" gorm:"type:json"`
	StartTime *time.Time        `json:"start_time,omitempty"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	Duration  *int64            `json:"duration,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (j *ExplorationJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

func (j *ExplorationJob) Validate() error {
	if j.AppName == "" {
		return ErrInvalidAppName
	}
	if !j.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}

// Goals extracts the goal list from the config column. A job without
// explicit goals explores toward a single generic one.
func (j *ExplorationJob) Goals() []string {
	raw, ok := j.Config["goals"].([]interface{})
	if !ok {
		return []string{"explore " + j.AppName}
	}
	goals := make([]string, 0, len(raw))
	for _, g := range raw {
		if s, ok := g.(string); ok && s != "" {
			goals = append(goals, s)
		}
	}
	if len(goals) == 0 {
		return []string{"explore " + j.AppName}
	}
	return goals
}

// Budget returns the exploration budget for this job: the defaults with
// any config overrides applied.
func (j *ExplorationJob) Budget() exploration.Budget {
	b := exploration.DefaultBudget()
	if v, ok := configInt(j.Config, "max_depth"); ok {
		b.MaxDepth = v
	}
	if v, ok := configInt(j.Config, "max_screens"); ok {
		b.MaxScreens = v
	}
	if v, ok := configInt(j.Config, "max_actions_per_screen"); ok {
		b.MaxActionsPerScreen = v
	}
	if v, ok := configInt(j.Config, "scroll_limit"); ok {
		b.ScrollLimit = v
	}
	if v, ok := configInt(j.Config, "max_duration_seconds"); ok {
		b.MaxDuration = time.Duration(v) * time.Second
	}
	if raw, ok := j.Config["skip_patterns"].([]interface{}); ok {
		for _, s := range raw {
			if text, ok := s.(string); ok && text != "" {
				b.SkipPatterns = append(b.SkipPatterns, text)
			}
		}
	}
	return b
}

// FixturePath returns the simulator fixture path from the config, if
// the job targets a simulated device.
func (j *ExplorationJob) FixturePath() string {
	s, _ := j.Config["fixture"].(string)
	return s
}

// JSON numbers decode as float64.
func configInt(m JSONMap, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Start marks the job as running.
func (j *ExplorationJob) Start() error {
	if j.Status != StatusCreated {
		return ErrJobAlreadyStarted
	}
	now := time.Now()
	j.Status = StatusRunning
	j.StartTime = &now
	return nil
}

// Complete marks the job as finished with the given status and result.
func (j *ExplorationJob) Complete(status Status, result JSONMap) error {
	if j.Status != StatusRunning {
		return ErrJobNotRunning
	}
	now := time.Now()
	j.Status = status
	j.EndTime = &now
	j.Result = result
	if j.StartTime != nil {
		duration := now.Sub(*j.StartTime).Milliseconds()
		j.Duration = &duration
	}
	return nil
}
