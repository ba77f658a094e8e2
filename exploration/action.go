package exploration

// ActionType identifies the kind of input the execution layer performs.
type ActionType string

const (
	// ActionLaunch opens the application. Only the first edge-free
	// capture of a run uses it.
	ActionLaunch ActionType = "launch"
	// ActionTap activates an element.
	ActionTap ActionType = "tap"
	// ActionTypeText enters text into a focused element.
	ActionTypeText ActionType = "type"
	// ActionSwipe performs a directional swipe ("back", "up", ...).
	ActionSwipe ActionType = "swipe"
	// ActionScrollTo scrolls until a target element is visible.
	ActionScrollTo ActionType = "scrollTo"
	// ActionPressKey presses a hardware or system key ("home", ...).
	ActionPressKey ActionType = "pressKey"
)

// IsValid checks if the action type is valid
func (a ActionType) IsValid() bool {
	switch a {
	case ActionLaunch, ActionTap, ActionTypeText, ActionSwipe, ActionScrollTo, ActionPressKey:
		return true
	}
	return false
}

// ActionRecord is one executed action and what it led to. WasDuplicate
// marks an action whose resulting screen matched an already-known node;
// such edges are kept for visit counting but never expanded further.
type ActionRecord struct {
	Type         ActionType `json:"type"`
	Target       string     `json:"target"`
	WasDuplicate bool       `json:"was_duplicate"`
}
