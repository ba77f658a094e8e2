// Package skill compiles a finished exploration into human-readable
// automation scripts and persists them. A script replays a path through
// the explored app guided by landmarks (stable on-screen texts), not raw
// coordinates.
package skill

import (
	"fmt"
	"strings"
	"time"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
)

// StepKind discriminates the two kinds of script steps.
type StepKind string

const (
	// StepLaunch opens the app. Every script starts with exactly one.
	StepLaunch StepKind = "launch"
	// StepAction replays one recorded transition.
	StepAction StepKind = "action"
)

// Step is one instruction of a script. Landmark is the stable text to
// wait for on the arrival screen; it rides on the step itself, so a
// linear script has exactly one step per traversed edge plus the launch.
// An empty landmark means the arrival screen had no unclaimed stable
// text (its landmark was already used earlier in the script).
type Step struct {
	Kind     StepKind               `json:"kind"`
	Action   exploration.ActionType `json:"action"`
	Target   string                 `json:"target"`
	Landmark string                 `json:"landmark,omitempty"`
}

// Script is one named replayable path.
type Script struct {
	Name string `json:"name"`

	// BranchPoint names the element where this script diverged from its
	// siblings. Empty for a linear, single-script bundle.
	BranchPoint string `json:"branch_point,omitempty"`

	Steps []Step `json:"steps"`
}

// Bundle is the full output of one exploration goal.
type Bundle struct {
	AppName     string    `json:"app_name"`
	Goal        string    `json:"goal"`
	Scripts     []Script  `json:"scripts"`
	GeneratedAt time.Time `json:"generated_at"`
}

// StepCount sums the steps across all scripts.
func (b *Bundle) StepCount() int {
	n := 0
	for _, s := range b.Scripts {
		n += len(s.Steps)
	}
	return n
}

// Markdown renders one script as a numbered step list.
func (s Script) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", s.Name)
	if s.BranchPoint != "" {
		fmt.Fprintf(&sb, "Diverges at: %s\n\n", s.BranchPoint)
	}
	for i, step := range s.Steps {
		switch step.Kind {
		case StepLaunch:
			fmt.Fprintf(&sb, "%d. Launch **%s**", i+1, step.Target)
		default:
			fmt.Fprintf(&sb, "%d. %s %q", i+1, actionVerb(step.Action), step.Target)
		}
		if step.Landmark != "" {
			fmt.Fprintf(&sb, " and wait for %q", step.Landmark)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Markdown renders the whole bundle as the document persisted to blob
// storage.
func (b *Bundle) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Skill: %s\n\n", b.AppName)
	if b.Goal != "" {
		fmt.Fprintf(&sb, "Goal: %s\n\n", b.Goal)
	}
	fmt.Fprintf(&sb, "Generated: %s\n\n", b.GeneratedAt.UTC().Format(time.RFC3339))
	for i, s := range b.Scripts {
		sb.WriteString(s.Markdown())
		if i < len(b.Scripts)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func actionVerb(a exploration.ActionType) string {
	switch a {
	case exploration.ActionTap:
		return "Tap"
	case exploration.ActionTypeText:
		return "Type into"
	case exploration.ActionSwipe:
		return "Swipe"
	case exploration.ActionScrollTo:
		return "Scroll to"
	case exploration.ActionPressKey:
		return "Press"
	default:
		return "Perform"
	}
}
