// Package device defines the two external collaborator contracts the
// exploration engine depends on: seeing the screen and acting on it.
// Implementations live with the platform integration (a mirroring
// bridge, an emulator, the test simulator), never in the engine.
package device

import (
	"context"
	"errors"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

var (
	// ErrNoScreen is returned by Observe when the target surface is not
	// visible. The engine surfaces it to the caller without retrying;
	// retry policy belongs to whoever drives the run.
	ErrNoScreen = errors.New("no screen available")

	// ErrTargetNotFound is returned by Perform when the target element
	// is not on screen. It is a normal recorded failure: the explorer
	// notes the candidate as tried and moves on.
	ErrTargetNotFound = errors.New("action target not found")
)

// Perception observes the current screen and returns a snapshot of it.
type Perception interface {
	Observe(ctx context.Context) (*screen.Snapshot, error)
}

// Execution performs one input action against the current screen. An
// action that settles without visible effect is not an error here; the
// engine detects it through fingerprint comparison on the next Observe.
type Execution interface {
	Perform(ctx context.Context, action exploration.ActionType, target string) error
}

// Device is a collaborator providing both capabilities.
type Device interface {
	Perception
	Execution
}
