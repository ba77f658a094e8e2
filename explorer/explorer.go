// Package explorer drives autonomous exploration: one budgeted,
// strategy-guided depth-first walk over an app's screens. The explorer
// owns the control loop only; screens come from a device.Perception,
// actions go through a device.Execution, and dedup lives in the session.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/device"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/flow"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/skill"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/strategy"
)

var (
	// ErrInvalidConfig is returned by New for an unusable configuration.
	ErrInvalidConfig = errors.New("invalid explorer config")

	// ErrNotStarted is returned by Step before MarkStarted.
	ErrNotStarted = errors.New("explorer not started")

	// ErrAlreadyStarted is returned by MarkStarted after the first call.
	ErrAlreadyStarted = errors.New("explorer already started")

	// ErrNoStartScreen is returned by MarkStarted when the session has
	// not captured its start screen yet.
	ErrNoStartScreen = errors.New("session has no start screen")

	// ErrNotRunning is returned by Conclude and Resume in states where
	// they make no sense.
	ErrNotRunning = errors.New("explorer is not running")

	// ErrFinished is returned when a finished explorer is asked to move.
	ErrFinished = errors.New("explorer already finished")
)

// PauseReasonStuck is the pause reason set after three consecutive
// no-effect actions.
const PauseReasonStuck = "stuck"

// State is the explorer lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StatePaused     State = "paused"
	StateFinished   State = "finished"
)

// OutcomeKind discriminates what a Step call did.
type OutcomeKind string

const (
	// OutcomeContinue: an action was attempted; the run goes on.
	OutcomeContinue OutcomeKind = "continue"
	// OutcomeBacktracked: the run navigated back toward earlier screens.
	OutcomeBacktracked OutcomeKind = "backtracked"
	// OutcomePaused: the run needs caller intervention before the next
	// Step.
	OutcomePaused OutcomeKind = "paused"
	// OutcomeFinished: the run is over; the outcome carries the bundle.
	OutcomeFinished OutcomeKind = "finished"
	// OutcomeNoop: Step was called on an already finished explorer.
	OutcomeNoop OutcomeKind = "noop"
)

// StepOutcome is the discriminated result of one Step call.
type StepOutcome struct {
	Kind        OutcomeKind
	Description string
	FromNodeID  string
	ToNodeID    string
	PauseReason string
	Bundle      *skill.Bundle
}

// String renders the outcome for logs and CLI output.
func (o StepOutcome) String() string {
	return fmt.Sprintf("%s: %s", o.Kind, o.Description)
}

// Stats summarizes a run for interleaved status reads.
type Stats struct {
	Nodes   int
	Actions int
	Elapsed time.Duration
}

// Config wires an explorer. Session, Strategy, Perception and Execution
// are required; Generator and Logger default.
type Config struct {
	Session    *exploration.Session
	Strategy   strategy.Strategy
	Perception device.Perception
	Execution  device.Execution
	Budget     exploration.Budget
	Generator  *skill.Generator
	Logger     logger.Logger
}

// Explorer is single-threaded and cooperative: each Step performs at
// most one external action and one observation, blocking until both
// settle. One explorer per session; never shared.
type Explorer struct {
	session    *exploration.Session
	strategy   strategy.Strategy
	perception device.Perception
	execution  device.Execution
	budget     exploration.Budget
	generator  *skill.Generator
	logger     logger.Logger

	state       State
	pauseReason string
	startedAt   time.Time
	homeID      string

	actionLog  []exploration.ActionRecord
	streakBase int // actionLog index the stuck check starts at

	tried    map[string]map[string]bool // node id -> normalized text -> attempted
	attempts map[string]int             // node id -> actions attempted
	scrolls  map[string]int             // node id -> scrolls spent
}

// New validates the config and builds an explorer in NotStarted.
func New(cfg Config) (*Explorer, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidConfig)
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("%w: strategy is required", ErrInvalidConfig)
	}
	if cfg.Perception == nil {
		return nil, fmt.Errorf("%w: perception is required", ErrInvalidConfig)
	}
	if cfg.Execution == nil {
		return nil, fmt.Errorf("%w: execution is required", ErrInvalidConfig)
	}
	if err := cfg.Budget.Validate(); err != nil {
		return nil, err
	}
	if cfg.Generator == nil {
		cfg.Generator = skill.NewGenerator(cfg.Session.Engine(), cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Explorer{
		session:    cfg.Session,
		strategy:   cfg.Strategy,
		perception: cfg.Perception,
		execution:  cfg.Execution,
		budget:     cfg.Budget,
		generator:  cfg.Generator,
		logger:     cfg.Logger,
		state:      StateNotStarted,
		tried:      make(map[string]map[string]bool),
		attempts:   make(map[string]int),
		scrolls:    make(map[string]int),
	}, nil
}

// MarkStarted transitions NotStarted -> Running, recording the start
// time and the start node as home for backtracking comparisons. The
// session must already have captured its start screen.
func (e *Explorer) MarkStarted() error {
	if e.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if !e.session.Active() {
		return exploration.ErrSessionNotActive
	}
	cur := e.session.Graph().Current()
	if cur == nil {
		return ErrNoStartScreen
	}

	e.state = StateRunning
	e.startedAt = time.Now()
	e.homeID = cur.ID

	e.logger.Info(context.Background(), "exploration started", map[string]interface{}{
		"app_name": e.session.AppName(),
		"home":     e.homeID,
	})
	return nil
}

// Step performs one increment of the walk: check budget, pick an
// action, execute it, observe, capture, classify the outcome.
func (e *Explorer) Step(ctx context.Context) (StepOutcome, error) {
	switch e.state {
	case StateNotStarted:
		return StepOutcome{}, ErrNotStarted
	case StateFinished:
		return StepOutcome{Kind: OutcomeNoop, Description: "exploration already finished"}, nil
	case StatePaused:
		return StepOutcome{
			Kind:        OutcomePaused,
			PauseReason: e.pauseReason,
			Description: "explorer is paused; call Resume before stepping",
		}, nil
	}

	// Budget exhaustion is successful completion, never an error.
	if time.Since(e.startedAt) >= e.budget.MaxDuration {
		return e.finish("time budget exhausted")
	}
	if e.session.Graph().NodeCount() >= e.budget.MaxScreens {
		return e.finish("screen budget exhausted")
	}

	cur := e.session.Graph().Current()
	elements := cur.Snapshot.Elements
	hints := cur.Snapshot.Hints
	screenType := e.strategy.ClassifyScreen(elements, hints)

	if e.strategy.IsTerminal(elements, cur.Depth, screenType) {
		return e.leave(ctx, cur, screenType, "terminal screen")
	}
	if e.attempts[cur.ID] >= e.budget.MaxActionsPerScreen {
		return e.leave(ctx, cur, screenType, "action budget for screen exhausted")
	}

	candidate, ok := e.pickCandidate(cur, screenType)
	if !ok {
		return e.leave(ctx, cur, screenType, "no untried candidates")
	}

	e.markTried(cur.ID, candidate.Text)
	e.attempts[cur.ID]++

	if err := e.execution.Perform(ctx, exploration.ActionTap, candidate.Text); err != nil {
		// Not fatal: the candidate is recorded as tried and the next
		// step re-ranks without it.
		e.logger.Warn(ctx, "action failed", map[string]interface{}{
			"target": candidate.Text,
			"error":  err.Error(),
		})
		return StepOutcome{
			Kind:        OutcomeContinue,
			FromNodeID:  cur.ID,
			ToNodeID:    cur.ID,
			Description: fmt.Sprintf("action on %q failed: %v", candidate.Text, err),
		}, nil
	}

	return e.observeAndCapture(ctx, cur, exploration.ActionTap, candidate.Text, OutcomeContinue)
}

// pickCandidate returns the best-ranked element not yet tried on this
// node, skipping anything the strategy excludes outright.
func (e *Explorer) pickCandidate(cur *exploration.Node, st strategy.ScreenType) (screen.Element, bool) {
	ranked := e.strategy.RankElements(cur.Snapshot.Elements, cur.Snapshot.Detections, e.tried[cur.ID], cur.Depth, st)
	for _, el := range ranked {
		key := fingerprint.NormalizeText(el.Text)
		if key == "" || e.tried[cur.ID][key] {
			continue
		}
		if e.strategy.ShouldSkip(el.Text) {
			continue
		}
		if el.Role == screen.RoleDecoration || el.Role == screen.RoleInfo {
			continue
		}
		return el, true
	}
	return screen.Element{}, false
}

// leave is the no-candidate branch: scroll if the screen might reveal
// more, otherwise backtrack, otherwise finish at home.
func (e *Explorer) leave(ctx context.Context, cur *exploration.Node, st strategy.ScreenType, why string) (StepOutcome, error) {
	if (st == strategy.ScreenList || st == strategy.ScreenFeed) && e.scrolls[cur.ID] < e.budget.ScrollLimit {
		e.scrolls[cur.ID]++
		if err := e.execution.Perform(ctx, exploration.ActionSwipe, "up"); err != nil {
			e.logger.Warn(ctx, "scroll failed", map[string]interface{}{"error": err.Error()})
			return StepOutcome{
				Kind:        OutcomeContinue,
				FromNodeID:  cur.ID,
				ToNodeID:    cur.ID,
				Description: fmt.Sprintf("scroll failed: %v", err),
			}, nil
		}
		return e.observeAndCapture(ctx, cur, exploration.ActionSwipe, "up", OutcomeContinue)
	}

	method := e.strategy.BacktrackMethod(cur.Snapshot.Hints, cur.Depth)
	if method == strategy.BacktrackNone {
		// At the designated home with nothing left to try.
		return e.finish(why + "; nowhere to backtrack")
	}

	var (
		action exploration.ActionType
		target string
	)
	switch method {
	case strategy.BacktrackHome:
		action, target = exploration.ActionPressKey, "home"
	default:
		action, target = exploration.ActionSwipe, "back"
	}

	if err := e.execution.Perform(ctx, action, target); err != nil {
		e.logger.Warn(ctx, "backtrack failed", map[string]interface{}{
			"method": string(method),
			"error":  err.Error(),
		})
		return StepOutcome{
			Kind:        OutcomeContinue,
			FromNodeID:  cur.ID,
			ToNodeID:    cur.ID,
			Description: fmt.Sprintf("backtrack failed: %v", err),
		}, nil
	}

	return e.observeAndCapture(ctx, cur, action, target, OutcomeBacktracked)
}

// observeAndCapture folds the post-action screen into the session and
// turns the capture outcome into a step outcome, feeding the stuck
// detector on no-effect actions.
func (e *Explorer) observeAndCapture(ctx context.Context, from *exploration.Node, action exploration.ActionType, target string, kind OutcomeKind) (StepOutcome, error) {
	snap, err := e.perception.Observe(ctx)
	if err != nil {
		// Perception failures surface to the caller; retry policy is
		// theirs, the explorer stays Running.
		return StepOutcome{}, fmt.Errorf("observe after %s on %q: %w", action, target, err)
	}

	res, err := e.session.Capture(exploration.CaptureInput{
		Elements:      snap.Elements,
		Hints:         snap.Hints,
		Detections:    snap.Detections,
		ActionType:    action,
		ArrivedVia:    target,
		ScreenshotRef: snap.ImageRef,
	})
	if err != nil {
		return StepOutcome{}, err
	}

	record := exploration.ActionRecord{
		Type:         action,
		Target:       target,
		WasDuplicate: !res.Outcome.Accepted(),
	}
	e.actionLog = append(e.actionLog, record)

	if res.Outcome == exploration.CaptureDuplicate {
		if flow.IsStuck(e.actionLog[e.streakBase:]) {
			e.state = StatePaused
			e.pauseReason = PauseReasonStuck
			e.logger.Warn(ctx, "exploration stuck", map[string]interface{}{
				"node_id":    from.ID,
				"duplicates": flow.ConsecutiveDuplicates(e.actionLog[e.streakBase:]),
			})
			return StepOutcome{
				Kind:        OutcomePaused,
				FromNodeID:  from.ID,
				ToNodeID:    from.ID,
				PauseReason: PauseReasonStuck,
				Description: "three consecutive actions had no effect",
			}, nil
		}
		return StepOutcome{
			Kind:        OutcomeContinue,
			FromNodeID:  from.ID,
			ToNodeID:    from.ID,
			Description: fmt.Sprintf("%s on %q had no effect", action, target),
		}, nil
	}

	// Screen changed: the duplicate streak is over.
	e.streakBase = len(e.actionLog)

	e.logger.Debug(ctx, "step advanced", map[string]interface{}{
		"from":    from.ID,
		"to":      res.NodeID,
		"outcome": string(res.Outcome),
	})

	desc := fmt.Sprintf("%s on %q reached new screen", action, target)
	if res.Outcome == exploration.CaptureCycleClosed {
		desc = fmt.Sprintf("%s on %q returned to a known screen", action, target)
	}
	return StepOutcome{
		Kind:        kind,
		FromNodeID:  from.ID,
		ToNodeID:    res.NodeID,
		Description: desc,
	}, nil
}

// finish finalizes the session, compiles the bundle, and parks the
// explorer in Finished.
func (e *Explorer) finish(why string) (StepOutcome, error) {
	bundle, err := e.compile()
	if err != nil {
		return StepOutcome{}, err
	}
	e.logger.Info(context.Background(), "exploration finished", map[string]interface{}{
		"reason":  why,
		"steps":   bundle.StepCount(),
		"scripts": len(bundle.Scripts),
	})
	return StepOutcome{
		Kind:        OutcomeFinished,
		Description: why,
		Bundle:      bundle,
	}, nil
}

func (e *Explorer) compile() (*skill.Bundle, error) {
	res, err := e.session.Finalize()
	if err != nil {
		return nil, err
	}
	bundle, err := e.generator.Generate(res)
	if err != nil {
		return nil, err
	}
	e.state = StateFinished
	return bundle, nil
}

// Resume moves Paused -> Running after caller intervention. The stuck
// streak restarts from here.
func (e *Explorer) Resume() error {
	if e.state != StatePaused {
		return ErrNotRunning
	}
	e.state = StateRunning
	e.pauseReason = ""
	e.streakBase = len(e.actionLog)
	return nil
}

// Conclude stops the run early from Running or Paused, still producing
// the bundle for whatever was explored.
func (e *Explorer) Conclude() (*skill.Bundle, error) {
	switch e.state {
	case StateNotStarted:
		return nil, ErrNotStarted
	case StateFinished:
		return nil, ErrFinished
	}
	bundle, err := e.compile()
	if err != nil {
		return nil, err
	}
	e.logger.Info(context.Background(), "exploration concluded by caller", map[string]interface{}{
		"scripts": len(bundle.Scripts),
	})
	return bundle, nil
}

// Completed reports whether the run is over.
func (e *Explorer) Completed() bool {
	return e.state == StateFinished
}

// State returns the current lifecycle state.
func (e *Explorer) State() State {
	return e.state
}

// PauseReason returns why the explorer paused, or "".
func (e *Explorer) PauseReason() string {
	return e.pauseReason
}

// ActionLog returns a copy of the actions attempted so far.
func (e *Explorer) ActionLog() []exploration.ActionRecord {
	return append([]exploration.ActionRecord(nil), e.actionLog...)
}

// Stats returns counters for interleaved status reads.
func (e *Explorer) Stats() Stats {
	s := Stats{Actions: len(e.actionLog)}
	if g := e.session.Graph(); g != nil {
		s.Nodes = g.NodeCount()
	}
	if !e.startedAt.IsZero() {
		s.Elapsed = time.Since(e.startedAt)
	}
	return s
}

func (e *Explorer) markTried(nodeID, text string) {
	key := fingerprint.NormalizeText(text)
	if e.tried[nodeID] == nil {
		e.tried[nodeID] = make(map[string]bool)
	}
	e.tried[nodeID][key] = true
}
