package exploration

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

var (
	// ErrSessionActive is returned when Start is called on a session
	// that already owns a run.
	ErrSessionActive = errors.New("session is already active")

	// ErrSessionNotActive is returned when Capture or Finalize is
	// called before Start.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrInvalidAppName is returned when app name is empty.
	ErrInvalidAppName = errors.New("app name is required")

	// ErrNoGoals is returned when Start is given no goals.
	ErrNoGoals = errors.New("at least one goal is required")

	// ErrNoScreens is returned by Finalize when nothing was captured.
	ErrNoScreens = errors.New("no screens captured")
)

// CaptureOutcome discriminates what a capture did to the graph.
type CaptureOutcome string

const (
	// CaptureNewScreen: unseen fingerprint, a new node was created.
	CaptureNewScreen CaptureOutcome = "new_screen"
	// CaptureDuplicate: the screen did not change; nothing was mutated.
	CaptureDuplicate CaptureOutcome = "duplicate"
	// CaptureCycleClosed: the screen matched a different, already-known
	// node; the run returned to it.
	CaptureCycleClosed CaptureOutcome = "cycle_closed"
)

// Accepted reports whether the capture moved the run to a node other
// than the one it was on.
func (o CaptureOutcome) Accepted() bool {
	return o != CaptureDuplicate
}

// CaptureInput carries one observed screen into the session.
type CaptureInput struct {
	Elements   []screen.Element
	Hints      []string
	Detections []screen.Detection

	// ActionType and ArrivedVia describe the action that led to this
	// screen. Both are empty on the first capture of a run.
	ActionType ActionType
	ArrivedVia string

	ScreenshotRef string
}

// CaptureResult reports what a capture did.
type CaptureResult struct {
	Outcome    CaptureOutcome
	NodeID     string
	VisitCount int
	Depth      int
}

// ExploredScreen is one entry in the flattened narrative used for skill
// generation: what was on screen and how the run got there. Revisits of
// known nodes appear here even though they add no node to the graph.
type ExploredScreen struct {
	Index         int              `json:"index"`
	NodeID        string           `json:"node_id"`
	Elements      []screen.Element `json:"elements"`
	Hints         []string         `json:"hints,omitempty"`
	ActionType    ActionType       `json:"action_type,omitempty"`
	ArrivedVia    string           `json:"arrived_via,omitempty"`
	ScreenshotRef string           `json:"screenshot_ref,omitempty"`
	Revisit       bool             `json:"revisit,omitempty"`
}

// Result is the finalized output of one goal of a run.
type Result struct {
	AppName string           `json:"app_name"`
	Goal    string           `json:"goal"`
	Screens []ExploredScreen `json:"screens"`
	Graph   *GraphSnapshot   `json:"graph"`
}

// Session is the sequential capture front end of one exploration run.
// One session per run; the caller owns it and threads it through every
// call. The mutex keeps status reads consistent when a caller inspects
// the graph between captures.
type Session struct {
	mu sync.Mutex

	engine *fingerprint.Engine
	logger logger.Logger

	appName   string
	goals     []string
	goalIndex int

	graph   *Graph
	screens []ExploredScreen
	active  bool
}

// NewSession creates an inactive session. A nil logger falls back to the
// nop logger.
func NewSession(engine *fingerprint.Engine, log logger.Logger) *Session {
	if engine == nil {
		engine = fingerprint.NewEngine()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		engine: engine,
		logger: log,
	}
}

// Start begins a run. Fails if the session is already active. The goal
// list is fixed here; Finalize advances through it.
func (s *Session) Start(appName string, goals []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrSessionActive
	}
	if strings.TrimSpace(appName) == "" {
		return ErrInvalidAppName
	}
	kept := make([]string, 0, len(goals))
	for _, g := range goals {
		if strings.TrimSpace(g) != "" {
			kept = append(kept, strings.TrimSpace(g))
		}
	}
	if len(kept) == 0 {
		return ErrNoGoals
	}

	s.appName = strings.TrimSpace(appName)
	s.goals = kept
	s.goalIndex = 0
	s.graph = NewGraph()
	s.screens = nil
	s.active = true

	s.logger.Info(context.Background(), "exploration session started", map[string]interface{}{
		"app_name": s.appName,
		"goals":    len(kept),
	})
	return nil
}

// Capture folds one observed screen into the run. The first capture
// creates the start node. Later captures are compared against the
// current node first (no change at all) and then against every known
// node (cycle closure) before a new node is created.
func (s *Session) Capture(in CaptureInput) (CaptureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return CaptureResult{}, ErrSessionNotActive
	}

	fp := s.engine.Extract(in.Elements, in.Detections)
	snap := screen.NewSnapshot(in.Elements, in.Hints, in.Detections, in.ScreenshotRef)

	cur := s.graph.Current()
	if cur == nil {
		n := s.graph.addNode(fp, snap, 0)
		s.graph.setCurrent(n.ID)
		s.appendScreen(n.ID, snap, ActionLaunch, "", in.ScreenshotRef, false)
		s.logger.Info(context.Background(), "start screen captured", map[string]interface{}{
			"node_id":  n.ID,
			"elements": len(in.Elements),
		})
		return CaptureResult{Outcome: CaptureNewScreen, NodeID: n.ID, VisitCount: 1, Depth: 0}, nil
	}

	// Unchanged screen: the action had no effect.
	if s.engine.Equal(cur.Fingerprint, fp) {
		s.logger.Debug(context.Background(), "duplicate screen rejected", map[string]interface{}{
			"node_id": cur.ID,
		})
		return CaptureResult{Outcome: CaptureDuplicate, NodeID: cur.ID, VisitCount: cur.VisitCount, Depth: cur.Depth}, nil
	}

	action := ActionRecord{Type: in.ActionType, Target: in.ArrivedVia}

	// Cycle closure: the screen is a different node the run already knows.
	if known := s.graph.Lookup(s.engine, fp); known != nil {
		s.graph.revisit(known.ID)
		action.WasDuplicate = true
		s.graph.addEdge(cur.ID, known.ID, action)
		s.graph.setCurrent(known.ID)
		s.appendScreen(known.ID, snap, in.ActionType, in.ArrivedVia, in.ScreenshotRef, true)
		s.logger.Info(context.Background(), "cycle closed onto known screen", map[string]interface{}{
			"node_id":     known.ID,
			"visit_count": known.VisitCount,
		})
		return CaptureResult{Outcome: CaptureCycleClosed, NodeID: known.ID, VisitCount: known.VisitCount, Depth: known.Depth}, nil
	}

	n := s.graph.addNode(fp, snap, cur.Depth+1)
	s.graph.addEdge(cur.ID, n.ID, action)
	s.graph.setCurrent(n.ID)
	s.appendScreen(n.ID, snap, in.ActionType, in.ArrivedVia, in.ScreenshotRef, false)
	s.logger.Info(context.Background(), "new screen captured", map[string]interface{}{
		"node_id": n.ID,
		"depth":   n.Depth,
		"nodes":   s.graph.NodeCount(),
	})
	return CaptureResult{Outcome: CaptureNewScreen, NodeID: n.ID, VisitCount: 1, Depth: n.Depth}, nil
}

func (s *Session) appendScreen(nodeID string, snap screen.Snapshot, at ActionType, via, ref string, revisit bool) {
	s.screens = append(s.screens, ExploredScreen{
		Index:         len(s.screens),
		NodeID:        nodeID,
		Elements:      snap.Elements,
		Hints:         snap.Hints,
		ActionType:    at,
		ArrivedVia:    via,
		ScreenshotRef: ref,
		Revisit:       revisit,
	})
}

// Finalize closes out the current goal. With goals remaining the session
// stays active on the next goal; the graph and narrative persist across
// goals of one run. After the last goal the session deactivates.
func (s *Session) Finalize() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, ErrSessionNotActive
	}
	if len(s.screens) == 0 {
		return nil, ErrNoScreens
	}

	res := &Result{
		AppName: s.appName,
		Goal:    s.goals[s.goalIndex],
		Screens: append([]ExploredScreen(nil), s.screens...),
		Graph:   s.graph.Snapshot(),
	}

	if s.goalIndex+1 < len(s.goals) {
		s.goalIndex++
		s.logger.Info(context.Background(), "goal finalized, session continues", map[string]interface{}{
			"finished_goal": res.Goal,
			"next_goal":     s.goals[s.goalIndex],
		})
	} else {
		s.active = false
		s.logger.Info(context.Background(), "session finalized", map[string]interface{}{
			"goal":    res.Goal,
			"screens": len(res.Screens),
			"nodes":   res.Graph.NodeCount(),
		})
	}

	return res, nil
}

// Active reports whether a run is in progress.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// AppName returns the app under exploration.
func (s *Session) AppName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appName
}

// Goal returns the goal currently being explored.
func (s *Session) Goal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.goals) == 0 {
		return ""
	}
	return s.goals[s.goalIndex]
}

// Screens returns a copy of the narrative so far.
func (s *Session) Screens() []ExploredScreen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ExploredScreen(nil), s.screens...)
}

// Graph exposes the live graph for reading. Only the session mutates it.
func (s *Session) Graph() *Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Engine returns the fingerprint engine the session compares with.
func (s *Session) Engine() *fingerprint.Engine {
	return s.engine
}
