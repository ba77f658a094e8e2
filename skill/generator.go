package skill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/exploration"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

var (
	// ErrNilResult is returned when Generate is given nothing to work on.
	ErrNilResult = errors.New("exploration result is nil")

	// ErrEmptyResult is returned when the result has no captured screens.
	// An empty bundle is never produced.
	ErrEmptyResult = errors.New("exploration result has no screens")
)

// Generator compiles a finalized exploration result into a bundle of
// scripts. Landmark selection reuses the fingerprint engine's filtering,
// so a landmark is never a clock reading or a counter.
type Generator struct {
	engine *fingerprint.Engine
	logger logger.Logger
}

// NewGenerator creates a generator. Nil arguments fall back to the
// default engine and the nop logger.
func NewGenerator(engine *fingerprint.Engine, log logger.Logger) *Generator {
	if engine == nil {
		engine = fingerprint.NewEngine()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{engine: engine, logger: log}
}

// Generate compiles the result. A graph where every node took at most
// one effective outgoing edge compiles to a single script following the
// capture narrative; a branching graph compiles to one script per
// maximal path from the start node, each named for its divergence point.
func (g *Generator) Generate(res *exploration.Result) (*Bundle, error) {
	if res == nil || res.Graph == nil {
		return nil, ErrNilResult
	}
	if len(res.Screens) == 0 {
		return nil, ErrEmptyResult
	}

	bundle := &Bundle{
		AppName:     SanitizeName(res.AppName),
		Goal:        res.Goal,
		GeneratedAt: time.Now(),
	}

	if isLinear(res.Graph) {
		bundle.Scripts = []Script{g.linearScript(res)}
	} else {
		bundle.Scripts = g.branchScripts(res)
	}

	g.logger.Info(context.Background(), "skill bundle generated", map[string]interface{}{
		"app_name": bundle.AppName,
		"scripts":  len(bundle.Scripts),
		"steps":    bundle.StepCount(),
	})
	return bundle, nil
}

// isLinear reports whether no node took more than one effective (non
// cycle-closing) outgoing edge.
func isLinear(graph *exploration.GraphSnapshot) bool {
	taken := make(map[string]int)
	for _, e := range graph.Edges {
		if e.Action.WasDuplicate {
			continue
		}
		taken[e.From]++
		if taken[e.From] > 1 {
			return false
		}
	}
	return true
}

// linearScript walks the capture narrative: the launch step carries the
// start screen's landmark, then one step per traversed edge.
func (g *Generator) linearScript(res *exploration.Result) Script {
	seen := make(map[string]bool)
	steps := make([]Step, 0, len(res.Screens))

	for i, scr := range res.Screens {
		if i == 0 {
			steps = append(steps, Step{
				Kind:     StepLaunch,
				Action:   exploration.ActionLaunch,
				Target:   SanitizeName(res.AppName),
				Landmark: g.claimLandmark(seen, scr.Elements),
			})
			continue
		}
		steps = append(steps, Step{
			Kind:     StepAction,
			Action:   scr.ActionType,
			Target:   SanitizeTarget(scr.ArrivedVia),
			Landmark: g.claimLandmark(seen, scr.Elements),
		})
	}

	return Script{
		Name:  SanitizeName(res.AppName + " walkthrough"),
		Steps: steps,
	}
}

// branchScripts enumerates every maximal path from the start node. A
// cycle-closing edge ends its path (a backtrack point); paths are never
// expanded past one.
func (g *Generator) branchScripts(res *exploration.Result) []Script {
	graph := res.Graph
	var paths [][]exploration.Edge

	visited := map[string]bool{graph.StartID: true}
	var walk func(nodeID string, path []exploration.Edge)
	walk = func(nodeID string, path []exploration.Edge) {
		extended := false
		for _, e := range graph.Outgoing(nodeID) {
			if e.Action.WasDuplicate {
				p := append(append([]exploration.Edge(nil), path...), e)
				paths = append(paths, p)
				extended = true
				continue
			}
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			walk(e.To, append(path, e))
			visited[e.To] = false
			extended = true
		}
		if !extended && len(path) > 0 {
			paths = append(paths, append([]exploration.Edge(nil), path...))
		}
	}
	walk(graph.StartID, nil)

	// Nodes that took more than one effective edge are the divergence
	// points scripts are named after.
	branching := make(map[string]bool)
	taken := make(map[string]int)
	for _, e := range graph.Edges {
		if e.Action.WasDuplicate {
			continue
		}
		taken[e.From]++
		if taken[e.From] > 1 {
			branching[e.From] = true
		}
	}

	scripts := make([]Script, 0, len(paths))
	names := make(map[string]int)
	for _, path := range paths {
		branchPoint := ""
		for i := len(path) - 1; i >= 0; i-- {
			if branching[path[i].From] {
				branchPoint = SanitizeTarget(path[i].Action.Target)
				break
			}
		}

		name := SanitizeName(res.AppName + " walkthrough")
		if branchPoint != "" {
			name = SanitizeName(fmt.Sprintf("%s via %s", res.AppName, branchPoint))
		}
		names[name]++
		if n := names[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}

		scripts = append(scripts, g.pathScript(res, name, branchPoint, path))
	}
	return scripts
}

// pathScript renders one edge path as a script, picking each landmark
// from the arrival node's representative snapshot.
func (g *Generator) pathScript(res *exploration.Result, name, branchPoint string, path []exploration.Edge) Script {
	graph := res.Graph
	seen := make(map[string]bool)
	steps := make([]Step, 0, len(path)+1)

	launch := Step{
		Kind:   StepLaunch,
		Action: exploration.ActionLaunch,
		Target: SanitizeName(res.AppName),
	}
	if start := graph.Node(graph.StartID); start != nil {
		launch.Landmark = g.claimLandmark(seen, start.Snapshot.Elements)
	}
	steps = append(steps, launch)

	for _, e := range path {
		step := Step{
			Kind:   StepAction,
			Action: e.Action.Type,
			Target: SanitizeTarget(e.Action.Target),
		}
		if to := graph.Node(e.To); to != nil {
			step.Landmark = g.claimLandmark(seen, to.Snapshot.Elements)
		}
		steps = append(steps, step)
	}

	return Script{Name: name, BranchPoint: branchPoint, Steps: steps}
}

// claimLandmark picks the arrival screen's landmark unless the same
// text was already claimed earlier in the script. A path that returns
// to a screen (A -> B -> A) therefore mentions its landmark once.
func (g *Generator) claimLandmark(seen map[string]bool, elements []screen.Element) string {
	lm := SanitizeLandmark(g.engine.Landmark(elements))
	if lm == "" {
		return ""
	}
	key := fingerprint.NormalizeText(lm)
	if seen[key] {
		return ""
	}
	seen[key] = true
	return lm
}
