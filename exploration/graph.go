package exploration

import (
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/fingerprint"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/screen"
)

// Node is one distinct screen discovered during a run. Nodes are created
// the first time a fingerprint is seen and never removed; VisitCount
// increments on every later return to the same fingerprint.
type Node struct {
	ID          string                  `json:"id"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Snapshot    screen.Snapshot         `json:"snapshot"`
	VisitCount  int                     `json:"visit_count"`
	Depth       int                     `json:"depth"`
}

// Edge is one observed transition between two nodes.
type Edge struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Action ActionRecord `json:"action"`
}

// Graph is an arena of nodes keyed by fingerprint hash. Node identity
// lives in the key, not in pointers, so the graph copies cleanly for the
// snapshot handed out by Session.Finalize. Only Session mutates a Graph;
// everything else reads.
type Graph struct {
	nodes   map[string]*Node
	order   []string // node ids in insertion order
	edges   []Edge
	current string
	started bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// Started reports whether the graph has its start node.
func (g *Graph) Started() bool {
	return g.started
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of recorded transitions.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// CurrentID returns the id of the node the run is currently on, or ""
// before the first capture.
func (g *Graph) CurrentID() string {
	return g.current
}

// Current returns the node the run is currently on, or nil before the
// first capture.
func (g *Graph) Current() *Node {
	if g.current == "" {
		return nil
	}
	return g.nodes[g.current]
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// Lookup returns the node whose fingerprint the engine judges equal to
// fp, scanning in insertion order so earlier discoveries win ties.
func (g *Graph) Lookup(eng *fingerprint.Engine, fp fingerprint.Fingerprint) *Node {
	if n, ok := g.nodes[fp.Hash]; ok {
		return n
	}
	for _, id := range g.order {
		if eng.Equal(g.nodes[id].Fingerprint, fp) {
			return g.nodes[id]
		}
	}
	return nil
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in the order they were recorded.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Outgoing returns the edges leaving the given node, in recorded order.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) addNode(fp fingerprint.Fingerprint, snap screen.Snapshot, depth int) *Node {
	n := &Node{
		ID:          fp.Hash,
		Fingerprint: fp,
		Snapshot:    snap,
		VisitCount:  1,
		Depth:       depth,
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.started = true
	return n
}

func (g *Graph) revisit(id string) *Node {
	n := g.nodes[id]
	n.VisitCount++
	return n
}

func (g *Graph) addEdge(from, to string, action ActionRecord) {
	g.edges = append(g.edges, Edge{From: from, To: to, Action: action})
}

func (g *Graph) setCurrent(id string) {
	g.current = id
}

// GraphSnapshot is an immutable copy of a graph, safe to hand to callers
// after Finalize without exposing the live arena.
type GraphSnapshot struct {
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	StartID   string `json:"start_id"`
	CurrentID string `json:"current_id"`
}

// Snapshot deep-copies the graph.
func (g *Graph) Snapshot() *GraphSnapshot {
	snap := &GraphSnapshot{
		Nodes:     make([]Node, 0, len(g.order)),
		Edges:     make([]Edge, len(g.edges)),
		CurrentID: g.current,
	}
	for _, id := range g.order {
		n := g.nodes[id]
		c := *n
		c.Snapshot = n.Snapshot.Clone()
		c.Fingerprint.Texts = append([]string(nil), n.Fingerprint.Texts...)
		snap.Nodes = append(snap.Nodes, c)
	}
	copy(snap.Edges, g.edges)
	if len(g.order) > 0 {
		snap.StartID = g.order[0]
	}
	return snap
}

// NodeCount returns the number of copied nodes.
func (s *GraphSnapshot) NodeCount() int {
	return len(s.Nodes)
}

// EdgeCount returns the number of copied edges.
func (s *GraphSnapshot) EdgeCount() int {
	return len(s.Edges)
}

// Node returns the copied node with the given id, or nil.
func (s *GraphSnapshot) Node(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// Outgoing returns the copied edges leaving the given node.
func (s *GraphSnapshot) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range s.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}
