// Package board holds the in-memory warrant board: nodes, forward adjacency
// and the reverse index every traversal consults so that edges behave as
// undirected.
package board

// Edge is a directed adjacency entry.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Chain records the ordered path an authored edge was expanded into.
// Intermediates are the Effect node ids between From and To.
type Chain struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	Intermediates []string `json:"intermediates,omitempty"`
	Bidirectional bool     `json:"bidirectional"`
}

// Path returns From, the intermediates and To in walking order.
func (c Chain) Path() []string {
	path := make([]string, 0, len(c.Intermediates)+2)
	path = append(path, c.From)
	path = append(path, c.Intermediates...)
	return append(path, c.To)
}

// Graph owns every node of one board build. It is discarded and rebuilt on
// topology change, never patched node by node.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	forward map[string][]string
	chains  []Chain
	edges   int

	reverse      map[string][]string
	reverseDirty bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}
}

// AddNode inserts a node, or overwrites kind and position of an existing id.
// Adjacency of an existing node is kept.
func (g *Graph) AddNode(id string, kind Kind, pos Position) *Node {
	if n, ok := g.nodes[id]; ok {
		n.Kind = kind
		n.Position = pos
		return n
	}
	n := &Node{ID: id, Kind: kind, Position: pos}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n
}

// AddEdge records from -> to. Self-loops, unknown endpoints and duplicate
// pairs are rejected and reported as false.
func (g *Graph) AddEdge(from, to string) bool {
	if from == to {
		return false
	}
	if _, ok := g.nodes[from]; !ok {
		return false
	}
	if _, ok := g.nodes[to]; !ok {
		return false
	}
	for _, existing := range g.forward[from] {
		if existing == to {
			return false
		}
	}
	g.forward[from] = append(g.forward[from], to)
	g.edges++
	g.reverseDirty = true
	return true
}

// AddChain keeps the expanded form of an authored edge.
func (g *Graph) AddChain(c Chain) {
	g.chains = append(g.chains, c)
}

// Chains returns the recorded edge chains in build order.
func (g *Graph) Chains() []Chain {
	out := make([]Chain, len(g.chains))
	copy(out, g.chains)
	return out
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfKind returns the nodes of one kind in insertion order.
func (g *Graph) NodesOfKind(kind Kind) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Len is the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount is the number of directed adjacency entries.
func (g *Graph) EdgeCount() int { return g.edges }

// Forward returns the outgoing adjacency of id.
func (g *Graph) Forward(id string) []string {
	out := make([]string, len(g.forward[id]))
	copy(out, g.forward[id])
	return out
}

// Edges lists every directed edge in node insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.edges)
	for _, from := range g.order {
		for _, to := range g.forward[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// AnchorID returns the first Anchor node, if any.
func (g *Graph) AnchorID() (string, bool) {
	for _, id := range g.order {
		if g.nodes[id].Kind == KindAnchor {
			return id, true
		}
	}
	return "", false
}

// Index (re)builds the reverse adjacency. Builders call it once a build is
// complete; Neighbors calls it lazily if edges were added since.
func (g *Graph) Index() {
	reverse := make(map[string][]string, len(g.nodes))
	for _, from := range g.order {
		for _, to := range g.forward[from] {
			reverse[to] = append(reverse[to], from)
		}
	}
	g.reverse = reverse
	g.reverseDirty = false
}

// Neighbors returns the undirected neighbourhood of id: forward targets first,
// then nodes pointing at id, without duplicates.
func (g *Graph) Neighbors(id string) []string {
	if g.reverseDirty {
		g.Index()
	}
	fwd := g.forward[id]
	rev := g.reverse[id]
	out := make([]string, 0, len(fwd)+len(rev))
	seen := make(map[string]struct{}, len(fwd)+len(rev))
	for _, n := range fwd {
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	for _, n := range rev {
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// Reached is one node visited by a breadth-first walk.
type Reached struct {
	ID    string
	Depth int
}

// Walk runs a breadth-first search over undirected adjacency from start,
// visiting nodes up to maxDepth hops away. The start node is reported at
// depth 0. Unknown start ids yield nothing.
func (g *Graph) Walk(start string, maxDepth int) []Reached {
	if !g.HasNode(start) || maxDepth < 0 {
		return nil
	}
	visited := map[string]struct{}{start: {}}
	out := []Reached{{ID: start, Depth: 0}}
	frontier := []string{start}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, n := range g.Neighbors(id) {
				if _, ok := visited[n]; ok {
					continue
				}
				visited[n] = struct{}{}
				out = append(out, Reached{ID: n, Depth: depth})
				next = append(next, n)
			}
		}
		frontier = next
	}
	return out
}

// Distances maps every node within maxDepth hops of start to its hop count.
func (g *Graph) Distances(start string, maxDepth int) map[string]int {
	reached := g.Walk(start, maxDepth)
	out := make(map[string]int, len(reached))
	for _, r := range reached {
		out[r.ID] = r.Depth
	}
	return out
}

// Connected reports whether to can be reached from from over undirected edges.
func (g *Graph) Connected(from, to string) bool {
	_, ok := g.Distances(from, len(g.nodes))[to]
	return ok
}
