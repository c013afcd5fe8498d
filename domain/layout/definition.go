package layout

import (
	"warrantboard/domain/board"
)

// NodeSpec is one authored or generated node.
type NodeSpec struct {
	ID       string         `json:"id" yaml:"id"`
	Kind     board.Kind     `json:"kind" yaml:"kind"`
	Position board.Position `json:"position" yaml:"position"`
}

// EdgeSpec is one authored connection. When Intermediates is empty the
// builder generates the Effect nodes between From and To itself.
type EdgeSpec struct {
	From          string   `json:"from" yaml:"from"`
	To            string   `json:"to" yaml:"to"`
	Bidirectional bool     `json:"bidirectional" yaml:"bidirectional"`
	Intermediates []string `json:"intermediates,omitempty" yaml:"intermediates,omitempty"`
}

// Definition is a complete board layout ready for the builder.
type Definition struct {
	Name               string         `json:"name" yaml:"name"`
	EffectNodesPerEdge int            `json:"effectNodesPerEdge" yaml:"effectNodesPerEdge"`
	Offset             board.Position `json:"offset" yaml:"offset"`
	Scale              float64        `json:"scale" yaml:"scale"`
	Nodes              []NodeSpec     `json:"nodes" yaml:"nodes"`
	Edges              []EdgeSpec     `json:"edges" yaml:"edges"`
}

// Node finds a node spec by id.
func (d *Definition) Node(id string) (NodeSpec, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeSpec{}, false
}

// HasNode reports whether id is defined.
func (d *Definition) HasNode(id string) bool {
	_, ok := d.Node(id)
	return ok
}

// UpsertNode adds a node or overwrites the kind and position of an existing id.
func (d *Definition) UpsertNode(id string, kind board.Kind, pos board.Position) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			d.Nodes[i].Kind = kind
			d.Nodes[i].Position = pos
			return
		}
	}
	d.Nodes = append(d.Nodes, NodeSpec{ID: id, Kind: kind, Position: pos})
}

// Links flattens the edge specs into directed pairs, walking through any
// explicit intermediates and mirroring bidirectional chains.
func (d *Definition) Links() []board.Edge {
	var out []board.Edge
	for _, e := range d.Edges {
		path := make([]string, 0, len(e.Intermediates)+2)
		path = append(path, e.From)
		path = append(path, e.Intermediates...)
		path = append(path, e.To)
		for i := 1; i < len(path); i++ {
			out = append(out, board.Edge{From: path[i-1], To: path[i]})
		}
		if e.Bidirectional {
			for i := len(path) - 1; i > 0; i-- {
				out = append(out, board.Edge{From: path[i], To: path[i-1]})
			}
		}
	}
	return out
}

// CountKind returns how many node specs have the given kind.
func (d *Definition) CountKind(kind board.Kind) int {
	count := 0
	for _, n := range d.Nodes {
		if n.Kind == kind {
			count++
		}
	}
	return count
}
