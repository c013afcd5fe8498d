// Package builder turns a layout definition into a live board graph plus the
// visual handles a renderer binds to.
package builder

import (
	"warrantboard/domain/board"
	"warrantboard/domain/layout"

	"go.uber.org/zap"
)

// VisualHandle is what the visual layer needs to draw one node.
type VisualHandle struct {
	NodeID   string         `json:"nodeId"`
	Kind     board.Kind     `json:"kind"`
	Position board.Position `json:"position"`
}

// Builder owns the current graph build. Build replaces it wholesale.
type Builder struct {
	logger  *zap.Logger
	graph   *board.Graph
	visuals []VisualHandle
}

// New creates a builder with an empty graph.
func New(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		logger: logger,
		graph:  board.NewGraph(),
	}
}

// Graph returns the most recent build.
func (b *Builder) Graph() *board.Graph { return b.graph }

// Visuals returns one handle per node of the most recent build.
func (b *Builder) Visuals() []VisualHandle {
	out := make([]VisualHandle, len(b.visuals))
	copy(out, b.visuals)
	return out
}

// Build constructs a new graph from def. The previous build is discarded
// only once the new one is complete. Bad edges are skipped, never fatal.
func (b *Builder) Build(def *layout.Definition) *board.Graph {
	g := board.NewGraph()
	if def == nil {
		b.logger.Warn("Building empty board from nil definition")
		b.graph, b.visuals = g, nil
		return g
	}

	for _, n := range def.Nodes {
		if n.ID == "" {
			b.logger.Warn("Skipping node without id")
			continue
		}
		g.AddNode(n.ID, n.Kind, n.Position)
	}

	skipped := 0
	for _, e := range def.Edges {
		if !b.link(g, def.EffectNodesPerEdge, e) {
			skipped++
		}
	}
	g.Index()

	scale := def.Scale
	if scale == 0 {
		scale = 1
	}
	visuals := make([]VisualHandle, 0, g.Len())
	for _, n := range g.Nodes() {
		visuals = append(visuals, VisualHandle{
			NodeID:   n.ID,
			Kind:     n.Kind,
			Position: n.Position.Add(def.Offset).Scale(scale),
		})
	}

	b.graph = g
	b.visuals = visuals

	b.logger.Info("Board built",
		zap.String("definition", def.Name),
		zap.Int("nodes", g.Len()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int("skippedEdges", skipped),
	)
	return g
}

func (b *Builder) link(g *board.Graph, effectsPerEdge int, e layout.EdgeSpec) bool {
	from, ok := g.Node(e.From)
	if !ok {
		b.logger.Warn("Skipping edge with unknown source", zap.String("from", e.From), zap.String("to", e.To))
		return false
	}
	to, ok := g.Node(e.To)
	if !ok {
		b.logger.Warn("Skipping edge with unknown target", zap.String("from", e.From), zap.String("to", e.To))
		return false
	}

	var chain []string
	if len(e.Intermediates) > 0 {
		for _, id := range e.Intermediates {
			if !g.HasNode(id) {
				b.logger.Warn("Dropping unknown intermediate from edge chain",
					zap.String("from", e.From),
					zap.String("to", e.To),
					zap.String("intermediate", id),
				)
				continue
			}
			chain = append(chain, id)
		}
	} else {
		for i := 0; i < effectsPerEdge; i++ {
			t := float64(i+1) / float64(effectsPerEdge+1)
			id := layout.EffectID(from.ID, to.ID, i+1)
			g.AddNode(id, board.KindEffect, from.Position.Lerp(to.Position, t))
			chain = append(chain, id)
		}
	}

	path := make([]string, 0, len(chain)+2)
	path = append(path, from.ID)
	path = append(path, chain...)
	path = append(path, to.ID)

	for i := 1; i < len(path); i++ {
		g.AddEdge(path[i-1], path[i])
	}
	if e.Bidirectional {
		for i := len(path) - 1; i > 0; i-- {
			g.AddEdge(path[i], path[i-1])
		}
	}

	g.AddChain(board.Chain{
		From:          from.ID,
		To:            to.ID,
		Intermediates: chain,
		Bidirectional: e.Bidirectional,
	})
	return true
}
