// Package layout produces warrant board definitions: an Anchor at the bottom,
// three branch paths up to a rectangular ring of Sockets, a hub wired to every
// ring point and two SpecialSocket side branches.
package layout

import (
	"fmt"

	"warrantboard/domain/board"
	pkgerrors "warrantboard/pkg/errors"

	"go.uber.org/zap"
)

// Well-known node ids of a generated board.
const (
	AnchorID        = "anchor"
	HubID           = "hub"
	RingBottomLeft  = "ring_bottom_left"
	RingBottomMid   = "ring_bottom_mid"
	RingBottomRight = "ring_bottom_right"
	RingRightMid    = "ring_right_mid"
	RingTopRight    = "ring_top_right"
	RingTopMid      = "ring_top_mid"
	RingTopLeft     = "ring_top_left"
	RingLeftMid     = "ring_left_mid"
	SpecialLeft     = "special_left"
	SpecialRight    = "special_right"
)

// RingIDs lists the ring points clockwise from the bottom left corner.
var RingIDs = []string{
	RingBottomLeft, RingBottomMid, RingBottomRight, RingRightMid,
	RingTopRight, RingTopMid, RingTopLeft, RingLeftMid,
}

// Params controls the generated shape.
type Params struct {
	Width              float64
	Height             float64
	EffectNodesPerEdge int
	// BranchSections is the number of sections on each Anchor branch path;
	// a branch gets BranchSections-1 intermediate Sockets.
	BranchSections int
}

// DefaultParams returns the layout used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Width:              800,
		Height:             600,
		EffectNodesPerEdge: 2,
		BranchSections:     2,
	}
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return pkgerrors.NewValidationError("layout width and height must be positive")
	}
	if p.EffectNodesPerEdge < 0 {
		return pkgerrors.NewValidationError("effect nodes per edge must not be negative")
	}
	if p.BranchSections < 1 {
		return pkgerrors.NewValidationError("branch sections must be at least 1")
	}
	return nil
}

// Generator builds layout definitions.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a generator that reports skipped paths on logger.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// GenerateLayout is the parameter-light entry point with two branch sections.
func GenerateLayout(width, height float64, effectNodesPerEdge int) (*Definition, error) {
	return NewGenerator(nil).Generate(Params{
		Width:              width,
		Height:             height,
		EffectNodesPerEdge: effectNodesPerEdge,
		BranchSections:     2,
	})
}

// Generate produces a fresh definition for p.
func (g *Generator) Generate(p Params) (*Definition, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	def := &Definition{
		Name:               fmt.Sprintf("generated-%gx%g-e%d-b%d", p.Width, p.Height, p.EffectNodesPerEdge, p.BranchSections),
		EffectNodesPerEdge: p.EffectNodesPerEdge,
		Scale:              1,
	}

	halfW := p.Width / 2
	bottom := p.Height / 2
	mid := bottom + p.Height/2
	top := bottom + p.Height

	def.UpsertNode(AnchorID, board.KindAnchor, board.Position{X: 0, Y: 0})

	ring := map[string]board.Position{
		RingBottomLeft:  {X: -halfW, Y: bottom},
		RingBottomMid:   {X: 0, Y: bottom},
		RingBottomRight: {X: halfW, Y: bottom},
		RingRightMid:    {X: halfW, Y: mid},
		RingTopRight:    {X: halfW, Y: top},
		RingTopMid:      {X: 0, Y: top},
		RingTopLeft:     {X: -halfW, Y: top},
		RingLeftMid:     {X: -halfW, Y: mid},
	}
	for _, id := range RingIDs {
		def.UpsertNode(id, board.KindSocket, ring[id])
	}
	def.UpsertNode(HubID, board.KindSocket, board.Position{X: 0, Y: mid})
	def.UpsertNode(SpecialLeft, board.KindSpecialSocket, board.Position{X: -halfW - p.Width/4, Y: mid})
	def.UpsertNode(SpecialRight, board.KindSpecialSocket, board.Position{X: halfW + p.Width/4, Y: mid})

	for _, target := range []string{RingBottomLeft, RingBottomMid, RingBottomRight} {
		g.SectionedPath(def, AnchorID, target, p.BranchSections)
	}

	for i, from := range RingIDs {
		to := RingIDs[(i+1)%len(RingIDs)]
		g.SectionedPath(def, from, to, 1)
	}

	// Hub spokes are stored forward only; traversal relies on the reverse index.
	for _, id := range RingIDs {
		def.Edges = append(def.Edges, EdgeSpec{From: id, To: HubID})
	}

	g.SectionedPath(def, RingLeftMid, SpecialLeft, 1)
	g.SectionedPath(def, RingRightMid, SpecialRight, 1)

	g.logger.Debug("Generated board layout",
		zap.String("name", def.Name),
		zap.Int("nodes", len(def.Nodes)),
		zap.Int("edges", len(def.Edges)),
	)
	return def, nil
}

// SectionedPath splits from..to into sections, inserting sections-1 Sockets
// along the line and def.EffectNodesPerEdge Effect nodes between each
// consecutive pair. Each pair becomes a bidirectional edge with an explicit
// intermediate list. Unknown endpoints make this a logged no-op.
func (g *Generator) SectionedPath(def *Definition, fromID, toID string, sections int) {
	from, ok := def.Node(fromID)
	if !ok {
		g.logger.Warn("Skipping sectioned path with unknown endpoint", zap.String("from", fromID), zap.String("to", toID))
		return
	}
	to, ok := def.Node(toID)
	if !ok {
		g.logger.Warn("Skipping sectioned path with unknown endpoint", zap.String("from", fromID), zap.String("to", toID))
		return
	}
	if sections < 1 {
		sections = 1
	}

	points := []NodeSpec{from}
	for k := 1; k < sections; k++ {
		id := fmt.Sprintf("%s_%s_s%d", fromID, toID, k)
		pos := from.Position.Lerp(to.Position, float64(k)/float64(sections))
		def.UpsertNode(id, board.KindSocket, pos)
		points = append(points, NodeSpec{ID: id, Kind: board.KindSocket, Position: pos})
	}
	points = append(points, to)

	n := def.EffectNodesPerEdge
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		effects := make([]string, 0, n)
		for e := 0; e < n; e++ {
			t := float64(e+1) / float64(n+1)
			id := EffectID(a.ID, b.ID, e+1)
			def.UpsertNode(id, board.KindEffect, a.Position.Lerp(b.Position, t))
			effects = append(effects, id)
		}
		def.Edges = append(def.Edges, EdgeSpec{
			From:          a.ID,
			To:            b.ID,
			Bidirectional: true,
			Intermediates: effects,
		})
	}
}

// EffectID names the i-th (1-based) Effect node between two endpoints.
func EffectID(from, to string, i int) string {
	return fmt.Sprintf("%s_to_%s_effect%d", from, to, i)
}
