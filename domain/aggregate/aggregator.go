// Package aggregate collects the modifiers a page currently grants: each
// socketed item applies at its socket and radiates its regular modifiers to
// unlocked Effect nodes within its range.
package aggregate

import (
	"warrantboard/domain/affix"
	"warrantboard/domain/board"
	"warrantboard/domain/item"
	"warrantboard/domain/page"

	"go.uber.org/zap"
)

// MaxPropagationDepth caps the walk regardless of what an item requests.
const MaxPropagationDepth = 8

// Inventory resolves item ids to instances.
type Inventory interface {
	Item(id string) (*item.Instance, bool)
}

// InventoryMap is the simplest Inventory.
type InventoryMap map[string]*item.Instance

// Item implements Inventory.
func (m InventoryMap) Item(id string) (*item.Instance, bool) {
	inst, ok := m[id]
	return inst, ok
}

// Contribution is one modifier applied at one node.
type Contribution struct {
	Modifier item.Modifier `json:"modifier"`
	ItemID   string        `json:"itemId"`
	SocketID string        `json:"socketId"`
	TargetID string        `json:"targetId"`
	Depth    int           `json:"depth"`
}

// Aggregator walks a graph and a page to produce contributions.
type Aggregator struct {
	notables *affix.NotableCatalog
	maxDepth int
	logger   *zap.Logger
}

// New creates an aggregator. notables may be nil; it is only consulted for
// items that reference a notable without carrying its modifiers.
func New(notables *affix.NotableCatalog, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{notables: notables, maxDepth: MaxPropagationDepth, logger: logger}
}

// Collect returns every live contribution in graph node order. The socket
// itself receives the item's full modifier list once; each unlocked Effect
// node within range receives its own copy of the propagating modifiers.
func (a *Aggregator) Collect(g *board.Graph, p *page.Page, inv Inventory) []Contribution {
	var out []Contribution
	for _, node := range g.Nodes() {
		if !node.Kind.AcceptsItem() || !p.IsUnlocked(node.ID) {
			continue
		}
		itemID, ok := p.Assignment(node.ID)
		if !ok {
			continue
		}
		inst, ok := inv.Item(itemID)
		if !ok {
			a.logger.Warn("Socket references missing item",
				zap.String("socketId", node.ID),
				zap.String("itemId", itemID),
			)
			continue
		}
		out = append(out, a.collectSocket(g, p, node.ID, inst)...)
	}
	return out
}

func (a *Aggregator) collectSocket(g *board.Graph, p *page.Page, socketID string, inst *item.Instance) []Contribution {
	var out []Contribution
	at := func(m item.Modifier, target string, depth int) {
		out = append(out, Contribution{Modifier: m, ItemID: inst.ID, SocketID: socketID, TargetID: target, Depth: depth})
	}

	var propagating, local []item.Modifier
	for _, m := range inst.Modifiers {
		if m.Propagates() {
			propagating = append(propagating, m)
		} else {
			local = append(local, m)
		}
	}
	if inst.HasNotable() && len(inst.NotableModifiers()) == 0 {
		if n, ok := a.notables.Get(inst.NotableID); ok {
			local = append(local, n.ItemModifiers()...)
		}
	}

	for _, m := range propagating {
		at(m, socketID, 0)
	}
	for _, m := range local {
		m.SocketOnly = true
		at(m, socketID, 0)
	}

	depth := inst.RangeDepth
	if depth > a.maxDepth {
		depth = a.maxDepth
	}
	if depth <= 0 || len(propagating) == 0 {
		return out
	}

	for _, r := range g.Walk(socketID, depth) {
		if r.Depth == 0 || !p.IsUnlocked(r.ID) {
			continue
		}
		n, _ := g.Node(r.ID)
		if n.Kind != board.KindEffect {
			continue
		}
		for _, m := range propagating {
			at(m, r.ID, r.Depth)
		}
	}
	return out
}

// Modifiers flattens contributions into the ordered list handed to the stat
// system.
func Modifiers(contribs []Contribution) []item.Modifier {
	out := make([]item.Modifier, 0, len(contribs))
	for _, c := range contribs {
		out = append(out, c.Modifier)
	}
	return out
}
