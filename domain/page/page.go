// Package page keeps per-loadout unlock state and socket assignments and
// enforces the adjacency-gated unlock rule.
package page

import (
	"sort"
)

// Page is one loadout: its unlocked nodes and socket assignments.
type Page struct {
	ID          string
	DisplayName string

	anchorID    string
	unlocked    map[string]struct{}
	assignments map[string]string
}

// New creates a page with the anchor unlocked.
func New(id, displayName, anchorID string) *Page {
	p := &Page{
		ID:          id,
		DisplayName: displayName,
		anchorID:    anchorID,
		unlocked:    make(map[string]struct{}),
		assignments: make(map[string]string),
	}
	if anchorID != "" {
		p.unlocked[anchorID] = struct{}{}
	}
	return p
}

// AnchorID returns the permanently unlocked root.
func (p *Page) AnchorID() string { return p.anchorID }

// IsUnlocked reports whether nodeID is unlocked on this page.
func (p *Page) IsUnlocked(nodeID string) bool {
	_, ok := p.unlocked[nodeID]
	return ok
}

// UnlockedCount is the size of the unlocked set.
func (p *Page) UnlockedCount() int { return len(p.unlocked) }

// UnlockedIDs returns the unlocked node ids sorted.
func (p *Page) UnlockedIDs() []string {
	out := make([]string, 0, len(p.unlocked))
	for id := range p.unlocked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Assignment returns the item held by a socket.
func (p *Page) Assignment(nodeID string) (string, bool) {
	id, ok := p.assignments[nodeID]
	return id, ok
}

// Assignments returns a copy of the socket to item map.
func (p *Page) Assignments() map[string]string {
	out := make(map[string]string, len(p.assignments))
	for k, v := range p.assignments {
		out[k] = v
	}
	return out
}

// SocketsHolding lists the sockets an item is assigned to, sorted.
func (p *Page) SocketsHolding(itemID string) []string {
	var out []string
	for node, id := range p.assignments {
		if id == itemID {
			out = append(out, node)
		}
	}
	sort.Strings(out)
	return out
}

func (p *Page) unlock(nodeID string) {
	p.unlocked[nodeID] = struct{}{}
}

func (p *Page) assign(nodeID, itemID string) {
	p.assignments[nodeID] = itemID
}

func (p *Page) unassign(nodeID string) (string, bool) {
	id, ok := p.assignments[nodeID]
	if ok {
		delete(p.assignments, nodeID)
	}
	return id, ok
}

// ReleaseItem clears every assignment holding itemID and returns the sockets
// that were emptied. Used when an item leaves the inventory.
func (p *Page) ReleaseItem(itemID string) []string {
	sockets := p.SocketsHolding(itemID)
	for _, s := range sockets {
		delete(p.assignments, s)
	}
	return sockets
}
