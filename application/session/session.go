// Package session owns each player's live board state: the built graph, the
// loadout pages, the unspent skill points and the item inventory. All
// operations on one player are serialised through that player's Session.
package session

import (
	"sync"

	"warrantboard/application/ports"
	"warrantboard/domain/item"
	"warrantboard/domain/page"
)

// Session is one player's loaded state. Fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	playerID string
	board    *ports.BuiltBoard
	pages    []*page.Page
	active   int
	points   int

	items map[string]*item.Instance
	order []string
}

func newSession(playerID string, b *ports.BuiltBoard) *Session {
	return &Session{
		playerID: playerID,
		board:    b,
		items:    make(map[string]*item.Instance),
	}
}

// PlayerID returns the owning player.
func (s *Session) PlayerID() string { return s.playerID }

// Item implements aggregate.Inventory.
func (s *Session) Item(id string) (*item.Instance, bool) {
	inst, ok := s.items[id]
	return inst, ok
}

func (s *Session) activePage() *page.Page {
	return s.pages[s.active]
}

func (s *Session) store(unlimited bool) *page.Store {
	return page.NewStore(s.activePage(), s.board.Graph, page.Unlimited(unlimited))
}

func (s *Session) addItem(inst *item.Instance) {
	if _, ok := s.items[inst.ID]; !ok {
		s.order = append(s.order, inst.ID)
	}
	s.items[inst.ID] = inst
}

// removeItem drops an item from the inventory and from every page socket.
func (s *Session) removeItem(id string) {
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, p := range s.pages {
		p.ReleaseItem(id)
	}
}

func (s *Session) inventory() []*item.Instance {
	out := make([]*item.Instance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out
}

// locked runs fn while holding the session lock.
func (s *Session) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// checkpoint captures pages, the active index, points and the inventory.
// Calling the returned function puts them back. Callers hold mu.
func (s *Session) checkpoint() (restore func()) {
	snaps := make([]page.Snapshot, len(s.pages))
	anchors := make([]string, len(s.pages))
	for i, p := range s.pages {
		snaps[i] = p.Snapshot()
		anchors[i] = p.AnchorID()
	}
	active, points := s.active, s.points
	items := make(map[string]*item.Instance, len(s.items))
	for id, inst := range s.items {
		items[id] = inst
	}
	order := append([]string(nil), s.order...)

	return func() {
		pages := make([]*page.Page, len(snaps))
		for i := range snaps {
			pages[i] = page.FromSnapshot(snaps[i], anchors[i])
		}
		s.pages, s.active, s.points = pages, active, points
		s.items, s.order = items, order
	}
}

func (s *Session) record() *page.Record {
	return page.NewRecord(s.pages, s.active, s.points)
}
