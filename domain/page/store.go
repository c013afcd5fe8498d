package page

import (
	"warrantboard/domain/board"
	pkgerrors "warrantboard/pkg/errors"
)

// Store applies unlock and assignment rules for one page against one graph.
// It assumes a single writer per page.
type Store struct {
	page      *Page
	graph     *board.Graph
	unlimited bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// Unlimited disables resource spending, for sandbox pages and development.
func Unlimited(enabled bool) StoreOption {
	return func(s *Store) { s.unlimited = enabled }
}

// NewStore binds a page to the graph it is played on.
func NewStore(p *Page, g *board.Graph, opts ...StoreOption) *Store {
	s := &Store{page: p, graph: g}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page returns the bound page.
func (s *Store) Page() *Page { return s.page }

// CheckUnlock explains why nodeID cannot be unlocked with available resource
// units, or returns nil when it can. It never mutates state.
func (s *Store) CheckUnlock(nodeID string, available int) error {
	if !s.graph.HasNode(nodeID) {
		return pkgerrors.NewNotFoundError("node "+nodeID).WithCode(pkgerrors.CodeUnknownNode)
	}
	if s.page.IsUnlocked(nodeID) {
		return pkgerrors.NewConflictError("node is already unlocked").WithCode(pkgerrors.CodeAlreadyUnlocked)
	}
	if !s.unlimited && available < 1 {
		return pkgerrors.NewValidationError("no skill points available").WithCode(pkgerrors.CodeNoPoints)
	}
	for _, n := range s.graph.Neighbors(nodeID) {
		if s.page.IsUnlocked(n) {
			return nil
		}
	}
	return pkgerrors.NewValidationError("node is not adjacent to an unlocked node").WithCode(pkgerrors.CodeNotAdjacent)
}

// CanUnlock is the side-effect free unlock predicate.
func (s *Store) CanUnlock(nodeID string, available int) bool {
	return s.CheckUnlock(nodeID, available) == nil
}

// TryUnlock unlocks nodeID and spends one unit from resource unless the store
// is unlimited. A nil resource counts as zero units. It reports false and
// leaves everything untouched when the predicate fails.
func (s *Store) TryUnlock(nodeID string, resource *int) bool {
	available := 0
	if resource != nil {
		available = *resource
	}
	if !s.CanUnlock(nodeID, available) {
		return false
	}
	s.page.unlock(nodeID)
	if !s.unlimited && resource != nil {
		*resource--
	}
	return true
}

// Assign places itemID into an unlocked Socket or SpecialSocket, replacing
// any previous assignment there.
func (s *Store) Assign(nodeID, itemID string) error {
	if itemID == "" {
		return pkgerrors.NewValidationError("item id is required")
	}
	node, ok := s.graph.Node(nodeID)
	if !ok {
		return pkgerrors.NewNotFoundError("node "+nodeID).WithCode(pkgerrors.CodeUnknownNode)
	}
	if !node.Kind.AcceptsItem() {
		return pkgerrors.NewValidationError("only socket nodes hold items").
			WithCode(pkgerrors.CodeNotSocket).
			WithDetail("kind", node.Kind.String())
	}
	if !s.page.IsUnlocked(nodeID) {
		return pkgerrors.NewValidationError("socket is locked").WithCode(pkgerrors.CodeNodeLocked)
	}
	s.page.assign(nodeID, itemID)
	return nil
}

// Unassign empties a socket and returns the item that was there.
func (s *Store) Unassign(nodeID string) (string, bool) {
	return s.page.unassign(nodeID)
}
