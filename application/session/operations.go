package session

import (
	"context"
	"fmt"

	"warrantboard/application/ports"
	"warrantboard/domain/aggregate"
	"warrantboard/domain/events"
	"warrantboard/domain/fusion"
	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RollRequest asks for one item from a blueprint. A nil bound falls back to
// the manager default; an explicit 0/0 rolls a notable-only item.
type RollRequest struct {
	BlueprintID string `json:"blueprintId" validate:"required"`
	MinAffixes  *int   `json:"minAffixes,omitempty" validate:"omitempty,min=0,max=6"`
	MaxAffixes  *int   `json:"maxAffixes,omitempty" validate:"omitempty,min=0,max=6"`
}

// Bounds resolves the affix count range against the defaults.
func (r RollRequest) Bounds(defMin, defMax int) (minAffixes, maxAffixes int) {
	minAffixes, maxAffixes = defMin, defMax
	if r.MinAffixes != nil {
		minAffixes = *r.MinAffixes
	}
	if r.MaxAffixes != nil {
		maxAffixes = *r.MaxAffixes
	}
	return minAffixes, maxAffixes
}

// FuseRequest names three owned items to combine.
type FuseRequest struct {
	ItemIDs       [3]string               `json:"itemIds"`
	Locked        []fusion.LockedModifier `json:"locked" validate:"dive"`
	NotableChoice string                  `json:"notableChoice,omitempty"`
}

// Summary is the display view of the active page.
type Summary struct {
	PageID        string                         `json:"pageId"`
	Modifiers     []item.Modifier                `json:"modifiers"`
	Contributions []aggregate.Contribution       `json:"contributions"`
	Totals        []aggregate.Total              `json:"totals"`
	Coverage      map[string]aggregate.Highlight `json:"coverage"`
}

// State is a player's pages and points.
type State struct {
	ActivePageIndex int             `json:"activePageIndex"`
	SkillPoints     int             `json:"skillPoints"`
	Unlimited       bool            `json:"unlimited"`
	Pages           []page.Snapshot `json:"pages"`
}

// Board returns the board the player's session is played on.
func (m *Manager) Board(ctx context.Context, playerID string) (*ports.BuiltBoard, error) {
	s, err := m.session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board, nil
}

// BuildGraph rebuilds the board from the current definition and binds it to
// the player's session. The new graph replaces the old one in one step.
func (m *Manager) BuildGraph(ctx context.Context, playerID string) (b *ports.BuiltBoard, err error) {
	ctx, done := m.begin(ctx, "build_graph", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return nil, err
	}

	def, key, _, _ := m.catalog()
	b = m.build(def)
	if m.cache != nil {
		m.cache.Add(key, b)
	}

	s.mu.Lock()
	s.board = b
	s.mu.Unlock()

	m.publish(ctx, events.NewBoardRebuilt(playerID, b.Definition, b.Graph.Len(), b.Graph.EdgeCount(), m.now()))
	return b, nil
}

// State returns the player's pages and unspent points.
func (m *Manager) State(ctx context.Context, playerID string) (*State, error) {
	s, err := m.session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record()
	return &State{
		ActivePageIndex: rec.ActivePageIndex,
		SkillPoints:     s.points,
		Unlimited:       m.opts.Unlimited,
		Pages:           rec.Pages,
	}, nil
}

// CanUnlock explains why nodeID cannot be unlocked on the active page, or
// returns nil. It never changes state.
func (m *Manager) CanUnlock(ctx context.Context, playerID, nodeID string) error {
	s, err := m.session(ctx, playerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(m.opts.Unlimited).CheckUnlock(nodeID, s.points)
}

// TryUnlock unlocks nodeID on the active page, spending one skill point. It
// returns the points left.
func (m *Manager) TryUnlock(ctx context.Context, playerID, nodeID string) (left int, err error) {
	ctx, done := m.begin(ctx, "unlock", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return 0, err
	}

	var evt events.DomainEvent
	err = s.locked(func() error {
		defer func() { left = s.points }()
		store := s.store(m.opts.Unlimited)
		if err := store.CheckUnlock(nodeID, s.points); err != nil {
			return err
		}
		restore := s.checkpoint()
		store.TryUnlock(nodeID, &s.points)
		if err := m.commit(ctx, s, restore); err != nil {
			return err
		}
		evt = events.NewNodeUnlocked(playerID, s.activePage().ID, nodeID, s.points, m.now())
		return nil
	})
	if err != nil {
		return left, err
	}
	m.publish(ctx, evt)
	return left, nil
}

// Assign sockets an owned item on the active page. An item sits in at most
// one socket per page, so it leaves any other socket it occupied.
func (m *Manager) Assign(ctx context.Context, playerID, nodeID, itemID string) (err error) {
	ctx, done := m.begin(ctx, "assign", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return err
	}

	var evt events.DomainEvent
	err = s.locked(func() error {
		if _, ok := s.Item(itemID); !ok && itemID != "" {
			return pkgerrors.NewNotFoundError("item "+itemID).WithCode(pkgerrors.CodeItemNotFound)
		}
		restore := s.checkpoint()
		store := s.store(m.opts.Unlimited)
		if err := store.Assign(nodeID, itemID); err != nil {
			return err
		}
		for _, other := range s.activePage().SocketsHolding(itemID) {
			if other != nodeID {
				store.Unassign(other)
			}
		}
		if err := m.commit(ctx, s, restore); err != nil {
			return err
		}
		evt = events.NewItemAssigned(playerID, s.activePage().ID, nodeID, itemID, m.now())
		return nil
	})
	if err != nil {
		return err
	}
	m.publish(ctx, evt)
	return nil
}

// Unassign empties a socket on the active page and returns the removed item.
func (m *Manager) Unassign(ctx context.Context, playerID, nodeID string) (itemID string, err error) {
	ctx, done := m.begin(ctx, "unassign", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return "", err
	}

	var evt events.DomainEvent
	err = s.locked(func() error {
		restore := s.checkpoint()
		removed, ok := s.store(m.opts.Unlimited).Unassign(nodeID)
		if !ok {
			return pkgerrors.NewNotFoundError("assignment on " + nodeID)
		}
		if err := m.commit(ctx, s, restore); err != nil {
			return err
		}
		itemID = removed
		evt = events.NewItemUnassigned(playerID, s.activePage().ID, nodeID, removed, m.now())
		return nil
	})
	if err != nil {
		return "", err
	}
	m.publish(ctx, evt)
	return itemID, nil
}

// Roll creates an item from a blueprint and adds it to the inventory.
func (m *Manager) Roll(ctx context.Context, playerID string, req RollRequest) (inst *item.Instance, err error) {
	ctx, done := m.begin(ctx, "roll", playerID)
	defer done(&err)

	_, _, db, _ := m.catalog()
	bp, ok := db.Blueprint(req.BlueprintID)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("blueprint " + req.BlueprintID)
	}
	minA, maxA := req.Bounds(m.opts.MinAffixes, m.opts.MaxAffixes)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return nil, err
	}

	inst, err = db.RollFromBlueprint(bp, minA, maxA)
	if err != nil {
		return nil, err
	}

	err = s.locked(func() error {
		if err := m.inventory.Put(ctx, playerID, inst); err != nil {
			return pkgerrors.Wrap(err, "failed to store rolled item")
		}
		s.addItem(inst)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.ItemCreated("roll", inst.Rarity)
	m.publish(ctx, events.NewItemRolled(playerID, inst.ID, bp.ID, inst.Rarity.String(), inst.NotableID, m.now()))
	return inst.Clone(), nil
}

// Fuse consumes three owned items and adds the result to the inventory. The
// inputs leave every socket they occupied on any page. When any write fails
// the inventory and the session are put back to the pre-fusion state.
func (m *Manager) Fuse(ctx context.Context, playerID string, req FuseRequest) (result *item.Instance, err error) {
	ctx, done := m.begin(ctx, "fuse", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return nil, err
	}

	err = s.locked(func() error {
		var inputs [3]*item.Instance
		for i, id := range req.ItemIDs {
			inst, ok := s.Item(id)
			if !ok {
				return pkgerrors.NewNotFoundError(fmt.Sprintf("item %q", id)).WithCode(pkgerrors.CodeItemNotFound)
			}
			inputs[i] = inst
		}

		fused, err := m.fusion.Fuse(fusion.Request{Items: inputs, Locked: req.Locked, NotableChoice: req.NotableChoice})
		if err != nil {
			return err
		}

		if err := m.inventory.Put(ctx, playerID, fused); err != nil {
			return pkgerrors.Wrap(err, "failed to store fused item")
		}
		if err := m.inventory.Delete(ctx, playerID, req.ItemIDs[:]...); err != nil {
			m.undoFusion(ctx, playerID, inputs, fused.ID)
			return pkgerrors.Wrap(err, "failed to remove fused inputs")
		}

		restore := s.checkpoint()
		for _, id := range req.ItemIDs {
			s.removeItem(id)
		}
		s.addItem(fused)
		if err := m.commit(ctx, s, restore); err != nil {
			m.undoFusion(ctx, playerID, inputs, fused.ID)
			return err
		}
		result = fused
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.ItemCreated("fusion", result.Rarity)
	m.publish(ctx, events.NewItemsFused(playerID, result.ID, req.ItemIDs[:], result.Rarity.String(), m.now()))
	return result.Clone(), nil
}

// undoFusion restores the stored inventory after a fusion write failed part
// way: the inputs are written back and the result removed. Put keeps an
// existing item's position, so inputs that were never deleted stay in place.
func (m *Manager) undoFusion(ctx context.Context, playerID string, inputs [3]*item.Instance, resultID string) {
	ctx = context.WithoutCancel(ctx)
	for _, in := range inputs {
		if err := m.inventory.Put(ctx, playerID, in); err != nil {
			m.logger.Error("Failed to restore fusion input",
				zap.String("playerId", playerID),
				zap.String("itemId", in.ID),
				zap.Error(err),
			)
		}
	}
	if err := m.inventory.Delete(ctx, playerID, resultID); err != nil {
		m.logger.Error("Failed to remove fusion result",
			zap.String("playerId", playerID),
			zap.String("itemId", resultID),
			zap.Error(err),
		)
	}
}

// contributions collects the active page and returns its id from the same
// critical section.
func (m *Manager) contributions(ctx context.Context, playerID string) (pageID string, contribs []aggregate.Contribution, err error) {
	s, err := m.session(ctx, playerID)
	if err != nil {
		return "", nil, err
	}
	_, _, _, agg := m.catalog()

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.activePage()
	return p.ID, agg.Collect(s.board.Graph, p, s), nil
}

// CollectModifiers returns the ordered modifier list the active page grants.
func (m *Manager) CollectModifiers(ctx context.Context, playerID string) (mods []item.Modifier, err error) {
	ctx, done := m.begin(ctx, "collect_modifiers", playerID)
	defer done(&err)

	_, contribs, err := m.contributions(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return aggregate.Modifiers(contribs), nil
}

// Summary returns the modifiers of the active page with display totals and
// the coverage overlay.
func (m *Manager) Summary(ctx context.Context, playerID string) (*Summary, error) {
	pageID, contribs, err := m.contributions(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		PageID:        pageID,
		Modifiers:     aggregate.Modifiers(contribs),
		Contributions: contribs,
		Totals:        aggregate.Summarize(contribs),
		Coverage:      aggregate.Coverage(contribs),
	}, nil
}

// CreatePage adds an empty loadout page and returns it. It does not switch to it.
func (m *Manager) CreatePage(ctx context.Context, playerID, name string) (snap page.Snapshot, err error) {
	ctx, done := m.begin(ctx, "create_page", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return page.Snapshot{}, err
	}

	var evt events.DomainEvent
	err = s.locked(func() error {
		if m.opts.MaxPages > 0 && len(s.pages) >= m.opts.MaxPages {
			return pkgerrors.NewConflictError(fmt.Sprintf("a player can have at most %d pages", m.opts.MaxPages))
		}
		if name == "" {
			name = fmt.Sprintf("Page %d", len(s.pages)+1)
		}
		restore := s.checkpoint()
		p := page.New(uuid.NewString(), name, s.board.AnchorID)
		s.pages = append(s.pages, p)
		if err := m.commit(ctx, s, restore); err != nil {
			return err
		}
		snap = p.Snapshot()
		evt = events.NewPageCreated(playerID, p.ID, p.DisplayName, m.now())
		return nil
	})
	if err != nil {
		return page.Snapshot{}, err
	}
	m.publish(ctx, evt)
	return snap, nil
}

// SwitchPage makes the page at index active.
func (m *Manager) SwitchPage(ctx context.Context, playerID string, index int) (err error) {
	ctx, done := m.begin(ctx, "switch_page", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return err
	}

	var evt events.DomainEvent
	err = s.locked(func() error {
		if index < 0 || index >= len(s.pages) {
			return pkgerrors.NewNotFoundError(fmt.Sprintf("page %d", index)).WithCode(pkgerrors.CodePageNotFound)
		}
		if index == s.active {
			return nil
		}
		restore := s.checkpoint()
		s.active = index
		if err := m.commit(ctx, s, restore); err != nil {
			return err
		}
		evt = events.NewPageActivated(playerID, s.activePage().ID, index, m.now())
		return nil
	})
	if err != nil || evt == nil {
		return err
	}
	m.publish(ctx, evt)
	return nil
}

// GrantPoints adds skill points and returns the new balance.
func (m *Manager) GrantPoints(ctx context.Context, playerID string, n int) (total int, err error) {
	ctx, done := m.begin(ctx, "grant_points", playerID)
	defer done(&err)

	if n <= 0 {
		return 0, pkgerrors.NewValidationError("points to grant must be positive")
	}
	s, err := m.session(ctx, playerID)
	if err != nil {
		return 0, err
	}

	err = s.locked(func() error {
		defer func() { total = s.points }()
		restore := s.checkpoint()
		s.points += n
		return m.commit(ctx, s, restore)
	})
	if err != nil {
		return total, err
	}
	m.logger.Info("Skill points granted",
		zap.String("playerId", playerID),
		zap.Int("granted", n),
		zap.Int("total", total),
	)
	return total, nil
}

// Save writes the player's record now.
func (m *Manager) Save(ctx context.Context, playerID string) (err error) {
	ctx, done := m.begin(ctx, "save", playerID)
	defer done(&err)

	s, err := m.session(ctx, playerID)
	if err != nil {
		return err
	}
	return s.locked(func() error { return m.persist(ctx, s) })
}

// Inventory returns copies of the player's items in acquisition order.
func (m *Manager) Inventory(ctx context.Context, playerID string) ([]*item.Instance, error) {
	s, err := m.session(ctx, playerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventory(), nil
}
