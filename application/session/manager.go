package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"warrantboard/application/ports"
	"warrantboard/domain/affix"
	"warrantboard/domain/aggregate"
	"warrantboard/domain/builder"
	"warrantboard/domain/events"
	"warrantboard/domain/fusion"
	"warrantboard/domain/item"
	"warrantboard/domain/layout"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options are the gameplay knobs of a Manager.
type Options struct {
	StartingPoints int
	Unlimited      bool
	MaxPages       int
	MinAffixes     int
	MaxAffixes     int
}

// DefaultOptions matches the stock blueprints.
func DefaultOptions() Options {
	return Options{StartingPoints: 20, MaxPages: 5, MinAffixes: 1, MaxAffixes: 3}
}

// Catalog is the authored content a Manager plays with.
type Catalog struct {
	Definition *layout.Definition
	Database   *affix.Database
}

// Manager serves every player. It owns the session map, the current board
// definition and item catalog, and the infrastructure ports.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	catalogMu  sync.RWMutex
	definition *layout.Definition
	version    int
	database   *affix.Database
	aggregator *aggregate.Aggregator

	saves     ports.SaveRepository
	inventory ports.InventoryRepository
	publisher ports.EventPublisher
	cache     ports.BoardCache
	metrics   ports.Metrics
	fusion    *fusion.Engine

	opts   Options
	now    func() time.Time
	tracer trace.Tracer
	logger *zap.Logger
}

// NewManager creates a manager. publisher, cache and metrics may be nil.
func NewManager(
	catalog Catalog,
	saves ports.SaveRepository,
	inventory ports.InventoryRepository,
	publisher ports.EventPublisher,
	cache ports.BoardCache,
	metrics ports.Metrics,
	engine *fusion.Engine,
	opts Options,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if engine == nil {
		engine = fusion.NewEngine(nil, logger)
	}
	if opts.MaxAffixes < opts.MinAffixes {
		opts.MaxAffixes = opts.MinAffixes
	}
	m := &Manager{
		sessions:  make(map[string]*Session),
		saves:     saves,
		inventory: inventory,
		publisher: publisher,
		cache:     cache,
		metrics:   metrics,
		fusion:    engine,
		opts:      opts,
		now:       time.Now,
		tracer:    otel.Tracer("warrantboard/session"),
		logger:    logger,
	}
	m.ReloadDefinition(catalog.Definition)
	m.ReloadCatalog(catalog.Database)
	return m
}

// ReloadDefinition swaps the board definition. Loaded sessions keep their
// graph until BuildGraph is called for them.
func (m *Manager) ReloadDefinition(def *layout.Definition) {
	if def == nil {
		def = &layout.Definition{Name: "empty"}
	}
	m.catalogMu.Lock()
	m.definition = def
	m.version++
	m.catalogMu.Unlock()
	if m.cache != nil {
		m.cache.Purge()
	}
	m.logger.Info("Board definition loaded",
		zap.String("definition", def.Name),
		zap.Int("nodes", len(def.Nodes)),
		zap.Int("edges", len(def.Edges)),
	)
}

// ReloadCatalog swaps the affix database used for rolls and notable lookups.
func (m *Manager) ReloadCatalog(db *affix.Database) {
	if db == nil {
		db = affix.NewDatabase(nil, nil, nil, m.logger)
	}
	m.catalogMu.Lock()
	m.database = db
	m.aggregator = aggregate.New(db.Notables(), m.logger)
	m.catalogMu.Unlock()
	m.logger.Info("Affix catalog loaded",
		zap.Int("notables", db.Notables().Len()),
		zap.Int("blueprints", len(db.Blueprints())),
	)
}

// Database returns the current affix database.
func (m *Manager) Database() *affix.Database {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()
	return m.database
}

func (m *Manager) catalog() (*layout.Definition, string, *affix.Database, *aggregate.Aggregator) {
	m.catalogMu.RLock()
	defer m.catalogMu.RUnlock()
	return m.definition, fmt.Sprintf("%s#%d", m.definition.Name, m.version), m.database, m.aggregator
}

// begin opens a span and returns the function that closes it and records the
// operation metric.
func (m *Manager) begin(ctx context.Context, op, playerID string) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "session."+op, trace.WithAttributes(attribute.String("player.id", playerID)))
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		m.metrics.ObserveOperation(op, err, time.Since(start))
	}
}

func (m *Manager) build(def *layout.Definition) *ports.BuiltBoard {
	b := builder.New(m.logger)
	g := b.Build(def)
	anchor, ok := g.AnchorID()
	if !ok {
		anchor = layout.AnchorID
	}
	return &ports.BuiltBoard{
		Definition: def.Name,
		AnchorID:   anchor,
		Graph:      g,
		Visuals:    b.Visuals(),
		Edges:      g.Edges(),
	}
}

// currentBoard returns the built board for the current definition, building
// it on a cache miss. Built graphs are read-only and shared between players.
func (m *Manager) currentBoard() *ports.BuiltBoard {
	def, key, _, _ := m.catalog()
	if m.cache != nil {
		if b, ok := m.cache.Get(key); ok {
			m.metrics.BoardCacheLookup(true)
			return b
		}
		m.metrics.BoardCacheLookup(false)
	}
	b := m.build(def)
	if m.cache != nil {
		m.cache.Add(key, b)
	}
	return b
}

// session returns the loaded session, loading or creating it on first use.
func (m *Manager) session(ctx context.Context, playerID string) (*Session, error) {
	if playerID == "" {
		return nil, pkgerrors.NewValidationError("player id is required")
	}
	m.mu.RLock()
	s, ok := m.sessions[playerID]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := m.load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[playerID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[playerID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	return s, nil
}

func (m *Manager) load(ctx context.Context, playerID string) (*Session, error) {
	b := m.currentBoard()
	s := newSession(playerID, b)

	rec, err := m.saves.Load(ctx, playerID)
	switch {
	case pkgerrors.IsNotFound(err):
		s.pages = []*page.Page{page.New(uuid.NewString(), "Page 1", b.AnchorID)}
		s.points = m.opts.StartingPoints
		m.logger.Info("Created new player record", zap.String("playerId", playerID))
	case err != nil:
		return nil, pkgerrors.Wrap(err, "failed to load player record")
	default:
		s.pages, s.active = rec.Restore(b.AnchorID)
		s.points = rec.SkillPoints
		if len(s.pages) == 0 {
			s.pages = []*page.Page{page.New(uuid.NewString(), "Page 1", b.AnchorID)}
			s.active = 0
		}
	}

	items, err := m.inventory.List(ctx, playerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load inventory")
	}
	for _, inst := range items {
		s.addItem(inst)
	}

	m.logger.Debug("Session loaded",
		zap.String("playerId", playerID),
		zap.Int("pages", len(s.pages)),
		zap.Int("items", len(items)),
	)
	return s, nil
}

// Evict drops a loaded session; the next call reloads it from storage.
func (m *Manager) Evict(playerID string) {
	m.mu.Lock()
	delete(m.sessions, playerID)
	n := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(n)
}

func (m *Manager) persist(ctx context.Context, s *Session) error {
	if err := m.saves.Store(ctx, s.playerID, s.record()); err != nil {
		m.logger.Error("Failed to persist player record",
			zap.String("playerId", s.playerID),
			zap.Error(err),
		)
		return pkgerrors.Wrap(err, "failed to save player record")
	}
	return nil
}

// commit persists s. When the write fails the state captured by restore is
// put back, so memory never runs ahead of storage.
func (m *Manager) commit(ctx context.Context, s *Session, restore func()) error {
	if err := m.persist(ctx, s); err != nil {
		restore()
		return err
	}
	return nil
}

// publish sends notifications. Failures are logged and never fail the
// operation that raised them.
func (m *Manager) publish(ctx context.Context, evts ...events.DomainEvent) {
	if m.publisher == nil || len(evts) == 0 {
		return
	}
	var err error
	if len(evts) == 1 {
		err = m.publisher.Publish(ctx, evts[0])
	} else {
		err = m.publisher.PublishBatch(ctx, evts)
	}
	if err != nil {
		m.logger.Warn("Failed to publish domain events",
			zap.Int("count", len(evts)),
			zap.String("type", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, error, time.Duration) {}
func (nopMetrics) ItemCreated(string, item.Rarity)               {}
func (nopMetrics) BoardCacheLookup(bool)                         {}
func (nopMetrics) SetActiveSessions(int)                         {}
