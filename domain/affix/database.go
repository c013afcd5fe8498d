package affix

import (
	"math"
	"sort"

	"warrantboard/domain/item"
	"warrantboard/domain/random"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Database rolls item instances from blueprints using the affix pool and the
// notable catalog.
type Database struct {
	pool       *Pool
	notables   *NotableCatalog
	blueprints map[string]item.Blueprint
	rng        random.Source
	newID      func() string
	logger     *zap.Logger
}

// Option configures a Database.
type Option func(*Database)

// WithIDGenerator replaces the uuid item id generator.
func WithIDGenerator(f func() string) Option {
	return func(d *Database) { d.newID = f }
}

// WithBlueprints registers the blueprints that can be rolled by id.
func WithBlueprints(bps ...item.Blueprint) Option {
	return func(d *Database) {
		for _, bp := range bps {
			d.blueprints[bp.ID] = bp
		}
	}
}

// NewDatabase wires a pool, an optional notable catalog and a random source.
func NewDatabase(pool *Pool, notables *NotableCatalog, rng random.Source, logger *zap.Logger, opts ...Option) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = random.New(0)
	}
	d := &Database{
		pool:       pool,
		notables:   notables,
		blueprints: make(map[string]item.Blueprint),
		rng:        rng,
		newID:      uuid.NewString,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pool exposes the regular affix pool.
func (d *Database) Pool() *Pool { return d.pool }

// Notables exposes the notable catalog; it may be nil.
func (d *Database) Notables() *NotableCatalog { return d.notables }

// Blueprint looks up a registered blueprint.
func (d *Database) Blueprint(id string) (item.Blueprint, bool) {
	bp, ok := d.blueprints[id]
	return bp, ok
}

// Blueprints lists registered blueprints sorted by id.
func (d *Database) Blueprints() []item.Blueprint {
	out := make([]item.Blueprint, 0, len(d.blueprints))
	for _, bp := range d.blueprints {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RollFromBlueprint creates a new item: one notable bundle, then between
// minAffixes and maxAffixes regular affixes drawn with replacement. It returns
// a nil item when neither a notable source nor regular affixes exist.
func (d *Database) RollFromBlueprint(bp item.Blueprint, minAffixes, maxAffixes int) (*item.Instance, error) {
	if minAffixes < 0 {
		minAffixes = 0
	}
	if maxAffixes < minAffixes {
		maxAffixes = minAffixes
	}

	inst := &item.Instance{
		ID:         d.newID(),
		BaseName:   bp.BaseName,
		RangeDepth: bp.RangeDepth,
	}

	d.rollNotable(inst)

	var regular []Entry
	if d.pool != nil {
		regular = d.pool.regular
	}
	if !inst.HasNotable() && len(regular) == 0 {
		d.logger.Warn("Cannot roll item from empty pools", zap.String("blueprint", bp.ID))
		return nil, pkgerrors.NewNotFoundError("rollable affixes").WithCode(pkgerrors.CodeEmptyPool)
	}

	count := uniformInt(d.rng, minAffixes, maxAffixes)
	if len(regular) == 0 && count > 0 {
		d.logger.Warn("Regular affix pool empty, item keeps only its notable", zap.String("blueprint", bp.ID))
		count = 0
	}

	rolled := 0
	for i := 0; i < count; i++ {
		entry, ok := PickWeighted(d.rng, regular, func(e Entry) float64 { return float64(e.Weight) })
		if !ok {
			break
		}
		inst.Modifiers = append(inst.Modifiers, d.rollEntry(entry, entry.SocketOnly, false))
		rolled++
	}

	inst.Rarity = item.RarityForAffixCount(inst.HasNotable(), rolled)
	inst.DisplayName = item.ComposeName(bp.BaseName, inst.NotableName)

	d.logger.Debug("Rolled item",
		zap.String("itemId", inst.ID),
		zap.String("blueprint", bp.ID),
		zap.String("rarity", inst.Rarity.String()),
		zap.Int("regularAffixes", rolled),
		zap.String("notableId", inst.NotableID),
	)
	return inst, nil
}

func (d *Database) rollNotable(inst *item.Instance) {
	if d.notables.Len() > 0 {
		n, _ := PickWeighted(d.rng, d.notables.entries, func(n Notable) float64 { return float64(n.Weight) })
		inst.NotableID = n.ID
		inst.NotableName = n.DisplayName
		inst.Modifiers = append(inst.Modifiers, withText(n.ItemModifiers())...)
		return
	}

	if d.pool == nil || len(d.pool.groups) == 0 {
		return
	}
	g, _ := PickWeighted(d.rng, d.pool.groups, Group.Weight)
	inst.NotableID = g.ID
	inst.NotableName = g.DisplayName()
	for _, member := range g.Members {
		inst.Modifiers = append(inst.Modifiers, d.rollEntry(member, true, true))
	}
}

func (d *Database) rollEntry(e Entry, socketOnly, notable bool) item.Modifier {
	lo := int(math.Round(e.MinRoll))
	hi := int(math.Round(e.MaxRoll))
	if hi < lo {
		lo, hi = hi, lo
	}
	v := uniformInt(d.rng, lo, hi)
	return item.Modifier{
		ID:            e.StatKey,
		DisplayName:   e.DisplayName,
		Operation:     e.Operation(),
		Value:         float64(v),
		SocketOnly:    socketOnly,
		Notable:       notable,
		StatKey:       e.StatKey,
		SourceAffixID: e.ID,
		Text:          item.FormatMagnitude(v, e.Flat),
	}
}

func withText(mods []item.Modifier) []item.Modifier {
	for i := range mods {
		mods[i].Text = item.FormatMagnitude(int(math.Round(mods[i].Value)), mods[i].Operation == item.OpAdditive)
	}
	return mods
}
