package affix

import (
	"go.uber.org/zap"
)

// DefaultPercentStats is the curated allow-list of percentage stat keys.
var DefaultPercentStats = []string{
	"increased_damage",
	"attack_speed",
	"cast_speed",
	"critical_chance",
	"critical_multiplier",
	"movement_speed",
	"life_regeneration",
	"elemental_resistance",
	"armour_increase",
	"evasion_increase",
	"cooldown_recovery",
	"area_of_effect",
}

// Group is a notable bundle in the legacy affix pool: every entry sharing a
// group id is granted together.
type Group struct {
	ID      string
	Members []Entry
}

// Weight of a group is the weight of its first member.
func (g Group) Weight() float64 {
	if len(g.Members) == 0 {
		return 0
	}
	return float64(g.Members[0].Weight)
}

// DisplayName of a group is the display name of its first member.
func (g Group) DisplayName() string {
	if len(g.Members) == 0 {
		return g.ID
	}
	return g.Members[0].DisplayName
}

// Pool is the validated, rollable view over a set of catalog entries.
type Pool struct {
	regular []Entry
	groups  []Group
	allowed map[string]struct{}
	logger  *zap.Logger
}

// NewPool validates entries against the percentage allow-list. A nil
// allowList means DefaultPercentStats. Invalid regular entries are dropped
// with a warning; unique entries are never rolled from a pool.
func NewPool(entries []Entry, allowList []string, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if allowList == nil {
		allowList = DefaultPercentStats
	}
	p := &Pool{
		allowed: make(map[string]struct{}, len(allowList)),
		logger:  logger,
	}
	for _, key := range allowList {
		p.allowed[key] = struct{}{}
	}

	groupIndex := make(map[string]int)
	for _, e := range entries {
		if e.MaxRoll < e.MinRoll {
			logger.Warn("Swapping inverted affix roll range", zap.String("affixId", e.ID))
			e.MinRoll, e.MaxRoll = e.MaxRoll, e.MinRoll
		}

		switch e.Kind {
		case KindRegular:
			if !p.Allowed(e) {
				logger.Warn("Excluding affix with unsupported percentage stat",
					zap.String("affixId", e.ID),
					zap.String("statKey", e.StatKey),
				)
				continue
			}
			p.regular = append(p.regular, e)
		case KindNotable:
			gid := e.GroupID
			if gid == "" {
				gid = e.ID
			}
			idx, ok := groupIndex[gid]
			if !ok {
				idx = len(p.groups)
				groupIndex[gid] = idx
				p.groups = append(p.groups, Group{ID: gid})
			}
			p.groups[idx].Members = append(p.groups[idx].Members, e)
		case KindUnique:
			logger.Debug("Unique affix kept out of roll pools", zap.String("affixId", e.ID))
		}
	}
	return p
}

// Allowed reports whether a regular entry may be rolled: flat stats always,
// percentage stats only when allow-listed.
func (p *Pool) Allowed(e Entry) bool {
	if e.Flat {
		return true
	}
	_, ok := p.allowed[e.StatKey]
	return ok
}

// Regular returns the rollable regular entries.
func (p *Pool) Regular() []Entry {
	out := make([]Entry, len(p.regular))
	copy(out, p.regular)
	return out
}

// Groups returns the legacy notable groups in first-seen order.
func (p *Pool) Groups() []Group {
	out := make([]Group, len(p.groups))
	copy(out, p.groups)
	return out
}

// Empty reports whether the pool has nothing to roll.
func (p *Pool) Empty() bool {
	return p == nil || (len(p.regular) == 0 && len(p.groups) == 0)
}

// RegularByTag narrows the regular pool to entries carrying tag.
func (p *Pool) RegularByTag(tag string) []Entry {
	var out []Entry
	for _, e := range p.regular {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}
