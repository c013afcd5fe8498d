// Package fusion combines three owned items into a new one.
package fusion

import (
	"fmt"

	"warrantboard/domain/item"
	"warrantboard/domain/random"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reason tags why a fusion was refused.
type Reason string

const (
	ReasonMissingInput   Reason = "MISSING_INPUT"
	ReasonUniqueInput    Reason = "UNIQUE_INPUT"
	ReasonBlueprintInput Reason = "BLUEPRINT_INPUT"
	ReasonDuplicateInput Reason = "DUPLICATE_INPUT"
	ReasonInvalidLock    Reason = "INVALID_LOCK"
	ReasonTooManyLocks   Reason = "TOO_MANY_LOCKS"
	ReasonInvalidNotable Reason = "INVALID_NOTABLE"
)

// Error is the user-facing outcome of a refused fusion.
type Error struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("fusion rejected (%s): %s", e.Reason, e.Message)
}

func reject(reason Reason, format string, args ...interface{}) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// LockedModifier pins one modifier of one input to the result.
type LockedModifier struct {
	ItemIndex  int    `json:"itemIndex" validate:"min=0,max=2"`
	ModifierID string `json:"modifierId" validate:"required"`
}

// Request describes one fusion.
type Request struct {
	Items  [3]*item.Instance
	Locked []LockedModifier
	// NotableChoice selects one of the inputs' notables; empty means random.
	NotableChoice string
}

// CapFor is the number of regular modifiers a fused result may keep, keyed
// by the highest input rarity.
func CapFor(r item.Rarity) int {
	switch r {
	case item.RarityCommon:
		return 2
	case item.RarityMagic:
		return 4
	default:
		return 6
	}
}

// Engine performs fusions.
type Engine struct {
	rng    random.Source
	newID  func() string
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how result ids are minted.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// NewEngine creates a fusion engine drawing notable picks from rng.
func NewEngine(rng random.Source, logger *zap.Logger, opts ...Option) *Engine {
	if rng == nil {
		rng = random.New(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{rng: rng, newID: uuid.NewString, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fuse validates the request and builds the combined item. Inputs are never
// mutated; the caller decides what happens to them.
func (e *Engine) Fuse(req Request) (*item.Instance, error) {
	if err := validateInputs(req.Items); err != nil {
		return nil, err
	}

	highest := item.RarityCommon
	for _, in := range req.Items {
		if in.Rarity > highest {
			highest = in.Rarity
		}
	}
	limit := CapFor(highest)
	if len(req.Locked) > limit {
		return nil, reject(ReasonTooManyLocks, "at most %d modifiers can be locked, got %d", limit, len(req.Locked))
	}

	mods, err := mergeModifiers(req.Items, req.Locked, limit)
	if err != nil {
		return nil, err
	}

	source, err := e.pickNotable(req.Items, req.NotableChoice)
	if err != nil {
		return nil, err
	}

	first := req.Items[0]
	result := &item.Instance{
		ID:         e.newID(),
		BaseName:   first.BaseName,
		Rarity:     promote(highest),
		RangeDepth: first.RangeDepth,
		Modifiers:  mods,
	}
	if source != nil {
		result.NotableID = source.NotableID
		result.NotableName = source.NotableName
		result.Modifiers = append(result.Modifiers, source.NotableModifiers()...)
	}
	result.DisplayName = item.ComposeName(result.BaseName, result.NotableName)

	e.logger.Info("Items fused",
		zap.String("resultId", result.ID),
		zap.String("rarity", result.Rarity.String()),
		zap.Int("modifiers", len(mods)),
		zap.Int("locked", len(req.Locked)),
		zap.String("notableId", result.NotableID),
	)
	return result, nil
}

func validateInputs(items [3]*item.Instance) error {
	seen := make(map[string]int, len(items))
	for i, in := range items {
		if in == nil {
			return reject(ReasonMissingInput, "input %d is empty", i+1)
		}
		if in.Rarity == item.RarityUnique {
			return reject(ReasonUniqueInput, "%s is unique and cannot be fused", in.DisplayName)
		}
		if in.Blueprint {
			return reject(ReasonBlueprintInput, "%s is a blueprint and cannot be fused", in.DisplayName)
		}
		if in.ID != "" {
			if prev, ok := seen[in.ID]; ok {
				return reject(ReasonDuplicateInput, "inputs %d and %d are the same item", prev+1, i+1)
			}
			seen[in.ID] = i
		}
	}
	return nil
}

func promote(r item.Rarity) item.Rarity {
	if r >= item.RarityRare {
		return item.RarityRare
	}
	return r + 1
}

// mergeModifiers puts locked entries first, then every other regular modifier
// in input order, dropping repeated ids and truncating to limit.
func mergeModifiers(items [3]*item.Instance, locks []LockedModifier, limit int) ([]item.Modifier, error) {
	out := make([]item.Modifier, 0, limit)
	taken := make(map[string]struct{})

	for _, l := range locks {
		if l.ItemIndex < 0 || l.ItemIndex >= len(items) {
			return nil, reject(ReasonInvalidLock, "lock refers to input %d", l.ItemIndex+1)
		}
		m, ok := items[l.ItemIndex].Modifier(l.ModifierID)
		if !ok || m.Notable {
			return nil, reject(ReasonInvalidLock, "input %d has no lockable modifier %q", l.ItemIndex+1, l.ModifierID)
		}
		if _, dup := taken[m.ID]; dup {
			continue
		}
		taken[m.ID] = struct{}{}
		out = append(out, m)
	}

	for _, in := range items {
		for _, m := range in.RegularModifiers() {
			if len(out) >= limit {
				return out, nil
			}
			if _, dup := taken[m.ID]; dup {
				continue
			}
			taken[m.ID] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// pickNotable returns the input whose notable the result inherits.
func (e *Engine) pickNotable(items [3]*item.Instance, choice string) (*item.Instance, error) {
	var candidates []*item.Instance
	seen := make(map[string]struct{})
	for _, in := range items {
		if !in.HasNotable() {
			continue
		}
		if _, ok := seen[in.NotableID]; ok {
			continue
		}
		seen[in.NotableID] = struct{}{}
		candidates = append(candidates, in)
	}

	if choice != "" {
		for _, c := range candidates {
			if c.NotableID == choice {
				return c, nil
			}
		}
		return nil, reject(ReasonInvalidNotable, "no input carries notable %q", choice)
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	default:
		return candidates[e.rng.Intn(len(candidates))], nil
	}
}
