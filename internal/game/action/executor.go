// Package action implements player-triggered, check-then-commit operations
// over the progression engine: adding, buying and resetting skills.
package action

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/game/progression"
	"github.com/udisondev/rcskills/internal/game/requirement"
	"github.com/udisondev/rcskills/internal/model"
)

// Bindings is told when a player's active skills changed so that
// skill bindings can be refreshed.
type Bindings interface {
	UpdateBindings(ctx context.Context, playerID uuid.UUID)
}

// Executor creates actions bound to its collaborators.
type Executor struct {
	engine       *progression.Engine
	wallet       requirement.Wallet
	pricing      *progression.SlotPricing
	bindings     Bindings
	autoActivate bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithBindings sets the binding refresh collaborator.
func WithBindings(b Bindings) Option {
	return func(x *Executor) { x.bindings = b }
}

// WithAutoActivate controls whether skills that consume no slot are
// activated right after unlocking. Enabled by default.
func WithAutoActivate(enabled bool) Option {
	return func(x *Executor) { x.autoActivate = enabled }
}

// NewExecutor creates an executor. wallet and pricing may be nil; money
// costs then fail and slot resets are free.
func NewExecutor(engine *progression.Engine, wallet requirement.Wallet, pricing *progression.SlotPricing, opts ...Option) *Executor {
	x := &Executor{
		engine:       engine,
		wallet:       wallet,
		pricing:      pricing,
		autoActivate: true,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// AddSkill returns an action that unlocks the skill without charging for it.
func (x *Executor) AddSkill(p *model.Player, t *model.SkillTemplate) *AddSkillAction {
	return &AddSkillAction{x: x, player: p, skill: t}
}

// BuySkill returns an action that charges the skill's costs and unlocks it.
func (x *Executor) BuySkill(p *model.Player, t *model.SkillTemplate) *BuySkillAction {
	return &BuySkillAction{x: x, player: p, skill: t}
}

// ResetSlots returns an action that clears the occupants of all slots.
func (x *Executor) ResetSlots(p *model.Player) *ResetSlotsAction {
	return &ResetSlotsAction{x: x, player: p}
}

// checkAcquirable fails for owned skills and for removed records.
func checkAcquirable(p *model.Player, t *model.SkillTemplate) (Result, bool) {
	s, ok := p.Skill(t.Alias)
	switch {
	case !ok:
		return success(), true
	case s.Status == model.SkillRemoved:
		return failure("%s was removed and cannot be acquired again.", t.Name), false
	case s.Unlocked():
		return failure("You already own the skill %s.", t.Name), false
	}
	return success(), true
}

// checkSlots fails if the skill needs more free slots than the player has.
func checkSlots(p *model.Player, t *model.SkillTemplate) (Result, bool) {
	if !t.ConsumesSlot() || p.FreeSkillSlots() >= t.SlotsRequired() {
		return success(), true
	}
	return failure("%s needs %d free skill slot(s), you have %d.",
		t.Name, t.SlotsRequired(), p.FreeSkillSlots()), false
}

// unlock owns the skill and activates it when a slot is available.
// Does not persist.
func (x *Executor) unlock(ctx context.Context, p *model.Player, t *model.SkillTemplate) *model.PlayerSkill {
	s := p.EnsureSkill(t)
	s.Unlock()

	if !s.CanActivate() {
		return s
	}
	if !t.ConsumesSlot() && !x.autoActivate {
		return s
	}
	if p.FreeSkillSlots() < t.SlotsRequired() {
		return s
	}
	if err := x.engine.ApplyActivate(ctx, p, s); err != nil {
		slog.Warn("activating unlocked skill", "player", p.Name(), "skill", t.Alias, "err", err)
	}
	return s
}

// commit persists the player and refreshes bindings.
func (x *Executor) commit(ctx context.Context, p *model.Player) error {
	if err := x.engine.Save(ctx, p); err != nil {
		return err
	}
	if x.bindings != nil {
		x.bindings.UpdateBindings(ctx, p.ID())
	}
	return nil
}
