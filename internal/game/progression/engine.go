// Package progression implements the player state machine: level, exp,
// skill points, slots and skill activation, each mutation wrapped in the
// cancellable policy pipeline of Hooks.
package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/model"
)

var (
	// ErrNoFreeSlot is returned when activation needs more free slots than the player has.
	ErrNoFreeSlot = errors.New("no free skill slot")
	// ErrNotActivatable is returned when a skill's status does not permit activation.
	ErrNotActivatable = errors.New("skill cannot be activated")
	// ErrNotOwned is returned for skills the player does not own.
	ErrNotOwned = errors.New("skill not owned")
)

// Leveler is the part of the leveling engine the state machine needs.
type Leveler interface {
	LevelForExp(totalExp int64) int
	ClampExp(level int, exp int64) int64
	ClearCache(playerID uuid.UUID) map[int]int64
}

// Store is the repository collaborator for the player aggregate.
type Store interface {
	// Load returns nil, nil if the player does not exist.
	Load(ctx context.Context, id uuid.UUID) (*model.Player, error)
	Insert(ctx context.Context, p *model.Player) error
	Save(ctx context.Context, p *model.Player) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByTemplate returns every player holding a record of the template.
	FindByTemplate(ctx context.Context, templateID uuid.UUID) ([]*model.Player, error)
}

// ExpRecord is one committed exp change.
type ExpRecord struct {
	PlayerID uuid.UUID
	OldExp   int64
	NewExp   int64
	OldLevel int
	NewLevel int
	Reason   string
	At       time.Time
}

// ExpRecorder keeps the history of exp changes.
type ExpRecorder interface {
	RecordExp(ctx context.Context, rec ExpRecord) error
}

// Engine applies invariant-preserving mutations to player aggregates.
//
// Set* methods persist the aggregate after a committed change. Apply* methods
// only mutate memory; the caller saves once when done.
type Engine struct {
	levels  Leveler
	store   Store
	hooks   *Hooks
	history ExpRecorder
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistory records every committed exp change.
func WithHistory(r ExpRecorder) Option {
	return func(e *Engine) { e.history = r }
}

// New creates an engine. hooks may be nil.
func New(levels Leveler, store Store, hooks *Hooks, opts ...Option) *Engine {
	if hooks == nil {
		hooks = NewHooks()
	}
	e := &Engine{levels: levels, store: store, hooks: hooks, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hooks returns the engine's pipeline for registering policies and listeners.
func (e *Engine) Hooks() *Hooks { return e.hooks }

// Save persists the aggregate.
func (e *Engine) Save(ctx context.Context, p *model.Player) error {
	if err := e.store.Save(ctx, p); err != nil {
		return fmt.Errorf("saving player %s: %w", p.ID(), err)
	}
	return nil
}

func (e *Engine) saveIf(ctx context.Context, p *model.Player, changed bool) (bool, error) {
	if !changed {
		return false, nil
	}
	if err := e.Save(ctx, p); err != nil {
		return true, err
	}
	return true, nil
}

// --- Players ---

// GetOrCreate loads the player or inserts a new level 1 record.
func (e *Engine) GetOrCreate(ctx context.Context, id uuid.UUID, name string) (*model.Player, error) {
	p, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading player %s: %w", id, err)
	}
	if p != nil {
		if name != "" && p.Name() != name {
			p.SetName(name)
			if err := e.Save(ctx, p); err != nil {
				return nil, err
			}
		}
		return p, nil
	}

	p, err = model.NewPlayer(id, name)
	if err != nil {
		return nil, err
	}
	if err := e.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("inserting player %s: %w", id, err)
	}
	slog.Info("created skilled player", "player", name, "id", id)
	return p, nil
}

// DeletePlayer removes the player with all skills and slots.
func (e *Engine) DeletePlayer(ctx context.Context, p *model.Player) error {
	e.levels.ClearCache(p.ID())
	e.ResetSkillSlots(ctx, p)
	p.ClearAll()
	if err := e.store.Delete(ctx, p.ID()); err != nil {
		return fmt.Errorf("deleting player %s: %w", p.ID(), err)
	}
	slog.Info("deleted skilled player", "player", p.Name(), "id", p.ID())
	return nil
}

// --- Level & exp ---

// SetLevel changes the player's level. Returns false if the level already
// matches or a policy cancelled the change.
func (e *Engine) SetLevel(ctx context.Context, p *model.Player, level int) (bool, error) {
	return e.saveIf(ctx, p, e.ApplyLevel(ctx, p, level))
}

// AddLevel adds (or with a negative value removes) levels.
func (e *Engine) AddLevel(ctx context.Context, p *model.Player, levels int) (bool, error) {
	return e.SetLevel(ctx, p, p.CurrentLevel()+levels)
}

// ApplyLevel is SetLevel without persisting.
func (e *Engine) ApplyLevel(ctx context.Context, p *model.Player, level int) bool {
	if p.CurrentLevel() == level {
		return false
	}

	ev := LevelChange{Player: p, OldLevel: p.CurrentLevel(), NewLevel: level, Exp: p.TotalExp()}
	if !decide(ctx, e.hooks.beforeLevel, &ev) {
		slog.Debug("level change cancelled", "player", p.Name(), "from", ev.OldLevel, "to", level)
		return false
	}

	newLevel := max(ev.NewLevel, 1)
	p.SetLevelRecord(newLevel, e.levels.ClampExp(newLevel, ev.Exp))

	notify(ctx, e.hooks.afterLevel, LevelChanged{
		Player:   p,
		OldLevel: ev.OldLevel,
		NewLevel: newLevel,
		Exp:      p.TotalExp(),
	})
	return true
}

// SetExp sets the player's total exp and moves the level along with it.
func (e *Engine) SetExp(ctx context.Context, p *model.Player, exp int64, reason string) (bool, error) {
	return e.saveIf(ctx, p, e.ApplyExp(ctx, p, exp, reason))
}

// AddExp adds exp to the player's total.
func (e *Engine) AddExp(ctx context.Context, p *model.Player, exp int64, reason string) (bool, error) {
	return e.SetExp(ctx, p, p.TotalExp()+exp, reason)
}

// ApplyExp is SetExp without persisting.
func (e *Engine) ApplyExp(ctx context.Context, p *model.Player, exp int64, reason string) bool {
	if p.TotalExp() == exp {
		return false
	}

	oldExp, oldLevel := p.TotalExp(), p.CurrentLevel()
	proposed := e.levels.LevelForExp(exp)
	ev := ExpChange{
		Player: p,
		OldExp: oldExp,
		NewExp: exp,
		Level:  proposed,
		Reason: reason,
	}
	if !decide(ctx, e.hooks.beforeExp, &ev) {
		slog.Debug("exp change cancelled", "player", p.Name(), "from", oldExp, "to", exp, "reason", reason)
		return false
	}
	// An explicit level override wins; otherwise the level follows the final exp.
	if ev.Level == proposed && ev.NewExp != exp {
		ev.Level = e.levels.LevelForExp(ev.NewExp)
	}

	p.SetLevelRecord(oldLevel, ev.NewExp)
	if ev.Level != p.CurrentLevel() {
		e.ApplyLevel(ctx, p, ev.Level)
	}

	if e.history != nil {
		rec := ExpRecord{
			PlayerID: p.ID(),
			OldExp:   oldExp,
			NewExp:   p.TotalExp(),
			OldLevel: oldLevel,
			NewLevel: p.CurrentLevel(),
			Reason:   reason,
			At:       e.now(),
		}
		if err := e.history.RecordExp(ctx, rec); err != nil {
			slog.Warn("recording exp history", "player", p.Name(), "err", err)
		}
	}
	return true
}

// --- Skill points ---

// SetSkillPoints sets the unspent skill points. Negative values are clamped
// to zero after the policies ran.
func (e *Engine) SetSkillPoints(ctx context.Context, p *model.Player, points int) (bool, error) {
	return e.saveIf(ctx, p, e.ApplySkillPoints(ctx, p, points))
}

// AddSkillPoints adds skill points.
func (e *Engine) AddSkillPoints(ctx context.Context, p *model.Player, points int) (bool, error) {
	return e.SetSkillPoints(ctx, p, p.SkillPoints()+points)
}

// RemoveSkillPoints subtracts skill points.
func (e *Engine) RemoveSkillPoints(ctx context.Context, p *model.Player, points int) (bool, error) {
	return e.SetSkillPoints(ctx, p, p.SkillPoints()-points)
}

// ApplySkillPoints is SetSkillPoints without persisting.
func (e *Engine) ApplySkillPoints(ctx context.Context, p *model.Player, points int) bool {
	if p.SkillPoints() == points {
		return false
	}

	ev := SkillPointsChange{Player: p, Old: p.SkillPoints(), New: points}
	if !decide(ctx, e.hooks.beforeSkillPoints, &ev) {
		slog.Debug("skill point change cancelled", "player", p.Name(), "from", ev.Old, "to", points)
		return false
	}

	p.SetSkillPointsRecord(ev.New)
	return p.SkillPoints() != ev.Old
}

// --- Slots ---

// SetSkillSlots grows or shrinks the slot list to count records. New slots
// get status; shrinking removes free slots first.
func (e *Engine) SetSkillSlots(ctx context.Context, p *model.Player, count int, status model.SlotStatus) (bool, error) {
	return e.saveIf(ctx, p, e.ApplySkillSlots(ctx, p, count, status))
}

// AddSkillSlots adds n slots with the given status.
func (e *Engine) AddSkillSlots(ctx context.Context, p *model.Player, n int, status model.SlotStatus) (bool, error) {
	return e.SetSkillSlots(ctx, p, p.TotalSlots()+n, status)
}

// ApplySkillSlots is SetSkillSlots without persisting.
func (e *Engine) ApplySkillSlots(ctx context.Context, p *model.Player, count int, status model.SlotStatus) bool {
	current := p.TotalSlots()
	if current == count {
		return false
	}

	ev := SlotsChange{Player: p, Old: current, New: count}
	if !decide(ctx, e.hooks.beforeSlots, &ev) {
		slog.Debug("slot change cancelled", "player", p.Name(), "from", current, "to", count)
		return false
	}

	target := max(ev.New, 0)
	if target == current {
		return false
	}

	if target < current {
		for range current - target {
			removed, ok := p.RemoveSlot()
			if !ok {
				break
			}
			if removed.InUse() {
				e.deactivateOccupant(ctx, p, removed.SkillID)
			}
		}
	} else {
		p.AddSlots(target-current, status)
	}

	notify(ctx, e.hooks.afterSlots, SlotsChanged{Player: p, Old: ev.Old, New: target})
	return true
}

// deactivateOccupant deactivates the skill that occupied a removed slot.
func (e *Engine) deactivateOccupant(ctx context.Context, p *model.Player, skillID uuid.UUID) {
	for _, s := range p.Skills() {
		if s.ID == skillID {
			e.deactivate(ctx, p, s)
			return
		}
	}
}

// --- Skills ---

// CanBuy reports whether the player does not own the skill yet and meets
// all of its unlock and cost requirements.
func (e *Engine) CanBuy(ctx context.Context, p *model.Player, t *model.SkillTemplate) bool {
	return !p.HasSkill(t.Alias) && t.Test(ctx, p).Success()
}

// CanActivate reports whether the player owns the skill and its status
// permits activation.
func (e *Engine) CanActivate(p *model.Player, t *model.SkillTemplate) bool {
	s, ok := p.Skill(t.Alias)
	return ok && s.Unlocked() && s.CanActivate()
}

// ActivateSkill activates an owned skill, occupying the slots it needs.
func (e *Engine) ActivateSkill(ctx context.Context, p *model.Player, t *model.SkillTemplate) error {
	s, ok := p.Skill(t.Alias)
	if !ok || !s.Unlocked() {
		return fmt.Errorf("%w: %s", ErrNotOwned, t.Alias)
	}
	if err := e.ApplyActivate(ctx, p, s); err != nil {
		return err
	}
	return e.Save(ctx, p)
}

// ApplyActivate activates the record without persisting.
func (e *Engine) ApplyActivate(ctx context.Context, p *model.Player, s *model.PlayerSkill) error {
	if !s.CanActivate() {
		return fmt.Errorf("%w: %s is %s", ErrNotActivatable, s.Alias(), s.Status)
	}
	need := s.Template.SlotsRequired()
	if p.FreeSkillSlots() < need {
		return fmt.Errorf("%w: %s needs %d, %d free", ErrNoFreeSlot, s.Alias(), need, p.FreeSkillSlots())
	}

	for range need {
		slot, _ := p.FreeSkillSlot()
		if err := slot.Occupy(s); err != nil {
			return err
		}
	}
	if err := s.Activate(); err != nil {
		return err
	}

	e.applyEffect(ctx, p, s)
	notify(ctx, e.hooks.afterSkills, SkillsChanged{Player: p, Skill: s})
	return nil
}

// DeactivateSkill deactivates an active skill and frees its slots.
func (e *Engine) DeactivateSkill(ctx context.Context, p *model.Player, t *model.SkillTemplate) (bool, error) {
	s, ok := p.Skill(t.Alias)
	if !ok {
		return false, nil
	}
	return e.saveIf(ctx, p, e.deactivate(ctx, p, s))
}

func (e *Engine) deactivate(ctx context.Context, p *model.Player, s *model.PlayerSkill) bool {
	for _, slot := range p.SlotsOf(s.ID) {
		slot.Release()
	}
	if !s.Deactivate() {
		return false
	}
	e.removeEffect(ctx, p, s)
	notify(ctx, e.hooks.afterSkills, SkillsChanged{Player: p, Skill: s})
	return true
}

// ResetSkillSlots deactivates the occupant of every slot in use and every
// active slot-consuming skill. Slots stay, only their occupants are cleared.
// Does not persist.
func (e *Engine) ResetSkillSlots(ctx context.Context, p *model.Player) []*model.PlayerSkill {
	seen := make(map[uuid.UUID]bool)
	var occupants []*model.PlayerSkill

	byID := make(map[uuid.UUID]*model.PlayerSkill)
	for _, s := range p.Skills() {
		byID[s.ID] = s
	}
	for _, slot := range p.SkillSlots() {
		if !slot.InUse() {
			continue
		}
		if s, ok := byID[slot.SkillID]; ok && !seen[s.ID] {
			seen[s.ID] = true
			occupants = append(occupants, s)
		}
		slot.Release()
	}
	for _, s := range p.ActiveSkills() {
		if s.Template.ConsumesSlot() && !seen[s.ID] {
			seen[s.ID] = true
			occupants = append(occupants, s)
		}
	}

	var reset []*model.PlayerSkill
	for _, s := range occupants {
		if e.deactivate(ctx, p, s) {
			reset = append(reset, s)
		}
	}
	return reset
}

// RemoveSkill deactivates the skill and marks its record removed.
func (e *Engine) RemoveSkill(ctx context.Context, p *model.Player, t *model.SkillTemplate) (bool, error) {
	s, ok := p.Skill(t.Alias)
	if !ok || !s.Unlocked() {
		return false, nil
	}
	e.deactivate(ctx, p, s)
	s.Remove()
	return e.saveIf(ctx, p, true)
}

// SetTemplateEnabled toggles a template and cascades the change to every
// player skill referencing it: disabling suspends them, enabling restores
// their prior status.
func (e *Engine) SetTemplateEnabled(ctx context.Context, t *model.SkillTemplate, enabled bool) error {
	if t.Enabled == enabled {
		return nil
	}
	t.Enabled = enabled

	players, err := e.store.FindByTemplate(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("finding players of skill %s: %w", t.Alias, err)
	}

	var errs []error
	for _, p := range players {
		s, ok := p.Skill(t.Alias)
		if !ok {
			continue
		}
		var changed bool
		if enabled {
			changed = e.enable(ctx, p, s)
		} else {
			changed = e.disable(ctx, p, s)
		}
		if !changed {
			continue
		}
		if err := e.Save(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}

	slog.Info("skill template toggled", "skill", t.Alias, "enabled", enabled, "players", len(players))
	return errors.Join(errs...)
}

func (e *Engine) disable(ctx context.Context, p *model.Player, s *model.PlayerSkill) bool {
	wasActive := s.Active()
	if !s.Disable() {
		return false
	}
	if wasActive {
		for _, slot := range p.SlotsOf(s.ID) {
			slot.Release()
		}
		e.removeEffect(ctx, p, s)
		notify(ctx, e.hooks.afterSkills, SkillsChanged{Player: p, Skill: s})
	}
	return true
}

func (e *Engine) enable(ctx context.Context, p *model.Player, s *model.PlayerSkill) bool {
	if !s.Enable() {
		return false
	}
	if s.Status != model.SkillActive {
		return true
	}

	// the slots were given up while disabled
	s.Status = model.SkillInactive
	if err := e.ApplyActivate(ctx, p, s); err != nil {
		slog.Info("re-enabled skill stays inactive", "player", p.Name(), "skill", s.Alias(), "reason", err)
	}
	return true
}

func (e *Engine) applyEffect(ctx context.Context, p *model.Player, s *model.PlayerSkill) {
	if s.Template.Effect == nil {
		return
	}
	if err := s.Template.Effect.Apply(ctx, p); err != nil {
		slog.Error("applying skill effect", "player", p.Name(), "skill", s.Alias(), "err", err)
	}
}

func (e *Engine) removeEffect(ctx context.Context, p *model.Player, s *model.PlayerSkill) {
	if s.Template.Effect == nil {
		return
	}
	if err := s.Template.Effect.Remove(ctx, p); err != nil {
		slog.Error("removing skill effect", "player", p.Name(), "skill", s.Alias(), "err", err)
	}
}
