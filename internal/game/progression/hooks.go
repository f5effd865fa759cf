package progression

import (
	"context"

	"github.com/udisondev/rcskills/internal/model"
)

// Decision is what a policy decides about a proposed mutation.
type Decision int

const (
	Proceed Decision = iota
	Cancel
)

// Policy runs before a mutation commits. It may rewrite the proposed values
// carried by the event and may cancel the mutation.
type Policy[E any] func(ctx context.Context, e *E) Decision

// Listener is notified after a mutation committed. It cannot cancel.
type Listener[E any] func(ctx context.Context, e E)

// LevelChange is proposed before a player's level changes.
// NewLevel and Exp may be adjusted by policies.
type LevelChange struct {
	Player   *model.Player
	OldLevel int
	NewLevel int
	Exp      int64
}

// LevelChanged is sent after a level change committed.
type LevelChanged struct {
	Player   *model.Player
	OldLevel int
	NewLevel int
	Exp      int64
}

// ExpChange is proposed before a player's exp changes.
// Level is the level the new exp maps to; NewExp and Level may be adjusted.
type ExpChange struct {
	Player *model.Player
	OldExp int64
	NewExp int64
	Level  int
	Reason string
}

// SkillPointsChange is proposed before skill points change.
// New is the raw requested value; clamping happens on commit.
type SkillPointsChange struct {
	Player *model.Player
	Old    int
	New    int
}

// SlotsChange is proposed before the slot count changes.
type SlotsChange struct {
	Player *model.Player
	Old    int
	New    int
}

// SlotsChanged is sent after the slot count changed.
type SlotsChanged struct {
	Player *model.Player
	Old    int
	New    int
}

// SkillsChanged is sent after a skill was activated or deactivated.
type SkillsChanged struct {
	Player *model.Player
	Skill  *model.PlayerSkill
}

// Hooks is the explicit pre/post pipeline around every player mutation.
// Register everything at startup; Hooks is not safe for concurrent registration.
type Hooks struct {
	beforeLevel       []Policy[LevelChange]
	beforeExp         []Policy[ExpChange]
	beforeSkillPoints []Policy[SkillPointsChange]
	beforeSlots       []Policy[SlotsChange]

	afterLevel  []Listener[LevelChanged]
	afterSlots  []Listener[SlotsChanged]
	afterSkills []Listener[SkillsChanged]
}

// NewHooks returns an empty pipeline.
func NewHooks() *Hooks { return &Hooks{} }

func (h *Hooks) BeforeLevel(p Policy[LevelChange])             { h.beforeLevel = append(h.beforeLevel, p) }
func (h *Hooks) BeforeExp(p Policy[ExpChange])                 { h.beforeExp = append(h.beforeExp, p) }
func (h *Hooks) BeforeSkillPoints(p Policy[SkillPointsChange]) { h.beforeSkillPoints = append(h.beforeSkillPoints, p) }
func (h *Hooks) BeforeSlots(p Policy[SlotsChange])             { h.beforeSlots = append(h.beforeSlots, p) }

func (h *Hooks) AfterLevel(l Listener[LevelChanged])   { h.afterLevel = append(h.afterLevel, l) }
func (h *Hooks) AfterSlots(l Listener[SlotsChanged])   { h.afterSlots = append(h.afterSlots, l) }
func (h *Hooks) AfterSkills(l Listener[SkillsChanged]) { h.afterSkills = append(h.afterSkills, l) }

// decide runs policies in registration order and stops at the first Cancel.
func decide[E any](ctx context.Context, policies []Policy[E], e *E) bool {
	for _, p := range policies {
		if p(ctx, e) == Cancel {
			return false
		}
	}
	return true
}

func notify[E any](ctx context.Context, listeners []Listener[E], e E) {
	for _, l := range listeners {
		l(ctx, e)
	}
}
