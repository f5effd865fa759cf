package model

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Level holds a player's level and total exp.
// TotalExp lies in the band of Current once normalized by the leveling engine.
type Level struct {
	Current  int
	TotalExp int64
}

// Player — aggregate root of the skill system (SkilledPlayer).
// Owns its level, skills and slots; deleting the player deletes them too.
//
// Not safe for concurrent use: all mutations of one player must happen on a
// single sequential execution context.
type Player struct {
	id          uuid.UUID
	name        string
	skillPoints int
	resetCount  int
	freeResets  int

	level    Level
	skills   []*PlayerSkill
	slots    []*SkillSlot
	settings map[string]string
}

// NewPlayer creates a level 1 player without skills or slots.
func NewPlayer(id uuid.UUID, name string) (*Player, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("player id must not be nil")
	}
	if name == "" {
		return nil, fmt.Errorf("player name must not be empty")
	}
	return &Player{
		id:       id,
		name:     name,
		level:    Level{Current: 1},
		settings: make(map[string]string),
	}, nil
}

// ID возвращает стабильный ID игрока (immutable).
func (p *Player) ID() uuid.UUID { return p.id }

// Name возвращает имя игрока.
func (p *Player) Name() string { return p.name }

// SetName updates the cached in-game name.
func (p *Player) SetName(name string) { p.name = name }

// Level returns a copy of the player's level record.
func (p *Player) Level() Level { return p.level }

// CurrentLevel returns the current level.
func (p *Player) CurrentLevel() int { return p.level.Current }

// TotalExp returns the total exp collected.
func (p *Player) TotalExp() int64 { return p.level.TotalExp }

// SetLevelRecord overwrites level and exp without any checks.
// Used by the progression engine on commit and when loading from DB.
func (p *Player) SetLevelRecord(level int, totalExp int64) {
	if level < 1 {
		level = 1
	}
	if totalExp < 0 {
		totalExp = 0
	}
	p.level = Level{Current: level, TotalExp: totalExp}
}

// SkillPoints возвращает нераспределённые skill points.
func (p *Player) SkillPoints() int { return p.skillPoints }

// SetSkillPointsRecord sets skill points, clamping negative values to zero.
func (p *Player) SetSkillPointsRecord(points int) {
	p.skillPoints = max(points, 0)
}

// ResetCount returns how many paid slot resets the player did.
func (p *Player) ResetCount() int { return p.resetCount }

// SetResetCount sets the paid reset counter.
func (p *Player) SetResetCount(n int) { p.resetCount = max(n, 0) }

// FreeResets returns the number of free reset credits.
func (p *Player) FreeResets() int { return p.freeResets }

// SetFreeResets sets the free reset credits.
func (p *Player) SetFreeResets(n int) { p.freeResets = max(n, 0) }

// --- Settings ---

// Setting returns a per-player setting.
func (p *Player) Setting(key string) (string, bool) {
	v, ok := p.settings[key]
	return v, ok
}

// SetSetting stores a per-player setting. An empty value deletes it.
func (p *Player) SetSetting(key, value string) {
	if value == "" {
		delete(p.settings, key)
		return
	}
	p.settings[key] = value
}

// Settings returns a copy of all settings.
func (p *Player) Settings() map[string]string {
	return maps.Clone(p.settings)
}

// --- Skills ---

// Skills returns every skill record of the player, including removed ones.
func (p *Player) Skills() []*PlayerSkill {
	return append([]*PlayerSkill(nil), p.skills...)
}

// Skill returns the record for the given alias, if the player has one.
func (p *Player) Skill(alias string) (*PlayerSkill, bool) {
	for _, s := range p.skills {
		if s.Template.Alias == alias {
			return s, true
		}
	}
	return nil, false
}

// EnsureSkill returns the record for the template, creating a locked one if needed.
func (p *Player) EnsureSkill(t *SkillTemplate) *PlayerSkill {
	if s, ok := p.Skill(t.Alias); ok {
		return s
	}
	s := NewPlayerSkill(p.id, t)
	p.skills = append(p.skills, s)
	return s
}

// AttachSkill adds a loaded record. Used by repositories.
func (p *Player) AttachSkill(s *PlayerSkill) {
	p.skills = append(p.skills, s)
}

// DetachSkill drops the record from the aggregate entirely.
func (p *Player) DetachSkill(alias string) (*PlayerSkill, bool) {
	for i, s := range p.skills {
		if s.Template.Alias == alias {
			p.skills = append(p.skills[:i], p.skills[i+1:]...)
			return s, true
		}
	}
	return nil, false
}

// HasSkill reports whether the player owns (unlocked) the skill.
func (p *Player) HasSkill(alias string) bool {
	s, ok := p.Skill(alias)
	return ok && s.Unlocked()
}

// HasActiveSkill reports whether the skill is owned and active.
func (p *Player) HasActiveSkill(alias string) bool {
	s, ok := p.Skill(alias)
	return ok && s.Active()
}

// UnlockedSkills returns every owned skill.
func (p *Player) UnlockedSkills() []*PlayerSkill {
	var out []*PlayerSkill
	for _, s := range p.skills {
		if s.Unlocked() {
			out = append(out, s)
		}
	}
	return out
}

// ActiveSkills returns every active skill.
func (p *Player) ActiveSkills() []*PlayerSkill {
	var out []*PlayerSkill
	for _, s := range p.skills {
		if s.Active() {
			out = append(out, s)
		}
	}
	return out
}

// SkillCount returns the number of owned skills.
func (p *Player) SkillCount() int { return len(p.UnlockedSkills()) }

// --- Slots ---
// Counts are always derived from the slot list.

// SkillSlots returns the player's slots in order.
func (p *Player) SkillSlots() []*SkillSlot {
	return append([]*SkillSlot(nil), p.slots...)
}

// TotalSlots returns the number of slot records, locked ones included.
func (p *Player) TotalSlots() int { return len(p.slots) }

// SlotCount returns the number of usable (free or in use) slots.
func (p *Player) SlotCount() int {
	n := 0
	for _, s := range p.slots {
		if s.Free() || s.InUse() {
			n++
		}
	}
	return n
}

// FreeSkillSlots returns the number of free slots.
func (p *Player) FreeSkillSlots() int {
	n := 0
	for _, s := range p.slots {
		if s.Free() {
			n++
		}
	}
	return n
}

// ActiveSlotCount returns the number of slots in use.
func (p *Player) ActiveSlotCount() int {
	n := 0
	for _, s := range p.slots {
		if s.InUse() {
			n++
		}
	}
	return n
}

// HasFreeSkillSlot reports whether at least one slot is free.
func (p *Player) HasFreeSkillSlot() bool { return p.FreeSkillSlots() > 0 }

// FreeSkillSlot returns the first free slot.
func (p *Player) FreeSkillSlot() (*SkillSlot, bool) {
	for _, s := range p.slots {
		if s.Free() {
			return s, true
		}
	}
	return nil, false
}

// SlotsOf returns the slots occupied by the given skill record.
func (p *Player) SlotsOf(skillID uuid.UUID) []*SkillSlot {
	var out []*SkillSlot
	for _, s := range p.slots {
		if s.InUse() && s.SkillID == skillID {
			out = append(out, s)
		}
	}
	return out
}

// AddSlots appends n new slots with the given status.
func (p *Player) AddSlots(n int, status SlotStatus) []*SkillSlot {
	added := make([]*SkillSlot, 0, n)
	for range n {
		s := NewSkillSlot(p.id, status)
		p.slots = append(p.slots, s)
		added = append(added, s)
	}
	return added
}

// AttachSlot adds a loaded slot. Used by repositories.
func (p *Player) AttachSlot(s *SkillSlot) {
	p.slots = append(p.slots, s)
}

// RemoveSlot removes one slot. Free slots go first, then locked ones;
// an occupied slot is only removed when nothing else is left.
func (p *Player) RemoveSlot() (*SkillSlot, bool) {
	if len(p.slots) == 0 {
		return nil, false
	}
	idx := 0
	for i, s := range p.slots {
		if slotRemovalRank(s) < slotRemovalRank(p.slots[idx]) {
			idx = i
		}
	}
	removed := p.slots[idx]
	p.slots = append(p.slots[:idx], p.slots[idx+1:]...)
	return removed, true
}

func slotRemovalRank(s *SkillSlot) int {
	switch s.Status {
	case SlotFree:
		return 0
	case SlotLocked:
		return 1
	default:
		return 2
	}
}

// ClearAll drops every skill and slot of the player.
func (p *Player) ClearAll() {
	p.skills = nil
	p.slots = nil
}
