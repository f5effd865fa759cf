package model

import (
	"fmt"

	"github.com/google/uuid"
)

// SkillStatus is the ownership state of a PlayerSkill.
type SkillStatus int

const (
	// SkillLocked marks a record of a skill the player never owned.
	SkillLocked SkillStatus = iota
	SkillUnlocked
	SkillActive
	SkillInactive
	SkillDisabled
	SkillRemoved
)

var skillStatusNames = [...]string{"LOCKED", "UNLOCKED", "ACTIVE", "INACTIVE", "DISABLED", "REMOVED"}

func (s SkillStatus) String() string {
	if int(s) < len(skillStatusNames) {
		return skillStatusNames[s]
	}
	return fmt.Sprintf("SkillStatus(%d)", int(s))
}

// ParseSkillStatus is the inverse of String.
func ParseSkillStatus(s string) (SkillStatus, error) {
	for i, name := range skillStatusNames {
		if name == s {
			return SkillStatus(i), nil
		}
	}
	return SkillLocked, fmt.Errorf("unknown skill status %q", s)
}

// PlayerSkill is one player's ownership record of a skill template.
type PlayerSkill struct {
	ID       uuid.UUID
	PlayerID uuid.UUID
	Template *SkillTemplate
	Status   SkillStatus
	// Suspended is the status to restore when a disabled skill is enabled again.
	Suspended SkillStatus
}

// NewPlayerSkill creates a locked record.
func NewPlayerSkill(playerID uuid.UUID, t *SkillTemplate) *PlayerSkill {
	return &PlayerSkill{
		ID:       uuid.New(),
		PlayerID: playerID,
		Template: t,
		Status:   SkillLocked,
	}
}

// Alias returns the template alias.
func (s *PlayerSkill) Alias() string { return s.Template.Alias }

// Unlocked reports whether the player owns the skill.
// Removed records are kept for history but no longer count as owned.
func (s *PlayerSkill) Unlocked() bool {
	return s.Status != SkillLocked && s.Status != SkillRemoved
}

// Active reports whether the skill is active.
func (s *PlayerSkill) Active() bool { return s.Status == SkillActive }

// CanActivate reports whether the skill may transition to active.
func (s *PlayerSkill) CanActivate() bool {
	if s.Template != nil && !s.Template.Enabled {
		return false
	}
	return s.Status == SkillUnlocked || s.Status == SkillInactive
}

// Unlock marks a locked skill owned. Owned skills keep their status and
// removed records stay removed.
func (s *PlayerSkill) Unlock() {
	if s.Status == SkillLocked {
		s.Status = SkillUnlocked
	}
}

// Activate transitions an unlocked or inactive skill to active.
func (s *PlayerSkill) Activate() error {
	if !s.CanActivate() {
		return fmt.Errorf("skill %s cannot be activated from %s", s.Alias(), s.Status)
	}
	s.Status = SkillActive
	return nil
}

// Deactivate transitions an active skill to inactive.
// Returns false if the skill was not active.
func (s *PlayerSkill) Deactivate() bool {
	if s.Status != SkillActive {
		return false
	}
	s.Status = SkillInactive
	return true
}

// Disable suspends an owned skill and remembers its status.
// Locked records are left alone.
func (s *PlayerSkill) Disable() bool {
	if s.Status == SkillLocked || s.Status == SkillDisabled || s.Status == SkillRemoved {
		return false
	}
	s.Suspended = s.Status
	s.Status = SkillDisabled
	return true
}

// Enable restores the status the skill had before it was disabled.
func (s *PlayerSkill) Enable() bool {
	if s.Status != SkillDisabled {
		return false
	}
	s.Status = s.Suspended
	s.Suspended = SkillLocked
	return true
}

// Remove marks the record removed. Removed is terminal.
func (s *PlayerSkill) Remove() {
	s.Status = SkillRemoved
}
