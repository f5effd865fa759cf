package model

import (
	"fmt"

	"github.com/google/uuid"
)

// SlotStatus is the state of a skill slot.
type SlotStatus int

const (
	SlotFree SlotStatus = iota
	SlotInUse
	SlotLocked
)

var slotStatusNames = [...]string{"FREE", "IN_USE", "LOCKED"}

func (s SlotStatus) String() string {
	if int(s) < len(slotStatusNames) {
		return slotStatusNames[s]
	}
	return fmt.Sprintf("SlotStatus(%d)", int(s))
}

// ParseSlotStatus is the inverse of String.
func ParseSlotStatus(s string) (SlotStatus, error) {
	for i, name := range slotStatusNames {
		if name == s {
			return SlotStatus(i), nil
		}
	}
	return SlotFree, fmt.Errorf("unknown slot status %q", s)
}

// SkillSlot is a unit of capacity for holding an active skill.
// The record outlives its occupants: resetting clears SkillID, not the slot.
type SkillSlot struct {
	ID       uuid.UUID
	PlayerID uuid.UUID
	Status   SlotStatus
	// SkillID is the occupying PlayerSkill; uuid.Nil when empty.
	SkillID uuid.UUID
}

// NewSkillSlot creates an empty slot.
func NewSkillSlot(playerID uuid.UUID, status SlotStatus) *SkillSlot {
	return &SkillSlot{ID: uuid.New(), PlayerID: playerID, Status: status}
}

// Free reports whether the slot can take a skill.
func (s *SkillSlot) Free() bool { return s.Status == SlotFree }

// InUse reports whether a skill occupies the slot.
func (s *SkillSlot) InUse() bool { return s.Status == SlotInUse }

// Occupy puts the skill into a free slot.
func (s *SkillSlot) Occupy(skill *PlayerSkill) error {
	if !s.Free() {
		return fmt.Errorf("slot %s is %s", s.ID, s.Status)
	}
	s.Status = SlotInUse
	s.SkillID = skill.ID
	return nil
}

// Release empties an occupied slot.
func (s *SkillSlot) Release() {
	if s.Status == SlotInUse {
		s.Status = SlotFree
	}
	s.SkillID = uuid.Nil
}
