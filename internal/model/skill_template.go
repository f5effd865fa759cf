package model

import (
	"context"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/game/requirement"
	"github.com/udisondev/rcskills/internal/game/skill"
)

// SkillPermissionPrefix prefixes the permission node every skill requires.
const SkillPermissionPrefix = "rcskills.skill."

// SkillTemplate — shared definition of a skill (ConfiguredSkill).
// Immutable once loaded, except for Enabled.
type SkillTemplate struct {
	ID          uuid.UUID
	Alias       string
	Name        string
	Type        string
	Description string
	Level       int
	Money       float64
	SkillPoints int
	// SkillSlots is how many slots the skill occupies while active.
	SkillSlots int
	Hidden     bool
	Enabled    bool
	Categories []string
	Config     map[string]any

	// Requirements gate unlocking; CostRequirements are paid on buy.
	Requirements     []requirement.Requirement
	CostRequirements []requirement.Requirement

	Effect skill.Effect
}

// ConsumesSlot reports whether the skill needs a slot to be active.
func (t *SkillTemplate) ConsumesSlot() bool { return t.SkillSlots > 0 }

// SlotsRequired returns the number of slots the skill occupies.
func (t *SkillTemplate) SlotsRequired() int { return max(t.SkillSlots, 0) }

// AddRequirement appends unlock requirements.
func (t *SkillTemplate) AddRequirement(reqs ...requirement.Requirement) {
	t.Requirements = append(t.Requirements, reqs...)
}

// AllRequirements returns unlock and cost requirements together.
func (t *SkillTemplate) AllRequirements() []requirement.Requirement {
	all := make([]requirement.Requirement, 0, len(t.Requirements)+len(t.CostRequirements))
	all = append(all, t.Requirements...)
	return append(all, t.CostRequirements...)
}

// Test checks unlock and cost requirements combined.
func (t *SkillTemplate) Test(ctx context.Context, target requirement.Target) requirement.TestResult {
	return requirement.TestAll(ctx, t.AllRequirements(), target)
}

// TestRequirements checks the unlock requirements only.
func (t *SkillTemplate) TestRequirements(ctx context.Context, target requirement.Target) requirement.TestResult {
	return requirement.TestAll(ctx, t.Requirements, target)
}

// TestCosts checks the cost requirements only.
func (t *SkillTemplate) TestCosts(ctx context.Context, target requirement.Target) requirement.TestResult {
	return requirement.TestAll(ctx, t.CostRequirements, target)
}
