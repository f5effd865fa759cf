package progression

import (
	"context"
	"log/slog"

	"github.com/udisondev/rcskills/internal/config"
	"github.com/udisondev/rcskills/internal/model"
)

// LevelUpRewards grants skill points and slots for every level gained.
type LevelUpRewards struct {
	engine *Engine
	cfg    config.LevelUp
}

// NewLevelUpRewards creates the rewarder. Call Register to attach it.
func NewLevelUpRewards(engine *Engine, cfg config.LevelUp) *LevelUpRewards {
	return &LevelUpRewards{engine: engine, cfg: cfg}
}

// Register attaches the rewarder to the engine's level listeners.
func (r *LevelUpRewards) Register() {
	r.engine.Hooks().AfterLevel(r.onLevelChanged)
}

// For returns the points and slots granted when climbing from one level to another.
// Losing levels grants nothing.
func (r *LevelUpRewards) For(from, to int) (points, slots int) {
	for level := from + 1; level <= to; level++ {
		points += r.cfg.SkillPointsPerLevel
		slots += r.cfg.SlotsPerLevel
		if extra, ok := r.cfg.Levels[level]; ok {
			points += extra.SkillPoints
			slots += extra.Slots
		}
	}
	return points, slots
}

// The surrounding mutator persists the player after listeners ran.
func (r *LevelUpRewards) onLevelChanged(ctx context.Context, e LevelChanged) {
	points, slots := r.For(e.OldLevel, e.NewLevel)
	if points == 0 && slots == 0 {
		return
	}

	p := e.Player
	if points != 0 {
		r.engine.ApplySkillPoints(ctx, p, p.SkillPoints()+points)
	}
	if slots != 0 {
		r.engine.ApplySkillSlots(ctx, p, p.TotalSlots()+slots, model.SlotFree)
	}
	slog.Info("level up rewards granted",
		"player", p.Name(),
		"level", e.NewLevel,
		"skill_points", points,
		"slots", slots)
}
