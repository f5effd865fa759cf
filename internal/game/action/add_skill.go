package action

import (
	"context"
	"log/slog"

	"github.com/udisondev/rcskills/internal/model"
)

// AddSkillAction grants a skill without charging its costs.
type AddSkillAction struct {
	x      *Executor
	player *model.Player
	skill  *model.SkillTemplate
}

// Execute checks slots and unlock requirements unless bypass is set,
// then unlocks the skill and persists the player once.
func (a *AddSkillAction) Execute(ctx context.Context, bypass bool) (Result, error) {
	p, t := a.player, a.skill

	if res, ok := checkAcquirable(p, t); !ok {
		return res, nil
	}

	if !bypass {
		if res, ok := checkSlots(p, t); !ok {
			return res, nil
		}
		if res := t.TestRequirements(ctx, p); res.Failure() {
			return failure("%s", res.Error()), nil
		}
	}

	s := a.x.unlock(ctx, p, t)
	if err := a.x.commit(ctx, p); err != nil {
		return Result{}, err
	}

	slog.Info("skill added", "player", p.Name(), "skill", t.Alias, "status", s.Status, "bypass", bypass)
	return success(), nil
}
