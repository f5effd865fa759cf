package action

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/udisondev/rcskills/internal/game/requirement"
	"github.com/udisondev/rcskills/internal/model"
)

// Cost is the aggregate price of a skill.
type Cost struct {
	Money       float64
	SkillPoints int
}

// BuySkillAction charges a skill's costs and unlocks it.
type BuySkillAction struct {
	x      *Executor
	player *model.Player
	skill  *model.SkillTemplate
}

// Cost sums the skill's cost requirements.
func (a *BuySkillAction) Cost() Cost {
	var c Cost
	for _, r := range a.skill.CostRequirements {
		switch r := r.(type) {
		case *requirement.Money:
			c.Money += r.Amount
		case *requirement.SkillPoints:
			c.SkillPoints += r.Points
		}
	}
	return c
}

// Execute validates slots, requirements and costs, withdraws the money,
// deducts the skill points and unlocks the skill. With bypass set the
// skill is granted for free.
func (a *BuySkillAction) Execute(ctx context.Context, bypass bool) (Result, error) {
	p, t := a.player, a.skill

	if res, ok := checkAcquirable(p, t); !ok {
		return res, nil
	}

	if !bypass {
		if res, ok := checkSlots(p, t); !ok {
			return res, nil
		}
		if res := t.Test(ctx, p); res.Failure() {
			return failure("%s", res.Error()), nil
		}
		if res, err := a.charge(ctx); err != nil || res.Failure() {
			return res, err
		}
	}

	s := a.x.unlock(ctx, p, t)
	if err := a.x.commit(ctx, p); err != nil {
		return Result{}, err
	}

	slog.Info("skill bought", "player", p.Name(), "skill", t.Alias, "status", s.Status, "bypass", bypass)
	return success(), nil
}

// charge deducts the skill points in memory first; nothing is persisted
// before the withdrawal succeeds, and a failed withdrawal restores them.
func (a *BuySkillAction) charge(ctx context.Context) (Result, error) {
	p, t := a.player, a.skill
	cost := a.Cost()

	if cost.Money > 0 && a.x.wallet == nil {
		return failure("Buying %s costs money but no economy is available.", t.Name), nil
	}

	oldPoints := p.SkillPoints()
	if cost.SkillPoints > 0 {
		if !a.x.engine.ApplySkillPoints(ctx, p, oldPoints-cost.SkillPoints) {
			return failure("Your skill points for %s could not be deducted.", t.Name), nil
		}
	}

	if cost.Money > 0 {
		ok, err := a.x.wallet.Withdraw(ctx, p.ID(), cost.Money, map[string]string{
			"reason":       "buy skill",
			"player_id":    p.ID().String(),
			"skill":        t.Alias,
			"skill_id":     t.ID.String(),
			"skill_count":  strconv.Itoa(p.SkillCount()),
			"skill_points": strconv.Itoa(oldPoints),
			"level":        strconv.Itoa(p.CurrentLevel()),
		})
		if err != nil {
			p.SetSkillPointsRecord(oldPoints)
			return Result{}, fmt.Errorf("withdrawing %v for skill %s: %w", cost.Money, t.Alias, err)
		}
		if !ok {
			p.SetSkillPointsRecord(oldPoints)
			return failure("You do not have enough money, %s needs %s.", t.Name, a.x.wallet.Format(cost.Money)), nil
		}
	}
	return success(), nil
}
