package action

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/udisondev/rcskills/internal/model"
)

// ResetSlotsAction frees every slot in use.
type ResetSlotsAction struct {
	x      *Executor
	player *model.Player
}

// Cost is zero for players with a free reset credit or with at most the
// free threshold of slots in use.
func (a *ResetSlotsAction) Cost() (float64, error) {
	p := a.player
	if p.FreeResets() > 0 || a.x.pricing == nil {
		return 0, nil
	}
	if p.ActiveSlotCount() <= a.x.pricing.FreeResetThreshold() {
		return 0, nil
	}
	return a.x.pricing.ResetCost(p)
}

// Execute consumes a free reset or charges the reset cost unless bypass is
// set, then deactivates all slot occupants. Paid resets count towards the
// price of the next one.
func (a *ResetSlotsAction) Execute(ctx context.Context, bypass bool) (Result, error) {
	p := a.player

	if p.ActiveSlotCount() < 1 {
		return failure("You have no skill slots in use."), nil
	}

	free := true
	if !bypass {
		switch {
		case p.FreeResets() > 0:
			p.SetFreeResets(p.FreeResets() - 1)
		case a.x.pricing == nil || p.ActiveSlotCount() <= a.x.pricing.FreeResetThreshold():
		default:
			free = false
			if res, err := a.charge(ctx); err != nil || res.Failure() {
				return res, err
			}
		}
	}

	reset := a.x.engine.ResetSkillSlots(ctx, p)
	if !bypass && !free {
		p.SetResetCount(p.ResetCount() + 1)
	}

	if err := a.x.commit(ctx, p); err != nil {
		return Result{}, err
	}

	slog.Info("skill slots reset",
		"player", p.Name(),
		"skills", len(reset),
		"free", free,
		"reset_count", p.ResetCount(),
		"bypass", bypass)
	return success(), nil
}

func (a *ResetSlotsAction) charge(ctx context.Context) (Result, error) {
	p := a.player
	cost, err := a.x.pricing.ResetCost(p)
	if err != nil {
		return Result{}, err
	}
	if a.x.wallet == nil {
		return failure("Resetting your skill slots costs money but no economy is available."), nil
	}

	has, err := a.x.wallet.Has(ctx, p.ID(), cost)
	if err != nil {
		return Result{}, fmt.Errorf("checking balance for slot reset: %w", err)
	}
	if !has {
		return failure("You do not have enough money to reset your skill slots. You need %s.", a.x.wallet.Format(cost)), nil
	}

	ok, err := a.x.wallet.Withdraw(ctx, p.ID(), cost, map[string]string{
		"reason":       "skill slot reset",
		"player_id":    p.ID().String(),
		"slot_count":   strconv.Itoa(p.SlotCount()),
		"skill_count":  strconv.Itoa(p.SkillCount()),
		"skill_points": strconv.Itoa(p.SkillPoints()),
		"free_slots":   strconv.Itoa(p.FreeSkillSlots()),
		"reset_count":  strconv.Itoa(p.ResetCount()),
	})
	if err != nil {
		return Result{}, fmt.Errorf("withdrawing %v for slot reset: %w", cost, err)
	}
	if !ok {
		return failure("You do not have enough money to reset your skill slots. You need %s.", a.x.wallet.Format(cost)), nil
	}
	return success(), nil
}
