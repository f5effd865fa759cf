package progression

import (
	"fmt"

	"github.com/udisondev/rcskills/internal/config"
	"github.com/udisondev/rcskills/internal/formula"
	"github.com/udisondev/rcskills/internal/model"
)

// SlotVars are the variables available to the reset cost formula.
var SlotVars = []string{"slots", "resets", "level"}

// SlotPricing prices slot resets.
type SlotPricing struct {
	freeResets int
	cost       *formula.Expr
}

// NewSlotPricing compiles the reset cost formula.
func NewSlotPricing(cfg config.Slots) (*SlotPricing, error) {
	expr, err := formula.Compile(cfg.ResetCost, SlotVars...)
	if err != nil {
		return nil, fmt.Errorf("compiling reset cost: %w", err)
	}
	return &SlotPricing{freeResets: max(cfg.FreeResets, 0), cost: expr}, nil
}

// FreeResetThreshold is the number of slots in use up to which a reset is free.
func (s *SlotPricing) FreeResetThreshold() int { return s.freeResets }

// ResetCost evaluates the cost of resetting the player's slots now.
func (s *SlotPricing) ResetCost(p *model.Player) (float64, error) {
	cost, err := s.cost.Eval(map[string]float64{
		"slots":  float64(p.ActiveSlotCount()),
		"resets": float64(p.ResetCount()),
		"level":  float64(p.CurrentLevel()),
	})
	if err != nil {
		return 0, fmt.Errorf("reset cost for %s: %w", p.Name(), err)
	}
	return max(cost, 0), nil
}
