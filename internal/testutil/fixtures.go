package testutil

import (
	"testing"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/config"
	"github.com/udisondev/rcskills/internal/game/leveling"
	"github.com/udisondev/rcskills/internal/model"
)

// LinearLevels — формула с шагом 100 exp на уровень до 10 уровня.
// Пороги: 1→0, 2→100, 3→200, ...
var LinearLevels = config.Level{
	MaxLevel:       10,
	ExpToNextLevel: "100",
}

// NewLeveling создаёт leveling.Engine с LinearLevels.
func NewLeveling(tb testing.TB) *leveling.Engine {
	tb.Helper()
	e := leveling.New()
	if err := e.Load(LinearLevels); err != nil {
		tb.Fatalf("loading test levels: %v", err)
	}
	return e
}

// NewPlayer создаёт игрока 1 уровня.
func NewPlayer(tb testing.TB, name string) *model.Player {
	tb.Helper()
	p, err := model.NewPlayer(uuid.New(), name)
	if err != nil {
		tb.Fatalf("creating player: %v", err)
	}
	return p
}

// NewTemplate создаёт включённый шаблон навыка, занимающий slots слотов.
func NewTemplate(alias string, slots int) *model.SkillTemplate {
	return &model.SkillTemplate{
		ID:         uuid.New(),
		Alias:      alias,
		Name:       alias,
		Type:       "none",
		SkillSlots: slots,
		Enabled:    true,
	}
}
