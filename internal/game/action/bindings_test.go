package action_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rcskills/internal/game/action"
	"github.com/udisondev/rcskills/internal/game/progression"
	"github.com/udisondev/rcskills/internal/model"
	"github.com/udisondev/rcskills/internal/testutil"
)

func TestLogBindings_RecordsEachCommit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := testutil.NewMockStore()
	engine := progression.New(testutil.NewLeveling(t), store, nil)
	exec := action.NewExecutor(engine, testutil.NewMockWallet(), nil,
		action.WithBindings(action.LogBindings{Logger: logger}))

	p := testutil.NewPlayer(t, "Silthus")
	store.Put(p)
	p.AddSlots(1, model.SlotFree)

	res, err := exec.AddSkill(p, testutil.NewTemplate("fireball", 1)).Execute(context.Background(), false)
	require.NoError(t, err)
	require.True(t, res.Success(), res.Reason)

	assert.Contains(t, buf.String(), "skill bindings refreshed")
	assert.Contains(t, buf.String(), p.ID().String())
}

func TestLogBindings_DefaultLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		action.LogBindings{}.UpdateBindings(context.Background(), testutil.NewPlayer(t, "Silthus").ID())
	})
}
