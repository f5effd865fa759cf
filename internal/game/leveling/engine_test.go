package leveling

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rcskills/internal/config"
	"github.com/udisondev/rcskills/internal/formula"
)

func load(t *testing.T, expr string, maxLevel int) *Engine {
	t.Helper()
	e := New()
	require.NoError(t, e.Load(config.Level{MaxLevel: maxLevel, ExpToNextLevel: expr, X: 10.4}))
	return e
}

func TestConstantFormulaThresholds(t *testing.T) {
	e := load(t, "100", 5)

	var thresholds []int64
	for level := 1; level <= 5; level++ {
		thresholds = append(thresholds, e.TotalExpForLevel(level))
	}
	assert.Equal(t, []int64{0, 100, 200, 300, 400}, thresholds)
	assert.Equal(t, 3, e.LevelForExp(250))
	assert.Equal(t, 1, e.LevelForExp(0))
	assert.Equal(t, 1, e.LevelForExp(-50))
	assert.Equal(t, 5, e.LevelForExp(1_000_000), "never above max level")
}

func TestTotalExpTable_Properties(t *testing.T) {
	for _, maxLevel := range []int{1, 2, 10, 100} {
		e := load(t, config.DefaultLevel().ExpToNextLevel, maxLevel)

		assert.Equal(t, int64(0), e.TotalExpForLevel(1))
		assert.Equal(t, e.ExpForNextLevel(1), e.TotalExpForLevel(2))

		for n := 1; n <= maxLevel; n++ {
			assert.LessOrEqual(t, e.TotalExpForLevel(n), e.TotalExpForLevel(n+1), "non-decreasing at %d", n)
			assert.Equal(t, n, e.LevelForExp(e.TotalExpForLevel(n)), "round trip at %d", n)
		}
	}
}

func TestDefaultFormula(t *testing.T) {
	e := load(t, config.DefaultLevel().ExpToNextLevel, 100)
	// (-0.4 * 1) + (10.4 * 1) = 10
	assert.Equal(t, int64(10), e.ExpForNextLevel(1))
	// (-0.4 * 4) + (10.4 * 4) = 40
	assert.Equal(t, int64(40), e.ExpForNextLevel(2))
	assert.Equal(t, int64(50), e.TotalExpForLevel(3))
}

func TestTotalExpForLevel_OutOfRange(t *testing.T) {
	e := load(t, "100", 5)
	assert.Equal(t, int64(Unknown), e.TotalExpForLevel(0))
	assert.Equal(t, int64(500), e.TotalExpForLevel(6))
	assert.Equal(t, int64(Unknown), e.TotalExpForLevel(7))
}

func TestLoad_CompileErrorIsFatal(t *testing.T) {
	e := load(t, "100", 5)

	err := e.Load(config.Level{MaxLevel: 5, ExpToNextLevel: "100 * (level"})
	require.Error(t, err)
	var ce *formula.CompileError
	assert.True(t, errors.As(err, &ce))

	// previous table survives
	assert.Equal(t, int64(100), e.TotalExpForLevel(2))
}

func TestEvaluationAnomaly(t *testing.T) {
	// level 3 divides by zero
	e := load(t, "100 / (level - 3)", 5)

	assert.Equal(t, int64(Unknown), e.ExpForNextLevel(3))
	assert.Contains(t, e.Anomalies(), 3)

	// levels up to 3 are still known, everything after is not
	assert.Equal(t, int64(-50), e.TotalExpForLevel(2))
	assert.NotEqual(t, int64(Unknown), e.TotalExpForLevel(3))
	assert.Equal(t, int64(Unknown), e.TotalExpForLevel(4))
	assert.Equal(t, 3, e.LevelForExp(1_000_000))
}

func TestClampExp(t *testing.T) {
	e := load(t, "100", 5)

	tests := []struct {
		level int
		exp   int64
		want  int64
	}{
		{3, 250, 250},
		{3, 200, 200},
		{3, 100, 200},
		{3, 300, 200},
		{1, 0, 0},
		{5, 450, 450},
		{5, 900, 400},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.ClampExp(tt.level, tt.exp), "level %d exp %d", tt.level, tt.exp)
	}
}

func TestExpToNextLevel_Cache(t *testing.T) {
	e := load(t, "100 * level", 10)
	player := uuid.New()

	assert.Equal(t, int64(300), e.ExpToNextLevel(player, 3, false))

	// reload with a different formula clears memoized values
	require.NoError(t, e.Load(config.Level{MaxLevel: 10, ExpToNextLevel: "1"}))
	assert.Equal(t, int64(1), e.ExpToNextLevel(player, 3, false))

	// a stale memo stays until cleared
	e.cache[player][3] = 42
	assert.Equal(t, int64(42), e.ExpToNextLevel(player, 3, false))
	assert.Equal(t, int64(1), e.ExpToNextLevel(player, 3, true))

	cleared := e.ClearCache(player)
	assert.Equal(t, map[int]int64{3: 1}, cleared)
	assert.Empty(t, e.ClearCache(player))
}

func TestExpToNextLevel_PlayersAreIndependent(t *testing.T) {
	e := load(t, "100", 10)
	a, b := uuid.New(), uuid.New()

	e.ExpToNextLevel(a, 1, false)
	e.ExpToNextLevel(b, 1, false)
	e.ClearCache(a)

	assert.NotContains(t, e.cache, a)
	assert.Contains(t, e.cache, b)
}

func TestEngine_ConcurrentAccess(t *testing.T) {
	e := load(t, "100", 50)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			for level := 1; level <= 50; level++ {
				e.ExpToNextLevel(id, level, false)
				e.LevelForExp(int64(level * 100))
			}
			e.ClearCache(id)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.ClearAll()
	}()
	wg.Wait()
}
