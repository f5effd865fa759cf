// Package leveling turns the configured exp formula into a cached
// level ↔ total experience mapping.
package leveling

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/config"
	"github.com/udisondev/rcskills/internal/formula"
)

// Unknown is returned when a value could not be calculated.
// It must never be used for comparisons.
const Unknown = -1

// Formula variables available to exp_to_next_level.
var Vars = []string{"x", "y", "z", "level"}

// table is swapped atomically as a whole on Load.
type table struct {
	expr     *formula.Expr
	x, y, z  float64
	maxLevel int
	// total[level] = exp needed to reach level; index 0 unused.
	total     []int64
	anomalies map[int]error
}

// Engine evaluates the leveling formula and caches its results.
// Safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	table *table

	cacheMu sync.Mutex
	cache   map[uuid.UUID]map[int]int64
}

// New returns an engine with no formula loaded.
func New() *Engine {
	return &Engine{
		table: &table{},
		cache: make(map[uuid.UUID]map[int]int64),
	}
}

// Load compiles the exp formula and precomputes the total exp table up to
// MaxLevel. A formula that does not compile is returned as an error and the
// previous table stays in place.
func (e *Engine) Load(cfg config.Level) error {
	expr, err := formula.Compile(cfg.ExpToNextLevel, Vars...)
	if err != nil {
		return fmt.Errorf("loading level formula: %w", err)
	}
	if cfg.MaxLevel < 1 {
		return fmt.Errorf("loading level formula: max_level must be at least 1, got %d", cfg.MaxLevel)
	}

	t := &table{
		expr:      expr,
		x:         cfg.X,
		y:         cfg.Y,
		z:         cfg.Z,
		maxLevel:  cfg.MaxLevel,
		anomalies: make(map[int]error),
	}
	t.build()

	e.mu.Lock()
	e.table = t
	e.mu.Unlock()

	e.ClearAll()

	slog.Info("level formula loaded",
		"expr", cfg.ExpToNextLevel,
		"max_level", cfg.MaxLevel,
		"max_exp", t.total[len(t.total)-1],
		"anomalies", len(t.anomalies))
	return nil
}

// build fills total[1..maxLevel+1]; maxLevel+1 bounds the exp band of the last level.
func (t *table) build() {
	t.total = make([]int64, t.maxLevel+2)
	var sum int64
	broken := false
	for level := 1; level <= t.maxLevel+1; level++ {
		if broken {
			t.total[level] = Unknown
			continue
		}
		t.total[level] = sum
		if level > t.maxLevel {
			break
		}
		delta := t.expForNextLevel(level)
		if delta == Unknown || sum > math.MaxInt64-delta {
			broken = true
			continue
		}
		sum += delta
	}
}

func (t *table) expForNextLevel(level int) int64 {
	if t.expr == nil {
		return Unknown
	}
	v, err := t.expr.Eval(map[string]float64{
		"x":     t.x,
		"y":     t.y,
		"z":     t.z,
		"level": float64(level),
	})
	if err == nil && (v > math.MaxInt64 || v < math.MinInt64) {
		err = fmt.Errorf("%w: %v overflows", formula.ErrEvaluation, v)
	}
	if err != nil {
		if _, seen := t.anomalies[level]; !seen && t.anomalies != nil {
			t.anomalies[level] = err
			slog.Error("failed to calculate exp for level", "level", level, "err", err)
		}
		return Unknown
	}
	return int64(math.Round(v))
}

func (e *Engine) current() *table {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.table
}

// MaxLevel returns the configured max level (0 before Load).
func (e *Engine) MaxLevel() int {
	return e.current().maxLevel
}

// ExpForNextLevel evaluates the formula for a single level.
// Returns Unknown if evaluation fails.
func (e *Engine) ExpForNextLevel(level int) int64 {
	t := e.current()
	e.mu.Lock()
	defer e.mu.Unlock()
	return t.expForNextLevel(level)
}

// TotalExpForLevel returns the cumulative exp needed to reach level.
// Level 1 needs 0. Returns Unknown outside the cached range.
func (e *Engine) TotalExpForLevel(level int) int64 {
	t := e.current()
	if level < 1 || level >= len(t.total) {
		return Unknown
	}
	return t.total[level]
}

// LevelForExp returns the greatest cached level whose threshold is <= totalExp.
// Never returns less than 1.
func (e *Engine) LevelForExp(totalExp int64) int {
	t := e.current()
	level := 1
	for l := 2; l <= t.maxLevel && l < len(t.total); l++ {
		threshold := t.total[l]
		if threshold == Unknown || threshold > totalExp {
			break
		}
		level = l
	}
	return level
}

// ClampExp moves exp into [TotalExpForLevel(level), TotalExpForLevel(level+1)).
// An Unknown bound is treated as open.
func (e *Engine) ClampExp(level int, exp int64) int64 {
	lower := e.TotalExpForLevel(level)
	upper := e.TotalExpForLevel(level + 1)

	if lower != Unknown && exp < lower {
		return lower
	}
	if upper != Unknown && upper > lower && exp >= upper {
		return lower
	}
	return exp
}

// Anomalies returns the evaluation failures recorded by the last Load.
func (e *Engine) Anomalies() map[int]error {
	t := e.current()
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[int]error, len(t.anomalies))
	for k, v := range t.anomalies {
		out[k] = v
	}
	return out
}

// ExpToNextLevel returns the exp needed to leave the given level, memoized
// per player. clear drops the player's memo first.
func (e *Engine) ExpToNextLevel(playerID uuid.UUID, level int, clear bool) int64 {
	if clear {
		e.ClearCache(playerID)
	}

	e.cacheMu.Lock()
	if v, ok := e.cache[playerID][level]; ok {
		e.cacheMu.Unlock()
		return v
	}
	e.cacheMu.Unlock()

	v := e.ExpForNextLevel(level)

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	byLevel, ok := e.cache[playerID]
	if !ok {
		byLevel = make(map[int]int64)
		e.cache[playerID] = byLevel
	}
	byLevel[level] = v
	return v
}

// ClearCache drops the memo of a single player and returns what was cached.
func (e *Engine) ClearCache(playerID uuid.UUID) map[int]int64 {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	old := e.cache[playerID]
	delete(e.cache, playerID)
	if old == nil {
		return map[int]int64{}
	}
	return old
}

// ClearAll drops every player's memo (configuration reload).
func (e *Engine) ClearAll() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache = make(map[uuid.UUID]map[int]int64)
}
