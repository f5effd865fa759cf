package requirement

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	id     uuid.UUID
	level  int
	points int
	skills map[string]bool
}

func (f *fakeTarget) ID() uuid.UUID             { return f.id }
func (f *fakeTarget) Name() string              { return "Silthus" }
func (f *fakeTarget) CurrentLevel() int         { return f.level }
func (f *fakeTarget) SkillPoints() int          { return f.points }
func (f *fakeTarget) HasSkill(alias string) bool { return f.skills[alias] }

type fakeWallet struct {
	balance float64
	err     error
}

func (w *fakeWallet) Has(_ context.Context, _ uuid.UUID, amount float64) (bool, error) {
	return w.balance >= amount, w.err
}

func (w *fakeWallet) Withdraw(_ context.Context, _ uuid.UUID, amount float64, _ map[string]string) (bool, error) {
	if w.balance < amount {
		return false, nil
	}
	w.balance -= amount
	return true, nil
}

func (w *fakeWallet) Format(amount float64) string { return fmt.Sprintf("%.2f coins", amount) }

type fakePermissions map[string]bool

func (p fakePermissions) Has(_ uuid.UUID, perm string) bool { return p[perm] }

func TestMerge(t *testing.T) {
	assert.True(t, Success().Merge(Success()).Success())

	merged := Failure("a").Merge(Failure("b"))
	assert.True(t, merged.Failure())
	assert.Equal(t, []string{"a", "b"}, merged.Reasons())

	assert.Equal(t, []string{"a"}, Success().Merge(Failure("a")).Reasons())
	assert.Equal(t, []string{"a"}, Failure("a").Merge(Success()).Reasons())

	// associative, never drops a reason
	left := Failure("a").Merge(Failure("b")).Merge(Failure("c", "d"))
	right := Failure("a").Merge(Failure("b").Merge(Failure("c", "d")))
	assert.Equal(t, left.Reasons(), right.Reasons())
	assert.Equal(t, "a\nb\nc\nd", left.Error())
}

func TestZeroValueIsSuccess(t *testing.T) {
	var r TestResult
	assert.True(t, r.Success())
	assert.Empty(t, r.Reasons())
}

func TestTestAll(t *testing.T) {
	ctx := context.Background()
	target := &fakeTarget{id: uuid.New(), level: 3, points: 1}

	assert.True(t, TestAll(ctx, nil, target).Success())

	reqs := []Requirement{
		&Level{MinLevel: 5},
		&SkillPoints{Points: 2},
		&Level{MinLevel: 1},
	}
	result := TestAll(ctx, reqs, target)
	require.True(t, result.Failure())
	reasons := result.Reasons()
	require.Len(t, reasons, 2, "every failing requirement explains itself")
	assert.Contains(t, reasons[0], "level 5")
	assert.Contains(t, reasons[1], "1 missing")
}

func TestBuiltins(t *testing.T) {
	id := uuid.New()
	target := &fakeTarget{id: id, level: 10, points: 3, skills: map[string]bool{"fireball": true}}
	wallet := &fakeWallet{balance: 50}
	perms := fakePermissions{"rcskills.skill.heal": true}

	tests := []struct {
		name string
		req  Requirement
		ok   bool
	}{
		{"level met", &Level{MinLevel: 10}, true},
		{"level missing", &Level{MinLevel: 11}, false},
		{"points met", &SkillPoints{Points: 3}, true},
		{"points missing", &SkillPoints{Points: 4}, false},
		{"money met", NewMoney(wallet, 50), true},
		{"money missing", NewMoney(wallet, 50.01), false},
		{"money without economy", NewMoney(nil, 1), false},
		{"permission met", NewPermission(perms, "rcskills.skill.heal"), true},
		{"permission missing", NewPermission(perms, "rcskills.skill.heal", "rcskills.skill.fly"), false},
		{"permission without backend", NewPermission(nil, "anything"), true},
		{"skill met", &Skill{Aliases: []string{"fireball"}}, true},
		{"skill missing", &Skill{Aliases: []string{"fireball", "frostbolt"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.req.Test(context.Background(), target)
			assert.Equal(t, tt.ok, result.Success(), result.Error())
			if !tt.ok {
				assert.NotEmpty(t, result.Reasons())
			}
			assert.NotEmpty(t, tt.req.Description())
			assert.NotEmpty(t, tt.req.Name())
		})
	}
}

func TestMoney_WalletError(t *testing.T) {
	req := NewMoney(&fakeWallet{err: errors.New("economy down")}, 1)
	result := req.Test(context.Background(), &fakeTarget{id: uuid.New()})
	assert.True(t, result.Failure())
}

// ctxWallet reports the context state back as its error.
type ctxWallet struct{ fakeWallet }

func (w *ctxWallet) Has(ctx context.Context, id uuid.UUID, amount float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return w.fakeWallet.Has(ctx, id, amount)
}

func TestMoney_UsesCallerContext(t *testing.T) {
	req := NewMoney(&ctxWallet{fakeWallet{balance: 10}}, 5)
	target := &fakeTarget{id: uuid.New()}

	assert.True(t, req.Test(context.Background(), target).Success())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := req.Test(ctx, target)
	assert.True(t, result.Failure(), "a cancelled lookup must not pass")
	assert.Equal(t, []string{"Your balance could not be checked."}, result.Reasons())
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry(Env{Wallet: &fakeWallet{}, Permissions: fakePermissions{}})
	assert.Equal(t, []string{"level", "money", "permission", "skill", "skillpoints"}, reg.Types())

	req, err := reg.Create(TypeLevel, map[string]any{"level": 5})
	require.NoError(t, err)
	assert.Equal(t, &Level{MinLevel: 5}, req)

	req, err = reg.Create(TypeMoney, map[string]any{"amount": "12.5"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, req.(*Money).Amount)

	req, err = reg.Create(TypeSkill, map[string]any{"skills": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, req.(*Skill).Aliases)

	_, err = reg.Create("weather", nil)
	assert.Error(t, err)

	_, err = reg.Create(TypeLevel, map[string]any{})
	assert.ErrorIs(t, err, errMissingParam)

	_, err = reg.Create(TypeLevel, map[string]any{"level": "high"})
	assert.Error(t, err)
}

type alwaysFails struct{ reason string }

func (a alwaysFails) Type() string          { return "never" }
func (a alwaysFails) Name() string          { return "Never" }
func (a alwaysFails) Description() string   { return "Can never be met." }
func (a alwaysFails) Test(context.Context, Target) TestResult { return Failure(a.reason) }

func TestRegistry_CustomKind(t *testing.T) {
	reg := NewRegistry(Env{})
	reg.Register("never", func(_ Env, params map[string]any) (Requirement, error) {
		reason, _ := params["reason"].(string)
		return alwaysFails{reason: reason}, nil
	})

	reqs, err := reg.CreateAll([]map[string]any{
		{"type": "level", "level": 1},
		{"type": "never", "reason": "nope"},
	})
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	result := TestAll(context.Background(), reqs, &fakeTarget{level: 1})
	assert.Equal(t, []string{"nope"}, result.Reasons())

	_, err = reg.CreateAll([]map[string]any{{"level": 1}})
	assert.Error(t, err)
}
