package requirement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Built-in requirement type tags.
const (
	TypePermission  = "permission"
	TypeLevel       = "level"
	TypeMoney       = "money"
	TypeSkillPoints = "skillpoints"
	TypeSkill       = "skill"
)

// Permission requires the player to hold every listed permission node.
type Permission struct {
	Nodes       []string
	permissions Permissions
}

// NewPermission builds a permission requirement directly.
func NewPermission(perms Permissions, nodes ...string) *Permission {
	return &Permission{Nodes: nodes, permissions: perms}
}

func newPermission(env Env, params map[string]any) (Requirement, error) {
	nodes, err := stringList(params, "permissions")
	if err != nil {
		return nil, err
	}
	return NewPermission(env.Permissions, nodes...), nil
}

func (r *Permission) Type() string { return TypePermission }
func (r *Permission) Name() string { return "Permission" }

func (r *Permission) Description() string {
	return "Requires the permissions: " + strings.Join(r.Nodes, ", ")
}

func (r *Permission) Test(_ context.Context, target Target) TestResult {
	// no permission backend means nothing can be enforced
	if r.permissions == nil {
		return Success()
	}
	var missing []string
	for _, node := range r.Nodes {
		if !r.permissions.Has(target.ID(), node) {
			missing = append(missing, node)
		}
	}
	if len(missing) == 0 {
		return Success()
	}
	return Failure("Missing permission: " + strings.Join(missing, ", "))
}

// Level requires a minimum player level.
type Level struct {
	MinLevel int
}

func newLevel(_ Env, params map[string]any) (Requirement, error) {
	lvl, err := intParam(params, "level")
	if err != nil {
		return nil, err
	}
	return &Level{MinLevel: lvl}, nil
}

func (r *Level) Type() string { return TypeLevel }
func (r *Level) Name() string { return "Level " + strconv.Itoa(r.MinLevel) }

func (r *Level) Description() string {
	return fmt.Sprintf("Requires at least level %d.", r.MinLevel)
}

func (r *Level) Test(_ context.Context, target Target) TestResult {
	lvl := target.CurrentLevel()
	return Of(lvl >= r.MinLevel,
		fmt.Sprintf("Requires level %d, you are level %d (%d more needed).", r.MinLevel, lvl, r.MinLevel-lvl))
}

// Money requires the player's account to hold at least Amount.
type Money struct {
	Amount float64
	wallet Wallet
}

// NewMoney builds a money requirement directly.
func NewMoney(wallet Wallet, amount float64) *Money {
	return &Money{Amount: amount, wallet: wallet}
}

func newMoney(env Env, params map[string]any) (Requirement, error) {
	amount, err := floatParam(params, "amount")
	if err != nil {
		return nil, err
	}
	return NewMoney(env.Wallet, amount), nil
}

func (r *Money) Type() string { return TypeMoney }
func (r *Money) Name() string { return "Money" }

func (r *Money) format() string {
	if r.wallet == nil {
		return strconv.FormatFloat(r.Amount, 'f', 2, 64)
	}
	return r.wallet.Format(r.Amount)
}

func (r *Money) Description() string {
	return fmt.Sprintf("Requires at least %s to buy this skill.", r.format())
}

func (r *Money) Test(ctx context.Context, target Target) TestResult {
	if r.wallet == nil {
		return Failure("No economy is available to pay " + r.format() + ".")
	}
	ok, err := r.wallet.Has(ctx, target.ID(), r.Amount)
	if err != nil {
		slog.Error("checking balance", "player", target.ID(), "amount", r.Amount, "err", err)
		return Failure("Your balance could not be checked.")
	}
	return Of(ok, fmt.Sprintf("You need at least %s to buy the skill.", r.format()))
}

// SkillPoints requires an amount of unspent skill points.
type SkillPoints struct {
	Points int
}

func newSkillPoints(_ Env, params map[string]any) (Requirement, error) {
	points, err := intParam(params, "skillpoints")
	if err != nil {
		return nil, err
	}
	return &SkillPoints{Points: points}, nil
}

func (r *SkillPoints) Type() string { return TypeSkillPoints }
func (r *SkillPoints) Name() string { return "Skill points" }

func (r *SkillPoints) Description() string {
	return fmt.Sprintf("Requires %d skill point(s).", r.Points)
}

func (r *SkillPoints) Test(_ context.Context, target Target) TestResult {
	have := target.SkillPoints()
	return Of(have >= r.Points,
		fmt.Sprintf("You need %d skill point(s) but only have %d (%d missing).", r.Points, have, r.Points-have))
}

// Skill requires other skills to be unlocked first.
type Skill struct {
	Aliases []string
}

func newSkill(_ Env, params map[string]any) (Requirement, error) {
	aliases, err := stringList(params, "skills")
	if err != nil {
		return nil, err
	}
	return &Skill{Aliases: aliases}, nil
}

func (r *Skill) Type() string { return TypeSkill }
func (r *Skill) Name() string { return "Skills" }

func (r *Skill) Description() string {
	return "Requires the skills: " + strings.Join(r.Aliases, ", ")
}

func (r *Skill) Test(_ context.Context, target Target) TestResult {
	result := Success()
	for _, alias := range r.Aliases {
		result = result.Merge(Of(target.HasSkill(alias), "Requires the skill "+alias+"."))
	}
	return result
}

var errMissingParam = errors.New("missing parameter")

func intParam(params map[string]any, key string) (int, error) {
	switch v := params[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%w: %s", errMissingParam, key)
	default:
		return 0, fmt.Errorf("parameter %s: unexpected type %T", key, v)
	}
}

func floatParam(params map[string]any, key string) (float64, error) {
	switch v := params[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %w", key, err)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("%w: %s", errMissingParam, key)
	default:
		return 0, fmt.Errorf("parameter %s: unexpected type %T", key, v)
	}
}

func stringList(params map[string]any, key string) ([]string, error) {
	switch v := params[key].(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s: unexpected element %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("%w: %s", errMissingParam, key)
	default:
		return nil, fmt.Errorf("parameter %s: unexpected type %T", key, v)
	}
}
