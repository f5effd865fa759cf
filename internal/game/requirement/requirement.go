// Package requirement evaluates and aggregates the conditions gating skills.
package requirement

import (
	"context"

	"github.com/google/uuid"
)

// Target is the player a requirement is tested against.
type Target interface {
	ID() uuid.UUID
	Name() string
	CurrentLevel() int
	SkillPoints() int
	HasSkill(alias string) bool
}

// Requirement is a pure predicate over a player.
type Requirement interface {
	// Type is the registry tag this requirement was created from.
	Type() string
	Name() string
	Description() string
	// Test must not mutate; ctx bounds collaborator calls such as wallet lookups.
	Test(ctx context.Context, target Target) TestResult
}

// Wallet is the economy capability requirements and actions rely on.
type Wallet interface {
	Has(ctx context.Context, account uuid.UUID, amount float64) (bool, error)
	Withdraw(ctx context.Context, account uuid.UUID, amount float64, memo map[string]string) (bool, error)
	Format(amount float64) string
}

// Permissions answers whether a player holds a permission node.
type Permissions interface {
	Has(player uuid.UUID, permission string) bool
}

// Env carries the collaborators requirement factories may need.
type Env struct {
	Wallet      Wallet
	Permissions Permissions
}

// TestAll folds the results of every requirement with Merge.
// An empty list succeeds.
func TestAll(ctx context.Context, reqs []Requirement, target Target) TestResult {
	result := Success()
	for _, r := range reqs {
		result = result.Merge(r.Test(ctx, target))
	}
	return result
}
