package skill

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Holder is the player a skill effect is applied to.
type Holder interface {
	ID() uuid.UUID
	Name() string
}

// Effect is what a skill does while it is active.
// Apply runs when the skill becomes active, Remove when it stops being active.
type Effect interface {
	Name() string
	Apply(ctx context.Context, holder Holder) error
	Remove(ctx context.Context, holder Holder) error
}

// NoneEffect has no effect besides a debug log line. Skills that only gate
// content (e.g. through permissions checked elsewhere) use it.
type NoneEffect struct {
	alias string
}

// NewNoneEffect creates the default effect.
func NewNoneEffect(params map[string]any) (Effect, error) {
	alias, _ := params["alias"].(string)
	return &NoneEffect{alias: alias}, nil
}

func (e *NoneEffect) Name() string { return TypeNone }

func (e *NoneEffect) Apply(_ context.Context, holder Holder) error {
	slog.Debug("skill applied", "skill", e.alias, "player", holder.Name())
	return nil
}

func (e *NoneEffect) Remove(_ context.Context, holder Holder) error {
	slog.Debug("skill removed", "skill", e.alias, "player", holder.Name())
	return nil
}
