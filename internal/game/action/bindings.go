package action

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogBindings is the Bindings used when no client keeps skill bindings.
// It only records the refresh.
type LogBindings struct {
	Logger *slog.Logger
}

// UpdateBindings logs the refresh at debug level.
func (b LogBindings) UpdateBindings(ctx context.Context, playerID uuid.UUID) {
	l := b.Logger
	if l == nil {
		l = slog.Default()
	}
	l.DebugContext(ctx, "skill bindings refreshed", "player_id", playerID)
}
