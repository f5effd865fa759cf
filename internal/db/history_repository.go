package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rcskills/internal/game/progression"
)

// HistoryRepository хранит историю изменений опыта (player_history).
type HistoryRepository struct {
	db *pgxpool.Pool
}

// NewHistoryRepository создаёт новый HistoryRepository.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordExp implements progression.ExpRecorder.
func (r *HistoryRepository) RecordExp(ctx context.Context, rec progression.ExpRecord) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO player_history (player_id, old_exp, new_exp, old_level, new_level, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.PlayerID, rec.OldExp, rec.NewExp, rec.OldLevel, rec.NewLevel, rec.Reason, rec.At,
	); err != nil {
		return fmt.Errorf("recording exp history for %s: %w", rec.PlayerID, err)
	}
	return nil
}

// Recent возвращает последние limit записей игрока, новые первыми.
func (r *HistoryRepository) Recent(ctx context.Context, playerID uuid.UUID, limit int) ([]progression.ExpRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT player_id, old_exp, new_exp, old_level, new_level, reason, created_at
		 FROM player_history WHERE player_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", playerID, err)
	}
	defer rows.Close()

	var out []progression.ExpRecord
	for rows.Next() {
		var rec progression.ExpRecord
		if err := rows.Scan(&rec.PlayerID, &rec.OldExp, &rec.NewExp, &rec.OldLevel, &rec.NewLevel,
			&rec.Reason, &rec.At); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return out, nil
}
