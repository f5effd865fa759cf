package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rcskills/internal/model"
)

// SlotRow — строка таблицы skill_slots.
type SlotRow struct {
	ID       uuid.UUID
	PlayerID uuid.UUID
	Position int
	Status   string
	// SkillID is uuid.Nil for empty slots.
	SkillID uuid.UUID
}

// SlotRepository управляет слотами навыков в БД.
type SlotRepository struct {
	db *pgxpool.Pool
}

// NewSlotRepository создаёт новый SlotRepository.
func NewSlotRepository(db *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{db: db}
}

// LoadByPlayer загружает слоты игрока в порядке position.
func (r *SlotRepository) LoadByPlayer(ctx context.Context, playerID uuid.UUID) ([]SlotRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, position, status, skill_id
		 FROM skill_slots WHERE player_id = $1 ORDER BY position`, playerID)
	if err != nil {
		return nil, fmt.Errorf("querying slots for player %s: %w", playerID, err)
	}
	defer rows.Close()

	var out []SlotRow
	for rows.Next() {
		var (
			s       SlotRow
			skillID *uuid.UUID
		)
		if err := rows.Scan(&s.ID, &s.PlayerID, &s.Position, &s.Status, &skillID); err != nil {
			return nil, fmt.Errorf("scanning slot row: %w", err)
		}
		if skillID != nil {
			s.SkillID = *skillID
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slot rows: %w", err)
	}
	return out, nil
}

// SaveAllTx сохраняет слоты игрока в рамках транзакции (полная перезапись).
// ID слотов сохраняются.
func (r *SlotRepository) SaveAllTx(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, slots []*model.SkillSlot) error {
	if _, err := tx.Exec(ctx, `DELETE FROM skill_slots WHERE player_id = $1`, playerID); err != nil {
		return fmt.Errorf("deleting existing slots: %w", err)
	}

	for i, s := range slots {
		var skillID *uuid.UUID
		if s.SkillID != uuid.Nil {
			skillID = &s.SkillID
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO skill_slots (id, player_id, position, status, skill_id) VALUES ($1, $2, $3, $4, $5)`,
			s.ID, playerID, i, s.Status.String(), skillID,
		); err != nil {
			return fmt.Errorf("inserting slot %d: %w", i, err)
		}
	}
	return nil
}
