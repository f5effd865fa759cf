package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rcskills/internal/model"
)

// PlayerRow — строка таблицы players.
type PlayerRow struct {
	ID          uuid.UUID
	Name        string
	Level       int
	TotalExp    int64
	SkillPoints int
	ResetCount  int
	FreeResets  int
	Settings    map[string]string
}

// PlayerRepository управляет игроками в БД.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository создаёт новый PlayerRepository.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// LoadByID загружает игрока по ID.
// Возвращает nil если игрок не найден (не ошибка).
func (r *PlayerRepository) LoadByID(ctx context.Context, id uuid.UUID) (*PlayerRow, error) {
	var row PlayerRow
	err := r.db.QueryRow(ctx,
		`SELECT id, name, level, total_exp, skill_points, reset_count, free_resets, settings
		 FROM players WHERE id = $1`, id,
	).Scan(&row.ID, &row.Name, &row.Level, &row.TotalExp, &row.SkillPoints,
		&row.ResetCount, &row.FreeResets, &row.Settings)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying player %s: %w", id, err)
	}
	return &row, nil
}

// Create вставляет нового игрока.
func (r *PlayerRepository) Create(ctx context.Context, p *model.Player) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO players (id, name, level, total_exp, skill_points, reset_count, free_resets, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID(), p.Name(), p.CurrentLevel(), p.TotalExp(), p.SkillPoints(),
		p.ResetCount(), p.FreeResets(), p.Settings(),
	); err != nil {
		return fmt.Errorf("creating player %s: %w", p.ID(), err)
	}
	return nil
}

// UpdateTx обновляет игрока в рамках транзакции.
func (r *PlayerRepository) UpdateTx(ctx context.Context, tx pgx.Tx, p *model.Player) error {
	tag, err := tx.Exec(ctx,
		`UPDATE players SET name = $2, level = $3, total_exp = $4, skill_points = $5,
		        reset_count = $6, free_resets = $7, settings = $8, updated_at = now()
		 WHERE id = $1`,
		p.ID(), p.Name(), p.CurrentLevel(), p.TotalExp(), p.SkillPoints(),
		p.ResetCount(), p.FreeResets(), p.Settings(),
	)
	if err != nil {
		return fmt.Errorf("updating player %s: %w", p.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating player %s: %w", p.ID(), pgx.ErrNoRows)
	}
	return nil
}

// Delete удаляет игрока; навыки, слоты и история удаляются каскадно.
func (r *PlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM players WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting player %s: %w", id, err)
	}
	return nil
}
