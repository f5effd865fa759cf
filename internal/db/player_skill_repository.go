package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rcskills/internal/model"
)

// PlayerSkillRow — строка таблицы player_skills.
type PlayerSkillRow struct {
	ID         uuid.UUID
	PlayerID   uuid.UUID
	TemplateID uuid.UUID
	Status     string
	Suspended  string
}

// PlayerSkillRepository управляет навыками игроков в БД.
type PlayerSkillRepository struct {
	db *pgxpool.Pool
}

// NewPlayerSkillRepository создаёт новый PlayerSkillRepository.
func NewPlayerSkillRepository(db *pgxpool.Pool) *PlayerSkillRepository {
	return &PlayerSkillRepository{db: db}
}

// LoadByPlayer загружает все навыки игрока.
func (r *PlayerSkillRepository) LoadByPlayer(ctx context.Context, playerID uuid.UUID) ([]PlayerSkillRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, template_id, status, suspended
		 FROM player_skills WHERE player_id = $1 ORDER BY id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("querying skills for player %s: %w", playerID, err)
	}
	defer rows.Close()

	var out []PlayerSkillRow
	for rows.Next() {
		var s PlayerSkillRow
		if err := rows.Scan(&s.ID, &s.PlayerID, &s.TemplateID, &s.Status, &s.Suspended); err != nil {
			return nil, fmt.Errorf("scanning player skill row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating player skill rows: %w", err)
	}
	return out, nil
}

// PlayersWithTemplate возвращает ID игроков, у которых есть запись навыка.
func (r *PlayerSkillRepository) PlayersWithTemplate(ctx context.Context, templateID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT player_id FROM player_skills WHERE template_id = $1`, templateID)
	if err != nil {
		return nil, fmt.Errorf("querying players of template %s: %w", templateID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collecting players of template %s: %w", templateID, err)
	}
	return ids, nil
}

// SaveAllTx сохраняет навыки игрока в рамках транзакции.
// Записи, которых больше нет в агрегате, удаляются.
func (r *PlayerSkillRepository) SaveAllTx(ctx context.Context, tx pgx.Tx, playerID uuid.UUID, skills []*model.PlayerSkill) error {
	ids := make([]uuid.UUID, 0, len(skills))
	for _, s := range skills {
		ids = append(ids, s.ID)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM player_skills WHERE player_id = $1 AND NOT (id = ANY($2))`, playerID, ids,
	); err != nil {
		return fmt.Errorf("deleting stale skills: %w", err)
	}

	if len(skills) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range skills {
		batch.Queue(
			`INSERT INTO player_skills (id, player_id, template_id, status, suspended)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET status = $4, suspended = $5`,
			s.ID, playerID, s.Template.ID, s.Status.String(), s.Suspended.String(),
		)
	}
	br := tx.SendBatch(ctx, batch)
	for _, s := range skills {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("upserting skill %s: %w", s.Alias(), err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing skill batch: %w", err)
	}
	return nil
}
