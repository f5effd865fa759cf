package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rcskills/internal/model"
)

// TemplateRow — строка таблицы skill_templates.
type TemplateRow struct {
	ID          uuid.UUID
	Alias       string
	Name        string
	Type        string
	Description string
	Level       int
	Money       float64
	SkillPoints int
	SkillSlots  int
	Hidden      bool
	Enabled     bool
	Categories  []string
	Config      map[string]any
}

// TemplateRepository хранит шаблоны навыков, загруженные из конфигов.
type TemplateRepository struct {
	db *pgxpool.Pool
}

// NewTemplateRepository создаёт новый TemplateRepository.
func NewTemplateRepository(db *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// UpsertAll сохраняет шаблоны одной транзакцией (INSERT ... ON CONFLICT).
func (r *TemplateRepository) UpsertAll(ctx context.Context, templates []*model.SkillTemplate) error {
	if len(templates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range templates {
		config := t.Config
		if config == nil {
			config = map[string]any{}
		}
		categories := t.Categories
		if categories == nil {
			categories = []string{}
		}
		batch.Queue(
			`INSERT INTO skill_templates
			 (id, alias, name, type, description, level, money, skill_points, skill_slots,
			  hidden, enabled, categories, config)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			 ON CONFLICT (id) DO UPDATE SET
			  alias=$2, name=$3, type=$4, description=$5, level=$6, money=$7,
			  skill_points=$8, skill_slots=$9, hidden=$10, enabled=$11,
			  categories=$12, config=$13, updated_at=now()`,
			t.ID, t.Alias, t.Name, t.Type, t.Description, t.Level, t.Money,
			t.SkillPoints, t.SkillSlots, t.Hidden, t.Enabled, categories, config,
		)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(ctx, tx, "templates")

	br := tx.SendBatch(ctx, batch)
	for _, t := range templates {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck
			return fmt.Errorf("upserting skill template %s: %w", t.Alias, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing template batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing templates: %w", err)
	}
	return nil
}

// LoadAll загружает все шаблоны, упорядоченные по alias.
func (r *TemplateRepository) LoadAll(ctx context.Context) ([]TemplateRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, alias, name, type, description, level, money, skill_points, skill_slots,
		        hidden, enabled, categories, config
		 FROM skill_templates ORDER BY alias`)
	if err != nil {
		return nil, fmt.Errorf("querying skill templates: %w", err)
	}
	defer rows.Close()

	var out []TemplateRow
	for rows.Next() {
		var t TemplateRow
		if err := rows.Scan(&t.ID, &t.Alias, &t.Name, &t.Type, &t.Description, &t.Level, &t.Money,
			&t.SkillPoints, &t.SkillSlots, &t.Hidden, &t.Enabled, &t.Categories, &t.Config); err != nil {
			return nil, fmt.Errorf("scanning skill template row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skill template rows: %w", err)
	}
	return out, nil
}

// SetEnabled сохраняет флаг enabled шаблона.
func (r *TemplateRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE skill_templates SET enabled = $2, updated_at = now() WHERE id = $1`, id, enabled,
	); err != nil {
		return fmt.Errorf("updating skill template %s: %w", id, err)
	}
	return nil
}

// DisableMissing выключает шаблоны, которых больше нет в конфигах.
// Возвращает их alias.
func (r *TemplateRepository) DisableMissing(ctx context.Context, known []uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE skill_templates SET enabled = FALSE, updated_at = now()
		 WHERE enabled AND NOT (id = ANY($1))
		 RETURNING alias`, known)
	if err != nil {
		return nil, fmt.Errorf("disabling missing skill templates: %w", err)
	}
	aliases, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting disabled skill templates: %w", err)
	}
	return aliases, nil
}

// Template восстанавливает шаблон без требований и эффекта.
// Используется для шаблонов, удалённых из конфигов: записи игроков продолжают ссылаться на них.
func (t TemplateRow) Template() *model.SkillTemplate {
	return &model.SkillTemplate{
		ID:          t.ID,
		Alias:       t.Alias,
		Name:        t.Name,
		Type:        t.Type,
		Description: t.Description,
		Level:       t.Level,
		Money:       t.Money,
		SkillPoints: t.SkillPoints,
		SkillSlots:  t.SkillSlots,
		Hidden:      t.Hidden,
		Enabled:     t.Enabled,
		Categories:  t.Categories,
		Config:      t.Config,
	}
}
