package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/rcskills/internal/model"
)

// Templates resolves skill templates by their stable ID.
type Templates interface {
	ByID(id uuid.UUID) (*model.SkillTemplate, bool)
}

// PlayerStore атомарно сохраняет/загружает агрегат игрока (player, skills, slots).
// Implements progression.Store.
type PlayerStore struct {
	pool      *pgxpool.Pool
	templates Templates
	players   *PlayerRepository
	skills    *PlayerSkillRepository
	slots     *SlotRepository
}

// NewPlayerStore создаёт новый PlayerStore.
func NewPlayerStore(pool *pgxpool.Pool, templates Templates) *PlayerStore {
	return &PlayerStore{
		pool:      pool,
		templates: templates,
		players:   NewPlayerRepository(pool),
		skills:    NewPlayerSkillRepository(pool),
		slots:     NewSlotRepository(pool),
	}
}

// Load собирает агрегат игрока. Возвращает nil, nil если игрок не найден.
func (s *PlayerStore) Load(ctx context.Context, id uuid.UUID) (*model.Player, error) {
	row, err := s.players.LoadByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	p, err := model.NewPlayer(row.ID, row.Name)
	if err != nil {
		return nil, fmt.Errorf("restoring player %s: %w", id, err)
	}
	p.SetLevelRecord(row.Level, row.TotalExp)
	p.SetSkillPointsRecord(row.SkillPoints)
	p.SetResetCount(row.ResetCount)
	p.SetFreeResets(row.FreeResets)
	for k, v := range row.Settings {
		p.SetSetting(k, v)
	}

	skillRows, err := s.skills.LoadByPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range skillRows {
		skill, err := s.restoreSkill(r)
		if err != nil {
			return nil, err
		}
		if skill == nil {
			continue
		}
		p.AttachSkill(skill)
	}

	slotRows, err := s.slots.LoadByPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, r := range slotRows {
		status, err := model.ParseSlotStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("slot %s of player %s: %w", r.ID, id, err)
		}
		p.AttachSlot(&model.SkillSlot{ID: r.ID, PlayerID: r.PlayerID, Status: status, SkillID: r.SkillID})
	}

	return p, nil
}

func (s *PlayerStore) restoreSkill(r PlayerSkillRow) (*model.PlayerSkill, error) {
	tmpl, ok := s.templates.ByID(r.TemplateID)
	if !ok {
		slog.Warn("skipping skill with unknown template",
			"playerID", r.PlayerID,
			"templateID", r.TemplateID)
		return nil, nil
	}
	status, err := model.ParseSkillStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("skill %s of player %s: %w", tmpl.Alias, r.PlayerID, err)
	}
	suspended, err := model.ParseSkillStatus(r.Suspended)
	if err != nil {
		return nil, fmt.Errorf("skill %s of player %s: %w", tmpl.Alias, r.PlayerID, err)
	}
	return &model.PlayerSkill{
		ID:        r.ID,
		PlayerID:  r.PlayerID,
		Template:  tmpl,
		Status:    status,
		Suspended: suspended,
	}, nil
}

// Insert сохраняет нового игрока вместе с навыками и слотами.
func (s *PlayerStore) Insert(ctx context.Context, p *model.Player) error {
	if err := s.players.Create(ctx, p); err != nil {
		return err
	}
	if len(p.Skills()) == 0 && p.TotalSlots() == 0 {
		return nil
	}
	return s.Save(ctx, p)
}

// Save saves player, skills and slots in a single transaction.
func (s *PlayerStore) Save(ctx context.Context, p *model.Player) error {
	id := p.ID()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for player %s: %w", id, err)
	}
	defer rollback(ctx, tx, "player "+id.String())

	if err := s.players.UpdateTx(ctx, tx, p); err != nil {
		return err
	}
	if err := s.skills.SaveAllTx(ctx, tx, id, p.Skills()); err != nil {
		return fmt.Errorf("saving skills for player %s: %w", id, err)
	}
	if err := s.slots.SaveAllTx(ctx, tx, id, p.SkillSlots()); err != nil {
		return fmt.Errorf("saving slots for player %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction for player %s: %w", id, err)
	}

	slog.Debug("player saved",
		"playerID", id,
		"player", p.Name(),
		"skills", len(p.Skills()),
		"slots", p.TotalSlots())
	return nil
}

// Delete удаляет игрока со всеми зависимыми записями.
func (s *PlayerStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.players.Delete(ctx, id)
}

// FindByTemplate загружает всех игроков, у которых есть запись навыка.
func (s *PlayerStore) FindByTemplate(ctx context.Context, templateID uuid.UUID) ([]*model.Player, error) {
	ids, err := s.skills.PlayersWithTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Player, 0, len(ids))
	for _, id := range ids {
		p, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func rollback(ctx context.Context, tx pgx.Tx, what string) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("rollback failed", "tx", what, "error", err)
	}
}
