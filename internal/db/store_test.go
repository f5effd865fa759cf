package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/udisondev/rcskills/internal/game/progression"
	"github.com/udisondev/rcskills/internal/model"
	"github.com/udisondev/rcskills/internal/testutil"
)

type templateSet map[uuid.UUID]*model.SkillTemplate

func (s templateSet) ByID(id uuid.UUID) (*model.SkillTemplate, bool) {
	t, ok := s[id]
	return t, ok
}

type StoreSuite struct {
	suite.Suite
	pool      *pgxpool.Pool
	templates templateSet
	store     *PlayerStore
	fireball  *model.SkillTemplate
	heal      *model.SkillTemplate
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pool = testutil.SetupTestDB(s.T())
}

func (s *StoreSuite) SetupTest() {
	testutil.TruncateAll(s.T(), s.pool)

	s.fireball = testutil.NewTemplate("fireball", 1)
	s.heal = testutil.NewTemplate("heal", 0)
	s.templates = templateSet{s.fireball.ID: s.fireball, s.heal.ID: s.heal}
	s.Require().NoError(NewTemplateRepository(s.pool).UpsertAll(s.ctx(), []*model.SkillTemplate{s.fireball, s.heal}))

	s.store = NewPlayerStore(s.pool, s.templates)
}

func (s *StoreSuite) ctx() context.Context {
	return testutil.ContextWithTimeout(s.T(), 30*time.Second)
}

func (s *StoreSuite) newPlayer() *model.Player {
	p := testutil.NewPlayer(s.T(), "Silthus")
	s.Require().NoError(s.store.Insert(s.ctx(), p))
	return p
}

func (s *StoreSuite) TestLoadMissing() {
	p, err := s.store.Load(s.ctx(), uuid.New())
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *StoreSuite) TestRoundTrip() {
	p := s.newPlayer()
	p.SetLevelRecord(4, 350)
	p.SetSkillPointsRecord(7)
	p.SetResetCount(2)
	p.SetFreeResets(1)
	p.SetSetting("hud", "off")

	p.AddSlots(2, model.SlotFree)
	p.AddSlots(1, model.SlotLocked)
	fireball := p.EnsureSkill(s.fireball)
	fireball.Unlock()
	s.Require().NoError(fireball.Activate())
	slot, ok := p.FreeSkillSlot()
	s.Require().True(ok)
	s.Require().NoError(slot.Occupy(fireball))
	heal := p.EnsureSkill(s.heal)
	heal.Unlock()
	heal.Disable()

	s.Require().NoError(s.store.Save(s.ctx(), p))

	loaded, err := s.store.Load(s.ctx(), p.ID())
	s.Require().NoError(err)
	s.Require().NotNil(loaded)

	s.Equal("Silthus", loaded.Name())
	s.Equal(4, loaded.CurrentLevel())
	s.Equal(int64(350), loaded.TotalExp())
	s.Equal(7, loaded.SkillPoints())
	s.Equal(2, loaded.ResetCount())
	s.Equal(1, loaded.FreeResets())
	v, _ := loaded.Setting("hud")
	s.Equal("off", v)

	s.Equal(3, loaded.TotalSlots())
	s.Equal(1, loaded.ActiveSlotCount())
	s.Equal(1, loaded.FreeSkillSlots())
	s.Equal(model.SlotLocked, loaded.SkillSlots()[2].Status, "slot order is kept")

	lf, ok := loaded.Skill("fireball")
	s.Require().True(ok)
	s.Equal(fireball.ID, lf.ID)
	s.Equal(model.SkillActive, lf.Status)
	s.Len(loaded.SlotsOf(lf.ID), 1)

	lh, ok := loaded.Skill("heal")
	s.Require().True(ok)
	s.Equal(model.SkillDisabled, lh.Status)
	s.Equal(model.SkillUnlocked, lh.Suspended)
}

func (s *StoreSuite) TestSaveRemovesDetachedSkills() {
	p := s.newPlayer()
	p.EnsureSkill(s.fireball).Unlock()
	p.EnsureSkill(s.heal).Unlock()
	s.Require().NoError(s.store.Save(s.ctx(), p))

	p.DetachSkill("heal")
	s.Require().NoError(s.store.Save(s.ctx(), p))

	loaded, err := s.store.Load(s.ctx(), p.ID())
	s.Require().NoError(err)
	s.Len(loaded.Skills(), 1)
	s.False(loaded.HasSkill("heal"))
}

func (s *StoreSuite) TestUnknownTemplateIsSkipped() {
	p := s.newPlayer()
	p.EnsureSkill(s.heal).Unlock()
	s.Require().NoError(s.store.Save(s.ctx(), p))

	delete(s.templates, s.heal.ID)
	loaded, err := s.store.Load(s.ctx(), p.ID())
	s.Require().NoError(err)
	s.Empty(loaded.Skills())
}

func (s *StoreSuite) TestSaveUnknownPlayerFails() {
	p := testutil.NewPlayer(s.T(), "Ghost")
	s.Error(s.store.Save(s.ctx(), p))
}

func (s *StoreSuite) TestFindByTemplate() {
	a := s.newPlayer()
	a.EnsureSkill(s.fireball).Unlock()
	s.Require().NoError(s.store.Save(s.ctx(), a))
	b := s.newPlayer()
	b.EnsureSkill(s.heal).Unlock()
	s.Require().NoError(s.store.Save(s.ctx(), b))

	found, err := s.store.FindByTemplate(s.ctx(), s.fireball.ID)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(a.ID(), found[0].ID())
}

func (s *StoreSuite) TestDeleteCascades() {
	p := s.newPlayer()
	p.AddSlots(1, model.SlotFree)
	p.EnsureSkill(s.fireball).Unlock()
	s.Require().NoError(s.store.Save(s.ctx(), p))

	s.Require().NoError(s.store.Delete(s.ctx(), p.ID()))

	loaded, err := s.store.Load(s.ctx(), p.ID())
	s.Require().NoError(err)
	s.Nil(loaded)

	var n int
	s.Require().NoError(s.pool.QueryRow(s.ctx(), `SELECT count(*) FROM skill_slots`).Scan(&n))
	s.Zero(n)
}

func (s *StoreSuite) TestHistory() {
	p := s.newPlayer()
	repo := NewHistoryRepository(s.pool)
	at := time.Now().UTC().Truncate(time.Millisecond)

	s.Require().NoError(repo.RecordExp(s.ctx(), progression.ExpRecord{
		PlayerID: p.ID(), OldExp: 0, NewExp: 150, OldLevel: 1, NewLevel: 2, Reason: "quest", At: at,
	}))
	s.Require().NoError(repo.RecordExp(s.ctx(), progression.ExpRecord{
		PlayerID: p.ID(), OldExp: 150, NewExp: 160, OldLevel: 2, NewLevel: 2, Reason: "kill", At: at.Add(time.Second),
	}))

	recs, err := repo.Recent(s.ctx(), p.ID(), 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("kill", recs[0].Reason)
	s.Equal(int64(150), recs[1].NewExp)
	s.Equal(2, recs[1].NewLevel)
}

func (s *StoreSuite) TestTemplates() {
	repo := NewTemplateRepository(s.pool)

	disabled, err := repo.DisableMissing(s.ctx(), []uuid.UUID{s.fireball.ID})
	s.Require().NoError(err)
	s.Equal([]string{"heal"}, disabled)

	rows, err := repo.LoadAll(s.ctx())
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("fireball", rows[0].Alias)
	s.True(rows[0].Enabled)
	s.False(rows[1].Enabled)

	restored := rows[1].Template()
	s.Equal(s.heal.ID, restored.ID)
	s.False(restored.Enabled)

	s.Require().NoError(repo.SetEnabled(s.ctx(), s.heal.ID, true))
	rows, err = repo.LoadAll(s.ctx())
	s.Require().NoError(err)
	s.True(rows[1].Enabled)
}

func (s *StoreSuite) TestWallet() {
	w := NewWalletRepository(s.pool, "coins")
	acc := uuid.New()

	balance, err := w.Balance(s.ctx(), acc)
	s.Require().NoError(err)
	s.Zero(balance)

	s.Require().NoError(w.Deposit(s.ctx(), acc, 150, map[string]string{"reason": "test"}))
	ok, err := w.Has(s.ctx(), acc, 150)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = w.Withdraw(s.ctx(), acc, 200, nil)
	s.Require().NoError(err)
	s.False(ok, "not enough money")

	ok, err = w.Withdraw(s.ctx(), acc, 100.5, map[string]string{"reason": "buy", "skill": "fireball"})
	s.Require().NoError(err)
	s.True(ok)

	balance, err = w.Balance(s.ctx(), acc)
	s.Require().NoError(err)
	s.InDelta(49.5, balance, 0.001)

	var memo map[string]string
	s.Require().NoError(s.pool.QueryRow(s.ctx(),
		`SELECT memo FROM wallet_transactions WHERE account_id = $1 AND amount < 0`, acc).Scan(&memo))
	s.Equal("fireball", memo["skill"])

	s.Equal("49.50 coins", w.Format(49.5))
	s.Error(w.Deposit(s.ctx(), acc, 0, nil))
}
