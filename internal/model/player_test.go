package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := NewPlayer(uuid.New(), "Silthus")
	require.NoError(t, err)
	return p
}

func TestNewPlayer_Validation(t *testing.T) {
	_, err := NewPlayer(uuid.Nil, "Silthus")
	assert.Error(t, err)
	_, err = NewPlayer(uuid.New(), "")
	assert.Error(t, err)

	p := newTestPlayer(t)
	assert.Equal(t, 1, p.CurrentLevel())
	assert.Equal(t, int64(0), p.TotalExp())
	assert.Zero(t, p.TotalSlots())
}

func TestPlayer_ClampsOnWrite(t *testing.T) {
	p := newTestPlayer(t)

	p.SetSkillPointsRecord(-5)
	assert.Equal(t, 0, p.SkillPoints())

	p.SetLevelRecord(0, -10)
	assert.Equal(t, Level{Current: 1, TotalExp: 0}, p.Level())

	p.SetFreeResets(-1)
	p.SetResetCount(-1)
	assert.Zero(t, p.FreeResets())
	assert.Zero(t, p.ResetCount())
}

func TestPlayer_SlotCountsAreDerived(t *testing.T) {
	p := newTestPlayer(t)
	tmpl := &SkillTemplate{Alias: "fireball", SkillSlots: 1, Enabled: true}

	p.AddSlots(3, SlotFree)
	p.AddSlots(1, SlotLocked)

	assert.Equal(t, 4, p.TotalSlots())
	assert.Equal(t, 3, p.SlotCount())
	assert.Equal(t, 3, p.FreeSkillSlots())
	assert.Equal(t, 0, p.ActiveSlotCount())

	ps := p.EnsureSkill(tmpl)
	slot, ok := p.FreeSkillSlot()
	require.True(t, ok)
	require.NoError(t, slot.Occupy(ps))

	assert.Equal(t, 3, p.SlotCount())
	assert.Equal(t, 2, p.FreeSkillSlots())
	assert.Equal(t, 1, p.ActiveSlotCount())
	assert.Equal(t, []*SkillSlot{slot}, p.SlotsOf(ps.ID))

	assert.Error(t, slot.Occupy(ps), "occupied slot cannot be taken twice")

	slot.Release()
	assert.True(t, slot.Free())
	assert.Equal(t, uuid.Nil, slot.SkillID)
	assert.Equal(t, 3, p.FreeSkillSlots())
}

func TestPlayer_RemoveSlotPrefersFree(t *testing.T) {
	p := newTestPlayer(t)
	tmpl := &SkillTemplate{Alias: "fireball", SkillSlots: 1, Enabled: true}
	ps := p.EnsureSkill(tmpl)

	p.AddSlots(3, SlotFree)
	inUse := p.SkillSlots()[1]
	require.NoError(t, inUse.Occupy(ps))

	removed, ok := p.RemoveSlot()
	require.True(t, ok)
	assert.True(t, removed.Free())
	assert.Equal(t, 2, p.TotalSlots())
	assert.Contains(t, p.SkillSlots(), inUse)

	removed, ok = p.RemoveSlot()
	require.True(t, ok)
	assert.True(t, removed.Free())
	assert.Equal(t, []*SkillSlot{inUse}, p.SkillSlots())

	// only occupied slots left
	removed, ok = p.RemoveSlot()
	require.True(t, ok)
	assert.Equal(t, inUse, removed)

	_, ok = p.RemoveSlot()
	assert.False(t, ok)
}

func TestPlayer_RemoveSlotOrder(t *testing.T) {
	tests := []struct {
		name     string
		statuses []SlotStatus
		want     []SlotStatus
	}{
		{"free before locked", []SlotStatus{SlotLocked, SlotFree}, []SlotStatus{SlotFree, SlotLocked}},
		{"locked before in use", []SlotStatus{SlotInUse, SlotLocked}, []SlotStatus{SlotLocked, SlotInUse}},
		{"all kinds", []SlotStatus{SlotInUse, SlotLocked, SlotFree, SlotLocked},
			[]SlotStatus{SlotFree, SlotLocked, SlotLocked, SlotInUse}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlayer(t)
			for _, st := range tt.statuses {
				p.AddSlots(1, st)
			}

			var got []SlotStatus
			for {
				removed, ok := p.RemoveSlot()
				if !ok {
					break
				}
				got = append(got, removed.Status)
			}
			assert.Equal(t, tt.want, got)
			assert.Zero(t, p.TotalSlots())
		})
	}
}

func TestPlayer_SkillQueries(t *testing.T) {
	p := newTestPlayer(t)
	fireball := &SkillTemplate{Alias: "fireball", Enabled: true}
	heal := &SkillTemplate{Alias: "heal", Enabled: true}

	assert.False(t, p.HasSkill("fireball"))

	fs := p.EnsureSkill(fireball)
	assert.Same(t, fs, p.EnsureSkill(fireball), "EnsureSkill is get-or-create")
	assert.False(t, p.HasSkill("fireball"), "a locked record is not owned")

	fs.Unlock()
	require.NoError(t, fs.Activate())
	hs := p.EnsureSkill(heal)
	hs.Unlock()

	assert.True(t, p.HasSkill("fireball"))
	assert.True(t, p.HasActiveSkill("fireball"))
	assert.True(t, p.HasSkill("heal"))
	assert.False(t, p.HasActiveSkill("heal"))
	assert.Equal(t, 2, p.SkillCount())
	assert.Equal(t, []*PlayerSkill{fs}, p.ActiveSkills())

	hs.Remove()
	assert.False(t, p.HasSkill("heal"))
	assert.Equal(t, 1, p.SkillCount())
	assert.Len(t, p.Skills(), 2, "removed records are retained")

	detached, ok := p.DetachSkill("heal")
	require.True(t, ok)
	assert.Same(t, hs, detached)
	assert.Len(t, p.Skills(), 1)
}

func TestPlayer_Settings(t *testing.T) {
	p := newTestPlayer(t)
	p.SetSetting("bind.mode", "item")

	v, ok := p.Setting("bind.mode")
	assert.True(t, ok)
	assert.Equal(t, "item", v)

	copied := p.Settings()
	copied["bind.mode"] = "changed"
	v, _ = p.Setting("bind.mode")
	assert.Equal(t, "item", v)

	p.SetSetting("bind.mode", "")
	_, ok = p.Setting("bind.mode")
	assert.False(t, ok)
}
