package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/rcskills/internal/game/requirement"
	"github.com/udisondev/rcskills/internal/model"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSkillConfigs(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "Fireball.yml", `
name: Fireball
level: 5
money: 100
skillpoints: 2
skillslots: 1
categories: [fire]
requirements:
  - type: skill
    skills: [spark]
with:
  damage: 10
`)
	writeSkill(t, dir, "passive/swim.yaml", `
alias: swimming
hidden: true
enabled: false
`)
	writeSkill(t, dir, "README.md", "not a skill")

	configs, err := LoadSkillConfigs(dir)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	byAlias := map[string]SkillConfig{}
	for _, c := range configs {
		byAlias[c.Alias] = c
	}

	fireball, ok := byAlias["fireball"]
	require.True(t, ok, "alias defaults to the lowercased file name")
	assert.Equal(t, "Fireball", fireball.Name)
	assert.Equal(t, 5, fireball.Level)
	assert.Equal(t, 100.0, fireball.Money)
	assert.True(t, fireball.IsEnabled())
	assert.Len(t, fireball.Requirements, 1)
	assert.Equal(t, 10, fireball.With["damage"])

	swim, ok := byAlias["swimming"]
	require.True(t, ok)
	assert.Equal(t, "swimming", swim.Name)
	assert.False(t, swim.IsEnabled())
	assert.True(t, swim.Hidden)
}

func TestLoadSkillConfigs_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		configs, err := LoadSkillConfigs(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, configs)
	})

	t.Run("invalid yaml names the file", func(t *testing.T) {
		dir := t.TempDir()
		writeSkill(t, dir, "broken.yml", "level: [")
		_, err := LoadSkillConfigs(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.yml")
	})

	t.Run("duplicate alias", func(t *testing.T) {
		dir := t.TempDir()
		writeSkill(t, dir, "a.yml", "alias: same")
		writeSkill(t, dir, "b.yml", "alias: same")
		_, err := LoadSkillConfigs(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})
}

func TestBuildTemplate(t *testing.T) {
	reg := requirement.NewRegistry(requirement.Env{})

	tmpl, err := BuildTemplate(SkillConfig{
		Alias:        "fireball",
		Name:         "Fireball",
		Level:        5,
		Money:        100,
		SkillPoints:  2,
		SkillSlots:   1,
		Requirements: []map[string]any{{"type": "skill", "skills": []any{"spark"}}},
	}, reg)
	require.NoError(t, err)

	assert.Equal(t, TemplateID("fireball"), tmpl.ID)
	assert.Equal(t, "none", tmpl.Type)
	assert.NotNil(t, tmpl.Effect)
	assert.True(t, tmpl.Enabled)
	assert.True(t, tmpl.ConsumesSlot())

	var unlock, cost []string
	for _, r := range tmpl.Requirements {
		unlock = append(unlock, r.Type())
	}
	for _, r := range tmpl.CostRequirements {
		cost = append(cost, r.Type())
	}
	assert.Equal(t, []string{requirement.TypePermission, requirement.TypeLevel, requirement.TypeSkill}, unlock)
	assert.Equal(t, []string{requirement.TypeMoney, requirement.TypeSkillPoints}, cost)

	p, err := model.NewPlayer(uuid.New(), "Silthus")
	require.NoError(t, err)
	res := tmpl.TestRequirements(context.Background(), p)
	assert.Len(t, res.Reasons(), 2, "level and skill fail, permission passes without a backend")
}

func TestBuildTemplate_Errors(t *testing.T) {
	reg := requirement.NewRegistry(requirement.Env{})

	_, err := BuildTemplate(SkillConfig{Alias: "x", ID: "not-a-uuid"}, reg)
	assert.Error(t, err)

	_, err = BuildTemplate(SkillConfig{Alias: "x", Requirements: []map[string]any{{"type": "bogus"}}}, reg)
	assert.Error(t, err)

	_, err = BuildTemplate(SkillConfig{Alias: "x", Type: "bogus"}, reg)
	assert.Error(t, err)

	id := uuid.New()
	tmpl, err := BuildTemplate(SkillConfig{Alias: "x", ID: id.String()}, reg)
	require.NoError(t, err)
	assert.Equal(t, id, tmpl.ID)
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "fireball.yml", "name: Fireball")
	writeSkill(t, dir, "secret.yml", "hidden: true")
	writeSkill(t, dir, "old.yml", "enabled: false")

	c, err := LoadCatalog(dir, requirement.NewRegistry(requirement.Env{}))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	fireball, ok := c.Get("FIREBALL")
	require.True(t, ok)
	byID, ok := c.ByID(fireball.ID)
	require.True(t, ok)
	assert.Same(t, fireball, byID)

	var all []string
	for _, tmpl := range c.All() {
		all = append(all, tmpl.Alias)
	}
	assert.Equal(t, []string{"fireball", "old", "secret"}, all)

	visible := c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "fireball", visible[0].Alias)

	replacement := &model.SkillTemplate{ID: uuid.New(), Alias: "fireball", Enabled: true}
	c.Add(replacement)
	_, ok = c.ByID(fireball.ID)
	assert.False(t, ok, "replaced template is dropped from the id index")
	assert.Equal(t, 3, c.Len())
}
