package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServer_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServer().Level, cfg.Level)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadServer_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rcskills.yaml")
	content := `
log_level: debug
level_config:
  max_level: 5
  exp_to_next_level: "100"
level_up_config:
  skill_points_per_level: 2
  levels:
    5:
      skillpoints: 3
      slots: 1
slot_config:
  free_resets: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Level.MaxLevel)
	assert.Equal(t, "100", cfg.Level.ExpToNextLevel)
	assert.Equal(t, 2, cfg.LevelUp.SkillPointsPerLevel)
	assert.Equal(t, LevelReward{SkillPoints: 3, Slots: 1}, cfg.LevelUp.Levels[5])
	assert.Equal(t, 0, cfg.Slots.FreeResets)
	// untouched keys keep their defaults
	assert.Equal(t, "100 * pow(2, resets)", cfg.Slots.ResetCost)
}

func TestLoadServer_EnvOverride(t *testing.T) {
	t.Setenv("RCSKILLS_DB_HOST", "db.internal")
	t.Setenv("RCSKILLS_LOG_LEVEL", "warn")

	cfg, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadServer_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("level_config: [oops"), 0o644))

	_, err := LoadServer(path)
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:1/d?sslmode=disable", d.DSN())
}
