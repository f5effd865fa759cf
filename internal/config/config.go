package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the skill server.
type Server struct {
	LogLevel string `yaml:"log_level" env:"RCSKILLS_LOG_LEVEL"`

	// Relative path where the skill configs are located.
	SkillsPath string `yaml:"skills_path" env:"RCSKILLS_SKILLS_PATH"`

	// Database
	Database DatabaseConfig `yaml:"database" envPrefix:"RCSKILLS_DB_"`

	// Expression that calculates the required exp for each level.
	Level Level `yaml:"level_config"`

	// What a player automatically gets when leveling up.
	LevelUp LevelUp `yaml:"level_up_config"`

	Slots Slots `yaml:"slot_config"`

	// Skills that consume no slot are activated right after unlocking.
	AutoActivate bool `yaml:"auto_activate" env:"RCSKILLS_AUTO_ACTIVATE"`

	// Currency name used when formatting money amounts.
	Currency string `yaml:"currency" env:"RCSKILLS_CURRENCY"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Level configures the leveling formula.
// The expression may use x, y, z (set here) and level (the player level).
type Level struct {
	MaxLevel       int     `yaml:"max_level"`
	ExpToNextLevel string  `yaml:"exp_to_next_level"`
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	Z              float64 `yaml:"z"`
}

// LevelUp configures the rewards granted for every level gained.
type LevelUp struct {
	SkillPointsPerLevel int `yaml:"skill_points_per_level"`
	SlotsPerLevel       int `yaml:"slots_per_level"`
	// Additional rewards for specific levels.
	Levels map[int]LevelReward `yaml:"levels"`
}

// LevelReward is an extra reward granted when a specific level is reached.
type LevelReward struct {
	SkillPoints int `yaml:"skillpoints"`
	Slots       int `yaml:"slots"`
}

// Slots configures slot resets.
type Slots struct {
	// Players with at most this many slots in use reset for free.
	FreeResets int `yaml:"free_resets"`
	// Reset cost expression; may use slots, resets and level.
	ResetCost string `yaml:"reset_cost"`
}

// DefaultLevel returns the stock leveling formula.
func DefaultLevel() Level {
	return Level{
		MaxLevel:       100,
		ExpToNextLevel: "(-0.4 * pow(level, 2)) + (x * pow(level, 2))",
		X:              10.4,
	}
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:   "info",
		SkillsPath: "skills",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "rcskills",
			Password: "rcskills",
			DBName:   "rcskills",
			SSLMode:  "disable",
		},
		Level: DefaultLevel(),
		LevelUp: LevelUp{
			SkillPointsPerLevel: 1,
			Levels:              map[int]LevelReward{},
		},
		Slots: Slots{
			FreeResets: 2,
			ResetCost:  "100 * pow(2, resets)",
		},
		AutoActivate: true,
		Currency:     "coins",
	}
}

// LoadServer loads server config from a YAML file and applies
// RCSKILLS_* environment overrides on top.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing env overrides: %w", err)
	}

	return cfg, nil
}
