package data

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// SkillConfig — содержимое одного YAML файла навыка.
type SkillConfig struct {
	// ID is optional; templates without one get an id derived from the alias.
	ID          string   `yaml:"id"`
	Alias       string   `yaml:"alias"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Level       int      `yaml:"level"`
	Money       float64  `yaml:"money"`
	SkillPoints int      `yaml:"skillpoints"`
	SkillSlots  int      `yaml:"skillslots"`
	Hidden      bool     `yaml:"hidden"`
	Enabled     *bool    `yaml:"enabled"`
	Categories  []string `yaml:"categories"`

	// Requirements lists extra unlock requirements, each with a "type" key.
	Requirements []map[string]any `yaml:"requirements"`

	// With is handed to the skill effect.
	With map[string]any `yaml:"with"`

	// File the config was read from.
	File string `yaml:"-"`
}

// IsEnabled reports the enabled flag, true when unset.
func (c *SkillConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func isSkillFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadSkillConfigs parses every skill file below dir concurrently.
// A missing directory yields no configs. Aliases default to the file name
// and must be unique.
func LoadSkillConfigs(dir string) ([]SkillConfig, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isSkillFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("skill directory not found", "path", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning skills %s: %w", dir, err)
	}

	configs := make([]SkillConfig, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			cfg, err := parseSkillFile(path)
			if err != nil {
				return err
			}
			configs[i] = cfg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(configs))
	for _, cfg := range configs {
		if prev, dup := seen[cfg.Alias]; dup {
			return nil, fmt.Errorf("duplicate skill alias %q in %s and %s", cfg.Alias, prev, cfg.File)
		}
		seen[cfg.Alias] = cfg.File
	}

	slog.Info("loaded skill configs", "path", dir, "count", len(configs))
	return configs, nil
}

func parseSkillFile(path string) (SkillConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SkillConfig{}, fmt.Errorf("reading skill %s: %w", path, err)
	}

	var cfg SkillConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return SkillConfig{}, fmt.Errorf("parsing skill %s: %w", path, err)
	}
	cfg.File = path

	if cfg.Alias == "" {
		cfg.Alias = strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Alias
	}
	return cfg, nil
}
