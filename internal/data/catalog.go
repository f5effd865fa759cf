package data

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/rcskills/internal/game/requirement"
	"github.com/udisondev/rcskills/internal/game/skill"
	"github.com/udisondev/rcskills/internal/model"
)

// skillNamespace derives stable template ids from aliases.
var skillNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rcskills:skill"))

// TemplateID returns the id a template gets when its config names none.
func TemplateID(alias string) uuid.UUID {
	return uuid.NewSHA1(skillNamespace, []byte(alias))
}

// BuildTemplate turns a skill config into a template. Every skill requires
// its permission node; level becomes an unlock requirement, money and skill
// points become cost requirements.
func BuildTemplate(cfg SkillConfig, reg *requirement.Registry) (*model.SkillTemplate, error) {
	id := TemplateID(cfg.Alias)
	if cfg.ID != "" {
		parsed, err := uuid.Parse(cfg.ID)
		if err != nil {
			return nil, fmt.Errorf("skill %s: invalid id: %w", cfg.Alias, err)
		}
		id = parsed
	}

	extra, err := reg.CreateAll(cfg.Requirements)
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", cfg.Alias, err)
	}

	effectType := cfg.Type
	if effectType == "" {
		effectType = skill.TypeNone
	}
	effect, err := skill.CreateEffect(effectType, cfg.With)
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", cfg.Alias, err)
	}

	env := reg.Env()
	t := &model.SkillTemplate{
		ID:          id,
		Alias:       cfg.Alias,
		Name:        cfg.Name,
		Type:        effectType,
		Description: cfg.Description,
		Level:       cfg.Level,
		Money:       cfg.Money,
		SkillPoints: cfg.SkillPoints,
		SkillSlots:  cfg.SkillSlots,
		Hidden:      cfg.Hidden,
		Enabled:     cfg.IsEnabled(),
		Categories:  cfg.Categories,
		Config:      cfg.With,
		Effect:      effect,
	}

	t.AddRequirement(requirement.NewPermission(env.Permissions, model.SkillPermissionPrefix+cfg.Alias))
	if cfg.Level > 0 {
		t.AddRequirement(&requirement.Level{MinLevel: cfg.Level})
	}
	t.AddRequirement(extra...)

	if cfg.Money > 0 {
		t.CostRequirements = append(t.CostRequirements, requirement.NewMoney(env.Wallet, cfg.Money))
	}
	if cfg.SkillPoints > 0 {
		t.CostRequirements = append(t.CostRequirements, &requirement.SkillPoints{Points: cfg.SkillPoints})
	}
	return t, nil
}

// Catalog — реестр загруженных шаблонов навыков по alias и id.
// Safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	byAlias map[string]*model.SkillTemplate
	byID    map[uuid.UUID]*model.SkillTemplate
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byAlias: make(map[string]*model.SkillTemplate),
		byID:    make(map[uuid.UUID]*model.SkillTemplate),
	}
}

// LoadCatalog loads every skill file below dir and builds its template.
func LoadCatalog(dir string, reg *requirement.Registry) (*Catalog, error) {
	configs, err := LoadSkillConfigs(dir)
	if err != nil {
		return nil, err
	}
	c := NewCatalog()
	for _, cfg := range configs {
		t, err := BuildTemplate(cfg, reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.File, err)
		}
		c.Add(t)
	}
	return c, nil
}

// Add registers a template, replacing one with the same alias.
func (c *Catalog) Add(t *model.SkillTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byAlias[t.Alias]; ok {
		delete(c.byID, old.ID)
	}
	c.byAlias[t.Alias] = t
	c.byID[t.ID] = t
}

// Get returns a template by alias (case-insensitive).
func (c *Catalog) Get(alias string) (*model.SkillTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byAlias[strings.ToLower(alias)]
	if !ok {
		t, ok = c.byAlias[alias]
	}
	return t, ok
}

// ByID returns a template by id.
func (c *Catalog) ByID(id uuid.UUID) (*model.SkillTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// All returns every template sorted by alias.
func (c *Catalog) All() []*model.SkillTemplate {
	c.mu.RLock()
	out := make([]*model.SkillTemplate, 0, len(c.byAlias))
	for _, t := range c.byAlias {
		out = append(out, t)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b *model.SkillTemplate) int { return strings.Compare(a.Alias, b.Alias) })
	return out
}

// Visible returns the enabled, non-hidden templates sorted by alias.
func (c *Catalog) Visible() []*model.SkillTemplate {
	return slices.DeleteFunc(c.All(), func(t *model.SkillTemplate) bool {
		return t.Hidden || !t.Enabled
	})
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byAlias)
}
