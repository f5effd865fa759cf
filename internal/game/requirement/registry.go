package requirement

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a requirement from its configured parameters.
type Factory func(env Env, params map[string]any) (Requirement, error)

// Registry maps a requirement type tag to its factory.
// Built-in kinds are registered by NewRegistry; more can be added at startup.
type Registry struct {
	mu        sync.RWMutex
	env       Env
	factories map[string]Factory
}

// NewRegistry returns a registry with all built-in requirement kinds.
func NewRegistry(env Env) *Registry {
	r := &Registry{env: env, factories: make(map[string]Factory)}
	r.Register(TypePermission, newPermission)
	r.Register(TypeLevel, newLevel)
	r.Register(TypeMoney, newMoney)
	r.Register(TypeSkillPoints, newSkillPoints)
	r.Register(TypeSkill, newSkill)
	return r
}

// Env returns the collaborators passed to factories.
func (r *Registry) Env() Env { return r.env }

// Register adds or replaces the factory for a type tag.
func (r *Registry) Register(typ string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typ] = factory
}

// Types returns all registered tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Create builds a requirement by type tag.
// Returns error if the tag is not registered or the params are invalid.
func (r *Registry) Create(typ string, params map[string]any) (Requirement, error) {
	r.mu.RLock()
	factory, ok := r.factories[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown requirement type: %s", typ)
	}
	req, err := factory(r.env, params)
	if err != nil {
		return nil, fmt.Errorf("creating %s requirement: %w", typ, err)
	}
	return req, nil
}

// CreateAll builds a list of requirements from config entries. Each entry
// must carry a "type" key; the remaining keys are the params.
func (r *Registry) CreateAll(entries []map[string]any) ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(entries))
	for i, entry := range entries {
		typ, _ := entry["type"].(string)
		if typ == "" {
			return nil, fmt.Errorf("requirement #%d: missing type", i)
		}
		req, err := r.Create(typ, entry)
		if err != nil {
			return nil, fmt.Errorf("requirement #%d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
