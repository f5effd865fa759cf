package skill

import (
	"fmt"
	"sync"
)

// TypeNone is the effect used when a skill config names no type.
const TypeNone = "none"

// Factory builds an effect from the skill's "with" config section.
type Factory func(params map[string]any) (Effect, error)

// effectRegistry maps effect type → factory function.
var (
	registryMu     sync.RWMutex
	effectRegistry = map[string]Factory{}
)

// RegisterEffect registers an effect factory by type name.
// Called from init() in each effect implementation file.
func RegisterEffect(typ string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	effectRegistry[typ] = factory
}

// CreateEffect creates an effect by type using the registered factory.
// An empty type creates the none effect.
func CreateEffect(typ string, params map[string]any) (Effect, error) {
	if typ == "" {
		typ = TypeNone
	}

	registryMu.RLock()
	factory, ok := effectRegistry[typ]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown effect type: %s", typ)
	}

	effect, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("creating %s effect: %w", typ, err)
	}
	return effect, nil
}

func init() {
	RegisterEffect(TypeNone, NewNoneEffect)
}
