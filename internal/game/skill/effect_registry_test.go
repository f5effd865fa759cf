package skill

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type holder struct{ id uuid.UUID }

func (h holder) ID() uuid.UUID { return h.id }
func (h holder) Name() string  { return "Silthus" }

type countingEffect struct {
	applied, removed int
}

func (e *countingEffect) Name() string { return "counting" }

func (e *countingEffect) Apply(context.Context, Holder) error {
	e.applied++
	return nil
}

func (e *countingEffect) Remove(context.Context, Holder) error {
	e.removed++
	return nil
}

func TestCreateEffect_DefaultsToNone(t *testing.T) {
	eff, err := CreateEffect("", map[string]any{"alias": "heal"})
	if err != nil {
		t.Fatalf("CreateEffect: %v", err)
	}
	if eff.Name() != TypeNone {
		t.Errorf("Name() = %q, want %q", eff.Name(), TypeNone)
	}
	if err := eff.Apply(context.Background(), holder{uuid.New()}); err != nil {
		t.Errorf("Apply: %v", err)
	}
	if err := eff.Remove(context.Background(), holder{uuid.New()}); err != nil {
		t.Errorf("Remove: %v", err)
	}
}

func TestCreateEffect_Unknown(t *testing.T) {
	if _, err := CreateEffect("teleport", nil); err == nil {
		t.Fatal("expected error for unknown effect type")
	}
}

func TestRegisterEffect(t *testing.T) {
	shared := &countingEffect{}
	RegisterEffect("counting", func(map[string]any) (Effect, error) { return shared, nil })
	t.Cleanup(func() {
		registryMu.Lock()
		delete(effectRegistry, "counting")
		registryMu.Unlock()
	})

	eff, err := CreateEffect("counting", nil)
	if err != nil {
		t.Fatalf("CreateEffect: %v", err)
	}
	_ = eff.Apply(context.Background(), holder{})
	if shared.applied != 1 {
		t.Errorf("applied = %d, want 1", shared.applied)
	}
}

func TestCreateEffect_FactoryError(t *testing.T) {
	RegisterEffect("broken", func(map[string]any) (Effect, error) { return nil, errors.New("bad config") })
	t.Cleanup(func() {
		registryMu.Lock()
		delete(effectRegistry, "broken")
		registryMu.Unlock()
	})

	if _, err := CreateEffect("broken", nil); err == nil {
		t.Fatal("expected factory error to propagate")
	}
}
