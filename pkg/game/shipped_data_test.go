package game

import (
	"os"
	"testing"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/embedded"
)

// TestShippedEffects loads every effect listed in data/resources.yaml
// together with its sprites.
func TestShippedEffects(t *testing.T) {
	root := os.DirFS("../..")
	embedded.Init(root, root)

	rm := NewResourceManager()
	if err := rm.LoadResourceConfig("data/resources.yaml"); err != nil {
		t.Fatalf("LoadResourceConfig: %v", err)
	}
	if err := rm.LoadResourceGroup("sprites"); err != nil {
		t.Fatalf("LoadResourceGroup(sprites): %v", err)
	}

	ids := rm.EffectIDs()
	if len(ids) < 5 {
		t.Fatalf("expected at least 5 effects, got %v", ids)
	}
	for _, id := range ids {
		effect, err := rm.LoadEffectByID(id)
		if err != nil {
			t.Errorf("%s: %v", id, err)
			continue
		}
		for _, inst := range effect.Emitters {
			for _, layer := range inst.Emitter.Layers {
				if layer.Kind != particle.KindSuperEmitter && layer.Sprite == nil {
					t.Errorf("%s: layer %q has no sprite", id, layer.Name)
				}
			}
		}
	}

	firework, err := rm.LoadEffectByID("EFFECT_FIREWORK")
	if err != nil {
		t.Fatalf("EFFECT_FIREWORK: %v", err)
	}
	shells := firework.Emitters[0].Emitter.Layers[0]
	if shells.InnerEmitter == nil || shells.InnerEmitter.Name != "burst" {
		t.Errorf("firework shells should drive the burst emitter, got %+v", shells.InnerEmitter)
	}
}

func TestShippedParticleSettings(t *testing.T) {
	settings, err := config.LoadParticleSettings("../../data/particle_settings.yaml")
	if err != nil {
		t.Fatalf("LoadParticleSettings: %v", err)
	}
	if *settings != *config.DefaultParticleSettings() {
		t.Errorf("shipped settings drifted from defaults: %+v", settings)
	}
}
