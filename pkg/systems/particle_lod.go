package systems

import (
	"log"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
)

// UpdateActiveLod applies the component's desired LOD level. Groups of
// regular emitters become visible or hidden per their layer's LOD flags;
// short-effect groups are left alone. Switching to level 0 degrades the
// existing particles once when settings.DegradeOnLodChange is set.
func (s *ParticleEffectSystem) UpdateActiveLod(c *components.ParticleEffectComponent) {
	c.ActiveLodLevel = c.DesiredLodLevel

	for _, g := range c.Data.Groups {
		if g.Emitter.ShortEffect {
			continue
		}
		g.VisibleLod = g.Layer.IsLodActive(c.ActiveLodLevel)
	}

	if c.ActiveLodLevel == 0 && s.settings.DegradeOnLodChange {
		s.degrade(c)
	}
}

// degrade thins existing particles per each layer's DegradeStrategy.
func (s *ParticleEffectSystem) degrade(c *components.ParticleEffectComponent) {
	removed := 0
	for _, g := range c.Data.Groups {
		if g.Emitter.ShortEffect {
			continue
		}
		switch g.Layer.DegradeStrategy {
		case particle.DegradeKeepEverything:
		case particle.DegradeRemove:
			removed += g.ActiveParticleCount()
			g.Clear()
		case particle.DegradeCutParticles:
			removed += g.CutEverySecond()
		default:
			log.Panicf("[ParticleEffectSystem] unhandled degrade strategy %v", g.Layer.DegradeStrategy)
		}
	}
	if removed > 0 {
		log.Printf("[ParticleEffectSystem] LOD degrade on entity %d removed %d particles", c.Entity, removed)
	}
}
