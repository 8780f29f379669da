package systems

import (
	"log"

	"github.com/decker502/particlefx/pkg/components"
)

// EffectEvent is a command delivered through ImmediateEvent.
type EffectEvent int

const (
	EventStartEffect EffectEvent = iota
	EventStopEffect
)

func (e EffectEvent) String() string {
	switch e {
	case EventStartEffect:
		return "start"
	case EventStopEffect:
		return "stop"
	}
	return "unknown"
}

// Start plays c from the beginning on the next Process. A stopped
// component is registered first.
func (s *ParticleEffectSystem) Start(c *components.ParticleEffectComponent) {
	if c.State == components.StateStopped {
		s.AddToActive(c)
	}
	c.State = components.StateStarting
	c.CurrRepeatsCount = 0
	c.IsPaused = false
	log.Printf("[ParticleEffectSystem] Started effect %q on entity %d", effectName(c), c.Entity)
}

// Stop ends c. With deleteAll every particle is dropped and c is stopped at
// once; otherwise c drains its live particles without emitting and stops
// when empty.
func (s *ParticleEffectSystem) Stop(c *components.ParticleEffectComponent, deleteAll bool) {
	if c.State == components.StateStopped {
		return
	}
	if deleteAll {
		s.hardStop(c)
		return
	}
	s.beginStopping(c)
}

// hardStop clears c and unregisters it, notifying listeners.
func (s *ParticleEffectSystem) hardStop(c *components.ParticleEffectComponent) {
	c.Data.ClearGroups()
	c.Data.ResetInfoSources()
	s.RemoveFromActive(c)
	log.Printf("[ParticleEffectSystem] Stopped effect %q on entity %d", effectName(c), c.Entity)
	s.notifyStopped(c)
}

// Pause freezes or resumes c. A paused effect keeps its particles and is
// still drawn.
func (s *ParticleEffectSystem) Pause(c *components.ParticleEffectComponent, paused bool) {
	c.IsPaused = paused
}

// Restart plays c again from the beginning. With deleteAll the particles of
// the previous run are dropped first; otherwise they keep living.
func (s *ParticleEffectSystem) Restart(c *components.ParticleEffectComponent, deleteAll bool) {
	c.IsPaused = false
	if deleteAll {
		c.Data.ClearGroups()
		c.Data.ResetInfoSources()
	}
	c.CurrRepeatsCount = 0
	if c.State == components.StateStopped {
		s.AddToActive(c)
	}
	c.State = components.StateStarting
}

// Step advances a single active component by dt outside of Process. Used by
// tools to scrub an effect.
func (s *ParticleEffectSystem) Step(c *components.ParticleEffectComponent, dt float32) {
	if !s.IsActive(c) {
		return
	}
	wasPaused := c.IsPaused
	c.IsPaused = false
	s.processComponent(c, dt, dt*s.settings.ShortEffectSpeedMultiplier(fpsOf(dt, s.settings)))
	c.IsPaused = wasPaused
}

// StopAfterNRepeats makes c stop after n cycles counted from its start.
// n == 0 repeats forever.
func (s *ParticleEffectSystem) StopAfterNRepeats(c *components.ParticleEffectComponent, n int) {
	if n < 0 {
		n = 0
	}
	c.RepeatsCount = n
}

// SetStopWhenEmpty switches c between ending when its groups are gone and
// ending after EffectDuration.
func (s *ParticleEffectSystem) SetStopWhenEmpty(c *components.ParticleEffectComponent, value bool) {
	c.StopWhenEmpty = value
}

// SetPlaybackSpeed scales the time c advances by. Negative values are
// treated as 0.
func (s *ParticleEffectSystem) SetPlaybackSpeed(c *components.ParticleEffectComponent, speed float32) {
	c.PlaybackSpeed = max(speed, 0)
	c.PlaybackSpeedSet = true
}

// SetDesiredLodLevel requests a LOD level, applied on the next Process.
// Out of range levels are clamped to [0, settings.MaxLodLevel].
func (s *ParticleEffectSystem) SetDesiredLodLevel(c *components.ParticleEffectComponent, lod int) {
	c.DesiredLodLevel = min(max(lod, 0), s.settings.MaxLodLevel)
}

// ImmediateEvent applies a start or stop command to c right away.
func (s *ParticleEffectSystem) ImmediateEvent(c *components.ParticleEffectComponent, event EffectEvent) {
	switch event {
	case EventStartEffect:
		s.Start(c)
	case EventStopEffect:
		if s.IsActive(c) {
			s.hardStop(c)
		}
	default:
		log.Panicf("[ParticleEffectSystem] unhandled effect event %v", event)
	}
}

// SetExternalValue sets an external curve modifier on one component.
func (s *ParticleEffectSystem) SetExternalValue(c *components.ParticleEffectComponent, name string, value float32) {
	c.ExternalValues[name] = value
}

// RemoveComponent detaches c from the system. Its particles are dropped and
// listeners are not notified.
func (s *ParticleEffectSystem) RemoveComponent(c *components.ParticleEffectComponent) {
	c.Data.ClearGroups()
	c.Data.ResetInfoSources()
	if s.IsActive(c) {
		s.RemoveFromActive(c)
	}
}

func effectName(c *components.ParticleEffectComponent) string {
	if c.Effect == nil {
		return ""
	}
	return c.Effect.Name
}
