package components

import (
	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/ecs"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
)

// EffectState is the playback state of a particle effect component.
type EffectState int

const (
	StateStopped EffectState = iota
	StateStarting
	StatePlaying
	StateStopping
)

func (s EffectState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

// ParticleEffectComponent attaches a particle effect to an entity (or to a
// standalone 2D host). It holds the effect's simulation data and playback
// configuration; ParticleEffectSystem drives every state transition.
type ParticleEffectComponent struct {
	Entity ecs.EntityID
	Effect *particle.EffectConfig
	Data   ParticleEffectData

	// WorldTransform is the anchor the effect follows. It usually points at
	// the entity's TransformComponent.World.
	WorldTransform *mgl32.Mat4
	RenderObject   render.RenderObject

	State           EffectState
	ActiveLodLevel  int
	DesiredLodLevel int

	IsPaused      bool
	PlaybackSpeed float32
	// PlaybackSpeedSet 为 false 时，首次激活会套用系统默认播放速度
	PlaybackSpeedSet bool

	// 重复播放策略，RepeatsCount 为 0 表示无限循环
	RepeatsCount     int
	CurrRepeatsCount int
	StopWhenEmpty    bool
	EffectDuration   float32
	ClearOnRestart   bool

	Time float32

	ExternalValues map[string]float32
}

// NewParticleEffectComponent creates a stopped component for effect,
// anchored at anchor. Playback defaults come from the effect file.
func NewParticleEffectComponent(entity ecs.EntityID, effect *particle.EffectConfig, anchor *mgl32.Mat4) *ParticleEffectComponent {
	if anchor == nil {
		m := mgl32.Ident4()
		anchor = &m
	}
	return &ParticleEffectComponent{
		Entity:         entity,
		Effect:         effect,
		Data:           NewParticleEffectData(),
		WorldTransform: anchor,
		State:          StateStopped,
		PlaybackSpeed:  1,
		RepeatsCount:   effect.RepeatsCount,
		StopWhenEmpty:  effect.StopWhenEmpty,
		EffectDuration: effect.Duration,
		ClearOnRestart: effect.ClearOnRestart,
		ExternalValues: make(map[string]float32),
	}
}

// ExternalValue implements particle.Externals.
func (c *ParticleEffectComponent) ExternalValue(name string) (float32, bool) {
	v, ok := c.ExternalValues[name]
	return v, ok
}

// GetActiveParticlesCount returns the number of live particles across all groups.
func (c *ParticleEffectComponent) GetActiveParticlesCount() int {
	return c.Data.ActiveParticleCount()
}

// IsStopped reports whether the effect is fully stopped.
func (c *ParticleEffectComponent) IsStopped() bool {
	return c.State == StateStopped
}

// AnchorPosition returns the translation of the world transform.
func (c *ParticleEffectComponent) AnchorPosition() mgl32.Vec3 {
	return c.WorldTransform.Col(3).Vec3()
}
