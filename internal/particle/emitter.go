package particle

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Emitter is a named set of layers sharing a spawn shape and emission vector.
// Curves on the emitter are evaluated at the owning group's time.
type Emitter struct {
	refCounter

	Name  string
	Shape EmitterShape

	// ShortEffect emitters ignore LOD and run on the FPS-scaled clock.
	ShortEffect bool

	Size           *Line[mgl32.Vec3] // rect extents
	Radius         *Line[float32]    // circle radius
	EmissionVector *Line[mgl32.Vec3] // local +Z is rotated onto this vector

	// Circle placement: polar angle EmissionAngle ± EmissionAngleVariation/2 (degrees).
	EmissionAngle          *Line[float32]
	EmissionAngleVariation *Line[float32]
	// EmissionRange is the full cone angle (degrees) of initial velocities.
	EmissionRange *Line[float32]
	// EmitAtPoints > 0 places circle particles on that many evenly spaced points.
	EmitAtPoints int

	ColorOverLife *Line[Color]

	Layers []*Layer
}

// EmitterInstance places a top-level emitter inside an effect.
type EmitterInstance struct {
	Emitter       *Emitter
	SpawnPosition mgl32.Vec3
}

// EffectConfig is a loaded effect: its top-level emitters and the playback
// defaults new components start with.
type EffectConfig struct {
	Name     string
	Emitters []EmitterInstance

	Duration       float32
	RepeatsCount   int
	StopWhenEmpty  bool
	ClearOnRestart bool
}

// AllEmitters returns every emitter reachable from the effect, including
// inner emitters of super-emitter layers, each once.
func (e *EffectConfig) AllEmitters() []*Emitter {
	seen := make(map[*Emitter]bool)
	var out []*Emitter
	var walk func(em *Emitter)
	walk = func(em *Emitter) {
		if em == nil || seen[em] {
			return
		}
		seen[em] = true
		out = append(out, em)
		for _, layer := range em.Layers {
			walk(layer.InnerEmitter)
		}
	}
	for _, inst := range e.Emitters {
		walk(inst.Emitter)
	}
	return out
}
