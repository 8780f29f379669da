package particle

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
)

// LodLevels is the number of LOD levels a layer can be toggled for.
const LodLevels = 4

// refCounter tracks how many live particle groups hold a definition.
type refCounter struct {
	refs int32
}

// Retain records one more holder.
func (r *refCounter) Retain() {
	r.refs++
}

// Release drops one holder. Releasing an unretained definition is a bug.
func (r *refCounter) Release() {
	if r.refs <= 0 {
		log.Panicf("[particle] release of a definition with no holders")
	}
	r.refs--
}

// RefCount returns the number of current holders.
func (r *refCounter) RefCount() int32 {
	return r.refs
}

// Force is a time-varying acceleration applied to every particle of a layer.
type Force struct {
	// Direction is the acceleration vector, evaluated at layer loop time.
	Direction *Line[mgl32.Vec3] `yaml:"force"`
	// OverLife scales Direction over the particle's normalized life.
	OverLife *Line[float32] `yaml:"forceOverLife"`
}

// Layer describes one stream of particles of an emitter.
//
// Curves evaluated at layer loop time: Life, Number, Size, Velocity, Spin,
// Angle and their variations. Curves evaluated at normalized particle life:
// the *OverLife curves.
type Layer struct {
	refCounter `yaml:"-"`

	Name       string    `yaml:"name"`
	Kind       LayerKind `yaml:"type"`
	IsDisabled bool      `yaml:"isDisabled"`

	Sprite *Sprite `yaml:"-"`

	// Timing
	StartTime      float32 `yaml:"startTime"`
	EndTime        float32 `yaml:"endTime"`
	IsLooped       bool    `yaml:"isLooped"`
	DeltaTime      float32 `yaml:"deltaTime"`
	DeltaVariation float32 `yaml:"deltaVariation"`
	LoopVariation  float32 `yaml:"loopVariation"`
	LoopEndTime    float32 `yaml:"loopEndTime"`

	// Emission
	Life            *Line[float32] `yaml:"life"`
	LifeVariation   *Line[float32] `yaml:"lifeVariation"`
	Number          *Line[float32] `yaml:"number"`
	NumberVariation *Line[float32] `yaml:"numberVariation"`

	// Size
	Size          *Line[mgl32.Vec2] `yaml:"size"`
	SizeVariation *Line[mgl32.Vec2] `yaml:"sizeVariation"`
	SizeOverLife  *Line[mgl32.Vec2] `yaml:"sizeOverLifeXY"`

	// Motion
	Velocity          *Line[float32] `yaml:"velocity"`
	VelocityVariation *Line[float32] `yaml:"velocityVariation"`
	VelocityOverLife  *Line[float32] `yaml:"velocityOverLife"`
	Forces            []*Force       `yaml:"forces"`

	// Rotation (degrees)
	Angle               *Line[float32] `yaml:"angle"`
	AngleVariation      *Line[float32] `yaml:"angleVariation"`
	Spin                *Line[float32] `yaml:"spin"`
	SpinVariation       *Line[float32] `yaml:"spinVariation"`
	SpinOverLife        *Line[float32] `yaml:"spinOverLife"`
	RandomSpinDirection bool           `yaml:"randomSpinDirection"`

	// Color
	ColorRandom   *Line[Color]   `yaml:"colorRandom"`
	ColorOverLife *Line[Color]   `yaml:"colorOverLife"`
	AlphaOverLife *Line[float32] `yaml:"alphaOverLife"`

	// Sprite animation
	FrameOverLifeEnabled bool           `yaml:"frameOverLifeEnabled"`
	FrameOverLifeFPS     float32        `yaml:"frameOverLifeFPS"`
	AnimSpeedOverLife    *Line[float32] `yaml:"animSpeedOverLife"`
	RandomFrameOnStart   bool           `yaml:"randomFrameOnStart"`
	LoopSpriteAnimation  bool           `yaml:"loopSpriteAnimation"`

	// Rendering
	Blending            BlendMode   `yaml:"blending"`
	EnableFog           bool        `yaml:"enableFog"`
	EnableFrameBlend    bool        `yaml:"enableFrameBlend"`
	Orientation         Orientation `yaml:"particleOrientation"`
	PivotPoint          mgl32.Vec2  `yaml:"pivotPoint"`
	IsLong              bool        `yaml:"isLong"`
	ScaleVelocityBase   float32     `yaml:"scaleVelocityBase"`
	ScaleVelocityFactor float32     `yaml:"scaleVelocityFactor"`

	// InheritPosition makes particles follow their anchor every frame
	// instead of being offset once at spawn.
	InheritPosition bool `yaml:"inheritPosition"`

	ActiveLODs      [LodLevels]bool `yaml:"activeLODS"`
	DegradeStrategy DegradeStrategy `yaml:"degradeStrategy"`

	// InnerEmitter is driven by each particle of a KindSuperEmitter layer.
	InnerEmitter *Emitter `yaml:"-"`
}

// NewLayer returns a layer with the defaults content files start from.
func NewLayer(name string) *Layer {
	return &Layer{
		Name:        name,
		EndTime:     100,
		LoopEndTime: 100,
		Orientation: OrientationCameraFacing,
		ActiveLODs:  [LodLevels]bool{true, true, true, true},
	}
}

// IsLodActive reports whether the layer emits at the given LOD level.
func (l *Layer) IsLodActive(lod int) bool {
	if lod < 0 || lod >= LodLevels {
		return false
	}
	return l.ActiveLODs[lod]
}
