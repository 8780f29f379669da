package components

import (
	"github.com/decker502/particlefx/internal/particle"
	"github.com/go-gl/mathgl/mgl32"
)

// NilParticle terminates a particle chain.
const NilParticle int32 = -1

// Particle is the simulation state of one particle. Particles live in their
// group's arena and are linked into the group's chain by index.
//
// This is a pure data record; ParticleGroup owns allocation and linking.
type Particle struct {
	Position mgl32.Vec3 // 世界坐标（继承位置的层为相对锚点的坐标）
	Speed    mgl32.Vec3 // 速度向量

	Angle float32 // 弧度
	Spin  float32 // 弧度/秒

	Life     float32 // 已存活时间（秒）
	LifeTime float32 // 总寿命（秒）

	BaseSize   mgl32.Vec2
	CurrSize   mgl32.Vec2
	CurrRadius float32 // 包围盒增长半径

	Color particle.Color

	Frame    int
	AnimTime float32

	// PositionTarget is the info-source slot this particle drives, or -1.
	PositionTarget int

	next int32
}

// OverLife returns the normalized age of the particle (0-1).
func (p *Particle) OverLife() float32 {
	if p.LifeTime <= 0 {
		return 1
	}
	return p.Life / p.LifeTime
}
