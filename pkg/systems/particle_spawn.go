package systems

import (
	"log"
	"math"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
)

// 发射方向与 +Z / -Z 重合的容差
const emissionAxisEpsilon = 1e-6

var axisZ = mgl32.Vec3{0, 0, 1}

// generateNewParticle spawns one particle into g. currLoopTime is the
// layer loop time the emission curves are sampled at.
func (s *ParticleEffectSystem) generateNewParticle(c *components.ParticleEffectComponent, g *components.ParticleGroup, currLoopTime float32, bbox *render.AABBox) {
	layer, emitter := g.Layer, g.Emitter
	rnd := s.rng.Float32
	src := c.Data.InfoSources[g.PositionSource]

	p := g.SpawnParticle()

	// 颜色
	p.Color = particle.White
	if layer.ColorRandom != nil {
		p.Color = layer.ColorRandom.ValueExt(rnd(), c)
	}
	if emitter.ColorOverLife != nil {
		p.Color = p.Color.Mul(emitter.ColorOverLife.ValueExt(g.Time, c))
	}

	// 寿命
	p.LifeTime = layer.Life.ValueExt(currLoopTime, c)
	if layer.LifeVariation != nil {
		p.LifeTime += layer.LifeVariation.ValueExt(currLoopTime, c) * rnd()
	}

	// 尺寸：按锚点尺寸缩放
	p.BaseSize = layer.Size.ValueOr(currLoopTime, c, mgl32.Vec2{1, 1})
	if layer.SizeVariation != nil {
		p.BaseSize = p.BaseSize.Add(layer.SizeVariation.ValueExt(currLoopTime, c).Mul(rnd()))
	}
	p.BaseSize = mgl32.Vec2{p.BaseSize[0] * src.Size[0], p.BaseSize[1] * src.Size[1]}
	p.CurrSize = p.BaseSize
	if layer.SizeOverLife != nil {
		k := layer.SizeOverLife.ValueExt(0, c)
		p.CurrSize = mgl32.Vec2{p.BaseSize[0] * k[0], p.BaseSize[1] * k[1]}
	}
	p.CurrRadius = p.CurrSize.Len() * 0.5

	// 角度与自旋（配置为角度制）
	angle := layer.Angle.ValueExt(currLoopTime, c)
	if layer.AngleVariation != nil {
		angle += layer.AngleVariation.ValueExt(currLoopTime, c) * rnd()
	}
	p.Angle = mgl32.DegToRad(angle)

	spin := layer.Spin.ValueExt(currLoopTime, c)
	if layer.SpinVariation != nil {
		spin += layer.SpinVariation.ValueExt(currLoopTime, c) * rnd()
	}
	p.Spin = mgl32.DegToRad(spin)
	if layer.RandomSpinDirection && rnd() > 0.5 {
		p.Spin = -p.Spin
	}

	if layer.RandomFrameOnStart && layer.Sprite != nil {
		p.Frame = min(int(rnd()*float32(layer.Sprite.FrameCount)), layer.Sprite.FrameCount-1)
	}

	position, direction := s.emissionPlacement(c, g)

	velocity := layer.Velocity.ValueExt(currLoopTime, c)
	if layer.VelocityVariation != nil {
		velocity += layer.VelocityVariation.ValueExt(currLoopTime, c) * rnd()
	}
	p.Speed = direction.Mul(velocity)

	p.Position = position
	if !layer.InheritPosition {
		p.Position = p.Position.Add(src.Position)
	}

	worldPos := p.Position
	if layer.InheritPosition {
		worldPos = worldPos.Add(src.Position)
	}
	bbox.AddSphere(worldPos, p.CurrRadius)

	switch layer.Kind {
	case particle.KindSuperEmitter:
		// p 在 RunEmitter 之后仍然有效：新建的是其他组，不会扩容本组的池
		p.PositionTarget = c.Data.AddInfoSource(components.InfoSource{Position: worldPos, Size: p.CurrSize})
		s.RunEmitter(c, layer.InnerEmitter, mgl32.Vec3{}, p.PositionTarget)
	case particle.KindRegular, particle.KindSingleParticle:
	default:
		log.Panicf("[ParticleEffectSystem] unhandled layer kind %v", layer.Kind)
	}
}

// emissionPlacement samples the emitter shape and returns the spawn offset
// and unit velocity direction, both rotated into world orientation. The
// offset includes the group's spawn position.
func (s *ParticleEffectSystem) emissionPlacement(c *components.ParticleEffectComponent, g *components.ParticleGroup) (position, direction mgl32.Vec3) {
	emitter := g.Emitter
	t := g.Time
	rnd := s.rng.Float32

	var local, dir mgl32.Vec3
	switch emitter.Shape {
	case particle.EmitterPoint:
	case particle.EmitterRect:
		size := emitter.Size.ValueExt(t, c)
		local = mgl32.Vec3{
			size[0] * (rnd() - 0.5),
			size[1] * (rnd() - 0.5),
			size[2] * (rnd() - 0.5),
		}
	case particle.EmitterOnCircle, particle.EmitterShockwave:
		radius := emitter.Radius.ValueExt(t, c)
		base := emitter.EmissionAngle.ValueExt(t, c)
		variation := emitter.EmissionAngleVariation.ValueOr(t, c, 360)

		var deg float32
		if emitter.EmitAtPoints > 0 {
			step := variation / float32(emitter.EmitAtPoints)
			deg = base - variation*0.5 + step*float32(s.rng.IntN(emitter.EmitAtPoints))
		} else {
			deg = base + variation*(rnd()-0.5)
		}
		sin, cos := math.Sincos(float64(mgl32.DegToRad(deg)))
		local = mgl32.Vec3{radius * float32(cos), radius * float32(sin), 0}
		if emitter.Shape == particle.EmitterShockwave {
			dir = mgl32.Vec3{float32(cos), float32(sin), 0}
		}
	default:
		log.Panicf("[ParticleEffectSystem] unhandled emitter shape %v", emitter.Shape)
	}

	if emitter.Shape != particle.EmitterShockwave {
		halfRange := mgl32.DegToRad(emitter.EmissionRange.ValueExt(t, c)) * 0.5
		theta := float64(halfRange * rnd())
		phi := 2 * math.Pi * float64(rnd())
		st, ct := math.Sincos(theta)
		sp, cp := math.Sincos(phi)
		dir = mgl32.Vec3{float32(st * cp), float32(st * sp), float32(ct)}
	}

	emissionRot := emissionRotation(emitter.EmissionVector.ValueOr(t, c, axisZ))
	worldRot := rotationOf(*c.WorldTransform)

	position = worldRot.Rotate(emissionRot.Rotate(local)).Add(g.SpawnPosition)
	direction = worldRot.Mul(emissionRot).Rotate(dir)
	return position, direction
}

// emissionRotation returns the rotation taking local +Z onto v.
func emissionRotation(v mgl32.Vec3) mgl32.Quat {
	if v.LenSqr() == 0 {
		return mgl32.QuatIdent()
	}
	v = v.Normalize()
	switch {
	case v[2] >= 1-emissionAxisEpsilon:
		return mgl32.QuatIdent()
	case v[2] <= -1+emissionAxisEpsilon:
		return mgl32.QuatRotate(math.Pi, mgl32.Vec3{1, 0, 0})
	}
	axis := axisZ.Cross(v).Normalize()
	angle := float32(math.Acos(float64(mgl32.Clamp(v[2], -1, 1))))
	return mgl32.QuatRotate(angle, axis)
}

// rotationOf extracts the rotation of an affine transform. Degenerate
// transforms yield the identity.
func rotationOf(m mgl32.Mat4) mgl32.Quat {
	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()
	if x.LenSqr() == 0 || y.LenSqr() == 0 || z.LenSqr() == 0 {
		return mgl32.QuatIdent()
	}
	rot := mgl32.Mat3FromCols(x.Normalize(), y.Normalize(), z.Normalize())
	return mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
}
