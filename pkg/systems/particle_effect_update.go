package systems

import (
	"log"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
)

// UpdateEffect integrates one component: advances group clocks, restarts
// looped layers, moves and expires particles, emits new ones and erases
// finished groups. deltaTime drives regular groups, shortEffectTime drives
// groups of short-effect emitters.
func (s *ParticleEffectSystem) UpdateEffect(c *components.ParticleEffectComponent, deltaTime, shortEffectTime float32) {
	c.Time += deltaTime
	c.Data.InfoSources[0].Position = c.AnchorPosition()

	bbox := render.EmptyAABBox()
	erased := false

	// 超级发射器生成粒子时会追加新组，按下标遍历以便本帧也更新它们
	for i := 0; i < len(c.Data.Groups); i++ {
		g := c.Data.Groups[i]
		dt := deltaTime
		if g.Emitter.ShortEffect {
			dt = shortEffectTime
		}
		if s.updateGroup(c, g, dt, &bbox) {
			continue
		}
		g.ReleaseDefinitions()
		c.Data.Groups[i] = nil
		erased = true
	}

	if erased {
		kept := c.Data.Groups[:0]
		for _, g := range c.Data.Groups {
			if g != nil {
				kept = append(kept, g)
			}
		}
		clear(c.Data.Groups[len(kept):])
		c.Data.Groups = kept
	}

	if bbox.IsEmpty() {
		bbox = render.PointAABBox(c.AnchorPosition())
	}
	if c.RenderObject != nil {
		c.RenderObject.SetBoundingBox(bbox)
	}
}

// updateGroup advances one group by dt. It returns false when the group has
// finished and holds no particles, meaning it must be erased.
func (s *ParticleEffectSystem) updateGroup(c *components.ParticleEffectComponent, g *components.ParticleGroup, dt float32, bbox *render.AABBox) bool {
	layer := g.Layer
	g.Time += dt

	groupEndTime := layer.EndTime
	if layer.IsLooped {
		groupEndTime = layer.LoopEndTime
	}
	currLoopTime := g.Time - g.LoopStartTime
	if g.Time > groupEndTime {
		g.FinishingGroup = true
	}

	if !g.FinishingGroup && layer.IsLooped && currLoopTime > g.LoopDuration {
		g.LoopStartTime = g.Time
		g.LoopLayerStartTime = layer.DeltaTime + layer.DeltaVariation*s.rng.Float32()
		g.LoopDuration = g.LoopLayerStartTime + (layer.EndTime - layer.StartTime) + layer.LoopVariation*s.rng.Float32()
		currLoopTime = 0
	}

	s.forceValues = s.forceValues[:0]
	for _, f := range layer.Forces {
		s.forceValues = append(s.forceValues, f.Direction.ValueExt(currLoopTime, c))
	}

	s.integrateParticles(c, g, dt, bbox)

	emit := !g.FinishingGroup && currLoopTime > g.LoopLayerStartTime && g.VisibleLod
	if emit {
		switch layer.Kind {
		case particle.KindSingleParticle:
			if g.IsEmpty() {
				s.generateNewParticle(c, g, currLoopTime, bbox)
			}
		case particle.KindRegular, particle.KindSuperEmitter:
			newParticles := layer.Number.ValueExt(currLoopTime, c)
			if layer.NumberVariation != nil {
				newParticles += layer.NumberVariation.ValueExt(currLoopTime, c) * s.rng.Float32()
			}
			g.ParticlesToGenerate += newParticles * dt
			for g.ParticlesToGenerate >= 1 {
				g.ParticlesToGenerate--
				s.generateNewParticle(c, g, currLoopTime, bbox)
			}
		default:
			log.Panicf("[ParticleEffectSystem] unhandled layer kind %v", layer.Kind)
		}
	}

	return !(g.FinishingGroup && g.IsEmpty())
}

// integrateParticles ages every particle of g, frees expired ones and
// applies motion, forces, size and animation to the rest.
func (s *ParticleEffectSystem) integrateParticles(c *components.ParticleEffectComponent, g *components.ParticleGroup, dt float32, bbox *render.AABBox) {
	layer := g.Layer

	var anchor mgl32.Vec3
	if layer.InheritPosition {
		anchor = c.Data.InfoSources[g.PositionSource].Position
	}
	frameCount := 0
	if layer.FrameOverLifeEnabled && layer.Sprite != nil {
		frameCount = layer.Sprite.FrameCount
	}

	g.RemoveIf(func(p *components.Particle) bool {
		p.Life += dt
		if p.Life >= p.LifeTime {
			return true
		}
		overLife := p.Life / p.LifeTime

		velocityOverLife := layer.VelocityOverLife.ValueOr(overLife, c, 1)
		p.Position = p.Position.Add(p.Speed.Mul(velocityOverLife * dt))

		spinOverLife := layer.SpinOverLife.ValueOr(overLife, c, 1)
		p.Angle += p.Spin * spinOverLife * dt

		for i, f := range layer.Forces {
			factor := f.OverLife.ValueOr(overLife, c, 1)
			p.Speed = p.Speed.Add(s.forceValues[i].Mul(factor * dt))
		}

		if layer.SizeOverLife != nil {
			k := layer.SizeOverLife.ValueExt(overLife, c)
			p.CurrSize = mgl32.Vec2{p.BaseSize[0] * k[0], p.BaseSize[1] * k[1]}
			p.CurrRadius = p.CurrSize.Len() * 0.5
		}

		worldPos := p.Position.Add(anchor)
		bbox.AddSphere(worldPos, p.CurrRadius)

		if p.PositionTarget >= 0 {
			src := &c.Data.InfoSources[p.PositionTarget]
			src.Position = worldPos
			src.Size = p.CurrSize
		}

		if frameCount > 0 {
			speed := layer.AnimSpeedOverLife.ValueOr(overLife, c, 1)
			p.AnimTime += layer.FrameOverLifeFPS * speed * dt
			for p.AnimTime > 1 {
				p.Frame++
				if p.Frame >= frameCount {
					if layer.LoopSpriteAnimation {
						p.Frame = 0
					} else {
						p.Frame = frameCount - 1
					}
				}
				p.AnimTime--
			}
		}
		return false
	})
}
