package systems

import (
	"math"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
)

// 朝向基底下标：0 为相机朝向，1-3 为发射器 X/Y/Z，4-6 为世界 X/Y/Z
const (
	basisCamera = 0
	basisCount  = 7
)

type quadBasis struct {
	right, up mgl32.Vec3
}

// ParticleRenderObject turns the live particles of one effect into quad
// batches. Groups are visited in insertion order and consecutive groups
// sharing a material are coalesced into one batch.
type ParticleRenderObject struct {
	data      *components.ParticleEffectData
	externals particle.Externals

	world *mgl32.Mat4
	bbox  render.AABBox

	batches []*render.RenderBatch
	pool    []*render.RenderBatch
	bases   [basisCount]quadBasis
}

// NewParticleRenderObject creates a render object drawing data. externals
// feeds the color and alpha curves evaluated at render time; it may be nil.
func NewParticleRenderObject(data *components.ParticleEffectData, externals particle.Externals) *ParticleRenderObject {
	ident := mgl32.Ident4()
	return &ParticleRenderObject{
		data:      data,
		externals: externals,
		world:     &ident,
		bbox:      render.EmptyAABBox(),
	}
}

// WorldTransform implements render.RenderObject.
func (o *ParticleRenderObject) WorldTransform() *mgl32.Mat4 { return o.world }

// SetWorldTransform implements render.RenderObject.
func (o *ParticleRenderObject) SetWorldTransform(m *mgl32.Mat4) { o.world = m }

// BoundingBox implements render.RenderObject.
func (o *ParticleRenderObject) BoundingBox() render.AABBox { return o.bbox }

// SetBoundingBox implements render.RenderObject.
func (o *ParticleRenderObject) SetBoundingBox(b render.AABBox) { o.bbox = b }

// RenderBatches returns the batches built by the last PrepareRenderData.
func (o *ParticleRenderObject) RenderBatches() []*render.RenderBatch { return o.batches }

// PrepareRenderData rebuilds the quad batches for cam.
func (o *ParticleRenderObject) PrepareRenderData(cam *render.Camera) {
	o.resetBatches()
	o.computeBases(cam)

	var current *render.RenderBatch
	for _, g := range o.data.Groups {
		layer := g.Layer
		if g.Material == nil || g.IsEmpty() || layer.IsDisabled || layer.Sprite == nil {
			continue
		}

		var anchor mgl32.Vec3
		if layer.InheritPosition {
			anchor = o.data.InfoSources[g.PositionSource].Position
		}

		bases := orientationBases(layer.Orientation)
		g.Each(func(p *components.Particle) {
			for _, basis := range bases {
				if current == nil || current.Material != g.Material || len(current.Vertices)+4 > render.MaxBatchVertices {
					current = o.newBatch(g.Material)
				}
				o.appendQuad(current, layer, p, anchor, basis)
			}
		})
	}
}

// orientationBases lists the basis indices a layer draws a quad for.
func orientationBases(o particle.Orientation) []int {
	var out [4]int
	n := 0
	if o&particle.OrientationCameraFacing != 0 {
		out[n] = basisCamera
		n++
	}
	offset := 0
	if o&particle.OrientationWorldAlign != 0 {
		offset = 3
	}
	for i, bit := range [...]particle.Orientation{particle.OrientationXFacing, particle.OrientationYFacing, particle.OrientationZFacing} {
		if o&bit != 0 {
			out[n] = 1 + i + offset
			n++
		}
	}
	return out[:n]
}

func (o *ParticleRenderObject) computeBases(cam *render.Camera) {
	right, up := cam.Basis()
	o.bases[basisCamera] = quadBasis{right: right, up: up}

	ex := safeNormalize(o.world.Col(0).Vec3(), mgl32.Vec3{1, 0, 0})
	ey := safeNormalize(o.world.Col(1).Vec3(), mgl32.Vec3{0, 1, 0})
	ez := safeNormalize(o.world.Col(2).Vec3(), mgl32.Vec3{0, 0, 1})
	o.bases[1] = quadBasis{right: ey, up: ez}
	o.bases[2] = quadBasis{right: ex, up: ez}
	o.bases[3] = quadBasis{right: ey, up: ex}

	wx, wy, wz := mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}
	o.bases[4] = quadBasis{right: wy, up: wz}
	o.bases[5] = quadBasis{right: wx, up: wz}
	o.bases[6] = quadBasis{right: wy, up: wx}
}

func (o *ParticleRenderObject) appendQuad(b *render.RenderBatch, layer *particle.Layer, p *components.Particle, anchor mgl32.Vec3, basisIdx int) {
	overLife := p.OverLife()
	basis := o.bases[basisIdx]

	color := p.Color
	if layer.ColorOverLife != nil {
		color = layer.ColorOverLife.ValueExt(overLife, o.externals)
	}
	color.A *= layer.AlphaOverLife.ValueOr(overLife, o.externals, 1)

	sin, cos := math.Sincos(float64(-p.Angle))
	s, c := float32(sin), float32(cos)
	right := basis.right.Mul(c).Add(basis.up.Mul(s))
	up := basis.up.Mul(c).Sub(basis.right.Mul(s))

	width, height := p.CurrSize[0], p.CurrSize[1]
	if layer.IsLong && basisIdx == basisCamera {
		// 沿速度在屏幕平面上的投影拉伸
		vx, vy := p.Speed.Dot(basis.right), p.Speed.Dot(basis.up)
		if vx != 0 || vy != 0 {
			along := basis.right.Mul(vx).Add(basis.up.Mul(vy)).Normalize()
			right = along
			up = basis.up.Mul(vx).Sub(basis.right.Mul(vy)).Normalize()
			width *= layer.ScaleVelocityBase + layer.ScaleVelocityFactor*p.Speed.Len()
		}
	}

	center := p.Position.Add(anchor)
	center = center.Sub(right.Mul(layer.PivotPoint[0] * width)).Sub(up.Mul(layer.PivotPoint[1] * height))

	hr := right.Mul(width * 0.5)
	hu := up.Mul(height * 0.5)
	corners := [4]mgl32.Vec3{
		center.Sub(hr).Sub(hu), // left, bottom
		center.Add(hr).Sub(hu), // right, bottom
		center.Sub(hr).Add(hu), // left, top
		center.Add(hr).Add(hu), // right, top
	}

	tex := layer.Sprite.TexCoords(p.Frame)
	var next [4]mgl32.Vec2
	var blendTime float32
	if layer.EnableFrameBlend {
		next = layer.Sprite.TexCoords(nextFrame(p.Frame, layer.Sprite.FrameCount, layer.LoopSpriteAnimation))
		blendTime = p.AnimTime
	}

	base := uint16(len(b.Vertices))
	for i := range corners {
		b.Vertices = append(b.Vertices, render.ParticleVertex{
			Position:     corners[i],
			TexCoord:     tex[i],
			Color:        color,
			NextTexCoord: next[i],
			BlendTime:    blendTime,
		})
	}
	b.Indices = append(b.Indices, base, base+1, base+2, base+1, base+3, base+2)
}

func nextFrame(frame, count int, loop bool) int {
	frame++
	if frame >= count {
		if loop {
			return 0
		}
		return count - 1
	}
	return frame
}

func safeNormalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.LenSqr() == 0 {
		return fallback
	}
	return v.Normalize()
}

func (o *ParticleRenderObject) resetBatches() {
	for _, b := range o.batches {
		b.Material = nil
		b.Vertices = b.Vertices[:0]
		b.Indices = b.Indices[:0]
		o.pool = append(o.pool, b)
	}
	clear(o.batches)
	o.batches = o.batches[:0]
}

func (o *ParticleRenderObject) newBatch(m *render.Material) *render.RenderBatch {
	var b *render.RenderBatch
	if n := len(o.pool); n > 0 {
		b = o.pool[n-1]
		o.pool = o.pool[:n-1]
	} else {
		b = &render.RenderBatch{}
	}
	b.Material = m
	o.batches = append(o.batches, b)
	return b
}
