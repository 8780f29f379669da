package render

import (
	"github.com/decker502/particlefx/internal/particle"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxBatchVertices keeps every batch addressable with uint16 indices.
const MaxBatchVertices = 65532

// ParticleVertex is one corner of a particle quad.
type ParticleVertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Color    particle.Color

	// Frame blending: texcoord of the next frame and the blend factor.
	NextTexCoord mgl32.Vec2
	BlendTime    float32
}

// RenderBatch is a run of quads drawn with one material.
type RenderBatch struct {
	Material *Material
	Vertices []ParticleVertex
	Indices  []uint16
}

// QuadCount returns the number of quads in the batch.
func (b *RenderBatch) QuadCount() int {
	return len(b.Vertices) / 4
}

// RenderObject is what a host render system keeps registered and draws.
type RenderObject interface {
	// WorldTransform returns the anchor matrix the object follows.
	WorldTransform() *mgl32.Mat4
	SetWorldTransform(m *mgl32.Mat4)

	BoundingBox() AABBox
	SetBoundingBox(b AABBox)

	// PrepareRenderData rebuilds the batches for the given camera.
	PrepareRenderData(cam *Camera)
	RenderBatches() []*RenderBatch
}
