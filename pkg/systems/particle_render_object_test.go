package systems

import (
	"testing"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/decker502/particlefx/pkg/components"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

func newTestImage() *ebiten.Image {
	return ebiten.NewImage(32, 32)
}

func newTestCamera() *render.Camera {
	return render.NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, 800, 600)
}

// startedEffect returns a playing effect whose groups exist but hold no particles
func startedEffect(t *testing.T, layers ...*particle.Layer) (*ParticleEffectSystem, *components.ParticleEffectComponent) {
	t.Helper()
	s, _ := newTestSystem(t)
	for _, l := range layers {
		l.Number = nil
	}
	c := newTestComponent(testEffect(layers...))
	s.Start(c)
	s.Process(0)
	return s, c
}

func spriteLayer(name string, sprite *particle.Sprite) *particle.Layer {
	l := testLayer(name, 100)
	l.Sprite = sprite
	return l
}

func TestParticleRenderObject_QuadLayout(t *testing.T) {
	sprite := particle.NewSprite("spark.png", newTestImage(), 1, 1)
	_, c := startedEffect(t, spriteLayer("a", sprite))

	p := c.Data.Groups[0].SpawnParticle()
	p.LifeTime = 10
	p.CurrSize = mgl32.Vec2{2, 2}
	p.Color = particle.White

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	batches := ro.RenderBatches()
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	b := batches[0]
	if len(b.Vertices) != 4 || len(b.Indices) != 6 {
		t.Fatalf("vertices/indices = %d/%d, want 4/6", len(b.Vertices), len(b.Indices))
	}

	want := []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {-1, 1, 0}, {1, 1, 0}}
	for i, v := range b.Vertices {
		if !v.Position.ApproxEqualThreshold(want[i], 1e-5) {
			t.Errorf("vertex %d = %v, want %v", i, v.Position, want[i])
		}
	}
	wantIdx := []uint16{0, 1, 2, 1, 3, 2}
	for i, idx := range b.Indices {
		if idx != wantIdx[i] {
			t.Errorf("indices = %v, want %v", b.Indices, wantIdx)
			break
		}
	}
	tex := sprite.TexCoords(0)
	if b.Vertices[0].TexCoord != tex[0] || b.Vertices[3].TexCoord != tex[3] {
		t.Errorf("texcoords not taken from the sprite frame")
	}
}

func TestParticleRenderObject_OrientationQuads(t *testing.T) {
	layer := spriteLayer("a", particle.NewSprite("spark.png", newTestImage(), 1, 1))
	layer.Orientation = particle.OrientationCameraFacing | particle.OrientationZFacing
	_, c := startedEffect(t, layer)
	spawnInto(c.Data.Groups[0], 3)

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	b := ro.RenderBatches()[0]
	if b.QuadCount() != 6 {
		t.Errorf("quads = %d, want 6", b.QuadCount())
	}
	if len(b.Indices) != 36 {
		t.Errorf("indices = %d, want 36", len(b.Indices))
	}
	// 第二个四边形的索引基于 4
	if b.Indices[6] != 4 || b.Indices[10] != 7 {
		t.Errorf("second quad indices = %v", b.Indices[6:12])
	}
}

func TestParticleRenderObject_CoalescesSharedMaterial(t *testing.T) {
	img := newTestImage()
	a := spriteLayer("a", particle.NewSprite("spark.png", img, 1, 1))
	b := spriteLayer("b", particle.NewSprite("spark.png", img, 1, 1))
	glow := spriteLayer("glow", particle.NewSprite("spark.png", img, 1, 1))
	glow.Blending = particle.BlendAdditive
	_, c := startedEffect(t, a, b, glow)
	for _, g := range c.Data.Groups {
		spawnInto(g, 2)
	}

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	batches := ro.RenderBatches()
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].QuadCount() != 4 || batches[1].QuadCount() != 2 {
		t.Errorf("quads per batch = %d, %d, want 4, 2", batches[0].QuadCount(), batches[1].QuadCount())
	}
}

func TestParticleRenderObject_SplitsLargeBatches(t *testing.T) {
	layer := spriteLayer("a", particle.NewSprite("spark.png", newTestImage(), 1, 1))
	_, c := startedEffect(t, layer)
	spawnInto(c.Data.Groups[0], render.MaxBatchVertices/4+1)

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	batches := ro.RenderBatches()
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if len(batches[0].Vertices) != render.MaxBatchVertices {
		t.Errorf("first batch vertices = %d, want %d", len(batches[0].Vertices), render.MaxBatchVertices)
	}
	if batches[1].QuadCount() != 1 {
		t.Errorf("second batch quads = %d, want 1", batches[1].QuadCount())
	}
}

func TestParticleRenderObject_ColorCurves(t *testing.T) {
	layer := spriteLayer("a", particle.NewSprite("spark.png", newTestImage(), 1, 1))
	layer.ColorOverLife = particle.Constant(particle.Color{R: 1, G: 0, B: 0, A: 1})
	layer.AlphaOverLife = particle.Constant(float32(0.5))
	_, c := startedEffect(t, layer)
	spawnInto(c.Data.Groups[0], 1)

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	got := ro.RenderBatches()[0].Vertices[0].Color
	want := particle.Color{R: 1, G: 0, B: 0, A: 0.5}
	if got != want {
		t.Errorf("color = %+v, want %+v", got, want)
	}
}

func TestParticleRenderObject_SkipsGroupsWithoutMaterial(t *testing.T) {
	layer := spriteLayer("a", particle.NewSprite("missing.png", nil, 1, 1))
	_, c := startedEffect(t, layer)
	spawnInto(c.Data.Groups[0], 3)

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	if n := len(ro.RenderBatches()); n != 0 {
		t.Errorf("batches = %d, want 0", n)
	}
}

func TestParticleRenderObject_FrameBlend(t *testing.T) {
	layer := spriteLayer("a", particle.NewSprite("anim.png", newTestImage(), 4, 4))
	layer.EnableFrameBlend = true
	layer.LoopSpriteAnimation = true
	_, c := startedEffect(t, layer)

	p := c.Data.Groups[0].SpawnParticle()
	p.LifeTime = 10
	p.CurrSize = mgl32.Vec2{1, 1}
	p.Frame = 3
	p.AnimTime = 0.25

	ro := c.RenderObject.(*ParticleRenderObject)
	ro.PrepareRenderData(newTestCamera())

	v := ro.RenderBatches()[0].Vertices[0]
	if v.BlendTime != 0.25 {
		t.Errorf("BlendTime = %v, want 0.25", v.BlendTime)
	}
	if v.NextTexCoord != layer.Sprite.TexCoords(0)[0] {
		t.Errorf("next frame of the last frame should wrap to 0")
	}
}

func TestOrientationBases(t *testing.T) {
	tests := []struct {
		name string
		o    particle.Orientation
		want []int
	}{
		{"camera", particle.OrientationCameraFacing, []int{0}},
		{"emitter xz", particle.OrientationXFacing | particle.OrientationZFacing, []int{1, 3}},
		{"world y", particle.OrientationYFacing | particle.OrientationWorldAlign, []int{5}},
		{"camera and world x", particle.OrientationCameraFacing | particle.OrientationXFacing | particle.OrientationWorldAlign, []int{0, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orientationBases(tt.o)
			if len(got) != len(tt.want) {
				t.Fatalf("bases = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("bases = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
