package systems

import (
	"testing"

	"github.com/decker502/particlefx/pkg/render"
	"github.com/go-gl/mathgl/mgl32"
)

// countingObject counts PrepareRenderData calls
type countingObject struct {
	prepared int
	world    mgl32.Mat4
	bbox     render.AABBox
}

func (o *countingObject) WorldTransform() *mgl32.Mat4 { return &o.world }

func (o *countingObject) SetWorldTransform(m *mgl32.Mat4) { o.world = *m }

func (o *countingObject) BoundingBox() render.AABBox { return o.bbox }

func (o *countingObject) SetBoundingBox(b render.AABBox) { o.bbox = b }

func (o *countingObject) PrepareRenderData(*render.Camera) { o.prepared++ }

func (o *countingObject) RenderBatches() []*render.RenderBatch { return nil }

func TestRenderSystem_UpdateRebuildsMarkedObjects(t *testing.T) {
	rs := NewRenderSystem(newTestCamera())
	a, b := &countingObject{}, &countingObject{}
	rs.AddRenderObject(a)
	rs.AddRenderObject(b)

	rs.Update()
	if a.prepared != 1 || b.prepared != 1 {
		t.Fatalf("newly added objects prepared %d/%d times, want 1/1", a.prepared, b.prepared)
	}

	rs.MarkForUpdate(a)
	rs.Update()
	if a.prepared != 2 || b.prepared != 1 {
		t.Errorf("prepared %d/%d times, want 2/1", a.prepared, b.prepared)
	}
	if rs.PendingUpdates() != 0 {
		t.Errorf("PendingUpdates = %d, want 0", rs.PendingUpdates())
	}
}

func TestRenderSystem_RemovePreservesOrder(t *testing.T) {
	rs := NewRenderSystem(newTestCamera())
	a, b, c := &countingObject{}, &countingObject{}, &countingObject{}
	rs.AddRenderObject(a)
	rs.AddRenderObject(b)
	rs.AddRenderObject(c)

	rs.RemoveRenderObject(b)

	objs := rs.RenderObjects()
	if len(objs) != 2 || objs[0] != a || objs[1] != c {
		t.Errorf("objects after removal = %v", objs)
	}

	// 已注销对象的更新标记被忽略
	rs.MarkForUpdate(b)
	if rs.PendingUpdates() != 2 {
		t.Errorf("PendingUpdates = %d, want 2", rs.PendingUpdates())
	}
}

func TestRenderSystem_DoubleAddPanics(t *testing.T) {
	rs := NewRenderSystem(newTestCamera())
	o := &countingObject{}
	rs.AddRenderObject(o)

	defer func() {
		if recover() == nil {
			t.Error("second AddRenderObject did not panic")
		}
	}()
	rs.AddRenderObject(o)
}

func TestRenderSystem_RemoveUnknownPanics(t *testing.T) {
	rs := NewRenderSystem(newTestCamera())

	defer func() {
		if recover() == nil {
			t.Error("RemoveRenderObject of an unknown object did not panic")
		}
	}()
	rs.RemoveRenderObject(&countingObject{})
}

func TestRenderSystem_AsEffectHost(t *testing.T) {
	rs := NewRenderSystem(newTestCamera())
	s := NewParticleEffectSystem(nil, rs, nil)
	c := newTestComponent(testEffect(testLayer("a", 1)))

	s.Start(c)
	if len(rs.RenderObjects()) != 1 {
		t.Fatalf("render objects = %d, want 1", len(rs.RenderObjects()))
	}
	s.Process(0.25)
	rs.Update()
	s.Stop(c, true)
	if len(rs.RenderObjects()) != 0 {
		t.Errorf("render objects after stop = %d, want 0", len(rs.RenderObjects()))
	}
}

func TestFramePassAlpha(t *testing.T) {
	const a, blendTime = 0.8, 0.25
	tests := []struct {
		name string
		pass framePass
		want float32
	}{
		{"no frame blend", framePass{}, a},
		{"additive current", framePass{blend: true, additive: true}, a * (1 - blendTime)},
		{"additive next", framePass{blend: true, additive: true, next: true}, a * blendTime},
		{"source over current", framePass{blend: true}, a},
		{"source over next", framePass{blend: true, next: true}, a * blendTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pass.alpha(a, blendTime); !approxEqual(got, tt.want) {
				t.Errorf("alpha = %v, want %v", got, tt.want)
			}
		})
	}

	// 不透明像素上覆盖式两遍的结果等于两帧按 blendTime 线性插值
	cur, next := float32(0.2), float32(1.0)
	first := framePass{blend: true}.alpha(1, blendTime)
	second := framePass{blend: true, next: true}.alpha(1, blendTime)
	dst := cur * first
	dst = next*second + dst*(1-second)
	if want := cur*(1-blendTime) + next*blendTime; !approxEqual(dst, want) {
		t.Errorf("source over composite = %v, want %v", dst, want)
	}
}
