package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraProjectCenter(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, 800, 600)
	view, proj := cam.View(), cam.Projection()

	x, y, ok := cam.Project(mgl32.Vec3{0, 0, 0}, view, proj)
	if !ok {
		t.Fatal("target should be in front of the camera")
	}
	if math.Abs(float64(x-400)) > 0.01 || math.Abs(float64(y-300)) > 0.01 {
		t.Errorf("Project(target) = (%v, %v), want viewport center", x, y)
	}

	// 世界 +Y 在屏幕上方
	_, yUp, _ := cam.Project(mgl32.Vec3{0, 1, 0}, view, proj)
	if yUp >= y {
		t.Errorf("world up projected to y=%v, want above %v", yUp, y)
	}

	if _, _, ok := cam.Project(mgl32.Vec3{0, 0, 20}, view, proj); ok {
		t.Error("a point behind the camera should not project")
	}
}

func TestCameraBasis(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, 0}, 100, 100)
	right, up := cam.Basis()
	if !right.ApproxEqual(mgl32.Vec3{1, 0, 0}) || !up.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Basis() = %v, %v", right, up)
	}
}

func TestAABBox(t *testing.T) {
	b := EmptyAABBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyAABBox should be empty")
	}
	b.AddSphere(mgl32.Vec3{1, 1, 1}, 0.5)
	b.AddPoint(mgl32.Vec3{-2, 0, 1})
	if b.IsEmpty() {
		t.Fatal("box should not be empty after adding points")
	}
	if b.Min != (mgl32.Vec3{-2, 0, 0.5}) || b.Max != (mgl32.Vec3{1.5, 1.5, 1.5}) {
		t.Errorf("box = %+v", b)
	}
	if !b.Contains(mgl32.Vec3{0, 1, 1}) || b.Contains(mgl32.Vec3{3, 0, 0}) {
		t.Error("Contains mismatch")
	}
	p := PointAABBox(mgl32.Vec3{1, 2, 3})
	if p.IsEmpty() || p.Center() != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("PointAABBox = %+v", p)
	}
}
