package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera describes the view the particle batches are built and projected for.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Perspective parameters. When Ortho is set, OrthoHeight world units
	// map to the viewport height instead.
	FovY        float32 // degrees
	Near, Far   float32
	Ortho       bool
	OrthoHeight float32

	ViewportWidth, ViewportHeight int
}

// NewCamera returns a perspective camera looking from position at target.
func NewCamera(position, target mgl32.Vec3, width, height int) *Camera {
	return &Camera{
		Position:       position,
		Target:         target,
		Up:             mgl32.Vec3{0, 1, 0},
		FovY:           60,
		Near:           0.1,
		Far:            1000,
		ViewportWidth:  width,
		ViewportHeight: height,
	}
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the camera-to-clip matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.ViewportHeight > 0 {
		aspect = float32(c.ViewportWidth) / float32(c.ViewportHeight)
	}
	if c.Ortho {
		h := c.OrthoHeight / 2
		w := h * aspect
		return mgl32.Ortho(-w, w, -h, h, c.Near, c.Far)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Basis returns the camera's right and up vectors in world space, taken
// from the rows of the view matrix.
func (c *Camera) Basis() (right, up mgl32.Vec3) {
	view := c.View()
	return view.Row(0).Vec3(), view.Row(1).Vec3()
}

// Project maps a world position to screen pixels (origin top-left).
// ok is false for points behind the camera.
func (c *Camera) Project(p mgl32.Vec3, view, proj mgl32.Mat4) (x, y float32, ok bool) {
	clip := proj.Mul4x1(view.Mul4x1(p.Vec4(1)))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	// NDC y 轴向上，屏幕 y 轴向下
	x = (ndcX + 1) * 0.5 * float32(c.ViewportWidth)
	y = (1 - ndcY) * 0.5 * float32(c.ViewportHeight)
	return x, y, true
}
