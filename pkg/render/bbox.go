package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABBox is an axis-aligned bounding box. The zero value is not empty;
// use EmptyAABBox for an accumulator.
type AABBox struct {
	Min, Max mgl32.Vec3
}

// EmptyAABBox returns a box that contains nothing; adding any point makes
// it valid.
func EmptyAABBox() AABBox {
	inf := float32(math.Inf(1))
	return AABBox{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// PointAABBox returns a degenerate box at p.
func PointAABBox(p mgl32.Vec3) AABBox {
	return AABBox{Min: p, Max: p}
}

// IsEmpty reports whether no point has been added.
func (b AABBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// AddPoint grows the box to contain p.
func (b *AABBox) AddPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// AddSphere grows the box to contain a sphere of radius r at center.
func (b *AABBox) AddSphere(center mgl32.Vec3, r float32) {
	b.AddPoint(center.Sub(mgl32.Vec3{r, r, r}))
	b.AddPoint(center.Add(mgl32.Vec3{r, r, r}))
}

// Contains reports whether p lies inside the box.
func (b AABBox) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Center returns the middle of the box.
func (b AABBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}
