package particle

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// Sprite is a sprite sheet used by a layer. Frames are laid out left to
// right, top to bottom, in a grid of Columns columns.
type Sprite struct {
	Path       string
	Image      *ebiten.Image
	FrameCount int
	Columns    int

	// Frame size in pixels. Derived from Image when it is set.
	FrameWidth  float32
	FrameHeight float32

	// Top-left of the image bounds, for sub-images.
	originX, originY float32
}

// NewSprite creates a sprite over img with the given frame layout.
// frames and columns default to 1.
func NewSprite(path string, img *ebiten.Image, frames, columns int) *Sprite {
	if frames < 1 {
		frames = 1
	}
	if columns < 1 || columns > frames {
		columns = frames
	}
	s := &Sprite{
		Path:       path,
		Image:      img,
		FrameCount: frames,
		Columns:    columns,
	}
	if img != nil {
		b := img.Bounds()
		rows := (frames + columns - 1) / columns
		s.originX, s.originY = float32(b.Min.X), float32(b.Min.Y)
		s.FrameWidth = float32(b.Dx()) / float32(columns)
		s.FrameHeight = float32(b.Dy()) / float32(rows)
	}
	return s
}

// ClampFrame returns frame limited to the valid range.
func (s *Sprite) ClampFrame(frame int) int {
	if frame < 0 {
		return 0
	}
	if frame >= s.FrameCount {
		return s.FrameCount - 1
	}
	return frame
}

// TexCoords returns the source pixel coordinates of a frame's corners in
// quad order: left-bottom, right-bottom, left-top, right-top.
func (s *Sprite) TexCoords(frame int) [4]mgl32.Vec2 {
	frame = s.ClampFrame(frame)
	col := frame % s.Columns
	row := frame / s.Columns

	x0 := s.originX + float32(col)*s.FrameWidth
	y0 := s.originY + float32(row)*s.FrameHeight
	x1 := x0 + s.FrameWidth
	y1 := y0 + s.FrameHeight

	// 图片坐标 y 轴向下，四边形的"底"对应帧的下边缘
	return [4]mgl32.Vec2{
		{x0, y1},
		{x1, y1},
		{x0, y0},
		{x1, y0},
	}
}
