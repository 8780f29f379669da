package components

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent holds an entity's world transform. Effect components
// keep a pointer to World so that moving the entity moves the effect anchor.
type TransformComponent struct {
	World mgl32.Mat4
}

// NewTransformComponent creates a transform translated to position.
func NewTransformComponent(position mgl32.Vec3) *TransformComponent {
	return &TransformComponent{World: mgl32.Translate3D(position[0], position[1], position[2])}
}

// Translation returns the world position.
func (t *TransformComponent) Translation() mgl32.Vec3 {
	return t.World.Col(3).Vec3()
}

// SetTranslation moves the entity without changing its rotation or scale.
func (t *TransformComponent) SetTranslation(p mgl32.Vec3) {
	t.World.SetCol(3, p.Vec4(1))
}
