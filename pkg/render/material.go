// Package render holds the data contract between the particle simulation
// and the host renderer: materials, bounding boxes, cameras and vertex batches.
package render

import (
	"log"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/hajimehoshi/ebiten/v2"
)

// MaterialKey identifies a visual configuration. Two layers whose keys are
// equal render identically and share one Material.
type MaterialKey struct {
	Texture    *ebiten.Image
	Blending   particle.BlendMode
	Fog        bool
	FrameBlend bool
}

// Material is a shared render state for particle batches.
type Material struct {
	Key   MaterialKey
	Blend ebiten.Blend
}

// Texture returns the material's texture.
func (m *Material) Texture() *ebiten.Image {
	return m.Key.Texture
}

// BlendFor maps a particle blend mode to an Ebitengine blend state.
func BlendFor(mode particle.BlendMode) ebiten.Blend {
	switch mode {
	case particle.BlendAdditive:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case particle.BlendAlphaAdditive:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorSourceAlpha,
			BlendFactorSourceAlpha:      ebiten.BlendFactorSourceAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case particle.BlendMultiplicative:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorZero,
			BlendFactorDestinationAlpha: ebiten.BlendFactorZero,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// MaterialCache creates materials on first use and hands out the same
// instance for equal keys. It is owned by one simulation goroutine and is
// not safe for concurrent use.
type MaterialCache struct {
	materials map[MaterialKey]*Material
}

// NewMaterialCache creates an empty cache.
func NewMaterialCache() *MaterialCache {
	return &MaterialCache{materials: make(map[MaterialKey]*Material)}
}

// Get returns the material for the configuration, creating it on a miss.
// A nil texture has no material.
func (c *MaterialCache) Get(texture *ebiten.Image, fog, frameBlend bool, blending particle.BlendMode) *Material {
	if texture == nil {
		return nil
	}
	key := MaterialKey{Texture: texture, Blending: blending, Fog: fog, FrameBlend: frameBlend}
	if m, ok := c.materials[key]; ok {
		return m
	}
	m := &Material{Key: key, Blend: BlendFor(blending)}
	c.materials[key] = m
	log.Printf("[MaterialCache] Created material #%d (blend=%v fog=%v frameBlend=%v)", len(c.materials), blending, fog, frameBlend)
	return m
}

// Len returns the number of cached materials.
func (c *MaterialCache) Len() int {
	return len(c.materials)
}

// Clear drops every cached material.
func (c *MaterialCache) Clear() {
	clear(c.materials)
}
