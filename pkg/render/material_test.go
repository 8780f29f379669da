package render

import (
	"testing"

	"github.com/decker502/particlefx/internal/particle"
	"github.com/hajimehoshi/ebiten/v2"
)

// TestMaterialCacheSharing 测试相同配置共享同一材质实例
func TestMaterialCacheSharing(t *testing.T) {
	cache := NewMaterialCache()
	tex := ebiten.NewImage(8, 8)

	a := cache.Get(tex, false, false, particle.BlendAdditive)
	b := cache.Get(tex, false, false, particle.BlendAdditive)
	if a == nil || a != b {
		t.Fatalf("identical keys returned %p and %p, want one shared instance", a, b)
	}

	c := cache.Get(tex, false, false, particle.BlendAlpha)
	if c == a {
		t.Error("different blending should produce a distinct material")
	}
	d := cache.Get(tex, true, false, particle.BlendAdditive)
	e := cache.Get(tex, false, true, particle.BlendAdditive)
	if d == a || e == a || d == e {
		t.Error("fog and frame blend must be part of the key")
	}
	f := cache.Get(ebiten.NewImage(8, 8), false, false, particle.BlendAdditive)
	if f == a {
		t.Error("a different texture should produce a distinct material")
	}

	if cache.Len() != 5 {
		t.Errorf("Len() = %d, want 5", cache.Len())
	}
	if a.Texture() != tex {
		t.Error("material texture mismatch")
	}
}

// TestMaterialCacheNilTexture 测试无贴图时不创建材质
func TestMaterialCacheNilTexture(t *testing.T) {
	cache := NewMaterialCache()
	if m := cache.Get(nil, false, false, particle.BlendAlpha); m != nil {
		t.Errorf("Get(nil) = %v, want nil", m)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}

// TestBlendFor 测试混合模式映射
func TestBlendFor(t *testing.T) {
	if BlendFor(particle.BlendAlpha) != ebiten.BlendSourceOver {
		t.Error("alpha blending should map to source-over")
	}
	add := BlendFor(particle.BlendAdditive)
	if add.BlendFactorSourceRGB != ebiten.BlendFactorOne || add.BlendFactorDestinationRGB != ebiten.BlendFactorOne {
		t.Errorf("additive blend factors = %+v", add)
	}
	mul := BlendFor(particle.BlendMultiplicative)
	if mul.BlendFactorSourceRGB != ebiten.BlendFactorDestinationColor {
		t.Errorf("multiplicative blend factors = %+v", mul)
	}
}
