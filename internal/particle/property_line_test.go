package particle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

// TestLineValue tests keyframe evaluation, clamping and nil lines
func TestLineValue(t *testing.T) {
	line := NewLine(Key[float32]{0, 0}, Key[float32]{1, 10}, Key[float32]{3, 30})

	tests := []struct {
		t    float32
		want float32
	}{
		{-1, 0},
		{0, 0},
		{0.5, 5},
		{1, 10},
		{2, 20},
		{3, 30},
		{10, 30},
	}
	for _, tt := range tests {
		if got := line.Value(tt.t); !approx(got, tt.want) {
			t.Errorf("Value(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}

	var missing *Line[float32]
	if got := missing.Value(1); got != 0 {
		t.Errorf("nil line Value = %v, want 0", got)
	}
	if got := missing.ValueOr(1, nil, 7); got != 7 {
		t.Errorf("nil line ValueOr = %v, want 7", got)
	}
}

// TestLineVectorAndColor tests the non-scalar value types
func TestLineVectorAndColor(t *testing.T) {
	size := NewLine(Key[mgl32.Vec2]{0, mgl32.Vec2{1, 2}}, Key[mgl32.Vec2]{1, mgl32.Vec2{3, 6}})
	if got := size.Value(0.5); !got.ApproxEqual(mgl32.Vec2{2, 4}) {
		t.Errorf("Vec2 Value(0.5) = %v, want [2 4]", got)
	}

	col := NewLine(Key[Color]{0, Color{0, 0, 0, 0}}, Key[Color]{1, Color{1, 1, 1, 1}})
	got := col.Value(0.25)
	if !approx(got.R, 0.25) || !approx(got.A, 0.25) {
		t.Errorf("Color Value(0.25) = %v, want all 0.25", got)
	}
}

// TestLineExternal tests named external modifiers
func TestLineExternal(t *testing.T) {
	line := Constant[float32](2).WithExternal("scale")

	if got := line.ValueExt(0, ExternalMap{"scale": 3}); got != 6 {
		t.Errorf("ValueExt with scale=3 = %v, want 6", got)
	}
	if got := line.ValueExt(0, ExternalMap{"other": 3}); got != 2 {
		t.Errorf("ValueExt without binding = %v, want 2", got)
	}
	if got := line.Value(0); got != 2 {
		t.Errorf("Value ignores externals, got %v", got)
	}

	vec := Constant(mgl32.Vec3{1, 2, 3}).WithExternal("scale")
	if got := vec.ValueExt(0, ExternalMap{"scale": 2}); got != (mgl32.Vec3{2, 4, 6}) {
		t.Errorf("Vec3 ValueExt = %v, want [2 4 6]", got)
	}
}
