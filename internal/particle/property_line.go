package particle

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a straight-alpha RGBA color with float components in 0-1.
type Color struct {
	R, G, B, A float32
}

// White is the neutral color used when no color curve is configured.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Mul multiplies two colors component-wise.
func (c Color) Mul(o Color) Color {
	return Color{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

// LineValue lists the value types a property line can carry.
type LineValue interface {
	float32 | mgl32.Vec2 | mgl32.Vec3 | Color
}

// Key is a single keyframe of a property line.
type Key[T LineValue] struct {
	Time  float32
	Value T
}

// Externals resolves named external values (e.g. "scale") that modify
// property lines at evaluation time.
type Externals interface {
	ExternalValue(name string) (float32, bool)
}

// ExternalMap is a plain map implementation of Externals.
type ExternalMap map[string]float32

// ExternalValue implements Externals.
func (m ExternalMap) ExternalValue(name string) (float32, bool) {
	v, ok := m[name]
	return v, ok
}

// Line is a keyframed property curve. Depending on the property the time axis
// is either the layer loop time (seconds) or the normalized particle life (0-1).
//
// A nil *Line is a valid "missing curve": Value returns the zero value and
// ValueOr returns the supplied default.
//
// When External is set, the interpolated value is multiplied by the named
// external value, if the evaluator provides one.
type Line[T LineValue] struct {
	Keys          []Key[T]
	Interpolation Interpolation
	External      string
}

// Constant returns a line that always evaluates to v.
func Constant[T LineValue](v T) *Line[T] {
	return &Line[T]{Keys: []Key[T]{{Time: 0, Value: v}}}
}

// NewLine returns a linear line over the given keys. Keys must be sorted by time.
func NewLine[T LineValue](keys ...Key[T]) *Line[T] {
	return &Line[T]{Keys: keys}
}

// WithExternal binds the line to a named external value and returns it.
func (l *Line[T]) WithExternal(name string) *Line[T] {
	l.External = name
	return l
}

// Value evaluates the line at t without external modifiers.
func (l *Line[T]) Value(t float32) T {
	return l.ValueExt(t, nil)
}

// ValueOr evaluates the line at t, or returns def when the line is missing.
func (l *Line[T]) ValueOr(t float32, ext Externals, def T) T {
	if l == nil || len(l.Keys) == 0 {
		return def
	}
	return l.ValueExt(t, ext)
}

// ValueExt evaluates the line at t, applying the bound external modifier.
func (l *Line[T]) ValueExt(t float32, ext Externals) T {
	var zero T
	if l == nil || len(l.Keys) == 0 {
		return zero
	}
	v := l.interpolate(t)
	if l.External != "" && ext != nil {
		if m, ok := ext.ExternalValue(l.External); ok {
			v = scaleValue(v, m)
		}
	}
	return v
}

func (l *Line[T]) interpolate(t float32) T {
	keys := l.Keys
	if len(keys) == 1 || t <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Value
	}

	// 第一个 Time > t 的关键帧
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	k0, k1 := keys[i-1], keys[i]
	duration := k1.Time - k0.Time
	if duration <= 0 {
		return k1.Value
	}
	ratio := l.Interpolation.ease((t - k0.Time) / duration)
	return lerpValue(k0.Value, k1.Value, ratio)
}

func lerpValue[T LineValue](a, b T, f float32) T {
	switch av := any(a).(type) {
	case float32:
		bv := any(b).(float32)
		return any(av + (bv-av)*f).(T)
	case mgl32.Vec2:
		bv := any(b).(mgl32.Vec2)
		return any(av.Add(bv.Sub(av).Mul(f))).(T)
	case mgl32.Vec3:
		bv := any(b).(mgl32.Vec3)
		return any(av.Add(bv.Sub(av).Mul(f))).(T)
	case Color:
		bv := any(b).(Color)
		return any(Color{
			R: av.R + (bv.R-av.R)*f,
			G: av.G + (bv.G-av.G)*f,
			B: av.B + (bv.B-av.B)*f,
			A: av.A + (bv.A-av.A)*f,
		}).(T)
	}
	return a
}

func scaleValue[T LineValue](v T, s float32) T {
	switch vv := any(v).(type) {
	case float32:
		return any(vv * s).(T)
	case mgl32.Vec2:
		return any(vv.Mul(s)).(T)
	case mgl32.Vec3:
		return any(vv.Mul(s)).(T)
	case Color:
		return any(Color{R: vv.R * s, G: vv.G * s, B: vv.B * s, A: vv.A * s}).(T)
	}
	return v
}
