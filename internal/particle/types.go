// Package particle holds the read-only content definitions of particle
// effects: effects, emitters, layers, forces, sprites and the keyframed
// property lines they are authored with.
//
// Definitions are loaded from YAML and consumed, never mutated, by the
// simulation in pkg/systems.
package particle

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidLine is returned when a property line cannot be decoded.
	ErrInvalidLine = errors.New("invalid property line")
	// ErrUnknownEmitter is returned when a layer references an emitter name
	// that is not defined in the same effect file.
	ErrUnknownEmitter = errors.New("unknown emitter")
	// ErrEmitterCycle is returned when inner emitters reference each other in a loop.
	ErrEmitterCycle = errors.New("inner emitter cycle")
)

// EmitterShape is the spawn area of an emitter.
type EmitterShape int

const (
	EmitterPoint EmitterShape = iota
	EmitterRect
	EmitterOnCircle
	EmitterShockwave
)

var emitterShapeNames = []string{"point", "rect", "oncircle", "shockwave"}

func (s EmitterShape) String() string {
	if int(s) < len(emitterShapeNames) {
		return emitterShapeNames[s]
	}
	return fmt.Sprintf("EmitterShape(%d)", int(s))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *EmitterShape) UnmarshalYAML(node *yaml.Node) error {
	v, err := enumFromNode(node, emitterShapeNames)
	if err != nil {
		return fmt.Errorf("emitter type: %w", err)
	}
	*s = EmitterShape(v)
	return nil
}

// IsCircle reports whether particles are placed on a circle.
func (s EmitterShape) IsCircle() bool {
	return s == EmitterOnCircle || s == EmitterShockwave
}

// LayerKind selects how a layer emits. Every site that branches on it
// switches exhaustively.
type LayerKind int

const (
	// KindRegular emits at a rate taken from the number curves.
	KindRegular LayerKind = iota
	// KindSingleParticle keeps exactly one persistent particle alive.
	KindSingleParticle
	// KindSuperEmitter emits invisible particles that each drive a nested emitter.
	KindSuperEmitter
)

var layerKindNames = []string{"particles", "single", "superEmitter"}

func (k LayerKind) String() string {
	if int(k) < len(layerKindNames) {
		return layerKindNames[k]
	}
	return fmt.Sprintf("LayerKind(%d)", int(k))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *LayerKind) UnmarshalYAML(node *yaml.Node) error {
	v, err := enumFromNode(node, layerKindNames)
	if err != nil {
		return fmt.Errorf("layer type: %w", err)
	}
	*k = LayerKind(v)
	return nil
}

// DegradeStrategy controls what happens to live particles when the effect
// switches to LOD 0 with degrade-on-LOD-change enabled.
type DegradeStrategy int

const (
	DegradeKeepEverything DegradeStrategy = iota
	// DegradeRemove deletes every live particle of the group.
	DegradeRemove
	// DegradeCutParticles deletes every second particle of the chain.
	DegradeCutParticles
)

var degradeNames = []string{"keep", "remove", "cut"}

func (d DegradeStrategy) String() string {
	if int(d) < len(degradeNames) {
		return degradeNames[d]
	}
	return fmt.Sprintf("DegradeStrategy(%d)", int(d))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DegradeStrategy) UnmarshalYAML(node *yaml.Node) error {
	v, err := enumFromNode(node, degradeNames)
	if err != nil {
		return fmt.Errorf("degrade strategy: %w", err)
	}
	*d = DegradeStrategy(v)
	return nil
}

// BlendMode is the color blending a layer renders with.
type BlendMode int

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
	BlendAlphaAdditive
	BlendMultiplicative
)

var blendNames = []string{"alpha", "additive", "alphaAdditive", "multiplicative"}

func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return fmt.Sprintf("BlendMode(%d)", int(b))
}

// IsAdditive reports whether overlapping draws sum their colors.
func (b BlendMode) IsAdditive() bool {
	return b == BlendAdditive || b == BlendAlphaAdditive
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BlendMode) UnmarshalYAML(node *yaml.Node) error {
	v, err := enumFromNode(node, blendNames)
	if err != nil {
		return fmt.Errorf("blending: %w", err)
	}
	*b = BlendMode(v)
	return nil
}

// Orientation is a bit set of quad orientations. A particle emits one quad
// per enabled orientation.
type Orientation uint8

const (
	OrientationCameraFacing Orientation = 1 << iota
	OrientationXFacing
	OrientationYFacing
	OrientationZFacing
	// OrientationWorldAlign makes the X/Y/Z facings use world axes instead of
	// the emitter's transform.
	OrientationWorldAlign
)

var orientationNames = map[string]Orientation{
	"camera": OrientationCameraFacing,
	"x":      OrientationXFacing,
	"y":      OrientationYFacing,
	"z":      OrientationZFacing,
	"world":  OrientationWorldAlign,
}

// UnmarshalYAML accepts a list of orientation names, e.g. [camera, z, world].
func (o *Orientation) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if node.Kind == yaml.ScalarNode {
		names = []string{node.Value}
	} else if err := node.Decode(&names); err != nil {
		return fmt.Errorf("particle orientation: %w", err)
	}
	var out Orientation
	for _, name := range names {
		bit, ok := orientationNames[name]
		if !ok {
			return fmt.Errorf("particle orientation: unknown value %q (line %d)", name, node.Line)
		}
		out |= bit
	}
	*o = out
	return nil
}

func enumFromNode(node *yaml.Node, names []string) (int, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("expected scalar at line %d", node.Line)
	}
	for i, name := range names {
		if name == node.Value {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q at line %d (want one of %v)", node.Value, node.Line, names)
}
