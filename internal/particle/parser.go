package particle

import (
	"fmt"

	"github.com/decker502/particlefx/pkg/embedded"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"gopkg.in/yaml.v3"
)

// DefaultEffectDuration is used when an effect file does not set duration.
const DefaultEffectDuration = 100

// TextureLoader resolves sprite paths to images.
type TextureLoader interface {
	LoadImage(path string) (*ebiten.Image, error)
}

type spriteDef struct {
	Path    string `yaml:"path"`
	Frames  int    `yaml:"frames"`
	Columns int    `yaml:"columns"`
}

// UnmarshalYAML accepts either a bare path or {path, frames, columns}.
func (s *spriteDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Path = node.Value
		s.Frames = 1
		return nil
	}
	type plain spriteDef
	p := plain{Frames: 1}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = spriteDef(p)
	return nil
}

type layerDef struct {
	Layer        `yaml:",inline"`
	Sprite       *spriteDef `yaml:"sprite"`
	InnerEmitter string     `yaml:"innerEmitter"`
}

// UnmarshalYAML decodes a layer on top of NewLayer defaults.
func (d *layerDef) UnmarshalYAML(node *yaml.Node) error {
	type plain layerDef
	p := plain{Layer: *NewLayer("")}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = layerDef(p)
	return nil
}

type emitterDef struct {
	Name                   string            `yaml:"name"`
	Type                   EmitterShape      `yaml:"type"`
	ShortEffect            bool              `yaml:"shortEffect"`
	Position               mgl32.Vec3        `yaml:"position"`
	Size                   *Line[mgl32.Vec3] `yaml:"size"`
	Radius                 *Line[float32]    `yaml:"radius"`
	EmissionVector         *Line[mgl32.Vec3] `yaml:"emissionVector"`
	EmissionAngle          *Line[float32]    `yaml:"emissionAngle"`
	EmissionAngleVariation *Line[float32]    `yaml:"emissionAngleVariation"`
	EmissionRange          *Line[float32]    `yaml:"emissionRange"`
	EmitAtPoints           int               `yaml:"emitAtPoints"`
	ColorOverLife          *Line[Color]      `yaml:"colorOverLife"`
	Layers                 []layerDef        `yaml:"layers"`
}

type effectDef struct {
	Name           string       `yaml:"name"`
	Duration       float32      `yaml:"duration"`
	Repeats        int          `yaml:"repeats"`
	StopWhenEmpty  bool         `yaml:"stopWhenEmpty"`
	ClearOnRestart bool         `yaml:"clearOnRestart"`
	Emitters       []emitterDef `yaml:"emitters"`
	Library        []emitterDef `yaml:"library"`
}

// LoadEffect reads an effect file from the embedded filesystem and parses it.
//
// Example usage:
//
//	effect, err := particle.LoadEffect("data/effects/sparks.yaml", resources)
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadEffect(path string, textures TextureLoader) (*EffectConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effect file %s: %w", path, err)
	}
	effect, err := ParseEffect(data, textures)
	if err != nil {
		return nil, fmt.Errorf("failed to parse effect %s: %w", path, err)
	}
	return effect, nil
}

// ParseEffect decodes an effect definition. textures may be nil, in which
// case sprites keep their frame layout but carry no image (and therefore
// produce no material).
func ParseEffect(data []byte, textures TextureLoader) (*EffectConfig, error) {
	def := effectDef{Duration: DefaultEffectDuration}
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal effect: %w", err)
	}
	if len(def.Emitters) == 0 {
		return nil, fmt.Errorf("effect %q contains no emitters", def.Name)
	}

	b := &effectBuilder{
		textures: textures,
		byName:   make(map[string]*Emitter),
	}

	effect := &EffectConfig{
		Name:           def.Name,
		Duration:       def.Duration,
		RepeatsCount:   def.Repeats,
		StopWhenEmpty:  def.StopWhenEmpty,
		ClearOnRestart: def.ClearOnRestart,
	}

	for i := range def.Library {
		if _, err := b.build(&def.Library[i]); err != nil {
			return nil, err
		}
	}
	for i := range def.Emitters {
		em, err := b.build(&def.Emitters[i])
		if err != nil {
			return nil, err
		}
		effect.Emitters = append(effect.Emitters, EmitterInstance{
			Emitter:       em,
			SpawnPosition: def.Emitters[i].Position,
		})
	}

	if err := b.link(); err != nil {
		return nil, err
	}
	return effect, nil
}

type pendingInner struct {
	layer *Layer
	name  string
}

type effectBuilder struct {
	textures TextureLoader
	byName   map[string]*Emitter
	pending  []pendingInner
}

func (b *effectBuilder) build(d *emitterDef) (*Emitter, error) {
	em := &Emitter{
		Name:                   d.Name,
		Shape:                  d.Type,
		ShortEffect:            d.ShortEffect,
		Size:                   d.Size,
		Radius:                 d.Radius,
		EmissionVector:         d.EmissionVector,
		EmissionAngle:          d.EmissionAngle,
		EmissionAngleVariation: d.EmissionAngleVariation,
		EmissionRange:          d.EmissionRange,
		EmitAtPoints:           d.EmitAtPoints,
		ColorOverLife:          d.ColorOverLife,
	}

	for i := range d.Layers {
		ld := &d.Layers[i]
		layer := new(Layer)
		*layer = ld.Layer

		if ld.Sprite != nil && ld.Sprite.Path != "" {
			sprite, err := b.sprite(ld.Sprite)
			if err != nil {
				return nil, fmt.Errorf("emitter %q layer %q: %w", d.Name, layer.Name, err)
			}
			layer.Sprite = sprite
		}

		switch layer.Kind {
		case KindSuperEmitter:
			if ld.InnerEmitter == "" {
				return nil, fmt.Errorf("emitter %q layer %q: superEmitter layer needs innerEmitter", d.Name, layer.Name)
			}
			b.pending = append(b.pending, pendingInner{layer: layer, name: ld.InnerEmitter})
		case KindRegular, KindSingleParticle:
		default:
			return nil, fmt.Errorf("emitter %q layer %q: unsupported layer type %v", d.Name, layer.Name, layer.Kind)
		}

		em.Layers = append(em.Layers, layer)
	}

	if d.Name != "" {
		if _, dup := b.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate emitter name %q", d.Name)
		}
		b.byName[d.Name] = em
	}
	return em, nil
}

func (b *effectBuilder) sprite(d *spriteDef) (*Sprite, error) {
	if b.textures == nil {
		return NewSprite(d.Path, nil, d.Frames, d.Columns), nil
	}
	img, err := b.textures.LoadImage(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprite %s: %w", d.Path, err)
	}
	return NewSprite(d.Path, img, d.Frames, d.Columns), nil
}

func (b *effectBuilder) link() error {
	for _, p := range b.pending {
		inner, ok := b.byName[p.name]
		if !ok {
			return fmt.Errorf("layer %q: %w %q", p.layer.Name, ErrUnknownEmitter, p.name)
		}
		p.layer.InnerEmitter = inner
	}

	// 检测内部发射器的循环引用
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*Emitter]int)
	var visit func(em *Emitter) error
	visit = func(em *Emitter) error {
		switch state[em] {
		case visiting:
			return fmt.Errorf("%w through emitter %q", ErrEmitterCycle, em.Name)
		case done:
			return nil
		}
		state[em] = visiting
		for _, layer := range em.Layers {
			if layer.InnerEmitter != nil {
				if err := visit(layer.InnerEmitter); err != nil {
					return err
				}
			}
		}
		state[em] = done
		return nil
	}
	for _, em := range b.byName {
		if err := visit(em); err != nil {
			return err
		}
	}
	return nil
}
