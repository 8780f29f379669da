package particle

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a property line. Accepted forms:
//
//	life: 1.5                       # constant (scalar lines only)
//	life: "0,1 1,0.2 EaseOut"       # compact time,value keys (scalar lines only)
//	number: [0, 10, 2, 40]          # flat time/value pairs (scalar lines only)
//	size: [0.5, 0.5]                # constant vector/color
//	size: [[0, 1, 1], [1, 2, 2]]    # keys as [time, components...]
//	size: {keys: ..., interpolation: EaseIn, external: scale}
func (l *Line[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var m struct {
			Keys          yaml.Node `yaml:"keys"`
			Interpolation string    `yaml:"interpolation"`
			External      string    `yaml:"external"`
		}
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLine, node.Line, err)
		}
		if m.Keys.Kind == 0 {
			return fmt.Errorf("%w: line %d: mapping form needs keys", ErrInvalidLine, node.Line)
		}
		if err := l.decodeKeys(&m.Keys); err != nil {
			return err
		}
		interp, err := ParseInterpolation(m.Interpolation)
		if err != nil {
			return err
		}
		if m.Interpolation != "" {
			l.Interpolation = interp
		}
		l.External = m.External
		return nil
	}
	return l.decodeKeys(node)
}

func (l *Line[T]) decodeKeys(node *yaml.Node) error {
	dim := valueDim[T]()

	switch node.Kind {
	case yaml.ScalarNode:
		if dim != 1 {
			return fmt.Errorf("%w: line %d: scalar given for %d-component line", ErrInvalidLine, node.Line, dim)
		}
		keys, interp, err := ParseKeyString(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Keys = make([]Key[T], len(keys))
		for i, k := range keys {
			l.Keys[i] = Key[T]{Time: k.Time, Value: any(k.Value).(T)}
		}
		l.Interpolation = interp
		return nil

	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return fmt.Errorf("%w: line %d: empty key list", ErrInvalidLine, node.Line)
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			return l.decodeKeyList(node, dim)
		}
		var flat []float32
		if err := node.Decode(&flat); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLine, node.Line, err)
		}
		if dim == 1 {
			if len(flat)%2 != 0 {
				return fmt.Errorf("%w: line %d: odd number of time/value entries", ErrInvalidLine, node.Line)
			}
			l.Keys = make([]Key[T], 0, len(flat)/2)
			for i := 0; i < len(flat); i += 2 {
				l.Keys = append(l.Keys, Key[T]{Time: flat[i], Value: any(flat[i+1]).(T)})
			}
			return checkKeyOrder(l.Keys)
		}
		v, err := valueFromComponents[T](flat)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		l.Keys = []Key[T]{{Time: 0, Value: v}}
		return nil
	}
	return fmt.Errorf("%w: line %d: unsupported node", ErrInvalidLine, node.Line)
}

func (l *Line[T]) decodeKeyList(node *yaml.Node, dim int) error {
	l.Keys = make([]Key[T], 0, len(node.Content))
	for _, item := range node.Content {
		var parts []float32
		if err := item.Decode(&parts); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrInvalidLine, item.Line, err)
		}
		if len(parts) < 2 {
			return fmt.Errorf("%w: line %d: key needs a time and a value", ErrInvalidLine, item.Line)
		}
		v, err := valueFromComponents[T](parts[1:])
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		l.Keys = append(l.Keys, Key[T]{Time: parts[0], Value: v})
	}
	return checkKeyOrder(l.Keys)
}

func valueDim[T LineValue]() int {
	var zero T
	switch any(zero).(type) {
	case mgl32.Vec2:
		return 2
	case mgl32.Vec3:
		return 3
	case Color:
		return 4
	}
	return 1
}

func valueFromComponents[T LineValue](c []float32) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		if len(c) != 1 {
			return zero, fmt.Errorf("%w: want 1 component, got %d", ErrInvalidLine, len(c))
		}
		return any(c[0]).(T), nil
	case mgl32.Vec2:
		if len(c) != 2 {
			return zero, fmt.Errorf("%w: want 2 components, got %d", ErrInvalidLine, len(c))
		}
		return any(mgl32.Vec2{c[0], c[1]}).(T), nil
	case mgl32.Vec3:
		if len(c) != 3 {
			return zero, fmt.Errorf("%w: want 3 components, got %d", ErrInvalidLine, len(c))
		}
		return any(mgl32.Vec3{c[0], c[1], c[2]}).(T), nil
	case Color:
		switch len(c) {
		case 3:
			return any(Color{R: c[0], G: c[1], B: c[2], A: 1}).(T), nil
		case 4:
			return any(Color{R: c[0], G: c[1], B: c[2], A: c[3]}).(T), nil
		}
		return zero, fmt.Errorf("%w: want 3 or 4 color components, got %d", ErrInvalidLine, len(c))
	}
	return zero, fmt.Errorf("%w: unsupported value type", ErrInvalidLine)
}
