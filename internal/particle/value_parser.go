package particle

import (
	"fmt"
	"strconv"
	"strings"
)

// Interpolation selects the easing applied between two neighbouring keys.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationEaseIn
	InterpolationEaseOut
	InterpolationFastInOutWeak
)

var interpolationNames = map[string]Interpolation{
	"Linear":        InterpolationLinear,
	"EaseIn":        InterpolationEaseIn,
	"EaseOut":       InterpolationEaseOut,
	"FastInOutWeak": InterpolationFastInOutWeak,
}

// ParseInterpolation maps a keyword ("Linear", "EaseIn", ...) to an Interpolation.
// An empty keyword is linear.
func ParseInterpolation(s string) (Interpolation, error) {
	if s == "" {
		return InterpolationLinear, nil
	}
	if v, ok := interpolationNames[s]; ok {
		return v, nil
	}
	return InterpolationLinear, fmt.Errorf("%w: unknown interpolation %q", ErrInvalidLine, s)
}

func (i Interpolation) String() string {
	for name, v := range interpolationNames {
		if v == i {
			return name
		}
	}
	return "Linear"
}

// ease remaps a segment ratio (0-1) according to the interpolation mode.
func (i Interpolation) ease(ratio float32) float32 {
	switch i {
	case InterpolationEaseIn:
		return ratio * ratio
	case InterpolationEaseOut:
		return 1 - (1-ratio)*(1-ratio)
	case InterpolationFastInOutWeak:
		// 简化的三次插值
		return ratio * ratio * (3 - 2*ratio)
	default:
		return ratio
	}
}

// ParseKeyString parses the compact scalar key notation used in effect files.
// Supported forms:
//   - Fixed value: "1.5" → one key at t=0
//   - Keyframes: "0,2 1,2 4,21" → time,value pairs
//   - Interpolation: "EaseOut 0,1 1,0" → keyframes with an easing keyword
func ParseKeyString(s string) ([]Key[float32], Interpolation, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, InterpolationLinear, fmt.Errorf("%w: empty value", ErrInvalidLine)
	}

	interp := InterpolationLinear
	for keyword, v := range interpolationNames {
		if strings.Contains(s, keyword) {
			interp = v
			s = strings.TrimSpace(strings.ReplaceAll(s, keyword, ""))
			break
		}
	}

	// 固定值
	if !strings.Contains(s, ",") {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, interp, fmt.Errorf("%w: %q: %v", ErrInvalidLine, s, err)
		}
		return []Key[float32]{{Time: 0, Value: float32(v)}}, interp, nil
	}

	parts := strings.Fields(s)
	keys := make([]Key[float32], 0, len(parts))
	for _, part := range parts {
		pair := strings.Split(part, ",")
		if len(pair) != 2 {
			return nil, interp, fmt.Errorf("%w: malformed key %q", ErrInvalidLine, part)
		}
		t, err := strconv.ParseFloat(pair[0], 32)
		if err != nil {
			return nil, interp, fmt.Errorf("%w: key time %q: %v", ErrInvalidLine, pair[0], err)
		}
		v, err := strconv.ParseFloat(pair[1], 32)
		if err != nil {
			return nil, interp, fmt.Errorf("%w: key value %q: %v", ErrInvalidLine, pair[1], err)
		}
		keys = append(keys, Key[float32]{Time: float32(t), Value: float32(v)})
	}
	if err := checkKeyOrder(keys); err != nil {
		return nil, interp, err
	}
	return keys, interp, nil
}

func checkKeyOrder[T LineValue](keys []Key[T]) error {
	for i := 1; i < len(keys); i++ {
		if keys[i].Time < keys[i-1].Time {
			return fmt.Errorf("%w: key times must be ascending (%v after %v)", ErrInvalidLine, keys[i].Time, keys[i-1].Time)
		}
	}
	return nil
}
