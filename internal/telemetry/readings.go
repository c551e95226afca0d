package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Readings is a bag of raw sensor values keyed by tag name. Values are
// loosely typed: numbers or booleans, as decoded from the transport.
type Readings map[string]any

// Clone returns a shallow copy of the readings
func (r Readings) Clone() Readings {
	c := make(Readings, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Float coerces a raw value into a finite number
func Float(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool coerces a raw value into a flag. Numbers are true when non-zero.
func Bool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, false
		}
		return b, true
	}

	if f, ok := Float(v); ok {
		return f != 0, true
	}
	return false, false
}
