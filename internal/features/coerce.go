package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNotNumeric = errors.New("value is not numeric")
	ErrNotFinite  = errors.New("value is not a finite number")
)

// Coerce converts a decoded JSON value to float64.
//
// Numbers of any Go numeric kind and json.Number pass through, booleans map to
// 1/0, and strings are parsed after trimming whitespace. nil, objects, arrays
// and NaN/Inf are rejected.
func Coerce(v interface{}) (float64, error) {
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
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, string(x))
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, fmt.Errorf("%w: empty string", ErrNotNumeric)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: could not convert string to float: %q", ErrNotNumeric, x)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("%w: null", ErrNotNumeric)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrNotNumeric, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotFinite, f)
	}
	return f, nil
}
