package attribute

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts raw attribute text to the given declared type.
//
// Boolean accepts "true"/"false" in any case first, and only then falls back
// to numeric truth: the text is parsed as a float, truncated toward zero, and
// any nonzero result is true. Integer parses a float and truncates toward
// zero, so "3.9" is 3. Double parses a float. String is returned unchanged.
func Coerce(dt DataType, raw string) (Value, error) {
	switch dt {
	case TypeBoolean:
		if strings.EqualFold(raw, "false") {
			return Value{typ: TypeBoolean, b: false}, nil
		}
		if strings.EqualFold(raw, "true") {
			return Value{typ: TypeBoolean, b: true}, nil
		}
		f, err := parseFloat(raw)
		if err != nil {
			return Value{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("cannot convert %v to boolean", f)
		}
		// No integer range applies: any nonzero whole part is true.
		return Value{typ: TypeBoolean, b: math.Trunc(f) != 0}, nil

	case TypeInteger:
		i, err := parseTruncated(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{typ: TypeInteger, i: i}, nil

	case TypeDouble:
		f, err := parseFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return Value{typ: TypeDouble, f: f}, nil

	case TypeString:
		return Value{typ: TypeString, s: raw}, nil

	default:
		return Value{}, fmt.Errorf("unknown data type %d", int(dt))
	}
}

func parseFloat(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// parseTruncated parses raw as a float and truncates it toward zero.
func parseTruncated(raw string) (int64, error) {
	f, err := parseFloat(raw)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot convert %v to integer", f)
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, fmt.Errorf("%v overflows a 64-bit integer", f)
	}
	return int64(t), nil
}
