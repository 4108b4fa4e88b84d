package attribute

import (
	"encoding/json"
	"strconv"
)

// ScalarText renders a decoded JSON scalar as attribute text.
//
// Strings are returned unchanged, json.Number keeps its literal form, and
// booleans become "true"/"false". nil reports ok with an empty string so
// callers can treat null as absent. Arrays, objects and other types are
// rejected.
func ScalarText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
