package incident

import (
	"fmt"
	"strconv"
)

// Missing is returned by accessors for absent fields.
const Missing = "-"

// Record is a JSON object as returned by the PagerDuty API.
type Record map[string]any

// String returns the value under key rendered as text, or Missing.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return Missing
	}

	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}

// Object returns the nested object under key, or nil.
func (r Record) Object(key string) Record {
	switch value := r[key].(type) {
	case map[string]any:
		return value
	case Record:
		return value
	default:
		return nil
	}
}
