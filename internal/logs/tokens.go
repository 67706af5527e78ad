package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Indexer derives the searchable tokens of a parsed log line
type Indexer struct {
	// IncludeKeys makes object keys searchable in addition to values
	IncludeKeys bool
}

// Tokens walks data depth-first and returns one normalized token per
// non-falsy primitive leaf (and per object key when IncludeKeys is set).
// Array indices are never keys. Object keys are visited in sorted order,
// so the result is a pure function of data.
func (ix Indexer) Tokens(data any) []string {
	return ix.walk(data, nil)
}

func (ix Indexer) walk(v any, acc []string) []string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if ix.IncludeKeys {
			acc = appendKeys(acc, keys)
		}
		for _, k := range keys {
			acc = ix.walk(val[k], acc)
		}
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if ix.IncludeKeys {
			acc = appendKeys(acc, keys)
		}
		for _, k := range keys {
			if val[k] != "" {
				acc = append(acc, Normalize(val[k]))
			}
		}
	case []any:
		for _, elem := range val {
			acc = ix.walk(elem, acc)
		}
	default:
		if s, ok := leafString(v); ok {
			acc = append(acc, Normalize(s))
		}
	}
	return acc
}

func appendKeys(acc []string, keys []string) []string {
	for _, k := range keys {
		if k != "" {
			acc = append(acc, Normalize(k))
		}
	}
	return acc
}

// leafString stringifies a primitive. Falsy values (nil, "", false, 0)
// report false and contribute no token.
func leafString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return "", false
		}
		return val.String(), val != ""
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), val != 0
	case int64:
		return strconv.FormatInt(val, 10), val != 0
	case int32:
		return strconv.FormatInt(int64(val), 10), val != 0
	case uint64:
		return strconv.FormatUint(val, 10), val != 0
	case fmt.Stringer:
		s := val.String()
		return s, s != ""
	default:
		s := fmt.Sprint(val)
		return s, s != ""
	}
}
