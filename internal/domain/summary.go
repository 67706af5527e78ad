package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Keys recognized when printing a record on one line
var (
	levelKeys   = []string{"level", "lvl", "severity"}
	messageKeys = []string{"message", "msg"}
	timeKeys    = []string{"time", "ts", "timestamp"}
)

// Field is one remaining key of a summarized record
type Field struct {
	Key   string
	Value string
}

// Summary is a one-line rendering of a record's data
type Summary struct {
	Time    string
	Level   string
	Message string
	Fields  []Field
}

// Summarize picks the time, level and message out of a parsed object and
// returns the remaining keys sorted. Anything that is not an object is
// used as the message.
func Summarize(data any) Summary {
	obj, ok := data.(map[string]any)
	if !ok {
		return Summary{Message: valueString(data)}
	}

	var s Summary
	used := make(map[string]bool)
	pick := func(keys []string) string {
		for _, k := range keys {
			if v, ok := obj[k]; ok {
				used[k] = true
				return valueString(v)
			}
		}
		return ""
	}
	s.Time = pick(timeKeys)
	s.Level = pick(levelKeys)
	s.Message = pick(messageKeys)

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !used[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.Fields = append(s.Fields, Field{Key: k, Value: valueString(obj[k])})
	}
	return s
}

func valueString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool, int, int64, float64:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
