package parser

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fastjson"
)

// maxNestedDepth bounds how deep ExpandNested follows JSON inside strings
const maxNestedDepth = 4

// JSON parses lines holding a JSON object or array. Other lines,
// including bare JSON scalars, become {"message": raw}.
// Numbers are kept as json.Number so their literal text is indexed.
type JSON struct {
	ExpandNested bool

	pool fastjson.ParserPool
}

// NewJSON creates a JSON parser
func NewJSON(expandNested bool) *JSON {
	return &JSON{ExpandNested: expandNested}
}

// Parse implements Parser
func (j *JSON) Parse(raw string) any {
	if v, ok := j.parseContainer(raw, 0); ok {
		return v
	}
	return Message(raw)
}

// parseContainer parses s when it holds a JSON object or array
func (j *JSON) parseContainer(s string, depth int) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}

	p := j.pool.Get()
	defer j.pool.Put(p)

	v, err := p.Parse(trimmed)
	if err != nil {
		return nil, false
	}
	// Values point into p, so convert before it goes back to the pool
	return j.convert(v, depth), true
}

func (j *JSON) convert(v *fastjson.Value, depth int) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]any, o.Len())
		o.Visit(func(key []byte, val *fastjson.Value) {
			m[string(key)] = j.convert(val, depth)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, val := range arr {
			out[i] = j.convert(val, depth)
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		s := string(b)
		if j.ExpandNested && depth < maxNestedDepth {
			if nested, ok := j.parseContainer(s, depth+1); ok {
				return nested
			}
		}
		return s
	case fastjson.TypeNumber:
		return json.Number(v.String())
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
