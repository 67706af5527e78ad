// Package parser turns raw log lines into the structured values stored
// and indexed by the log store.
package parser

import (
	"fmt"
	"sort"

	"github.com/charliek/logview/internal/domain"
)

// Parser converts one raw line into a structured value. Parse never
// fails: lines it cannot understand are wrapped with Message.
type Parser interface {
	Parse(raw string) any
}

// Func adapts a plain function to the Parser interface
type Func func(raw string) any

// Parse calls f(raw)
func (f Func) Parse(raw string) any {
	return f(raw)
}

// Message wraps a raw line as {"message": raw}
func Message(raw string) any {
	return map[string]any{"message": raw}
}

// Options configures the built-in parsers
type Options struct {
	// ExpandNested parses string values that hold a JSON object or array
	ExpandNested bool
}

// Default is the parser used when none is configured
const Default = "json"

var builtin = map[string]func(Options) Parser{
	"json": func(o Options) Parser { return NewJSON(o.ExpandNested) },
	"text": func(Options) Parser { return Func(Message) },
}

// New returns the named built-in parser. An empty name selects Default.
func New(name string, opts Options) (Parser, error) {
	if name == "" {
		name = Default
	}
	build, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownParser, name, Names())
	}
	return build(opts), nil
}

// Names lists the built-in parser names
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
