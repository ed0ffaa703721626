// Package filtergraph models ffmpeg filter graphs as typed values. Filters
// hold an ordered option list and are only rendered to text by String, so
// every quoting and escaping rule lives in this package.
package filtergraph

import (
	"strconv"
	"strings"
)

// ValueKind selects how an option value is written.
type ValueKind int

const (
	// Plain values are written verbatim (numbers, colors, simple expressions).
	Plain ValueKind = iota
	// Expr values are escaped and single-quoted; use for anything containing
	// commas, colons or quotes.
	Expr
	// Text values use drawtext text escaping.
	Text
	// Path values use file path escaping.
	Path
)

// Arg is a single filter option. An empty Key renders a positional option.
type Arg struct {
	Key   string
	Value string
	Kind  ValueKind
}

// Pos returns a positional option.
func Pos(value string) Arg { return Arg{Value: value} }

// KV returns a key=value option written verbatim.
func KV(key, value string) Arg { return Arg{Key: key, Value: value} }

// Int returns a key=value option for an integer.
func Int(key string, value int) Arg { return Arg{Key: key, Value: strconv.Itoa(value)} }

// Float returns a key=value option for a number.
func Float(key string, value float64) Arg { return Arg{Key: key, Value: FormatFloat(value)} }

// Quoted returns an expression option that is escaped and single-quoted.
func Quoted(key, expr string) Arg { return Arg{Key: key, Value: expr, Kind: Expr} }

// Auto returns a verbatim option unless the value holds characters that
// need escaping, in which case it is quoted like Quoted.
func Auto(key, value string) Arg {
	if strings.ContainsAny(value, `,:'\;[]`) {
		return Quoted(key, value)
	}
	return KV(key, value)
}

// TextArg returns a drawtext text option.
func TextArg(key, text string) Arg { return Arg{Key: key, Value: text, Kind: Text} }

// PathArg returns a file path option.
func PathArg(key, path string) Arg { return Arg{Key: key, Value: path, Kind: Path} }

func (a Arg) String() string {
	var value string
	switch a.Kind {
	case Expr:
		value = Quote(EscapeValue(a.Value))
	case Text:
		value = Quote(EscapeText(a.Value))
	case Path:
		value = Quote(EscapePath(a.Value))
	default:
		value = a.Value
	}
	if a.Key == "" {
		return value
	}
	return a.Key + "=" + value
}

// Filter is one filter invocation such as scale=1920:1080.
type Filter struct {
	Name string
	Args []Arg
}

// New builds a filter from a name and ordered options.
func New(name string, args ...Arg) Filter {
	return Filter{Name: name, Args: args}
}

// With returns a copy of f with extra options appended.
func (f Filter) With(args ...Arg) Filter {
	merged := make([]Arg, 0, len(f.Args)+len(args))
	merged = append(merged, f.Args...)
	merged = append(merged, args...)
	return Filter{Name: f.Name, Args: merged}
}

// Arg returns the option stored under key.
func (f Filter) Arg(key string) (Arg, bool) {
	for _, a := range f.Args {
		if a.Key == key {
			return a, true
		}
	}
	return Arg{}, false
}

func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Chain is a linear run of filters with optional input and output labels.
type Chain struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

// Link builds a chain reading from inputs and writing to a single output
// label. An empty output leaves the chain unlabeled.
func Link(inputs []string, output string, filters ...Filter) Chain {
	c := Chain{Inputs: inputs, Filters: filters}
	if output != "" {
		c.Outputs = []string{output}
	}
	return c
}

// Empty reports whether the chain has no filters.
func (c Chain) Empty() bool { return len(c.Filters) == 0 }

func (c Chain) String() string {
	var b strings.Builder
	for _, in := range c.Inputs {
		b.WriteString(Label(in))
	}
	for i, f := range c.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.String())
	}
	for _, out := range c.Outputs {
		b.WriteString(Label(out))
	}
	return b.String()
}

// Graph is an ordered list of chains. The zero value is an empty graph.
type Graph struct {
	chains []Chain
}

// Add appends chains in order, skipping chains with no filters.
func (g *Graph) Add(chains ...Chain) {
	for _, c := range chains {
		if c.Empty() {
			continue
		}
		g.chains = append(g.chains, c)
	}
}

// Chains returns a copy of the chains in declaration order.
func (g Graph) Chains() []Chain {
	return append([]Chain(nil), g.chains...)
}

// Len returns the number of chains.
func (g Graph) Len() int { return len(g.chains) }

func (g Graph) String() string {
	parts := make([]string, len(g.chains))
	for i, c := range g.chains {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";")
}

// Label wraps a stream specifier or link name in brackets.
func Label(name string) string {
	return "[" + name + "]"
}

// InputStream returns the stream specifier for an input ordinal, e.g. 0:v.
func InputStream(ordinal int, stream string) string {
	return strconv.Itoa(ordinal) + ":" + stream
}
