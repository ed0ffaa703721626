package filtergraph

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// FormatFloat renders a number in the shortest form ffmpeg accepts. Values
// within 1e-9 of an integer are written without a fraction so that
// arithmetic noise does not leak into the command text.
func FormatFloat(value float64) string {
	if rounded := math.Round(value); math.Abs(value-rounded) < 1e-9 {
		value = rounded
	}
	if value == 0 {
		return "0"
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Values pass through three parsers before a filter sees them: the graph
// parser (quotes protect [],;), the option parser (backslash escapes : and
// quotes) and, for drawtext text only, drawtext expansion (backslash and %).
var (
	drawtextEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`)
	optionEscaper   = strings.NewReplacer(`\`, `\\`, ":", `\:`, ",", `\,`, "'", `\'`)
)

// EscapeText prepares drawtext text for a quoted option value. Line breaks
// are kept as real newlines.
func EscapeText(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	return optionEscaper.Replace(drawtextEscaper.Replace(value))
}

// EscapePath prepares a file path (fontfile, subtitles) for a quoted option
// value.
func EscapePath(value string) string {
	return optionEscaper.Replace(filepath.Clean(value))
}

// EscapeValue prepares an expression for a quoted option value.
func EscapeValue(value string) string {
	return optionEscaper.Replace(value)
}

// Quote wraps an option-escaped value in graph-level single quotes. A quote
// cannot appear inside a quoted span, so each one closes the span, is
// emitted backslash-escaped, and reopens it.
func Quote(escaped string) string {
	return "'" + strings.ReplaceAll(escaped, "'", `'\''`) + "'"
}
