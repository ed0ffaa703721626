package timeline

import (
	"fmt"
	"strings"
)

// ConstructionError records the first invalid builder call on a timeline.
// Every later call on that timeline (and its descendants) is a no-op, and
// Compile and ToJSON return the error.
type ConstructionError struct {
	Op  string
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("timeline %s: %v", e.Op, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// CompileError names the layer and effect that could not be compiled.
type CompileError struct {
	Layer  int // insertion index, -1 for global stages
	Kind   Kind
	Effect string
	Err    error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile")
	if e.Layer >= 0 {
		fmt.Fprintf(&b, " layer %d", e.Layer)
		if e.Kind != "" {
			fmt.Fprintf(&b, " (%s)", e.Kind)
		}
	}
	if e.Effect != "" {
		fmt.Fprintf(&b, " effect %q", e.Effect)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *CompileError) Unwrap() error { return e.Err }
