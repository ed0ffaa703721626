package captions

import (
	"strconv"
	"strings"
)

// ValidationError captures a single cue-level problem.
type ValidationError struct {
	Line    int
	Cue     int
	Message string
}

func (e ValidationError) Error() string {
	var prefix []string
	if e.Line > 0 {
		prefix = append(prefix, "line "+strconv.Itoa(e.Line))
	}
	if e.Cue > 0 {
		prefix = append(prefix, "cue "+strconv.Itoa(e.Cue))
	}
	if len(prefix) == 0 {
		return e.Message
	}
	return strings.Join(prefix, " ") + ": " + e.Message
}

// ValidationErrors aggregates multiple validation issues.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Issues returns a copy of the underlying validation errors.
func (errs ValidationErrors) Issues() []ValidationError {
	return append([]ValidationError(nil), errs...)
}
