package timeline

import (
	shellquote "github.com/kballard/go-shellquote"
)

// Command is a compiled invocation. Args excludes the executable.
type Command struct {
	Executable string
	Args       []string
}

// Argv returns the executable followed by its arguments.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Executable)
	return append(argv, c.Args...)
}

// String quotes the command for a POSIX shell.
func (c Command) String() string {
	return shellquote.Join(c.Argv()...)
}

// Input returns the path of the nth -i declaration.
func (c Command) Input(n int) (string, bool) {
	seen := 0
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] != "-i" {
			continue
		}
		if seen == n {
			return c.Args[i+1], true
		}
		seen++
		i++
	}
	return "", false
}

// Value returns the argument that follows the first occurrence of flag.
func (c Command) Value(flag string) (string, bool) {
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] == flag {
			return c.Args[i+1], true
		}
	}
	return "", false
}
