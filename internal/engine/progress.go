package engine

import (
	"bytes"
	"strconv"
	"strings"
	"sync"
)

// progressArgs make ffmpeg write key=value progress blocks to stdout.
var progressArgs = []string{"-progress", "pipe:1", "-nostats"}

// progressWriter parses ffmpeg -progress output and reports seconds encoded.
type progressWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	onTime  func(seconds float64)
	onEnd   func()
	current float64
}

func newProgressWriter(onTime func(float64), onEnd func()) *progressWriter {
	return &progressWriter{onTime: onTime, onEnd: onEnd}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.handle(strings.TrimSpace(line))
	}
	return len(p), nil
}

func (w *progressWriter) handle(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}
	switch key {
	case "out_time_us", "out_time_ms":
		// both keys carry microseconds
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		seconds := float64(us) / 1e6
		if seconds <= w.current {
			return
		}
		w.current = seconds
		if w.onTime != nil {
			w.onTime(seconds)
		}
	case "progress":
		if value == "end" && w.onEnd != nil {
			w.onEnd()
		}
	}
}
