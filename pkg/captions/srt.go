// Package captions reads and writes SubRip (SRT) caption files.
package captions

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cue is one caption: a 1-based index, a time range and its text. Text may
// span several lines.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Seconds converts fractional seconds to a Duration rounded to the
// millisecond, the resolution SRT can carry.
func Seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}

// Sort orders cues by start time, keeping input order for ties, and
// renumbers them from 1.
func Sort(cues []Cue) {
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].Start < cues[j].Start })
	for i := range cues {
		cues[i].Index = i + 1
	}
}

// ParseFile reads an SRT file from disk.
func ParseFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse reads SRT blocks. It accepts a UTF-8 BOM, CRLF line endings, a
// '.' millisecond separator and blocks without an index line. Cues that
// fail to parse are reported together as ValidationErrors alongside the
// cues that did parse.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		cues  []Cue
		errs  ValidationErrors
		block []string
		start int
		line  int
	)

	flush := func() {
		if len(block) == 0 {
			return
		}
		cue, err := parseBlock(block, len(cues)+1)
		if err != nil {
			errs = append(errs, ValidationError{Line: start, Cue: len(cues) + len(errs) + 1, Message: err.Error()})
		} else {
			cues = append(cues, cue)
		}
		block = nil
	}

	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}
		if len(block) == 0 {
			start = line
		}
		block = append(block, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan captions: %w", err)
	}
	flush()

	if len(errs) > 0 {
		return cues, errs
	}
	return cues, nil
}

func parseBlock(lines []string, fallbackIndex int) (Cue, error) {
	cue := Cue{Index: fallbackIndex}
	if !strings.Contains(lines[0], "-->") {
		idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Cue{}, fmt.Errorf("invalid index %q", strings.TrimSpace(lines[0]))
		}
		cue.Index = idx
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return Cue{}, errors.New("missing timing line")
	}

	from, to, ok := strings.Cut(lines[0], "-->")
	if !ok {
		return Cue{}, fmt.Errorf("invalid timing line %q", lines[0])
	}
	var err error
	if cue.Start, err = ParseTimestamp(from); err != nil {
		return Cue{}, err
	}
	// Position hints such as "X1:40" may follow the end timestamp.
	fields := strings.Fields(to)
	if len(fields) == 0 {
		return Cue{}, errors.New("missing end timestamp")
	}
	if cue.End, err = ParseTimestamp(fields[0]); err != nil {
		return Cue{}, err
	}
	if cue.End < cue.Start {
		return Cue{}, fmt.Errorf("end %s precedes start %s", FormatTimestamp(cue.End), FormatTimestamp(cue.Start))
	}
	cue.Text = strings.Join(lines[1:], "\n")
	return cue, nil
}

// ParseTimestamp parses HH:MM:SS,mmm. A '.' separator and a missing hour
// field are accepted.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("timestamp is required")
	}
	value = strings.Replace(value, ",", ".", 1)

	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	var hours, minutes int
	var err error
	if len(parts) == 3 {
		if hours, err = parseComponent("hours", parts[0], -1); err != nil {
			return 0, err
		}
		parts = parts[1:]
	}
	if minutes, err = parseComponent("minutes", parts[0], 59); err != nil {
		return 0, err
	}

	secStr, fracStr, _ := strings.Cut(parts[1], ".")
	seconds, err := parseComponent("seconds", secStr, 59)
	if err != nil {
		return 0, err
	}
	var millis int
	if fracStr != "" {
		if len(fracStr) > 3 {
			fracStr = fracStr[:3]
		}
		for len(fracStr) < 3 {
			fracStr += "0"
		}
		if millis, err = parseComponent("milliseconds", fracStr, 999); err != nil {
			return 0, err
		}
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

func parseComponent(name, raw string, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be non-negative", name)
	}
	if max >= 0 && value > max {
		return 0, fmt.Errorf("%s must be <= %d", name, max)
	}
	return value, nil
}

// FormatTimestamp renders d as HH:MM:SS,mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, d/time.Millisecond)
}

// Format renders cues as SRT text. Indexes are written as stored.
func Format(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", cue.Index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cue.Text)
	}
	return b.String()
}

// Write writes cues to w in SRT form.
func Write(w io.Writer, cues []Cue) error {
	if _, err := io.WriteString(w, Format(cues)); err != nil {
		return fmt.Errorf("write captions: %w", err)
	}
	return nil
}

// Validate checks timing and text. Overlapping cues are allowed.
func Validate(cues []Cue) error {
	var errs ValidationErrors
	for i, cue := range cues {
		n := cue.Index
		if n <= 0 {
			n = i + 1
		}
		switch {
		case cue.Start < 0:
			errs = append(errs, ValidationError{Cue: n, Message: "start is negative"})
		case cue.End <= cue.Start:
			errs = append(errs, ValidationError{Cue: n, Message: "end must be after start"})
		}
		if strings.TrimSpace(cue.Text) == "" {
			errs = append(errs, ValidationError{Cue: n, Message: "text is empty"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
