// Package timeline describes compositions as immutable values and compiles
// them to ffmpeg invocations.
//
// Every builder method returns a new *Timeline and leaves its receiver
// untouched. Layers live in a persistent list, so appending shares the
// existing nodes and option changes share the whole list.
//
//	cmd, err := timeline.New().
//		AddVideo("in.mp4").
//		AddText("Hello", timeline.At(1), timeline.For(3)).
//		Scale(1920, 1080).
//		Compile("out.mp4")
package timeline

import (
	"errors"
	"fmt"
	"math"

	"reelcraft/internal/position"
)

// node is one cell of the persistent layer list, newest first.
type node struct {
	layer Layer
	prev  *node
	size  int
}

func (n *node) len() int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node) push(l Layer) *node {
	l.Order = n.len()
	return &node{layer: l, prev: n, size: n.len() + 1}
}

// each visits layers in insertion order without copying them.
func (n *node) each(fn func(Layer)) {
	layers := make([]*Layer, n.len())
	for cur := n; cur != nil; cur = cur.prev {
		layers[cur.size-1] = &cur.layer
	}
	for _, l := range layers {
		fn(*l)
	}
}

// Timeline is an immutable composition. The zero value is not usable; start
// from New.
type Timeline struct {
	layers *node
	opts   GlobalOptions
	err    *ConstructionError
}

// New returns an empty timeline. Options are applied in order.
func New(opts ...func(*GlobalOptions)) *Timeline {
	t := &Timeline{}
	for _, fn := range opts {
		t = t.WithOptions(fn)
	}
	return t
}

func (t *Timeline) derive() *Timeline {
	next := *t
	return &next
}

func (t *Timeline) fail(op string, err error) *Timeline {
	next := t.derive()
	if next.err == nil {
		next.err = &ConstructionError{Op: op, Err: err}
	}
	return next
}

func (t *Timeline) push(op string, l Layer, err error) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if err != nil {
		return t.fail(op, err)
	}
	next := t.derive()
	next.layers = t.layers.push(l)
	return next
}

func (t *Timeline) withOptions(op string, fn func(*GlobalOptions)) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	opts := t.opts
	fn(&opts)
	if err := opts.Validate(); err != nil {
		return t.fail(op, err)
	}
	next := t.derive()
	next.opts = opts
	return next
}

// Err returns the first construction error, or nil.
func (t *Timeline) Err() error {
	if t.err == nil {
		return nil
	}
	return t.err
}

// AddVideo appends a video layer. Its audio joins the mix unless muted.
func (t *Timeline) AddVideo(path string, opts ...LayerOption) *Timeline {
	l, err := newLayer(KindVideo, path, nil, opts)
	return t.push("AddVideo", l, err)
}

// AddAudio appends an audio layer.
func (t *Timeline) AddAudio(path string, opts ...LayerOption) *Timeline {
	l, err := newLayer(KindAudio, path, nil, opts)
	return t.push("AddAudio", l, err)
}

// AddImage appends a still image, looped for its duration.
func (t *Timeline) AddImage(path string, opts ...LayerOption) *Timeline {
	l, err := newLayer(KindImage, path, nil, opts)
	return t.push("AddImage", l, err)
}

// AddText appends a drawtext layer.
func (t *Timeline) AddText(text string, opts ...LayerOption) *Timeline {
	l, err := newLayer(KindText, text, textDefaults, opts)
	return t.push("AddText", l, err)
}

// AddFilter appends a registry effect applied to everything beneath it.
// Unknown names are reported by Compile.
func (t *Timeline) AddFilter(name string, params map[string]any, opts ...LayerOption) *Timeline {
	l, err := newLayer(KindFilter, "", []LayerOption{WithEffect(name, params)}, opts)
	return t.push("AddFilter", l, err)
}

var textDefaults = []LayerOption{
	FontSize(42),
	FontColor("white"),
	Stroke("black", 2),
	Position(position.Named{Anchor: position.BottomLeft, OffsetX: 40, OffsetY: 40}),
}

// Trim restricts the output to [start, end). Duration becomes end-start.
func (t *Timeline) Trim(start, end float64) *Timeline {
	if !finite(start) || !finite(end) || start < 0 || end <= start {
		return t.fail("Trim", fmt.Errorf("invalid window [%s, %s]", formatSeconds(start), formatSeconds(end)))
	}
	return t.withOptions("Trim", func(o *GlobalOptions) { o.Trim = TrimWindow{Start: start, End: end} })
}

// Scale resizes the final output. Pass -1 or -2 on one side to keep the
// aspect ratio.
func (t *Timeline) Scale(width, height int) *Timeline {
	return t.withOptions("Scale", func(o *GlobalOptions) { o.Scale = Dimensions{Width: width, Height: height} })
}

// Crop cuts the final output to rect.
func (t *Timeline) Crop(rect Rect) *Timeline {
	if !rect.Set() {
		return t.fail("Crop", fmt.Errorf("crop needs a positive width and height, got %dx%d", rect.Width, rect.Height))
	}
	return t.withOptions("Crop", func(o *GlobalOptions) { o.Crop = rect })
}

// SetAspectRatio center-crops the final output to ratio, e.g. "9:16".
func (t *Timeline) SetAspectRatio(ratio string) *Timeline {
	if _, err := ParseAspectRatio(ratio); err != nil {
		return t.fail("SetAspectRatio", err)
	}
	return t.withOptions("SetAspectRatio", func(o *GlobalOptions) { o.AspectRatio = ratio })
}

// SetResolution sets the canvas size.
func (t *Timeline) SetResolution(width, height int) *Timeline {
	if width <= 0 || height <= 0 {
		return t.fail("SetResolution", fmt.Errorf("resolution %dx%d must be positive", width, height))
	}
	return t.withOptions("SetResolution", func(o *GlobalOptions) {
		o.Width = width
		o.Height = height
	})
}

// SetFrameRate sets the output frame rate.
func (t *Timeline) SetFrameRate(fps float64) *Timeline {
	if fps <= 0 || math.IsInf(fps, 0) || math.IsNaN(fps) {
		return t.fail("SetFrameRate", fmt.Errorf("frame rate %s must be positive", formatSeconds(fps)))
	}
	return t.withOptions("SetFrameRate", func(o *GlobalOptions) { o.FrameRate = fps })
}

// SetDuration overrides the derived duration. Zero clears the override.
func (t *Timeline) SetDuration(seconds float64) *Timeline {
	if !finite(seconds) || seconds < 0 {
		return t.fail("SetDuration", fmt.Errorf("duration %v must be a finite non-negative number", seconds))
	}
	return t.withOptions("SetDuration", func(o *GlobalOptions) { o.Duration = seconds })
}

// WithOptions edits a copy of the global options.
func (t *Timeline) WithOptions(fn func(*GlobalOptions)) *Timeline {
	if fn == nil {
		return t.fail("WithOptions", errors.New("nil options func"))
	}
	return t.withOptions("WithOptions", fn)
}

// Concat appends other's layers shifted by t's duration. The receiver's
// global options win.
func (t *Timeline) Concat(other *Timeline) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if other == nil {
		return t.fail("Concat", errors.New("nil timeline"))
	}
	if other.err != nil {
		return t.fail("Concat", other.err)
	}
	offset := t.Duration()
	next := t.derive()
	other.layers.each(func(l Layer) {
		next.layers = next.layers.push(l.shifted(offset))
	})
	return next
}

// ConcatAll concatenates each timeline in turn. At least one is required.
func (t *Timeline) ConcatAll(others ...*Timeline) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if len(others) == 0 {
		return t.fail("ConcatAll", errors.New("no timelines to concatenate"))
	}
	out := t
	for i, o := range others {
		if o == nil {
			return t.fail("ConcatAll", fmt.Errorf("timeline %d is nil", i))
		}
		out = out.Concat(o)
	}
	return out
}

// Repeat plays the timeline n times back to back. n must be at least 1.
func (t *Timeline) Repeat(n int) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if n < 1 {
		return t.fail("Repeat", fmt.Errorf("repeat count %d must be at least 1", n))
	}
	step := t.Duration()
	next := t.derive()
	for i := 1; i < n; i++ {
		offset := step * float64(i)
		t.layers.each(func(l Layer) {
			next.layers = next.layers.push(l.shifted(offset))
		})
	}
	return next
}

// Pipe applies fn, which lets reusable builder steps read inline.
func (t *Timeline) Pipe(fn func(*Timeline) *Timeline) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if fn == nil {
		return t.fail("Pipe", errors.New("nil func"))
	}
	out := fn(t)
	if out == nil {
		return t.fail("Pipe", errors.New("func returned nil timeline"))
	}
	if out == t {
		return t.derive()
	}
	return out
}

// Layers returns copies of the layers in insertion order.
func (t *Timeline) Layers() []Layer {
	out := make([]Layer, 0, t.layers.len())
	t.layers.each(func(l Layer) {
		out = append(out, l.clone())
	})
	return out
}

// Sources lists the media files the timeline reads, deduplicated, in the
// order they are first referenced.
func (t *Timeline) Sources() []string {
	var out []string
	seen := map[string]bool{}
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		out = append(out, path)
	}
	t.layers.each(func(l Layer) {
		switch l.Kind {
		case KindText, KindFilter:
			if l.Style.FontFile != "" {
				add(l.Style.FontFile)
			}
			return
		}
		add(l.Source)
		if l.Composite != nil {
			add(l.Composite.Background)
		}
	})
	return out
}

// Len returns the number of layers.
func (t *Timeline) Len() int { return t.layers.len() }

// Options returns a copy of the global options.
func (t *Timeline) Options() GlobalOptions { return t.opts }

// Duration is the explicit override if set, else the trim window length,
// else the latest layer end, else zero.
func (t *Timeline) Duration() float64 {
	if t.opts.Duration > 0 {
		return t.opts.Duration
	}
	if t.opts.Trim.Set() {
		return t.opts.Trim.Length()
	}
	return t.contentEnd()
}

// contentEnd is the latest end over layers with a known length.
func (t *Timeline) contentEnd() float64 {
	var end float64
	t.layers.each(func(l Layer) {
		if e, ok := l.End(t.opts.Policy); ok && e > end {
			end = e
		}
	})
	return end
}

// span is how long the composed picture must run before trimming.
func (t *Timeline) span() float64 {
	end := t.contentEnd()
	end = math.Max(end, t.opts.Trim.End)
	end = math.Max(end, t.opts.Trim.Start+t.opts.Duration)
	if end <= 0 {
		return t.opts.Policy.canvas()
	}
	return end
}
