package timeline

import (
	"errors"
	"fmt"

	"reelcraft/internal/effects"
	"reelcraft/internal/position"
	"reelcraft/pkg/captions"
)

// Aliases so callers outside this module can name transition and position
// values.
type (
	Transition     = effects.Transition
	TransitionType = effects.TransitionType
	Direction      = effects.Direction
	Easing         = effects.Easing
	Params         = effects.Params

	Placement = position.Position
	Anchored  = position.Named
	Percent   = position.Percent
	Absolute  = position.Absolute
	RawXY     = position.Raw
)

const (
	TransitionFade  = effects.TransitionFade
	TransitionSlide = effects.TransitionSlide
	TransitionZoom  = effects.TransitionZoom

	FromLeft   = effects.FromLeft
	FromRight  = effects.FromRight
	FromTop    = effects.FromTop
	FromBottom = effects.FromBottom

	Linear    = effects.Linear
	EaseIn    = effects.EaseIn
	EaseOut   = effects.EaseOut
	EaseInOut = effects.EaseInOut
)

// GreenScreen configures background replacement. Zero values select the
// chromakey defaults and the fill scale mode.
type GreenScreen struct {
	ChromaKey       string
	Similarity      float64
	Blend           float64
	BackgroundScale string // fit, fill, stretch or crop
}

// AddGreenScreenWithImageBackground keys fg and composites it over a still
// image scaled to the canvas.
func (t *Timeline) AddGreenScreenWithImageBackground(fg, bg string, gs GreenScreen, opts ...LayerOption) *Timeline {
	return t.addGreenScreen("AddGreenScreenWithImageBackground", fg, bg, KindImage, gs, opts)
}

// AddGreenScreenWithVideoBackground keys fg and composites it over a video
// scaled to the canvas.
func (t *Timeline) AddGreenScreenWithVideoBackground(fg, bg string, gs GreenScreen, opts ...LayerOption) *Timeline {
	return t.addGreenScreen("AddGreenScreenWithVideoBackground", fg, bg, KindVideo, gs, opts)
}

func (t *Timeline) addGreenScreen(op, fg, bg string, bgKind Kind, gs GreenScreen, opts []LayerOption) *Timeline {
	composite := func(l *Layer) {
		l.Composite = &Composite{
			Background:     bg,
			BackgroundKind: bgKind,
			KeyColor:       gs.ChromaKey,
			Similarity:     gs.Similarity,
			Blend:          gs.Blend,
			Scale:          gs.BackgroundScale,
		}
	}
	l, err := newLayer(KindVideo, fg, []LayerOption{composite}, opts)
	return t.push(op, l, err)
}

// AddSlideshow appends one image layer per path, each shown for `each`
// seconds, back to back from the At option (or zero). Remaining options
// apply to every slide.
func (t *Timeline) AddSlideshow(paths []string, each float64, opts ...LayerOption) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if len(paths) == 0 {
		return t.fail("AddSlideshow", errors.New("no images"))
	}
	if !finite(each) || each <= 0 {
		return t.fail("AddSlideshow", fmt.Errorf("slide duration %s must be positive", formatSeconds(each)))
	}

	probe := Layer{}
	for _, opt := range opts {
		if opt != nil {
			opt(&probe)
		}
	}
	start := probe.Start

	out := t
	for i, path := range paths {
		slide := append(append([]LayerOption{}, opts...), At(start+float64(i)*each), For(each))
		l, err := newLayer(KindImage, path, nil, slide)
		if err != nil {
			return t.fail("AddSlideshow", fmt.Errorf("slide %d: %w", i, err))
		}
		out = out.push("AddSlideshow", l, nil)
	}
	return out
}

// captionDefaults place cues bottom-center on a translucent box.
var captionDefaults = []LayerOption{
	Position(position.Named{Anchor: position.Bottom, OffsetY: 60}),
	Box("black@0.5", 10),
}

// AddCaptions appends a text layer per cue. Options apply to every cue.
func (t *Timeline) AddCaptions(cues []captions.Cue, opts ...LayerOption) *Timeline {
	if t.err != nil {
		return t.derive()
	}
	if err := captions.Validate(cues); err != nil {
		return t.fail("AddCaptions", err)
	}
	defaults := append(append([]LayerOption{}, textDefaults...), captionDefaults...)
	out := t
	for _, cue := range cues {
		timing := []LayerOption{At(cue.Start.Seconds()), For((cue.End - cue.Start).Seconds())}
		l, err := newLayer(KindText, cue.Text, defaults, append(append([]LayerOption{}, opts...), timing...))
		if err != nil {
			return t.fail("AddCaptions", fmt.Errorf("cue %d: %w", cue.Index, err))
		}
		out = out.push("AddCaptions", l, nil)
	}
	return out
}

// Captions exports text layers as cues ordered by start time, then
// insertion. Layers without a duration end with the timeline.
func (t *Timeline) Captions() []captions.Cue {
	end := t.span()
	var cues []captions.Cue
	t.layers.each(func(l Layer) {
		if l.Kind != KindText {
			return
		}
		stop := end
		if l.HasDuration() {
			stop = l.Start + l.Duration
		}
		cues = append(cues, captions.Cue{
			Start: captions.Seconds(l.Start),
			End:   captions.Seconds(stop),
			Text:  l.Source,
		})
	})
	captions.Sort(cues)
	return cues
}
