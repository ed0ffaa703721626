package timeline

import (
	"fmt"
	"strings"

	"reelcraft/internal/effects"
	"reelcraft/internal/position"
)

// Kind identifies what a layer contributes.
type Kind string

const (
	KindVideo  Kind = "video"
	KindAudio  Kind = "audio"
	KindImage  Kind = "image"
	KindText   Kind = "text"
	KindFilter Kind = "filter"
)

func (k Kind) valid() bool {
	switch k {
	case KindVideo, KindAudio, KindImage, KindText, KindFilter:
		return true
	}
	return false
}

// visual reports whether the layer is declared as a video input.
func (k Kind) visual() bool {
	return k == KindVideo || k == KindImage
}

// Text transforms.
const (
	TransformUpper = "uppercase"
	TransformLower = "lowercase"
	TransformTitle = "title"
)

// Style holds rendering attributes. Each kind reads the fields that apply
// to it; zero values mean "use the default".
type Style struct {
	FontFile    string  `json:"fontFile,omitempty" yaml:"fontFile,omitempty"`
	FontSize    int     `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontColor   string  `json:"fontColor,omitempty" yaml:"fontColor,omitempty"`
	StrokeColor string  `json:"strokeColor,omitempty" yaml:"strokeColor,omitempty"`
	StrokeWidth int     `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
	BoxColor    string  `json:"boxColor,omitempty" yaml:"boxColor,omitempty"`
	BoxPadding  int     `json:"boxPadding,omitempty" yaml:"boxPadding,omitempty"`
	ShadowColor string  `json:"shadowColor,omitempty" yaml:"shadowColor,omitempty"`
	ShadowX     int     `json:"shadowX,omitempty" yaml:"shadowX,omitempty"`
	ShadowY     int     `json:"shadowY,omitempty" yaml:"shadowY,omitempty"`
	LineSpacing int     `json:"lineSpacing,omitempty" yaml:"lineSpacing,omitempty"`
	Transform   string  `json:"transform,omitempty" yaml:"transform,omitempty"`
	FadeIn      float64 `json:"fadeIn,omitempty" yaml:"fadeIn,omitempty"`
	FadeOut     float64 `json:"fadeOut,omitempty" yaml:"fadeOut,omitempty"`

	Width   int     `json:"width,omitempty" yaml:"width,omitempty"`
	Height  int     `json:"height,omitempty" yaml:"height,omitempty"`
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty"`

	Volume float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Mute   bool    `json:"mute,omitempty" yaml:"mute,omitempty"`
	Seek   float64 `json:"seek,omitempty" yaml:"seek,omitempty"`
}

// EffectSpec names a registry effect and its parameters.
type EffectSpec struct {
	Name   string         `json:"name" yaml:"name"`
	Params effects.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Composite makes a video layer a chroma-keyed foreground over its own
// background source.
type Composite struct {
	Background     string  `json:"background" yaml:"background"`
	BackgroundKind Kind    `json:"backgroundKind" yaml:"backgroundKind"`
	KeyColor       string  `json:"keyColor,omitempty" yaml:"keyColor,omitempty"`
	Similarity     float64 `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	Blend          float64 `json:"blend,omitempty" yaml:"blend,omitempty"`
	Scale          string  `json:"scale,omitempty" yaml:"scale,omitempty"`
}

func (c Composite) key() effects.Key {
	k := effects.Key{Color: c.KeyColor, Similarity: c.Similarity, Blend: c.Blend}
	if k.Similarity == 0 {
		k.Similarity = effects.DefaultSimilarity
	}
	if k.Blend == 0 {
		k.Blend = effects.DefaultBlend
	}
	return k
}

// Layer is one timed, positioned piece of content. Layers are values: the
// accessors on Timeline hand out copies.
type Layer struct {
	Kind     Kind
	Source   string
	Start    float64
	Duration float64 // zero means unset
	Position position.Position
	Style    Style
	Order    int
	Effects  []EffectSpec

	TransitionIn  *effects.Transition
	TransitionOut *effects.Transition
	Composite     *Composite
}

// HasDuration reports whether the layer carries an explicit duration.
func (l Layer) HasDuration() bool {
	return l.Duration > 0
}

// Length returns the layer's duration under policy. Text and filter layers
// without an explicit duration report false: they run to the timeline end.
func (l Layer) Length(policy DurationPolicy) (float64, bool) {
	if l.HasDuration() {
		return l.Duration, true
	}
	switch l.Kind {
	case KindImage:
		return policy.image(), true
	case KindVideo:
		return policy.video(), true
	case KindAudio:
		return policy.audio(), true
	}
	return 0, false
}

// End returns Start plus Length, when the length is known.
func (l Layer) End(policy DurationPolicy) (float64, bool) {
	length, ok := l.Length(policy)
	if !ok {
		return 0, false
	}
	return l.Start + length, true
}

func (l Layer) clone() Layer {
	out := l
	if l.Effects != nil {
		out.Effects = make([]EffectSpec, len(l.Effects))
		for i, e := range l.Effects {
			out.Effects[i] = EffectSpec{Name: e.Name, Params: e.Params.Clone()}
		}
	}
	if l.TransitionIn != nil {
		tr := *l.TransitionIn
		tr.Params = tr.Params.Clone()
		out.TransitionIn = &tr
	}
	if l.TransitionOut != nil {
		tr := *l.TransitionOut
		tr.Params = tr.Params.Clone()
		out.TransitionOut = &tr
	}
	if l.Composite != nil {
		c := *l.Composite
		out.Composite = &c
	}
	return out
}

func (l Layer) shifted(offset float64) Layer {
	out := l.clone()
	out.Start += offset
	return out
}

func (l Layer) validate() error {
	if !l.Kind.valid() {
		return fmt.Errorf("unknown layer kind %q", l.Kind)
	}
	switch l.Kind {
	case KindFilter:
		if len(l.Effects) != 1 || strings.TrimSpace(l.Effects[0].Name) == "" {
			return fmt.Errorf("filter layer must name exactly one effect")
		}
	case KindText:
		if l.Source == "" {
			return fmt.Errorf("text layer is empty")
		}
	default:
		if strings.TrimSpace(l.Source) == "" {
			return fmt.Errorf("%s layer has no source", l.Kind)
		}
	}
	if err := l.checkFinite(); err != nil {
		return err
	}
	if l.Start < 0 {
		return fmt.Errorf("start time %s is negative", formatSeconds(l.Start))
	}
	if l.Duration < 0 {
		return fmt.Errorf("duration %s is negative", formatSeconds(l.Duration))
	}
	if l.Style.Seek < 0 {
		return fmt.Errorf("seek offset %s is negative", formatSeconds(l.Style.Seek))
	}
	if l.Style.FadeIn < 0 || l.Style.FadeOut < 0 {
		return fmt.Errorf("fade durations must not be negative")
	}
	if l.Style.Width < -2 || l.Style.Height < -2 {
		return fmt.Errorf("invalid size %dx%d", l.Style.Width, l.Style.Height)
	}
	if l.Style.Volume < 0 {
		return fmt.Errorf("volume %s is negative", formatSeconds(l.Style.Volume))
	}
	switch l.Style.Transform {
	case "", TransformUpper, TransformLower, TransformTitle:
	default:
		return fmt.Errorf("unknown text transform %q", l.Style.Transform)
	}
	for _, tr := range []*effects.Transition{l.TransitionIn, l.TransitionOut} {
		if tr == nil {
			continue
		}
		if err := tr.Validate(); err != nil {
			return err
		}
	}
	if l.Composite != nil {
		if l.Kind != KindVideo {
			return fmt.Errorf("only video layers can be keyed over a background")
		}
		if strings.TrimSpace(l.Composite.Background) == "" {
			return fmt.Errorf("green screen layer has no background")
		}
		if !l.Composite.BackgroundKind.visual() {
			return fmt.Errorf("background must be an image or video, got %q", l.Composite.BackgroundKind)
		}
		if _, err := effects.ParseScaleMode(l.Composite.Scale); err != nil {
			return err
		}
	}
	return nil
}

// checkFinite rejects NaN and infinite numbers, which ffmpeg expressions and
// JSON documents cannot carry.
func (l Layer) checkFinite() error {
	names := []string{"start", "duration", "seek", "fade in", "fade out", "opacity", "volume"}
	values := []float64{l.Start, l.Duration, l.Style.Seek, l.Style.FadeIn, l.Style.FadeOut, l.Style.Opacity, l.Style.Volume}
	if l.Composite != nil {
		names = append(names, "similarity", "blend")
		values = append(values, l.Composite.Similarity, l.Composite.Blend)
	}
	for i, v := range values {
		if !finite(v) {
			return fmt.Errorf("%s %v is not a finite number", names[i], v)
		}
	}
	return nil
}

// LayerOption adjusts a layer while it is being built.
type LayerOption func(*Layer)

// At sets the start time in seconds.
func At(start float64) LayerOption {
	return func(l *Layer) { l.Start = start }
}

// For sets an explicit duration in seconds.
func For(duration float64) LayerOption {
	return func(l *Layer) { l.Duration = duration }
}

// Position places the layer.
func Position(p position.Position) LayerOption {
	return func(l *Layer) { l.Position = p }
}

// PositionString places the layer from a descriptor such as "center",
// "10%,80%" or "100,200".
func PositionString(desc string) LayerOption {
	return func(l *Layer) { l.Position = position.Parse(desc) }
}

// WithStyle edits the style directly.
func WithStyle(fn func(*Style)) LayerOption {
	return func(l *Layer) {
		if fn != nil {
			fn(&l.Style)
		}
	}
}

func FontFile(path string) LayerOption {
	return func(l *Layer) { l.Style.FontFile = path }
}

func FontSize(size int) LayerOption {
	return func(l *Layer) { l.Style.FontSize = size }
}

func FontColor(color string) LayerOption {
	return func(l *Layer) { l.Style.FontColor = color }
}

// Stroke outlines text.
func Stroke(color string, width int) LayerOption {
	return func(l *Layer) {
		l.Style.StrokeColor = color
		l.Style.StrokeWidth = width
	}
}

// Box draws a background box behind text.
func Box(color string, padding int) LayerOption {
	return func(l *Layer) {
		l.Style.BoxColor = color
		l.Style.BoxPadding = padding
	}
}

func Shadow(color string, x, y int) LayerOption {
	return func(l *Layer) {
		l.Style.ShadowColor = color
		l.Style.ShadowX = x
		l.Style.ShadowY = y
	}
}

func LineSpacing(spacing int) LayerOption {
	return func(l *Layer) { l.Style.LineSpacing = spacing }
}

// Transform changes text case: uppercase, lowercase or title.
func Transform(mode string) LayerOption {
	return func(l *Layer) { l.Style.Transform = strings.ToLower(strings.TrimSpace(mode)) }
}

// Fade sets fade-in and fade-out durations. Text fades through its alpha;
// audio through afade.
func Fade(in, out float64) LayerOption {
	return func(l *Layer) {
		l.Style.FadeIn = in
		l.Style.FadeOut = out
	}
}

// Size scales a visual layer. Use -1 or -2 on one side to keep the aspect.
func Size(width, height int) LayerOption {
	return func(l *Layer) {
		l.Style.Width = width
		l.Style.Height = height
	}
}

// Opacity blends a visual layer. Values outside 0..1 are passed through.
func Opacity(alpha float64) LayerOption {
	return func(l *Layer) { l.Style.Opacity = alpha }
}

// Volume scales a layer's audio.
func Volume(gain float64) LayerOption {
	return func(l *Layer) { l.Style.Volume = gain }
}

// Mute drops a video layer's audio from the mix.
func Mute() LayerOption {
	return func(l *Layer) { l.Style.Mute = true }
}

// Seek starts reading the source at offset seconds.
func Seek(offset float64) LayerOption {
	return func(l *Layer) { l.Style.Seek = offset }
}

// WithEffect appends a registry effect to the layer's own stream.
func WithEffect(name string, params effects.Params) LayerOption {
	return func(l *Layer) {
		l.Effects = append(l.Effects, EffectSpec{Name: name, Params: params.Clone()})
	}
}

func TransitionIn(t effects.Transition) LayerOption {
	return func(l *Layer) {
		t.Params = t.Params.Clone()
		l.TransitionIn = &t
	}
}

func TransitionOut(t effects.Transition) LayerOption {
	return func(l *Layer) {
		t.Params = t.Params.Clone()
		l.TransitionOut = &t
	}
}

func newLayer(kind Kind, source string, defaults []LayerOption, opts []LayerOption) (Layer, error) {
	l := Layer{Kind: kind, Source: source}
	for _, opt := range defaults {
		opt(&l)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}
	if err := l.validate(); err != nil {
		return Layer{}, err
	}
	return l, nil
}
