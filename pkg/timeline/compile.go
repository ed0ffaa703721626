package timeline

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelcraft/internal/effects"
	"reelcraft/internal/filtergraph"
	"reelcraft/internal/position"
)

// Command compiles the timeline for output using the built-in effects.
func (t *Timeline) Command(output string) (Command, error) {
	return t.CommandWith(output, effects.Default())
}

// Compile returns the shell-quoted command line for output.
func (t *Timeline) Compile(output string) (string, error) {
	cmd, err := t.Command(output)
	if err != nil {
		return "", err
	}
	return cmd.String(), nil
}

// CommandWith compiles against a custom effect registry.
func (t *Timeline) CommandWith(output string, registry *effects.Registry) (Command, error) {
	if t.err != nil {
		return Command{}, t.err
	}
	if strings.TrimSpace(output) == "" {
		return Command{}, &CompileError{Layer: -1, Err: errors.New("output path is empty")}
	}
	c := &compiler{
		opts:     t.opts,
		registry: registry,
		layers:   t.Layers(),
		span:     t.span(),
		ordinals: map[int]int{},
	}
	return c.run(output)
}

type inputDecl struct {
	flags []string
	path  string
}

type compiler struct {
	opts     GlobalOptions
	registry *effects.Registry
	layers   []Layer
	span     float64

	inputs   []inputDecl
	ordinals map[int]int // layer order -> first input ordinal
	graph    filtergraph.Graph

	// video chain state
	cur     string
	pending []filtergraph.Filter
	seq     int
	frameW  int
	frameH  int

	audioPost []filtergraph.Filter
}

func (c *compiler) run(output string) (Command, error) {
	c.declareInputs()

	videoMap, err := c.buildVideo()
	if err != nil {
		return Command{}, err
	}
	audioMap, err := c.buildAudio()
	if err != nil {
		return Command{}, err
	}

	args := []string{"-hide_banner", "-y"}
	if hw := strings.TrimSpace(c.opts.HWAccel); hw != "" {
		args = append(args, "-hwaccel", hw)
	}
	for _, in := range c.inputs {
		args = append(args, in.flags...)
		args = append(args, "-i", in.path)
	}
	if c.graph.Len() > 0 {
		args = append(args, "-filter_complex", c.graph.String())
	}
	if videoMap != "" {
		args = append(args, "-map", videoMap)
	}
	if audioMap != "" {
		args = append(args, "-map", audioMap)
	}
	args = append(args, c.outputOptions(videoMap != "", audioMap != "", output)...)
	args = append(args, output)

	return Command{Executable: c.opts.executable(), Args: args}, nil
}

// declareInputs assigns ordinals: visual layers first in insertion order
// (a keyed layer declares foreground then background), then audio layers.
func (c *compiler) declareInputs() {
	for _, l := range c.layers {
		if !l.Kind.visual() {
			continue
		}
		c.ordinals[l.Order] = len(c.inputs)
		length, _ := l.Length(c.opts.Policy)
		switch l.Kind {
		case KindImage:
			c.inputs = append(c.inputs, inputDecl{
				flags: []string{"-loop", "1", "-t", formatSeconds(length)},
				path:  l.Source,
			})
		case KindVideo:
			c.inputs = append(c.inputs, inputDecl{flags: sourceFlags(l), path: l.Source})
		}
		if l.Composite != nil {
			flags := []string{"-t", formatSeconds(length)}
			if l.Composite.BackgroundKind == KindImage {
				flags = append([]string{"-loop", "1"}, flags...)
			}
			c.inputs = append(c.inputs, inputDecl{flags: flags, path: l.Composite.Background})
		}
	}
	for _, l := range c.layers {
		if l.Kind != KindAudio {
			continue
		}
		c.ordinals[l.Order] = len(c.inputs)
		c.inputs = append(c.inputs, inputDecl{flags: sourceFlags(l), path: l.Source})
	}
}

func sourceFlags(l Layer) []string {
	var flags []string
	if l.Style.Seek > 0 {
		flags = append(flags, "-ss", formatSeconds(l.Style.Seek))
	}
	if l.HasDuration() {
		flags = append(flags, "-t", formatSeconds(l.Duration))
	}
	return flags
}

func (c *compiler) label(prefix string) string {
	c.seq++
	return prefix + strconv.Itoa(c.seq)
}

func (c *compiler) flush(output string) {
	if len(c.pending) == 0 {
		return
	}
	if output == "" {
		output = c.label("v")
	}
	c.graph.Add(filtergraph.Link([]string{c.cur}, output, c.pending...))
	c.cur = output
	c.pending = nil
}

func (c *compiler) needsVideo() bool {
	hasAudio := false
	for _, l := range c.layers {
		switch l.Kind {
		case KindVideo, KindImage, KindText:
			return true
		case KindAudio:
			hasAudio = true
		case KindFilter:
			if e, err := c.registry.Lookup(l.Effects[0].Name); err == nil && e.Stream == effects.Video {
				return true
			}
		}
	}
	return !hasAudio
}

// buildVideo returns the -map target for the picture, or "" for audio-only
// timelines.
func (c *compiler) buildVideo() (string, error) {
	if !c.needsVideo() {
		return "", c.checkFilterLayers()
	}

	base, err := c.buildBase()
	if err != nil {
		return "", err
	}

	for _, l := range c.layers {
		if base != nil && l.Order == base.Order {
			continue
		}
		var err error
		switch l.Kind {
		case KindVideo, KindImage:
			err = c.overlayLayer(l)
		case KindText:
			err = c.drawText(l)
		case KindFilter:
			err = c.filterLayer(l)
		}
		if err != nil {
			return "", err
		}
	}

	if err := c.globalTransforms(); err != nil {
		return "", err
	}
	if len(c.pending) > 0 {
		c.flush("vout")
	}
	if strings.Contains(c.cur, ":") {
		return c.cur, nil
	}
	return filtergraph.Label(c.cur), nil
}

// buildBase starts the picture. A timeline whose only visual layer is a
// plain video or keyed composite at zero uses it directly; anything else
// is drawn over a solid canvas.
func (c *compiler) buildBase() (*Layer, error) {
	var visual []Layer
	for _, l := range c.layers {
		if l.Kind.visual() {
			visual = append(visual, l)
		}
	}

	if len(visual) == 1 && canBeBase(visual[0]) {
		l := visual[0]
		if l.Composite != nil {
			c.frameW, c.frameH = c.opts.canvasSize()
			label, err := c.composite(l)
			if err != nil {
				return nil, err
			}
			c.cur = label
			return &l, nil
		}
		c.cur = filtergraph.InputStream(c.ordinals[l.Order], "v")
		filters, err := c.layerEffects(l, effects.Video)
		if err != nil {
			return nil, err
		}
		c.pending = append(c.pending, filters...)
		if c.opts.Width > 0 && c.opts.Height > 0 {
			c.frameW, c.frameH = c.opts.Width, c.opts.Height
			c.pending = append(c.pending, effects.ScaleFilter(c.frameW, c.frameH))
		}
		return &l, nil
	}

	c.frameW, c.frameH = c.opts.canvasSize()
	c.graph.Add(filtergraph.Link(nil, "base", filtergraph.New("color",
		filtergraph.KV("c", effects.NormalizeColor(c.opts.background())),
		filtergraph.KV("s", fmt.Sprintf("%dx%d", c.frameW, c.frameH)),
		filtergraph.Float("r", c.opts.frameRate()),
		filtergraph.Float("d", c.span),
	)))
	c.cur = "base"
	return nil, nil
}

func canBeBase(l Layer) bool {
	if l.Kind != KindVideo || l.Start != 0 || l.TransitionIn != nil || l.TransitionOut != nil {
		return false
	}
	if l.Composite != nil {
		return true
	}
	return l.Position == nil && l.Style.Width == 0 && l.Style.Height == 0 && (l.Style.Opacity == 0 || l.Style.Opacity == 1)
}

func (c *compiler) window(l Layer) (float64, float64) {
	if end, ok := l.End(c.opts.Policy); ok {
		return l.Start, end
	}
	return l.Start, c.span
}

func between(start, end float64) string {
	return fmt.Sprintf("between(t,%s,%s)", formatSeconds(start), formatSeconds(end))
}

// streamFilters prepares a visual layer's own stream for overlaying.
func (c *compiler) streamFilters(l Layer, start, end float64) ([]filtergraph.Filter, error) {
	filters, err := c.layerEffects(l, effects.Video)
	if err != nil {
		return nil, err
	}
	if l.Style.Width != 0 || l.Style.Height != 0 {
		w, h := l.Style.Width, l.Style.Height
		if w == 0 {
			w = -1
		}
		if h == 0 {
			h = -1
		}
		filters = append(filters, effects.ScaleFilter(w, h))
	}
	if l.Style.Opacity > 0 && l.Style.Opacity != 1 {
		filters = append(filters,
			filtergraph.New("format", filtergraph.Pos("yuva420p")),
			filtergraph.New("colorchannelmixer", filtergraph.Float("aa", l.Style.Opacity)))
	}
	if start > 0 {
		filters = append(filters, filtergraph.New("setpts", filtergraph.Pos("PTS-STARTPTS+"+formatSeconds(start)+"/TB")))
	}
	filters = append(filters, effects.StreamFilters(l.TransitionIn, l.TransitionOut, start, end)...)
	return filters, nil
}

func (c *compiler) overlayLayer(l Layer) error {
	start, end := c.window(l)
	c.flush("")

	if l.Composite != nil {
		stream, err := c.composite(l)
		if err != nil {
			return err
		}
		c.overlay(stream, "0", "0", start, end)
		return nil
	}

	filters, err := c.streamFilters(l, start, end)
	if err != nil {
		return err
	}
	stream := filtergraph.InputStream(c.ordinals[l.Order], "v")
	if len(filters) > 0 {
		prepared := fmt.Sprintf("l%d", l.Order)
		c.graph.Add(filtergraph.Link([]string{stream}, prepared, filters...))
		stream = prepared
	}

	frame := position.OverlayFrame(c.frameW, c.frameH)
	x, y := position.Resolve(l.Position, frame)
	x, y = effects.SlidePosition(l.TransitionIn, l.TransitionOut, start, end, x, y, frame)
	c.overlay(stream, x, y, start, end)
	return nil
}

// overlay draws stream over the current picture during [start, end].
func (c *compiler) overlay(stream, x, y string, start, end float64) {
	inputs := []string{c.cur, stream}
	out := c.label("v")
	c.graph.Add(filtergraph.Link(inputs, out, filtergraph.New("overlay",
		filtergraph.Auto("x", x),
		filtergraph.Auto("y", y),
		filtergraph.Quoted("enable", between(start, end)),
	)))
	c.cur = out
}

// composite keys a foreground over its background. It always emits the
// keying, background scaling and overlay chains in that order and returns
// the composited label.
func (c *compiler) composite(l Layer) (string, error) {
	fg := c.ordinals[l.Order]
	bg := fg + 1
	start, end := c.window(l)
	w, h := c.opts.canvasSize()

	keyed := fmt.Sprintf("k%d", l.Order)
	fgFilters, err := c.layerEffects(l, effects.Video)
	if err != nil {
		return "", err
	}
	if l.Style.Width != 0 || l.Style.Height != 0 {
		fgFilters = append(fgFilters, effects.ScaleFilter(nonZero(l.Style.Width), nonZero(l.Style.Height)))
	}
	fgFilters = append(fgFilters, effects.KeyFilter("chromakey", l.Composite.key()))
	if start > 0 {
		fgFilters = append(fgFilters, setptsShift(start))
	}
	fgFilters = append(fgFilters, effects.StreamFilters(l.TransitionIn, l.TransitionOut, start, end)...)
	c.graph.Add(filtergraph.Link([]string{filtergraph.InputStream(fg, "v")}, keyed, fgFilters...))

	mode, err := effects.ParseScaleMode(l.Composite.Scale)
	if err != nil {
		return "", &CompileError{Layer: l.Order, Kind: l.Kind, Err: err}
	}
	bgFilters, err := effects.BackgroundScale(mode, w, h)
	if err != nil {
		return "", &CompileError{Layer: l.Order, Kind: l.Kind, Err: err}
	}
	if start > 0 {
		bgFilters = append(bgFilters, setptsShift(start))
	}
	scaled := fmt.Sprintf("bg%d", l.Order)
	c.graph.Add(filtergraph.Link([]string{filtergraph.InputStream(bg, "v")}, scaled, bgFilters...))

	pos := l.Position
	if pos == nil {
		pos = position.Named{Anchor: position.Center}
	}
	frame := position.OverlayFrame(w, h)
	x, y := position.Resolve(pos, frame)
	x, y = effects.SlidePosition(l.TransitionIn, l.TransitionOut, start, end, x, y, frame)
	out := fmt.Sprintf("c%d", l.Order)
	c.graph.Add(filtergraph.Link([]string{scaled, keyed}, out, filtergraph.New("overlay",
		filtergraph.Auto("x", x),
		filtergraph.Auto("y", y),
	)))
	return out, nil
}

func nonZero(v int) int {
	if v == 0 {
		return -1
	}
	return v
}

func setptsShift(start float64) filtergraph.Filter {
	return filtergraph.New("setpts", filtergraph.Pos("PTS-STARTPTS+"+formatSeconds(start)+"/TB"))
}

func (c *compiler) drawText(l Layer) error {
	if len(l.Effects) > 0 {
		return &CompileError{Layer: l.Order, Kind: l.Kind, Effect: l.Effects[0].Name,
			Err: errors.New("text layers do not take stream effects")}
	}
	for _, tr := range []*effects.Transition{l.TransitionIn, l.TransitionOut} {
		if tr != nil && tr.Type == effects.TransitionZoom {
			return &CompileError{Layer: l.Order, Kind: l.Kind, Err: errors.New("zoom transitions need a video stream; text supports fade and slide")}
		}
	}

	start, end := c.window(l)
	fadeIn, fadeOut := l.Style.FadeIn, l.Style.FadeOut
	if tr := l.TransitionIn; tr != nil && tr.Type == effects.TransitionFade {
		fadeIn = math.Max(fadeIn, tr.Window(end-start))
	}
	if tr := l.TransitionOut; tr != nil && tr.Type == effects.TransitionFade {
		fadeOut = math.Max(fadeOut, tr.Window(end-start))
	}
	persistent := !l.HasDuration() && l.Start == 0 && fadeIn == 0 && fadeOut == 0 &&
		l.TransitionIn == nil && l.TransitionOut == nil

	frame := position.TextFrame(c.frameW, c.frameH)
	x, y := position.Resolve(l.Position, frame)
	x, y = effects.SlidePosition(l.TransitionIn, l.TransitionOut, start, end, x, y, frame)

	s := l.Style
	color := fallback(effects.NormalizeColor(s.FontColor), "white")
	if s.Opacity > 0 && s.Opacity != 1 {
		color += "@" + formatSeconds(s.Opacity)
	}

	args := []filtergraph.Arg{
		filtergraph.TextArg("text", applyTextTransform(l.Source, s.Transform)),
		filtergraph.Int("fontsize", max(s.FontSize, 1)),
		filtergraph.Auto("fontcolor", color),
		filtergraph.Auto("bordercolor", fallback(effects.NormalizeColor(s.StrokeColor), "black")),
		filtergraph.Int("borderw", max(s.StrokeWidth, 0)),
		filtergraph.Auto("x", x),
		filtergraph.Auto("y", y),
	}
	if s.LineSpacing != 0 {
		args = append(args, filtergraph.Int("line_spacing", s.LineSpacing))
	}
	if strings.TrimSpace(s.FontFile) != "" {
		args = append(args, filtergraph.PathArg("fontfile", s.FontFile))
	}
	if s.BoxColor != "" {
		args = append(args,
			filtergraph.Int("box", 1),
			filtergraph.Auto("boxcolor", effects.NormalizeColor(s.BoxColor)),
			filtergraph.Int("boxborderw", s.BoxPadding))
	}
	if s.ShadowColor != "" {
		args = append(args,
			filtergraph.Auto("shadowcolor", effects.NormalizeColor(s.ShadowColor)),
			filtergraph.Int("shadowx", s.ShadowX),
			filtergraph.Int("shadowy", s.ShadowY))
	}
	if !persistent {
		if end > start {
			args = append(args, filtergraph.Quoted("enable", between(start, end)))
			if fadeIn > 0 || fadeOut > 0 {
				args = append(args, filtergraph.Quoted("alpha", alphaExpression(start, end, fadeIn, fadeOut)))
			}
		} else {
			args = append(args, filtergraph.Quoted("enable", "gte(t,"+formatSeconds(start)+")"))
		}
	}
	c.pending = append(c.pending, filtergraph.New("drawtext", args...))
	return nil
}

func applyTextTransform(value, transform string) string {
	switch transform {
	case TransformUpper:
		return cases.Upper(language.Und).String(value)
	case TransformLower:
		return cases.Lower(language.Und).String(value)
	case TransformTitle:
		return cases.Title(language.Und).String(value)
	default:
		return value
	}
}

// alphaExpression ramps opacity in over fadeIn and out over fadeOut within
// [start, end].
func alphaExpression(start, end, fadeIn, fadeOut float64) string {
	duration := end - start
	if duration <= 0 {
		return "0"
	}
	fadeIn = clamp(fadeIn, 0, duration)
	fadeOut = clamp(fadeOut, 0, duration)

	startStr := formatSeconds(start)
	endStr := formatSeconds(end)

	var b strings.Builder
	b.WriteString("if(lt(t," + startStr + "),0,")
	if fadeIn > 0 {
		fmt.Fprintf(&b, "if(lt(t,%s),(t-%s)/%s,", formatSeconds(start+fadeIn), startStr, formatSeconds(fadeIn))
	}
	if fadeOut > 0 {
		fmt.Fprintf(&b, "if(lt(t,%s),1,if(lt(t,%s),(%s-t)/%s,0))",
			formatSeconds(end-fadeOut), endStr, endStr, formatSeconds(fadeOut))
	} else {
		fmt.Fprintf(&b, "if(lt(t,%s),1,0)", endStr)
	}
	if fadeIn > 0 {
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// filterLayer applies a registry effect to the picture composed so far, or
// queues it for the final audio mix.
func (c *compiler) filterLayer(l Layer) error {
	fx := l.Effects[0]
	effect, filters, err := c.registry.Build(fx.Name, fx.Params)
	if err != nil {
		return &CompileError{Layer: l.Order, Kind: l.Kind, Effect: fx.Name, Err: err}
	}
	if effect.Timeline && (l.Start > 0 || l.HasDuration()) {
		start, end := c.window(l)
		enable := filtergraph.Quoted("enable", between(start, end))
		for i, f := range filters {
			filters[i] = f.With(enable)
		}
	}
	if effect.Stream == effects.Audio {
		c.audioPost = append(c.audioPost, filters...)
		return nil
	}
	c.pending = append(c.pending, filters...)
	return nil
}

// checkFilterLayers resolves filter layers on audio-only timelines.
func (c *compiler) checkFilterLayers() error {
	for _, l := range c.layers {
		if l.Kind == KindFilter {
			if err := c.filterLayer(l); err != nil {
				return err
			}
		}
	}
	return nil
}

// layerEffects builds l's own effects for stream, and rejects effects that
// belong to the other stream when l has no such stream.
func (c *compiler) layerEffects(l Layer, stream effects.Stream) ([]filtergraph.Filter, error) {
	var out []filtergraph.Filter
	for _, fx := range l.Effects {
		effect, filters, err := c.registry.Build(fx.Name, fx.Params)
		if err != nil {
			return nil, &CompileError{Layer: l.Order, Kind: l.Kind, Effect: fx.Name, Err: err}
		}
		if effect.Stream != stream {
			if !hasStream(l, effect.Stream) {
				return nil, &CompileError{Layer: l.Order, Kind: l.Kind, Effect: fx.Name,
					Err: fmt.Errorf("%s layer has no %s stream", l.Kind, effect.Stream)}
			}
			continue
		}
		out = append(out, filters...)
	}
	return out, nil
}

func hasStream(l Layer, s effects.Stream) bool {
	switch l.Kind {
	case KindVideo:
		return true
	case KindImage:
		return s == effects.Video
	case KindAudio:
		return s == effects.Audio
	}
	return false
}

// globalTransforms crops, applies the aspect ratio and scales, after every
// layer has been composited.
func (c *compiler) globalTransforms() error {
	if r := c.opts.Crop; r.Set() {
		c.pending = append(c.pending, effects.CropFilter(r.Width, r.Height, strconv.Itoa(r.X), strconv.Itoa(r.Y)))
		c.frameW, c.frameH = r.Width, r.Height
	}
	if c.opts.AspectRatio != "" {
		ratio, err := ParseAspectRatio(c.opts.AspectRatio)
		if err != nil {
			return &CompileError{Layer: -1, Err: err}
		}
		c.pending = append(c.pending, c.aspectCrop(ratio))
	}
	if s := c.opts.Scale; s.Set() {
		w, h := s.Width, s.Height
		if w == 0 {
			w = -2
		}
		if h == 0 {
			h = -2
		}
		c.pending = append(c.pending, effects.ScaleFilter(w, h))
		c.frameW, c.frameH = w, h
	}
	return nil
}

func (c *compiler) aspectCrop(ratio float64) filtergraph.Filter {
	if c.frameW > 0 && c.frameH > 0 {
		w, h := c.frameW, c.frameH
		if float64(w)/float64(h) > ratio {
			w = even(float64(h) * ratio)
		} else {
			h = even(float64(w) / ratio)
		}
		c.frameW, c.frameH = w, h
		return effects.CropFilter(w, h, "(iw-ow)/2", "(ih-oh)/2")
	}
	r := formatSeconds(ratio)
	return filtergraph.New("crop",
		filtergraph.Quoted("w", fmt.Sprintf("if(gt(a,%[1]s),ih*%[1]s,iw)", r)),
		filtergraph.Quoted("h", fmt.Sprintf("if(gt(a,%[1]s),ih,iw/%[1]s)", r)),
	)
}

func even(v float64) int {
	n := int(math.Round(v))
	if n%2 != 0 {
		n--
	}
	return max(n, 2)
}

type audioSource struct {
	layer   Layer
	ordinal int
}

// buildAudio mixes every audible layer and returns the -map target, or ""
// when nothing is audible.
func (c *compiler) buildAudio() (string, error) {
	var sources []audioSource
	for _, l := range c.layers {
		switch {
		case l.Kind == KindAudio, l.Kind == KindVideo && !l.Style.Mute:
			sources = append(sources, audioSource{layer: l, ordinal: c.ordinals[l.Order]})
		}
	}
	if len(sources) == 0 {
		return "", nil
	}

	chains := make([][]filtergraph.Filter, len(sources))
	modified := len(sources) > 1 || len(c.audioPost) > 0
	for i, src := range sources {
		filters, err := c.sourceAudio(src.layer)
		if err != nil {
			return "", err
		}
		chains[i] = filters
		if len(filters) > 0 {
			modified = true
		}
	}

	if !modified {
		src := sources[0]
		stream := filtergraph.InputStream(src.ordinal, "a")
		if src.layer.Kind == KindVideo {
			stream += "?"
		}
		return stream, nil
	}

	if len(sources) == 1 {
		filters := append(chains[0], c.audioPost...)
		c.graph.Add(filtergraph.Link([]string{filtergraph.InputStream(sources[0].ordinal, "a")}, "aout", filters...))
		return filtergraph.Label("aout"), nil
	}

	mixInputs := make([]string, len(sources))
	for i, src := range sources {
		stream := filtergraph.InputStream(src.ordinal, "a")
		if len(chains[i]) == 0 {
			mixInputs[i] = stream
			continue
		}
		label := fmt.Sprintf("a%d", src.layer.Order)
		c.graph.Add(filtergraph.Link([]string{stream}, label, chains[i]...))
		mixInputs[i] = label
	}
	mix := []filtergraph.Filter{filtergraph.New("amix",
		filtergraph.Int("inputs", len(sources)),
		filtergraph.KV("duration", "longest"),
		filtergraph.Int("normalize", 0),
	)}
	mix = append(mix, c.audioPost...)
	c.graph.Add(filtergraph.Link(mixInputs, "aout", mix...))
	return filtergraph.Label("aout"), nil
}

// sourceAudio shapes one source: effects, gain, fades, then a delay to its
// start time.
func (c *compiler) sourceAudio(l Layer) ([]filtergraph.Filter, error) {
	filters, err := c.layerEffects(l, effects.Audio)
	if err != nil {
		return nil, err
	}
	if v := l.Style.Volume; v > 0 && v != 1 {
		filters = append(filters, effects.VolumeFilter(v))
	}
	length, _ := l.Length(c.opts.Policy)
	if l.Style.FadeIn > 0 {
		filters = append(filters, effects.AudioFade("in", 0, math.Min(l.Style.FadeIn, length)))
	}
	if l.Style.FadeOut > 0 {
		d := math.Min(l.Style.FadeOut, length)
		filters = append(filters, effects.AudioFade("out", length-d, d))
	}
	if l.Start > 0 {
		ms := int(math.Round(l.Start * 1000))
		filters = append(filters, filtergraph.New("adelay",
			filtergraph.KV("delays", strconv.Itoa(ms)),
			filtergraph.Int("all", 1)))
	}
	return filters, nil
}

func (c *compiler) outputOptions(video, audio bool, output string) []string {
	o := c.opts
	var args []string
	switch {
	case o.Trim.Set():
		length := o.Trim.Length()
		if o.Duration > 0 {
			length = o.Duration
		}
		args = append(args, "-ss", formatSeconds(o.Trim.Start), "-t", formatSeconds(length))
	case o.Duration > 0:
		args = append(args, "-t", formatSeconds(o.Duration))
	}

	if video {
		args = append(args, "-c:v", fallback(o.VideoCodec, DefaultVideoCodec))
		args = append(args, "-preset", fallback(o.Preset, DefaultPreset))
		if b := strings.TrimSpace(o.VideoBitrate); b != "" {
			args = append(args, "-b:v", b)
		} else {
			crf := o.CRF
			if crf == 0 {
				crf = DefaultCRF
			}
			args = append(args, "-crf", strconv.Itoa(crf))
		}
		args = append(args, "-pix_fmt", fallback(o.PixelFormat, DefaultPixelFormat))
		if o.FrameRate > 0 {
			args = append(args, "-r", formatSeconds(o.FrameRate))
		}
	}
	if audio {
		args = append(args, "-c:a", fallback(o.AudioCodec, DefaultAudioCodec))
		args = append(args, "-b:a", fallback(o.AudioBitrate, DefaultAudioRate))
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".mp4", ".mov", ".m4v", ".m4a":
		args = append(args, "-movflags", "+faststart")
	}
	return args
}
