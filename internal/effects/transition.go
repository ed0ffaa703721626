package effects

import (
	"fmt"
	"math"
	"strings"

	"reelcraft/internal/filtergraph"
	"reelcraft/internal/position"
)

// TransitionType names how a layer enters or leaves.
type TransitionType string

const (
	TransitionFade  TransitionType = "fade"
	TransitionSlide TransitionType = "slide"
	TransitionZoom  TransitionType = "zoom"
)

// Direction is the edge a slide enters from or exits toward.
type Direction string

const (
	FromLeft   Direction = "left"
	FromRight  Direction = "right"
	FromTop    Direction = "top"
	FromBottom Direction = "bottom"
)

// Easing shapes transition progress.
type Easing string

const (
	Linear    Easing = "linear"
	EaseIn    Easing = "ease-in"
	EaseOut   Easing = "ease-out"
	EaseInOut Easing = "ease-in-out"
)

// Transition describes an entrance or exit. It is validated on its own,
// before it is attached to any layer.
type Transition struct {
	Type      TransitionType `json:"type" yaml:"type"`
	Duration  float64        `json:"duration" yaml:"duration"`
	Direction Direction      `json:"direction,omitempty" yaml:"direction,omitempty"`
	Easing    Easing         `json:"easing,omitempty" yaml:"easing,omitempty"`
	Params    Params         `json:"params,omitempty" yaml:"params,omitempty"`
}

// Validate rejects negative durations and names outside the known sets.
func (t Transition) Validate() error {
	switch t.Type {
	case TransitionFade, TransitionZoom:
	case TransitionSlide:
		if _, err := normalizeDirection(t.Direction); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w %q: not a transition", ErrUnknownEffect, t.Type)
	}
	if math.IsNaN(t.Duration) || math.IsInf(t.Duration, 0) || t.Duration < 0 {
		return fmt.Errorf("transition %s: invalid duration %v", t.Type, t.Duration)
	}
	if _, err := EaseExpr(t.Easing, "p"); err != nil {
		return err
	}
	return nil
}

func normalizeDirection(d Direction) (Direction, error) {
	switch strings.ToLower(string(d)) {
	case "", "left":
		return FromLeft, nil
	case "right":
		return FromRight, nil
	case "top", "up":
		return FromTop, nil
	case "bottom", "down":
		return FromBottom, nil
	default:
		return "", fmt.Errorf("unknown slide direction %q", d)
	}
}

// EaseExpr applies easing to the progress expression p, which must range
// over 0..1.
func EaseExpr(e Easing, p string) (string, error) {
	switch e {
	case "", Linear:
		return p, nil
	case EaseIn:
		return fmt.Sprintf("pow(%s,2)", p), nil
	case EaseOut:
		return fmt.Sprintf("1-pow(1-%s,2)", p), nil
	case EaseInOut:
		return fmt.Sprintf("%[1]s*%[1]s*(3-2*%[1]s)", p), nil
	default:
		return "", fmt.Errorf("unknown easing %q", e)
	}
}

// progress returns the eased 0..1 ramp over [start, start+duration].
func progress(start, duration float64, e Easing) string {
	p := fmt.Sprintf("clip((t-%s)/%s,0,1)", filtergraph.FormatFloat(start), filtergraph.FormatFloat(duration))
	eased, err := EaseExpr(e, p)
	if err != nil {
		return p
	}
	return eased
}

// Window clamps a transition to a layer lasting span seconds.
func (t *Transition) Window(span float64) float64 {
	if t == nil || t.Duration <= 0 {
		return 0
	}
	if span > 0 && t.Duration > span {
		return span
	}
	return t.Duration
}

// StreamFilters returns the filters an overlay stream needs for fade and
// zoom transitions. The stream clock must already be on the output
// timeline. Slides are handled by SlidePosition.
func StreamFilters(in, out *Transition, start, end float64) []filtergraph.Filter {
	span := end - start
	var filters []filtergraph.Filter

	fadeIn := in != nil && in.Type == TransitionFade && in.Window(span) > 0
	fadeOut := out != nil && out.Type == TransitionFade && out.Window(span) > 0
	if fadeIn || fadeOut {
		filters = append(filters, filtergraph.New("format", filtergraph.Pos("yuva420p")))
	}
	if fadeIn {
		filters = append(filters, filtergraph.New("fade",
			filtergraph.KV("t", "in"),
			filtergraph.Float("st", start),
			filtergraph.Float("d", in.Window(span)),
			filtergraph.Int("alpha", 1)))
	}
	if fadeOut {
		d := out.Window(span)
		filters = append(filters, filtergraph.New("fade",
			filtergraph.KV("t", "out"),
			filtergraph.Float("st", end-d),
			filtergraph.Float("d", d),
			filtergraph.Int("alpha", 1)))
	}

	zoomIn := in != nil && in.Type == TransitionZoom && in.Window(span) > 0
	zoomOut := out != nil && out.Type == TransitionZoom && out.Window(span) > 0
	if zoomIn || zoomOut {
		factor := "1"
		if zoomIn {
			factor = progress(start, in.Window(span), in.Easing)
		}
		if zoomOut {
			d := out.Window(span)
			factor = fmt.Sprintf("if(lt(t,%s),%s,1-%s)",
				filtergraph.FormatFloat(end-d), factor, progress(end-d, d, out.Easing))
		}
		factor = fmt.Sprintf("max(%s,0.01)", factor)
		filters = append(filters, filtergraph.New("scale",
			filtergraph.Quoted("w", "iw*"+factor),
			filtergraph.Quoted("h", "ih*"+factor),
			filtergraph.KV("eval", "frame")))
	}
	return filters
}

// SlidePosition wraps resting coordinates x, y with slide motion. The
// frame supplies the container and content identifiers of the target
// filter.
func SlidePosition(in, out *Transition, start, end float64, x, y string, f position.Frame) (string, string) {
	span := end - start
	if in != nil && in.Type == TransitionSlide && in.Window(span) > 0 {
		dir, _ := normalizeDirection(in.Direction)
		p := progress(start, in.Window(span), in.Easing)
		x, y = slideAxis(dir, f, x, y, func(rest, edge string) string {
			return fmt.Sprintf("%s+((%s)-(%s))*%s", edge, rest, edge, p)
		})
	}
	if out != nil && out.Type == TransitionSlide && out.Window(span) > 0 {
		dir, _ := normalizeDirection(out.Direction)
		d := out.Window(span)
		q := progress(end-d, d, out.Easing)
		pivot := filtergraph.FormatFloat(end - d)
		restX, restY := x, y
		outX, outY := slideAxis(dir, f, x, y, func(rest, edge string) string {
			return fmt.Sprintf("%s+((%s)-(%s))*%s", rest, edge, rest, q)
		})
		if outX != restX {
			x = fmt.Sprintf("if(lt(t,%s),%s,%s)", pivot, restX, outX)
		}
		if outY != restY {
			y = fmt.Sprintf("if(lt(t,%s),%s,%s)", pivot, restY, outY)
		}
	}
	return x, y
}

func slideAxis(dir Direction, f position.Frame, x, y string, move func(rest, edge string) string) (string, string) {
	switch dir {
	case FromRight:
		return move(x, f.ContainerW), y
	case FromTop:
		return x, move(y, "-"+f.ContentH)
	case FromBottom:
		return x, move(y, f.ContainerH)
	default:
		return move(x, "-"+f.ContentW), y
	}
}
