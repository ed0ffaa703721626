// Package position turns placement descriptors into ffmpeg coordinate
// expressions for drawtext and overlay.
package position

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelcraft/internal/filtergraph"
)

// Position is one of Named, Percent, Absolute or Raw.
type Position interface {
	isPosition()
}

// Anchor names a point on the container.
type Anchor string

const (
	Center      Anchor = "center"
	Top         Anchor = "top"
	Bottom      Anchor = "bottom"
	Left        Anchor = "left"
	Right       Anchor = "right"
	TopLeft     Anchor = "top-left"
	TopRight    Anchor = "top-right"
	BottomLeft  Anchor = "bottom-left"
	BottomRight Anchor = "bottom-right"
)

var anchorAliases = map[string]Anchor{
	"center":        Center,
	"centre":        Center,
	"middle":        Center,
	"top":           Top,
	"top-center":    Top,
	"bottom":        Bottom,
	"bottom-center": Bottom,
	"left":          Left,
	"center-left":   Left,
	"right":         Right,
	"center-right":  Right,
	"top-left":      TopLeft,
	"top-right":     TopRight,
	"bottom-left":   BottomLeft,
	"bottom-right":  BottomRight,
}

// Named places content at an anchor, pushed inward by the offsets.
type Named struct {
	Anchor  Anchor
	OffsetX float64
	OffsetY float64
}

// Percent places the content origin at a percentage of the canvas.
type Percent struct {
	X float64
	Y float64
}

// Absolute places the content origin at pixel coordinates.
type Absolute struct {
	X float64
	Y float64
}

// Raw carries unrecognized descriptors through to ffmpeg untouched.
type Raw struct {
	X string
	Y string
}

func (Named) isPosition()    {}
func (Percent) isPosition()  {}
func (Absolute) isPosition() {}
func (Raw) isPosition()      {}

// LookupAnchor resolves an anchor name or alias.
func LookupAnchor(name string) (Anchor, bool) {
	a, ok := anchorAliases[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Parse converts a user-facing descriptor such as "center", "10%,80%" or
// "100,200". Unrecognized input never fails: it is returned as Raw.
func Parse(value string) Position {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if anchor, ok := LookupAnchor(value); ok {
		return Named{Anchor: anchor}
	}

	xs, ys, pair := strings.Cut(value, ",")
	if !pair {
		if pct, ok := parsePercent(value); ok {
			return Percent{X: pct, Y: pct}
		}
		return Raw{X: value, Y: value}
	}
	xs = strings.TrimSpace(xs)
	ys = strings.TrimSpace(ys)

	px, okX := parsePercent(xs)
	py, okY := parsePercent(ys)
	if okX && okY {
		return Percent{X: px, Y: py}
	}

	ax, errX := strconv.ParseFloat(xs, 64)
	ay, errY := strconv.ParseFloat(ys, 64)
	if errX == nil && errY == nil {
		return Absolute{X: ax, Y: ay}
	}
	return Raw{X: xs, Y: ys}
}

func parsePercent(value string) (float64, bool) {
	trimmed, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Frame names the identifiers the target filter uses for container and
// content sizes, plus the known output canvas.
type Frame struct {
	ContainerW string
	ContainerH string
	ContentW   string
	ContentH   string
	CanvasW    int
	CanvasH    int
}

// TextFrame is the frame for drawtext x/y options.
func TextFrame(canvasW, canvasH int) Frame {
	return Frame{ContainerW: "w", ContainerH: "h", ContentW: "text_w", ContentH: "text_h", CanvasW: canvasW, CanvasH: canvasH}
}

// OverlayFrame is the frame for overlay x/y options.
func OverlayFrame(canvasW, canvasH int) Frame {
	return Frame{ContainerW: "main_w", ContainerH: "main_h", ContentW: "overlay_w", ContentH: "overlay_h", CanvasW: canvasW, CanvasH: canvasH}
}

// Resolve returns the x and y expressions for p. A nil position resolves
// to the container origin.
func Resolve(p Position, f Frame) (string, string) {
	switch v := p.(type) {
	case nil:
		return "0", "0"
	case Named:
		return resolveNamed(v, f)
	case Percent:
		return percentOf(v.X, f.CanvasW, f.ContainerW), percentOf(v.Y, f.CanvasH, f.ContainerH)
	case Absolute:
		return filtergraph.FormatFloat(v.X), filtergraph.FormatFloat(v.Y)
	case Raw:
		return v.X, v.Y
	default:
		panic(fmt.Sprintf("position: unhandled variant %T", p))
	}
}

func resolveNamed(n Named, f Frame) (string, string) {
	hCenter := addOffset(fmt.Sprintf("(%s-%s)/2", f.ContainerW, f.ContentW), n.OffsetX)
	vCenter := addOffset(fmt.Sprintf("(%s-%s)/2", f.ContainerH, f.ContentH), n.OffsetY)
	left := filtergraph.FormatFloat(n.OffsetX)
	top := filtergraph.FormatFloat(n.OffsetY)
	right := subtractOffset(f.ContainerW+"-"+f.ContentW, n.OffsetX)
	bottom := subtractOffset(f.ContainerH+"-"+f.ContentH, n.OffsetY)

	switch n.Anchor {
	case Center:
		return hCenter, vCenter
	case Top:
		return hCenter, top
	case Bottom:
		return hCenter, bottom
	case Left:
		return left, vCenter
	case Right:
		return right, vCenter
	case TopLeft:
		return left, top
	case TopRight:
		return right, top
	case BottomLeft:
		return left, bottom
	case BottomRight:
		return right, bottom
	default:
		return string(n.Anchor), string(n.Anchor)
	}
}

func percentOf(pct float64, canvas int, container string) string {
	if canvas > 0 {
		return filtergraph.FormatFloat(math.Round(float64(canvas)*pct/100*100) / 100)
	}
	return fmt.Sprintf("%s*%s", container, filtergraph.FormatFloat(pct/100))
}

func addOffset(base string, offset float64) string {
	if math.Abs(offset) < 1e-6 {
		return base
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%s%s", base, sign, filtergraph.FormatFloat(offset))
}

func subtractOffset(base string, offset float64) string {
	if math.Abs(offset) < 1e-6 {
		return base
	}
	if offset < 0 {
		return addOffset(base, -offset)
	}
	return fmt.Sprintf("%s-%s", base, filtergraph.FormatFloat(offset))
}
