package effects

import (
	"fmt"
	"regexp"
	"strings"

	"reelcraft/internal/filtergraph"
)

const (
	DefaultKeyColor   = "0x00FF00"
	DefaultSimilarity = 0.1
	DefaultBlend      = 0.1
)

// Key configures chroma keying. Out-of-range similarity or blend values
// and unparseable colors are written as given.
type Key struct {
	Color      string
	Similarity float64
	Blend      float64
}

// KeyFilter renders a chromakey or colorkey filter for k.
func KeyFilter(name string, k Key) filtergraph.Filter {
	color := k.Color
	if strings.TrimSpace(color) == "" {
		color = DefaultKeyColor
	}
	return filtergraph.New(name,
		filtergraph.Auto("color", NormalizeColor(color)),
		filtergraph.Float("similarity", k.Similarity),
		filtergraph.Float("blend", k.Blend),
	)
}

var (
	longHex  = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	shortHex = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)
)

// NormalizeColor converts #RRGGBB, #RRGGBBAA and #RGB to ffmpeg's 0x form.
// Names, 0x values and malformed strings come back unchanged.
func NormalizeColor(color string) string {
	color = strings.TrimSpace(color)
	switch {
	case longHex.MatchString(color):
		return "0x" + strings.ToUpper(color[1:])
	case shortHex.MatchString(color):
		var b strings.Builder
		b.WriteString("0x")
		for _, r := range strings.ToUpper(color[1:]) {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return b.String()
	default:
		return color
	}
}

// ScaleMode selects how a background is fitted to the canvas.
type ScaleMode string

const (
	// ScaleFit letterboxes: the whole background is visible, padded black.
	ScaleFit ScaleMode = "fit"
	// ScaleFill covers the canvas and crops the overflow around the center.
	ScaleFill ScaleMode = "fill"
	// ScaleStretch ignores the aspect ratio.
	ScaleStretch ScaleMode = "stretch"
	// ScaleCrop takes a canvas-sized window from the center of the
	// unscaled background.
	ScaleCrop ScaleMode = "crop"
)

// DefaultScaleMode applies when a composite names no mode.
const DefaultScaleMode = ScaleFill

// ParseScaleMode validates a mode name; empty selects DefaultScaleMode.
func ParseScaleMode(value string) (ScaleMode, error) {
	switch mode := ScaleMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return DefaultScaleMode, nil
	case ScaleFit, ScaleFill, ScaleStretch, ScaleCrop:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown background scale mode %q (want fit, fill, stretch or crop)", value)
	}
}

// BackgroundScale returns the filters that size a background to w x h.
func BackgroundScale(mode ScaleMode, w, h int) ([]filtergraph.Filter, error) {
	switch mode {
	case ScaleFit:
		return []filtergraph.Filter{
			filtergraph.New("scale",
				filtergraph.Pos(fmt.Sprint(w)), filtergraph.Pos(fmt.Sprint(h)),
				filtergraph.KV("force_original_aspect_ratio", "decrease")),
			padFilter(w, h, "black"),
		}, nil
	case ScaleFill, "":
		return []filtergraph.Filter{
			filtergraph.New("scale",
				filtergraph.Pos(fmt.Sprint(w)), filtergraph.Pos(fmt.Sprint(h)),
				filtergraph.KV("force_original_aspect_ratio", "increase")),
			CropFilter(w, h, "(iw-ow)/2", "(ih-oh)/2"),
		}, nil
	case ScaleStretch:
		return []filtergraph.Filter{ScaleFilter(w, h)}, nil
	case ScaleCrop:
		return []filtergraph.Filter{
			CropFilter(w, h, fmt.Sprintf("(iw-%d)/2", w), fmt.Sprintf("(ih-%d)/2", h)),
		}, nil
	default:
		return nil, fmt.Errorf("unknown background scale mode %q", mode)
	}
}
