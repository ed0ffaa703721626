package effects

import (
	"fmt"
	"math"
	"strings"

	"reelcraft/internal/filtergraph"
)

func videoEffects() []Effect {
	return []Effect{
		{Name: "fade", Stream: Video, Ranges: "type in|out, start >= 0, duration > 0", Build: buildFade("")},
		{Name: "fadein", Stream: Video, Ranges: "start >= 0, duration > 0", Build: buildFade("in")},
		{Name: "fadeout", Stream: Video, Ranges: "start >= 0, duration > 0", Build: buildFade("out")},
		{Name: "brightness", Stream: Video, Timeline: true, Ranges: "value -1..1", Build: eqBuilder("brightness", 0)},
		{Name: "contrast", Stream: Video, Timeline: true, Ranges: "value -1000..1000, 1 is neutral", Build: eqBuilder("contrast", 1)},
		{Name: "saturation", Stream: Video, Timeline: true, Ranges: "value 0..3, 1 is neutral", Build: eqBuilder("saturation", 1)},
		{Name: "gamma", Stream: Video, Timeline: true, Ranges: "value 0.1..10, 1 is neutral", Build: eqBuilder("gamma", 1)},
		{Name: "grayscale", Stream: Video, Timeline: true, Build: buildGrayscale},
		{Name: "sepia", Stream: Video, Timeline: true, Build: buildSepia},
		{Name: "blur", Stream: Video, Timeline: true, Ranges: "sigma 0..1024", Build: buildBlur},
		{Name: "sharpen", Stream: Video, Timeline: true, Ranges: "amount -2..5", Build: buildSharpen},
		{Name: "vignette", Stream: Video, Timeline: true, Ranges: "angle 0..PI/2", Build: buildVignette},
		{Name: "hflip", Stream: Video, Timeline: true, Build: fixed("hflip")},
		{Name: "vflip", Stream: Video, Timeline: true, Build: fixed("vflip")},
		{Name: "rotate", Stream: Video, Ranges: "degrees, any value", Build: buildRotate},
		{Name: "crop", Stream: Video, Ranges: "width, height > 0", Build: buildCrop},
		{Name: "scale", Stream: Video, Ranges: "width, height > 0 or -1/-2 to keep aspect", Build: buildScale},
		{Name: "pad", Stream: Video, Ranges: "width, height >= input size", Build: buildPad},
		{Name: "speed", Stream: Video, Ranges: "factor > 0", Build: buildSpeed},
		{Name: "zoompan", Stream: Video, Ranges: "zoomStart, zoomEnd 1..10, duration > 0", Build: buildZoomPan},
		{Name: "chromakey", Stream: Video, Timeline: true, Ranges: "similarity 0.00001..1, blend 0..1", Build: keyBuilder("chromakey")},
		{Name: "colorkey", Stream: Video, Timeline: true, Ranges: "similarity 0.00001..1, blend 0..1", Build: keyBuilder("colorkey")},
		{Name: "denoise", Stream: Video, Timeline: true, Ranges: "strength light|medium|strong or luma 0..", Build: buildDenoise},
	}
}

func fixed(name string) BuildFunc {
	return func(Params) ([]filtergraph.Filter, error) {
		return []filtergraph.Filter{filtergraph.New(name)}, nil
	}
}

func buildFade(forced string) BuildFunc {
	return func(p Params) ([]filtergraph.Filter, error) {
		kind := forced
		if kind == "" {
			kind = strings.ToLower(p.String("type", "in"))
		}
		if kind != "in" && kind != "out" {
			return nil, fmt.Errorf("fade type must be in or out, got %q", kind)
		}
		args := []filtergraph.Arg{
			filtergraph.KV("t", kind),
			filtergraph.Float("st", p.Float("start", 0)),
			filtergraph.Float("d", p.Float("duration", 1)),
		}
		if color := p.String("color", ""); color != "" {
			args = append(args, filtergraph.KV("c", NormalizeColor(color)))
		}
		if p.Bool("alpha", false) {
			args = append(args, filtergraph.Int("alpha", 1))
		}
		return []filtergraph.Filter{filtergraph.New("fade", args...)}, nil
	}
}

func eqBuilder(option string, neutral float64) BuildFunc {
	return func(p Params) ([]filtergraph.Filter, error) {
		return []filtergraph.Filter{
			filtergraph.New("eq", filtergraph.Float(option, p.Float("value", neutral))),
		}, nil
	}
}

func buildGrayscale(Params) ([]filtergraph.Filter, error) {
	return []filtergraph.Filter{filtergraph.New("hue", filtergraph.Int("s", 0))}, nil
}

func buildSepia(Params) ([]filtergraph.Filter, error) {
	return []filtergraph.Filter{filtergraph.New("colorchannelmixer",
		filtergraph.KV("rr", ".393"), filtergraph.KV("rg", ".769"), filtergraph.KV("rb", ".189"),
		filtergraph.KV("gr", ".349"), filtergraph.KV("gg", ".686"), filtergraph.KV("gb", ".168"),
		filtergraph.KV("br", ".272"), filtergraph.KV("bg", ".534"), filtergraph.KV("bb", ".131"),
	)}, nil
}

func buildBlur(p Params) ([]filtergraph.Filter, error) {
	sigma := p.Float("sigma", p.Float("radius", 5))
	return []filtergraph.Filter{filtergraph.New("gblur", filtergraph.Float("sigma", sigma))}, nil
}

func buildSharpen(p Params) ([]filtergraph.Filter, error) {
	amount := p.Float("amount", 1)
	return []filtergraph.Filter{filtergraph.New("unsharp",
		filtergraph.Int("lx", 5), filtergraph.Int("ly", 5), filtergraph.Float("la", amount),
	)}, nil
}

func buildVignette(p Params) ([]filtergraph.Filter, error) {
	angle := p.String("angle", "PI/5")
	return []filtergraph.Filter{filtergraph.New("vignette", filtergraph.Auto("a", angle))}, nil
}

func buildRotate(p Params) ([]filtergraph.Filter, error) {
	degrees := p.Float("degrees", p.Float("angle", 0))
	switch degrees {
	case 90:
		return []filtergraph.Filter{filtergraph.New("transpose", filtergraph.KV("dir", "clock"))}, nil
	case -90, 270:
		return []filtergraph.Filter{filtergraph.New("transpose", filtergraph.KV("dir", "cclock"))}, nil
	case 180, -180:
		return []filtergraph.Filter{filtergraph.New("hflip"), filtergraph.New("vflip")}, nil
	}
	args := []filtergraph.Arg{filtergraph.KV("a", filtergraph.FormatFloat(degrees)+"*PI/180")}
	if fill := p.String("fill", ""); fill != "" {
		args = append(args, filtergraph.KV("c", NormalizeColor(fill)))
	}
	return []filtergraph.Filter{filtergraph.New("rotate", args...)}, nil
}

func buildCrop(p Params) ([]filtergraph.Filter, error) {
	w, h := p.Int("width", 0), p.Int("height", 0)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("crop requires width and height")
	}
	x := p.String("x", "(iw-ow)/2")
	y := p.String("y", "(ih-oh)/2")
	return []filtergraph.Filter{CropFilter(w, h, x, y)}, nil
}

func buildScale(p Params) ([]filtergraph.Filter, error) {
	w, h := p.Int("width", -2), p.Int("height", -2)
	if w == -2 && h == -2 {
		return nil, fmt.Errorf("scale requires width or height")
	}
	return []filtergraph.Filter{ScaleFilter(w, h)}, nil
}

// ScaleFilter renders scale=W:H.
func ScaleFilter(w, h int) filtergraph.Filter {
	return filtergraph.New("scale", filtergraph.Pos(fmt.Sprint(w)), filtergraph.Pos(fmt.Sprint(h)))
}

// CropFilter renders crop=W:H:X:Y.
func CropFilter(w, h int, x, y string) filtergraph.Filter {
	return filtergraph.New("crop",
		filtergraph.Pos(fmt.Sprint(w)), filtergraph.Pos(fmt.Sprint(h)),
		filtergraph.Auto("", x), filtergraph.Auto("", y),
	)
}

func buildPad(p Params) ([]filtergraph.Filter, error) {
	w, h := p.Int("width", 0), p.Int("height", 0)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("pad requires width and height")
	}
	return []filtergraph.Filter{padFilter(w, h, NormalizeColor(p.String("color", "black")))}, nil
}

func padFilter(w, h int, color string) filtergraph.Filter {
	return filtergraph.New("pad",
		filtergraph.Pos(fmt.Sprint(w)), filtergraph.Pos(fmt.Sprint(h)),
		filtergraph.Pos("(ow-iw)/2"), filtergraph.Pos("(oh-ih)/2"),
		filtergraph.KV("color", color),
	)
}

func buildSpeed(p Params) ([]filtergraph.Filter, error) {
	factor := p.Float("factor", 1)
	if factor <= 0 {
		return nil, fmt.Errorf("speed factor must be positive, got %s", filtergraph.FormatFloat(factor))
	}
	return []filtergraph.Filter{filtergraph.New("setpts", filtergraph.Pos("PTS/"+filtergraph.FormatFloat(factor)))}, nil
}

// buildZoomPan renders a Ken Burns move: a linear zoom from zoomStart to
// zoomEnd over duration seconds, held on an anchor point.
func buildZoomPan(p Params) ([]filtergraph.Filter, error) {
	fps := p.Int("fps", 30)
	duration := p.Float("duration", 5)
	if duration <= 0 || fps <= 0 {
		return nil, fmt.Errorf("zoompan requires positive duration and fps")
	}
	frames := int(duration * float64(fps))
	if frames < 1 {
		frames = 1
	}
	zs := p.Float("zoomStart", 1)
	ze := p.Float("zoomEnd", 1.3)

	delta := math.Round((ze-zs)*1e6) / 1e6
	z := fmt.Sprintf("%s+(%s)*on/%d",
		filtergraph.FormatFloat(zs), filtergraph.FormatFloat(delta), frames)
	x, y := zoomAnchor(p.String("anchor", "center"))

	args := []filtergraph.Arg{
		filtergraph.Quoted("z", z),
		filtergraph.Quoted("x", x),
		filtergraph.Quoted("y", y),
		filtergraph.Int("d", frames),
	}
	if w, h := p.Int("width", 0), p.Int("height", 0); w > 0 && h > 0 {
		args = append(args, filtergraph.KV("s", fmt.Sprintf("%dx%d", w, h)))
	}
	args = append(args, filtergraph.Int("fps", fps))
	return []filtergraph.Filter{filtergraph.New("zoompan", args...)}, nil
}

func zoomAnchor(anchor string) (string, string) {
	const (
		center = "iw/2-(iw/zoom/2)"
		middle = "ih/2-(ih/zoom/2)"
		right  = "iw-iw/zoom"
		bottom = "ih-ih/zoom"
	)
	switch strings.ToLower(anchor) {
	case "top-left":
		return "0", "0"
	case "top":
		return center, "0"
	case "top-right":
		return right, "0"
	case "left":
		return "0", middle
	case "right":
		return right, middle
	case "bottom-left":
		return "0", bottom
	case "bottom":
		return center, bottom
	case "bottom-right":
		return right, bottom
	default:
		return center, middle
	}
}

func keyBuilder(name string) BuildFunc {
	return func(p Params) ([]filtergraph.Filter, error) {
		return []filtergraph.Filter{KeyFilter(name, Key{
			Color:      p.String("color", DefaultKeyColor),
			Similarity: p.Float("similarity", DefaultSimilarity),
			Blend:      p.Float("blend", DefaultBlend),
		})}, nil
	}
}

var denoisePresets = map[string]string{
	"light":  "2:1.5:3:2.25",
	"medium": "4:3:6:4.5",
	"strong": "8:6:12:9",
}

func buildDenoise(p Params) ([]filtergraph.Filter, error) {
	strength := strings.ToLower(p.String("strength", "medium"))
	if preset, ok := denoisePresets[strength]; ok {
		return []filtergraph.Filter{filtergraph.New("hqdn3d", filtergraph.Pos(preset))}, nil
	}
	luma := p.Float("luma", 4)
	return []filtergraph.Filter{filtergraph.New("hqdn3d", filtergraph.Float("luma_spatial", luma))}, nil
}
