package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelcraft/internal/filtergraph"
)

// Fallbacks for layers without an explicit duration. The canvas fallback
// applies when no layer bounds the output at all.
const (
	DefaultImageDuration  = 5.0
	DefaultVideoDuration  = 30.0
	DefaultAudioDuration  = 30.0
	DefaultCanvasDuration = 5.0
)

// Output defaults used when GlobalOptions leaves a field empty.
const (
	DefaultExecutable  = "ffmpeg"
	DefaultWidth       = 1920
	DefaultHeight      = 1080
	DefaultFrameRate   = 30.0
	DefaultVideoCodec  = "libx264"
	DefaultAudioCodec  = "aac"
	DefaultPreset      = "medium"
	DefaultCRF         = 23
	DefaultPixelFormat = "yuv420p"
	DefaultAudioRate   = "192k"
	DefaultBackground  = "black"
)

// DurationPolicy supplies lengths for layers that do not declare one.
// Zero fields use the Default*Duration constants.
type DurationPolicy struct {
	Image  float64 `json:"image,omitempty" yaml:"image,omitempty"`
	Video  float64 `json:"video,omitempty" yaml:"video,omitempty"`
	Audio  float64 `json:"audio,omitempty" yaml:"audio,omitempty"`
	Canvas float64 `json:"canvas,omitempty" yaml:"canvas,omitempty"`
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func (p DurationPolicy) image() float64  { return orDefault(p.Image, DefaultImageDuration) }
func (p DurationPolicy) video() float64  { return orDefault(p.Video, DefaultVideoDuration) }
func (p DurationPolicy) audio() float64  { return orDefault(p.Audio, DefaultAudioDuration) }
func (p DurationPolicy) canvas() float64 { return orDefault(p.Canvas, DefaultCanvasDuration) }

// TrimWindow restricts output to [Start, End).
type TrimWindow struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Set reports whether the window is active.
func (w TrimWindow) Set() bool { return w.End > w.Start }

// Length returns End minus Start.
func (w TrimWindow) Length() float64 { return w.End - w.Start }

// Dimensions is a width/height pair.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Set reports whether a size was given.
func (s Dimensions) Set() bool { return s.Width != 0 || s.Height != 0 }

// Rect is a crop rectangle.
type Rect struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
}

// Set reports whether a rectangle was given.
func (r Rect) Set() bool { return r.Width > 0 && r.Height > 0 }

// GlobalOptions are timeline-wide render settings. Zero values select the
// Default* constants at compile time, so a document only stores what the
// caller chose.
type GlobalOptions struct {
	Width        int            `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int            `json:"height,omitempty" yaml:"height,omitempty"`
	FrameRate    float64        `json:"frameRate,omitempty" yaml:"frameRate,omitempty"`
	AspectRatio  string         `json:"aspectRatio,omitempty" yaml:"aspectRatio,omitempty"`
	Background   string         `json:"background,omitempty" yaml:"background,omitempty"`
	VideoCodec   string         `json:"videoCodec,omitempty" yaml:"videoCodec,omitempty"`
	AudioCodec   string         `json:"audioCodec,omitempty" yaml:"audioCodec,omitempty"`
	Preset       string         `json:"preset,omitempty" yaml:"preset,omitempty"`
	CRF          int            `json:"crf,omitempty" yaml:"crf,omitempty"`
	VideoBitrate string         `json:"videoBitrate,omitempty" yaml:"videoBitrate,omitempty"`
	AudioBitrate string         `json:"audioBitrate,omitempty" yaml:"audioBitrate,omitempty"`
	PixelFormat  string         `json:"pixelFormat,omitempty" yaml:"pixelFormat,omitempty"`
	HWAccel      string         `json:"hwaccel,omitempty" yaml:"hwaccel,omitempty"`
	Duration     float64        `json:"duration,omitempty" yaml:"duration,omitempty"`
	Trim         TrimWindow     `json:"trim,omitzero" yaml:"trim,omitempty"`
	Scale        Dimensions     `json:"scale,omitzero" yaml:"scale,omitempty"`
	Crop         Rect           `json:"crop,omitzero" yaml:"crop,omitempty"`
	Executable   string         `json:"executable,omitempty" yaml:"executable,omitempty"`
	Policy       DurationPolicy `json:"durationPolicy,omitzero" yaml:"durationPolicy,omitempty"`
}

// Validate checks ranges. Codec and preset names are not checked.
func (o GlobalOptions) Validate() error {
	for _, v := range []float64{o.FrameRate, o.Duration, o.Trim.Start, o.Trim.End,
		o.Policy.Image, o.Policy.Video, o.Policy.Audio, o.Policy.Canvas} {
		if !finite(v) {
			return fmt.Errorf("option value %v is not a finite number", v)
		}
	}
	switch {
	case o.Width < 0 || o.Height < 0:
		return fmt.Errorf("resolution %dx%d is negative", o.Width, o.Height)
	case o.FrameRate < 0:
		return fmt.Errorf("frame rate %s is negative", formatSeconds(o.FrameRate))
	case o.CRF < 0:
		return fmt.Errorf("crf %d is negative", o.CRF)
	case o.Duration < 0:
		return fmt.Errorf("duration %s is negative", formatSeconds(o.Duration))
	case o.Trim.Start < 0 || (o.Trim != TrimWindow{} && !o.Trim.Set()):
		return fmt.Errorf("trim window [%s, %s] is invalid", formatSeconds(o.Trim.Start), formatSeconds(o.Trim.End))
	case o.Scale.Width < -2 || o.Scale.Height < -2 || (o.Scale.Set() && o.Scale.Width <= 0 && o.Scale.Height <= 0):
		return fmt.Errorf("scale %dx%d is invalid", o.Scale.Width, o.Scale.Height)
	case (o.Crop != Rect{}) && (!o.Crop.Set() || o.Crop.X < 0 || o.Crop.Y < 0):
		return fmt.Errorf("crop %dx%d+%d+%d is invalid", o.Crop.Width, o.Crop.Height, o.Crop.X, o.Crop.Y)
	}
	if o.AspectRatio != "" {
		if _, err := ParseAspectRatio(o.AspectRatio); err != nil {
			return err
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (o GlobalOptions) executable() string {
	if e := strings.TrimSpace(o.Executable); e != "" {
		return e
	}
	return DefaultExecutable
}

func (o GlobalOptions) frameRate() float64 {
	return orDefault(o.FrameRate, DefaultFrameRate)
}

func (o GlobalOptions) canvasSize() (int, int) {
	if o.Width > 0 && o.Height > 0 {
		return o.Width, o.Height
	}
	return DefaultWidth, DefaultHeight
}

func (o GlobalOptions) background() string {
	if o.Background != "" {
		return o.Background
	}
	return DefaultBackground
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

// ParseAspectRatio accepts "W:H", "W/H" or a decimal ratio.
func ParseAspectRatio(value string) (float64, error) {
	value = strings.TrimSpace(value)
	sep := strings.IndexAny(value, ":/")
	if sep < 0 {
		r, err := strconv.ParseFloat(value, 64)
		if err != nil || r <= 0 || math.IsInf(r, 0) {
			return 0, fmt.Errorf("invalid aspect ratio %q", value)
		}
		return r, nil
	}
	w, errW := strconv.ParseFloat(strings.TrimSpace(value[:sep]), 64)
	h, errH := strconv.ParseFloat(strings.TrimSpace(value[sep+1:]), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, fmt.Errorf("invalid aspect ratio %q", value)
	}
	return w / h, nil
}

func formatSeconds(v float64) string {
	return filtergraph.FormatFloat(v)
}
