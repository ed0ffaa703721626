package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"reelcraft/pkg/timeline"
)

// Config captures engine location and encoding defaults for a workspace.
// Files may be YAML or TOML; the extension decides.
type Config struct {
	Version     int               `yaml:"version" toml:"version"`
	Engine      EngineConfig      `yaml:"engine" toml:"engine"`
	Video       VideoConfig       `yaml:"video" toml:"video"`
	Audio       AudioConfig       `yaml:"audio" toml:"audio"`
	Durations   DurationConfig    `yaml:"durations" toml:"durations"`
	Outputs     OutputsConfig     `yaml:"outputs" toml:"outputs"`
	Presets     map[string]Preset `yaml:"presets,omitempty" toml:"presets,omitempty"`
	PresetFiles []string          `yaml:"preset_files,omitempty" toml:"preset_files,omitempty"`
}

// EngineConfig locates ffmpeg and bounds batch renders.
type EngineConfig struct {
	FFmpeg      string `yaml:"ffmpeg" toml:"ffmpeg"`
	FFprobe     string `yaml:"ffprobe" toml:"ffprobe"`
	Concurrency int    `yaml:"concurrency" toml:"concurrency"`
	HWAccel     string `yaml:"hwaccel,omitempty" toml:"hwaccel,omitempty"`
}

// VideoConfig contains canvas and video encoding settings.
type VideoConfig struct {
	Width       int     `yaml:"width" toml:"width"`
	Height      int     `yaml:"height" toml:"height"`
	FPS         float64 `yaml:"fps" toml:"fps"`
	Background  string  `yaml:"background" toml:"background"`
	Codec       string  `yaml:"codec" toml:"codec"`
	Preset      string  `yaml:"preset" toml:"preset"`
	CRF         int     `yaml:"crf" toml:"crf"`
	Bitrate     string  `yaml:"bitrate,omitempty" toml:"bitrate,omitempty"`
	PixelFormat string  `yaml:"pixel_format" toml:"pixel_format"`
}

// AudioConfig describes audio encoding parameters.
type AudioConfig struct {
	ACodec      string `yaml:"acodec" toml:"acodec"`
	BitrateKbps int    `yaml:"bitrate_kbps" toml:"bitrate_kbps"`
}

// DurationConfig supplies lengths for layers that do not declare one.
type DurationConfig struct {
	ImageSec  float64 `yaml:"image_s" toml:"image_s"`
	VideoSec  float64 `yaml:"video_s" toml:"video_s"`
	AudioSec  float64 `yaml:"audio_s" toml:"audio_s"`
	CanvasSec float64 `yaml:"canvas_s" toml:"canvas_s"`
}

// OutputsConfig controls where renders land.
type OutputsConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// Preset is a named set of option overrides, e.g. a vertical social cut.
type Preset struct {
	Width       int     `yaml:"width,omitempty" toml:"width,omitempty"`
	Height      int     `yaml:"height,omitempty" toml:"height,omitempty"`
	FPS         float64 `yaml:"fps,omitempty" toml:"fps,omitempty"`
	AspectRatio string  `yaml:"aspect_ratio,omitempty" toml:"aspect_ratio,omitempty"`
	CRF         int     `yaml:"crf,omitempty" toml:"crf,omitempty"`
	Preset      string  `yaml:"preset,omitempty" toml:"preset,omitempty"`
	Bitrate     string  `yaml:"bitrate,omitempty" toml:"bitrate,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Engine: EngineConfig{
			FFmpeg:      timeline.DefaultExecutable,
			FFprobe:     "ffprobe",
			Concurrency: 2,
		},
		Video: VideoConfig{
			Width:       timeline.DefaultWidth,
			Height:      timeline.DefaultHeight,
			FPS:         timeline.DefaultFrameRate,
			Background:  timeline.DefaultBackground,
			Codec:       timeline.DefaultVideoCodec,
			Preset:      timeline.DefaultPreset,
			CRF:         timeline.DefaultCRF,
			PixelFormat: timeline.DefaultPixelFormat,
		},
		Audio: AudioConfig{
			ACodec:      timeline.DefaultAudioCodec,
			BitrateKbps: 192,
		},
		Durations: DurationConfig{
			ImageSec:  timeline.DefaultImageDuration,
			VideoSec:  timeline.DefaultVideoDuration,
			AudioSec:  timeline.DefaultAudioDuration,
			CanvasSec: timeline.DefaultCanvasDuration,
		},
		Outputs: OutputsConfig{
			Dir: "renders",
		},
	}
}

// Load reads the configuration from disk if it exists, otherwise returns the
// default configuration. Preset files are resolved relative to the config
// file's directory.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := unmarshal(path, contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.loadPresetFiles(filepath.Dir(path)); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, v any) error {
	if isTOML(path) {
		return toml.NewDecoder(bytes.NewReader(data)).Decode(v)
	}
	return yaml.Unmarshal(data, v)
}

// ApplyDefaults fills fields the file left empty.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if strings.TrimSpace(c.Engine.FFmpeg) == "" {
		c.Engine.FFmpeg = defaults.Engine.FFmpeg
	}
	if strings.TrimSpace(c.Engine.FFprobe) == "" {
		c.Engine.FFprobe = defaults.Engine.FFprobe
	}
	if c.Engine.Concurrency == 0 {
		c.Engine.Concurrency = defaults.Engine.Concurrency
	}
	if c.Video.Width == 0 {
		c.Video.Width = defaults.Video.Width
	}
	if c.Video.Height == 0 {
		c.Video.Height = defaults.Video.Height
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaults.Video.FPS
	}
	if c.Video.Background == "" {
		c.Video.Background = defaults.Video.Background
	}
	if c.Video.Codec == "" {
		c.Video.Codec = defaults.Video.Codec
	}
	if c.Video.Preset == "" {
		c.Video.Preset = defaults.Video.Preset
	}
	if c.Video.CRF == 0 {
		c.Video.CRF = defaults.Video.CRF
	}
	if c.Video.PixelFormat == "" {
		c.Video.PixelFormat = defaults.Video.PixelFormat
	}
	if c.Audio.ACodec == "" {
		c.Audio.ACodec = defaults.Audio.ACodec
	}
	if c.Audio.BitrateKbps == 0 {
		c.Audio.BitrateKbps = defaults.Audio.BitrateKbps
	}
	if c.Durations.ImageSec == 0 {
		c.Durations.ImageSec = defaults.Durations.ImageSec
	}
	if c.Durations.VideoSec == 0 {
		c.Durations.VideoSec = defaults.Durations.VideoSec
	}
	if c.Durations.AudioSec == 0 {
		c.Durations.AudioSec = defaults.Durations.AudioSec
	}
	if c.Durations.CanvasSec == 0 {
		c.Durations.CanvasSec = defaults.Durations.CanvasSec
	}
	if strings.TrimSpace(c.Outputs.Dir) == "" {
		c.Outputs.Dir = defaults.Outputs.Dir
	}
}

// GlobalOptions converts the encoding settings into timeline options.
func (c Config) GlobalOptions() timeline.GlobalOptions {
	return timeline.GlobalOptions{
		Width:        c.Video.Width,
		Height:       c.Video.Height,
		FrameRate:    c.Video.FPS,
		Background:   c.Video.Background,
		VideoCodec:   c.Video.Codec,
		AudioCodec:   c.Audio.ACodec,
		Preset:       c.Video.Preset,
		CRF:          c.Video.CRF,
		VideoBitrate: c.Video.Bitrate,
		AudioBitrate: c.AudioBitrate(),
		PixelFormat:  c.Video.PixelFormat,
		HWAccel:      c.Engine.HWAccel,
		Executable:   c.Engine.FFmpeg,
		Policy: timeline.DurationPolicy{
			Image:  c.Durations.ImageSec,
			Video:  c.Durations.VideoSec,
			Audio:  c.Durations.AudioSec,
			Canvas: c.Durations.CanvasSec,
		},
	}
}

// Seed fills the fields of o that a document left unset. Values the
// document chose always win.
func (c Config) Seed(o *timeline.GlobalOptions) {
	d := c.GlobalOptions()
	if o.Width == 0 && o.Height == 0 {
		o.Width, o.Height = d.Width, d.Height
	}
	if o.FrameRate == 0 {
		o.FrameRate = d.FrameRate
	}
	o.Background = firstNonEmpty(o.Background, d.Background)
	o.VideoCodec = firstNonEmpty(o.VideoCodec, d.VideoCodec)
	o.AudioCodec = firstNonEmpty(o.AudioCodec, d.AudioCodec)
	o.Preset = firstNonEmpty(o.Preset, d.Preset)
	if o.CRF == 0 {
		o.CRF = d.CRF
	}
	o.VideoBitrate = firstNonEmpty(o.VideoBitrate, d.VideoBitrate)
	o.AudioBitrate = firstNonEmpty(o.AudioBitrate, d.AudioBitrate)
	o.PixelFormat = firstNonEmpty(o.PixelFormat, d.PixelFormat)
	o.HWAccel = firstNonEmpty(o.HWAccel, d.HWAccel)
	o.Executable = firstNonEmpty(o.Executable, d.Executable)
	if o.Policy == (timeline.DurationPolicy{}) {
		o.Policy = d.Policy
	}
}

// ApplyPreset overrides o with the named preset.
func (c Config) ApplyPreset(name string, o *timeline.GlobalOptions) error {
	p, ok := c.Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	if p.Width > 0 && p.Height > 0 {
		o.Width, o.Height = p.Width, p.Height
	}
	if p.FPS > 0 {
		o.FrameRate = p.FPS
	}
	if p.AspectRatio != "" {
		o.AspectRatio = p.AspectRatio
	}
	if p.CRF > 0 {
		o.CRF = p.CRF
	}
	if p.Preset != "" {
		o.Preset = p.Preset
	}
	if p.Bitrate != "" {
		o.VideoBitrate = p.Bitrate
	}
	return nil
}

// AudioBitrate renders the audio bitrate as an ffmpeg rate string.
func (c Config) AudioBitrate() string {
	if c.Audio.BitrateKbps <= 0 {
		return ""
	}
	return fmt.Sprintf("%dk", c.Audio.BitrateKbps)
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// MarshalFor encodes the configuration in the format implied by path.
func (c Config) MarshalFor(path string) ([]byte, error) {
	if !isTOML(path) {
		return c.Marshal()
	}
	buf, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
