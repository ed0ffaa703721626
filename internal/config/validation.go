package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"reelcraft/pkg/timeline"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate runs every check against the config. root resolves relative
// preset file paths.
func (c Config) Validate(root string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateEngine()...)
	results = append(results, c.validateVideo()...)
	results = append(results, c.validateDurations()...)
	results = append(results, c.validatePresetFiles(root)...)
	results = append(results, c.validatePresets()...)
	return results
}

// HasErrors reports whether any result is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func errorf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "error", Message: fmt.Sprintf(format, args...)}
}

func warnf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "warning", Message: fmt.Sprintf(format, args...)}
}

func (c Config) validateEngine() []ValidationResult {
	var results []ValidationResult
	if c.Engine.Concurrency < 0 {
		results = append(results, errorf("engine concurrency must be >= 0, got %d", c.Engine.Concurrency))
	}
	if strings.ContainsAny(c.Engine.FFmpeg, "\n\r") {
		results = append(results, errorf("engine ffmpeg path contains a line break"))
	}
	return results
}

func (c Config) validateVideo() []ValidationResult {
	var results []ValidationResult
	if c.Video.Width < 0 || c.Video.Height < 0 {
		results = append(results, errorf("video size %dx%d is negative", c.Video.Width, c.Video.Height))
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		results = append(results, warnf("video size %dx%d is odd; %s usually needs even dimensions", c.Video.Width, c.Video.Height, c.Video.PixelFormat))
	}
	if c.Video.FPS < 0 {
		results = append(results, errorf("video fps must be >= 0, got %v", c.Video.FPS))
	}
	if c.Video.CRF < 0 || c.Video.CRF > 63 {
		results = append(results, errorf("video crf must be between 0 and 63, got %d", c.Video.CRF))
	}
	if c.Audio.BitrateKbps < 0 {
		results = append(results, errorf("audio bitrate must be >= 0, got %d", c.Audio.BitrateKbps))
	}
	return results
}

func (c Config) validateDurations() []ValidationResult {
	var results []ValidationResult
	fields := []struct {
		name  string
		value float64
	}{
		{"image_s", c.Durations.ImageSec},
		{"video_s", c.Durations.VideoSec},
		{"audio_s", c.Durations.AudioSec},
		{"canvas_s", c.Durations.CanvasSec},
	}
	for _, f := range fields {
		if f.value < 0 {
			results = append(results, errorf("durations %s must be >= 0, got %v", f.name, f.value))
		}
	}
	return results
}

func (c Config) validatePresetFiles(root string) []ValidationResult {
	var results []ValidationResult
	for _, path := range c.PresetFiles {
		if _, err := os.Stat(resolveExternalPath(root, path)); err != nil {
			results = append(results, errorf("preset file %q not found", path))
		}
	}
	return results
}

func (c Config) validatePresets() []ValidationResult {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []ValidationResult
	for _, name := range names {
		p := c.Presets[name]
		if (p.Width > 0) != (p.Height > 0) {
			results = append(results, errorf("preset %q: width and height must be set together", name))
		}
		if p.Width < 0 || p.Height < 0 || p.FPS < 0 || p.CRF < 0 {
			results = append(results, errorf("preset %q: values must not be negative", name))
		}
		if p.AspectRatio != "" {
			if _, err := timeline.ParseAspectRatio(p.AspectRatio); err != nil {
				results = append(results, errorf("preset %q: %v", name, err))
			}
		}
		if p == (Preset{}) {
			results = append(results, warnf("preset %q sets nothing", name))
		}
	}
	return results
}
