package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MediaInfo is the subset of ffprobe output the engine uses.
type MediaInfo struct {
	Path       string
	FormatName string
	Duration   float64
	Width      int
	Height     int
	HasVideo   bool
	HasAudio   bool
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// Prober reads media metadata with ffprobe.
type Prober struct {
	Runner  Runner
	FFprobe string
}

// Probe inspects one file.
func (p Prober) Probe(ctx context.Context, path string) (MediaInfo, error) {
	runner := p.Runner
	if runner == nil {
		runner = CmdRunner{}
	}
	ffprobe := strings.TrimSpace(p.FFprobe)
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}

	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		path,
	}
	result, err := runner.Run(ctx, ffprobe, args, RunOptions{})
	if err != nil {
		if stderr := strings.TrimSpace(string(result.Stderr)); stderr != "" {
			return MediaInfo{}, fmt.Errorf("ffprobe %s: %w (stderr: %s)", path, err, stderr)
		}
		return MediaInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	if len(result.Stdout) == 0 {
		return MediaInfo{}, fmt.Errorf("ffprobe %s produced no output", path)
	}
	return parseProbe(path, result.Stdout)
}

func parseProbe(path string, raw []byte) (MediaInfo, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return MediaInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := MediaInfo{
		Path:       path,
		FormatName: parsed.Format.FormatName,
		Duration:   parseSeconds(parsed.Format.Duration),
	}
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			if !info.HasVideo {
				info.Width, info.Height = s.Width, s.Height
			}
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
		if info.Duration == 0 {
			info.Duration = parseSeconds(s.Duration)
		}
	}
	return info, nil
}

func parseSeconds(raw string) float64 {
	if raw == "" || raw == "N/A" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
