package engine

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MinimumFFmpeg is the oldest ffmpeg whose amix accepts normalize.
const MinimumFFmpeg = "4.4"

// ToolStatus describes one external binary.
type ToolStatus struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Version   string `json:"version"`
	Minimum   string `json:"minimum,omitempty"`
	Satisfied bool   `json:"satisfied"`
	Error     string `json:"error,omitempty"`
}

// DetectTool resolves a binary on PATH and reads its version.
func DetectTool(ctx context.Context, runner Runner, name, binary, minimum string) ToolStatus {
	status := ToolStatus{Name: name, Minimum: minimum}
	if runner == nil {
		runner = CmdRunner{}
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		status.Path = binary
		status.Error = err.Error()
		return status
	}
	status.Path = path

	result, err := runner.Run(ctx, path, []string{"-version"}, RunOptions{})
	if err != nil {
		status.Error = fmt.Sprintf("%s -version: %v", name, err)
		return status
	}
	status.Version = normalizeVersion(firstLine(strings.TrimSpace(string(result.Stdout))))
	status.Satisfied = meetsMinimum(status.Version, minimum)
	if !status.Satisfied {
		status.Error = fmt.Sprintf("version %s below minimum %s", status.Version, minimum)
	}
	return status
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

var versionRegex = regexp.MustCompile(`([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

// normalizeVersion pulls the dotted version out of a banner such as
// "ffmpeg version 6.1.1-3ubuntu5 Copyright ...".
func normalizeVersion(line string) string {
	if idx := strings.Index(line, "version "); idx >= 0 {
		line = line[idx+len("version "):]
	}
	match := versionRegex.FindString(line)
	if match == "" {
		return line
	}
	return match
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := range vParts {
		if vParts[i] != mParts[i] {
			return vParts[i] > mParts[i]
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	for _, field := range strings.FieldsFunc(version, func(r rune) bool { return r < '0' || r > '9' }) {
		v, _ := strconv.Atoi(field)
		parts = append(parts, v)
	}
	return parts
}

// CodecFamily groups related encoders by technology.
type CodecFamily struct {
	Name   string
	Codecs []string
}

// CodecFamilies lists candidate encoders in priority order.
var CodecFamilies = []CodecFamily{
	{"H.264", []string{"h264_videotoolbox", "h264_nvenc", "h264_qsv", "h264_vaapi", "libx264"}},
	{"H.265 (HEVC)", []string{"hevc_videotoolbox", "hevc_nvenc", "hevc_qsv", "libx265"}},
	{"VP9", []string{"libvpx-vp9"}},
	{"AV1", []string{"av1_nvenc", "libsvtav1", "libaom-av1"}},
}

// EncoderSupport records whether one encoder produced a frame.
type EncoderSupport struct {
	Family    string `json:"family"`
	Codec     string `json:"codec"`
	Available bool   `json:"available"`
}

// ProbeEncoders encodes a single black frame with every candidate encoder.
func ProbeEncoders(ctx context.Context, runner Runner, ffmpeg string) []EncoderSupport {
	if runner == nil {
		runner = CmdRunner{}
	}
	var out []EncoderSupport
	for _, family := range CodecFamilies {
		for _, codec := range family.Codecs {
			out = append(out, EncoderSupport{Family: family.Name, Codec: codec})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range out {
		g.Go(func() error {
			args := []string{
				"-hide_banner",
				"-f", "lavfi",
				"-i", "color=black:s=64x64:d=1:r=1",
				"-c:v", out[i].Codec,
				"-frames:v", "1",
				"-f", "null",
				"-",
			}
			_, err := runner.Run(gctx, ffmpeg, args, RunOptions{})
			out[i].Available = err == nil
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// ProbeHWAccels lists the hardware acceleration methods ffmpeg was built with.
func ProbeHWAccels(ctx context.Context, runner Runner, ffmpeg string) ([]string, error) {
	if runner == nil {
		runner = CmdRunner{}
	}
	result, err := runner.Run(ctx, ffmpeg, []string{"-hide_banner", "-hwaccels"}, RunOptions{})
	if err != nil {
		return nil, fmt.Errorf("ffmpeg -hwaccels: %w", err)
	}
	var methods []string
	listing := false
	for _, line := range strings.Split(string(result.Stdout), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Hardware acceleration methods"):
			listing = true
		case listing && line != "":
			methods = append(methods, line)
		}
	}
	return methods, nil
}
