package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"reelcraft/internal/config"
	"reelcraft/pkg/timeline"
)

// globalConfigInput is the canonical structure hashed for config changes
// that affect every render.
type globalConfigInput struct {
	FFmpeg    string                `json:"ffmpeg"`
	HWAccel   string                `json:"hwaccel"`
	Video     config.VideoConfig    `json:"video"`
	Audio     config.AudioConfig    `json:"audio"`
	Durations config.DurationConfig `json:"durations"`
}

// SourceStamp identifies one version of an input file.
type SourceStamp struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// jobInput is the canonical structure hashed for a single render.
type jobInput struct {
	Executable string        `json:"executable"`
	Args       []string      `json:"args"`
	Sources    []SourceStamp `json:"sources"`
}

// GlobalConfigHash returns a deterministic hash of the engine and encoding
// configuration.
func GlobalConfigHash(cfg config.Config) string {
	return hashJSON(globalConfigInput{
		FFmpeg:    cfg.Engine.FFmpeg,
		HWAccel:   cfg.Engine.HWAccel,
		Video:     cfg.Video,
		Audio:     cfg.Audio,
		Durations: cfg.Durations,
	})
}

// JobHash hashes a compiled command together with the state of the files it
// reads. Any change to either forces a re-render.
func JobHash(cmd timeline.Command, sources []SourceStamp) string {
	return hashJSON(jobInput{
		Executable: cmd.Executable,
		Args:       cmd.Args,
		Sources:    sources,
	})
}

// DocumentHash hashes the stored form of a timeline.
func DocumentHash(tl *timeline.Timeline) (string, error) {
	data, err := tl.ToJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum), nil
}

// StampSources stats each path. Missing files get Size -1 so they still
// contribute to the hash.
func StampSources(paths []string) []SourceStamp {
	stamps := make([]SourceStamp, 0, len(paths))
	for _, p := range paths {
		stamp := SourceStamp{Path: p, Size: -1}
		if info, err := os.Stat(p); err == nil {
			stamp.Size = info.Size()
			stamp.ModTime = info.ModTime().UTC()
		}
		stamps = append(stamps, stamp)
	}
	return stamps
}

func hashJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Should never happen with known struct types.
		return fmt.Sprintf("sha256:error-%v", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum)
}
