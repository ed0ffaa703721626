package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"reelcraft/pkg/timeline"
)

// SourceIssue is a problem found while checking a timeline's inputs.
type SourceIssue struct {
	Layer   int    `json:"layer"`
	Path    string `json:"path"`
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

func (i SourceIssue) Error() string {
	return fmt.Sprintf("layer %d: %s: %s", i.Layer, i.Path, i.Message)
}

// Check verifies that every media file the timeline reads exists and, for
// timed media, that seeks and explicit durations fit inside the source.
// Files are probed concurrently.
func (p Prober) Check(ctx context.Context, tl *timeline.Timeline) []SourceIssue {
	policy := tl.Options().Policy

	var (
		mu     sync.Mutex
		issues []SourceIssue
	)
	report := func(issue SourceIssue) {
		mu.Lock()
		issues = append(issues, issue)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, l := range tl.Layers() {
		switch l.Kind {
		case timeline.KindText, timeline.KindFilter:
			continue
		}
		if l.Composite != nil {
			if !fileExists(l.Composite.Background) {
				report(SourceIssue{Layer: l.Order, Path: l.Composite.Background, Level: "error", Message: "background not found"})
			}
		}
		if !fileExists(l.Source) {
			report(SourceIssue{Layer: l.Order, Path: l.Source, Level: "error", Message: "source not found"})
			continue
		}
		if l.Kind == timeline.KindImage {
			continue
		}

		g.Go(func() error {
			info, err := p.Probe(gctx, l.Source)
			if err != nil {
				report(SourceIssue{Layer: l.Order, Path: l.Source, Level: "warning", Message: err.Error()})
				return nil
			}
			for _, issue := range checkLayer(l, info, policy) {
				report(issue)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Layer != issues[j].Layer {
			return issues[i].Layer < issues[j].Layer
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}

func checkLayer(l timeline.Layer, info MediaInfo, policy timeline.DurationPolicy) []SourceIssue {
	var issues []SourceIssue
	add := func(level, format string, args ...any) {
		issues = append(issues, SourceIssue{Layer: l.Order, Path: l.Source, Level: level, Message: fmt.Sprintf(format, args...)})
	}

	switch l.Kind {
	case timeline.KindVideo:
		if !info.HasVideo {
			add("error", "no video stream")
		}
	case timeline.KindAudio:
		if !info.HasAudio {
			add("error", "no audio stream")
		}
	}
	if info.Duration <= 0 {
		return issues
	}

	seek := l.Style.Seek
	if seek >= info.Duration {
		add("error", "seek %.2fs is beyond source duration %.2fs", seek, info.Duration)
		return issues
	}
	if l.HasDuration() {
		length, _ := l.Length(policy)
		if end := seek + length; end > info.Duration+0.001 {
			add("warning", "needs %.2fs of source but only %.2fs is available", end, info.Duration)
		}
	}
	return issues
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
