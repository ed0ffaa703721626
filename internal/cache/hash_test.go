package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelcraft/internal/config"
	"reelcraft/pkg/timeline"
)

func TestGlobalConfigHash(t *testing.T) {
	cfg := config.Default()
	h1 := GlobalConfigHash(cfg)
	if h1 != GlobalConfigHash(cfg) {
		t.Fatal("same config produced different hashes")
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Errorf("expected sha256: prefix, got %q", h1)
	}

	cfg.Video.CRF = 30
	if GlobalConfigHash(cfg) == h1 {
		t.Error("crf change did not change the hash")
	}

	cfg = config.Default()
	cfg.Engine.Concurrency = 8
	cfg.Outputs.Dir = "elsewhere"
	if GlobalConfigHash(cfg) != h1 {
		t.Error("settings that do not affect output changed the hash")
	}
}

func TestJobHashTracksCommandAndSources(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(src, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}

	tl := timeline.New().AddVideo(src, timeline.For(4))
	cmd, err := tl.Command(filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	base := JobHash(cmd, StampSources(tl.Sources()))

	scaled, err := tl.Scale(640, 360).Command(filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if JobHash(scaled, StampSources(tl.Sources())) == base {
		t.Error("command change did not change the hash")
	}

	if err := os.WriteFile(src, []byte("longer content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if JobHash(cmd, StampSources(tl.Sources())) == base {
		t.Error("source change did not change the hash")
	}
}

func TestStampSourcesMissing(t *testing.T) {
	stamps := StampSources([]string{filepath.Join(t.TempDir(), "gone.mp4")})
	if len(stamps) != 1 || stamps[0].Size != -1 {
		t.Fatalf("unexpected stamps %+v", stamps)
	}
}

func TestDocumentHash(t *testing.T) {
	a, err := DocumentHash(timeline.New().AddImage("a.png"))
	if err != nil {
		t.Fatalf("DocumentHash: %v", err)
	}
	b, err := DocumentHash(timeline.New().AddImage("b.png"))
	if err != nil {
		t.Fatalf("DocumentHash: %v", err)
	}
	if a == b || !strings.HasPrefix(a, "sha256:") {
		t.Errorf("unexpected hashes %q %q", a, b)
	}
	if _, err := DocumentHash(timeline.New().AddImage("")); err == nil {
		t.Error("expected construction error")
	}
}
