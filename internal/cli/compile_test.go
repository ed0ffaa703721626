package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompileJSON(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "intro.json", videoDoc)

	out, err := runCLI(t, "--workdir", dir, "--json", "compile", doc, "-o", "out.mp4")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var got compileJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Executable != "ffmpeg" {
		t.Errorf("executable = %q", got.Executable)
	}
	if len(got.Args) < 4 || got.Args[0] != "-hide_banner" || got.Args[len(got.Args)-1] != "out.mp4" {
		t.Errorf("unexpected args %v", got.Args)
	}
	if got.Duration != 4 {
		t.Errorf("duration = %v, want 4", got.Duration)
	}
}

func TestCompileDefaultsOutputToWorkspace(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "intro.json", videoDoc)

	out, err := runCLI(t, "--workdir", dir, "compile", "--argv", doc)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := filepath.Join(dir, "renders", "intro.mp4")
	if lines[0] != "ffmpeg" || lines[len(lines)-1] != want {
		t.Fatalf("expected ffmpeg ... %s, got %v", want, lines)
	}
}

func TestCompileAppliesPreset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "reelcraft.yaml", "presets:\n  vertical:\n    width: 1080\n    height: 1920\n")
	doc := writeFile(t, dir, "slides.yaml", slideDoc)

	out, err := runCLI(t, "--workdir", dir, "compile", doc, "--preset", "vertical")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(out, "s=1080x1920") {
		t.Errorf("expected vertical canvas in %s", out)
	}

	if _, err := runCLI(t, "--workdir", dir, "compile", doc, "--preset", "missing"); err == nil {
		t.Errorf("expected unknown preset error")
	}
}

func TestCompileRejectsBadDocument(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "bad.json", `{"globalOptions":{}}`)
	if _, err := runCLI(t, "--workdir", dir, "compile", doc); err == nil {
		t.Fatal("expected error for document without layers")
	}
}

func TestPrepareTimelineKeepsDocumentChoices(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "custom.json",
		`{"layers":[{"kind":"image","source":"a.png","startTime":0}],"globalOptions":{"width":640,"height":360,"crf":30}}`)
	_, cfg, err := loadWorkspaceAt(dir)
	if err != nil {
		t.Fatal(err)
	}
	tl, err := loadTimeline(doc, cfg, "")
	if err != nil {
		t.Fatalf("loadTimeline: %v", err)
	}
	opts := tl.Options()
	if opts.Width != 640 || opts.CRF != 30 {
		t.Errorf("document values overridden: %+v", opts)
	}
	if opts.VideoCodec != cfg.Video.Codec || opts.Policy.Image != cfg.Durations.ImageSec {
		t.Errorf("config did not fill unset values: %+v", opts)
	}
}
