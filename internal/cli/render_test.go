package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"reelcraft/internal/engine"
)

func TestResultStatus(t *testing.T) {
	tests := []struct {
		res  engine.Result
		want string
	}{
		{engine.Result{}, "rendered"},
		{engine.Result{Skipped: true, Reason: "up to date"}, "skipped"},
		{engine.Result{Skipped: true, Reason: "dry run: new output"}, "planned"},
		{engine.Result{Err: errors.New("boom")}, "failed"},
	}
	for _, tt := range tests {
		if got := resultStatus(tt.res); got != tt.want {
			t.Errorf("resultStatus(%+v) = %q, want %q", tt.res, got, tt.want)
		}
	}
}

func TestWriteRenderSummary(t *testing.T) {
	var out, errOut bytes.Buffer
	results := []engine.Result{
		{Name: "intro", OutputPath: "/ws/renders/intro.mp4", Elapsed: 2 * time.Second, Size: 1_500_000, Reason: "new output"},
		{Name: "outro", OutputPath: "/ws/renders/outro.mp4", Skipped: true, Reason: "up to date"},
		{Name: "broken", OutputPath: "/ws/renders/broken.mp4", Err: errors.New("ffmpeg exited with code 1")},
	}
	writeRenderSummary(&out, &errOut, "/ws", results)

	text := out.String()
	for _, want := range []string{"intro", "renders/intro.mp4", "1.5 MB", "up to date", "1 rendered, 1 skipped, 1 failed"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(errOut.String(), "render broken failed") {
		t.Errorf("expected failure on stderr, got %q", errOut.String())
	}
}

func TestRenderDryRun(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "intro.json", videoDoc)

	out, err := runCLI(t, "--workdir", dir, "--json", "render", "--dry-run", doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var payload struct {
		Results []renderJSONResult `json:"results"`
		Summary renderJSONSummary  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(payload.Results) != 1 || payload.Results[0].Status != "planned" {
		t.Fatalf("unexpected results %+v", payload.Results)
	}
	if !strings.HasSuffix(payload.Results[0].OutputPath, "intro.mp4") || payload.Results[0].Command == "" {
		t.Errorf("expected planned output and command, got %+v", payload.Results[0])
	}
	if payload.Summary.Skipped != 1 {
		t.Errorf("unexpected summary %+v", payload.Summary)
	}
}

func TestRenderOutputNeedsSingleTimeline(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", videoDoc)
	b := writeFile(t, dir, "b.json", videoDoc)
	if _, err := runCLI(t, "--workdir", dir, "render", "-o", "x.mp4", a, b); err == nil {
		t.Fatal("expected error for --output with two timelines")
	}
}

func TestRelativeTo(t *testing.T) {
	if got := relativeTo("/ws", "/ws/renders/a.mp4"); got != "renders/a.mp4" {
		t.Errorf("relativeTo inside = %q", got)
	}
	if got := relativeTo("/ws", "/elsewhere/a.mp4"); got != "/elsewhere/a.mp4" {
		t.Errorf("relativeTo outside = %q", got)
	}
}
