package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"reelcraft/internal/config"
	"reelcraft/internal/engine"
)

func probedModel(t *testing.T) setupModel {
	t.Helper()
	cfg := config.Default()
	m := newSetupModel(cfg, func(context.Context) []engine.EncoderSupport { return nil })
	updated, _ := m.Update(encodersMsg{
		{Family: "H.264", Codec: "h264_nvenc", Available: false},
		{Family: "H.264", Codec: "libx264", Available: true},
		{Family: "H.265 (HEVC)", Codec: "libx265", Available: true},
	})
	return updated.(setupModel)
}

func TestSetupPreselectsConfig(t *testing.T) {
	m := probedModel(t)
	if m.probing {
		t.Fatal("expected probing to end after encodersMsg")
	}
	if got := m.rows[rowCodec].options; len(got) != 2 {
		t.Fatalf("expected only available encoders, got %v", got)
	}
	res := m.result()
	if res.Cancelled {
		t.Fatal("probed model should yield a result")
	}
	if res.VideoCodec != "libx264" || res.Width != 1920 || res.Height != 1080 {
		t.Errorf("expected config values preselected, got %+v", res)
	}
}

func TestSetupNavigateAndSave(t *testing.T) {
	m := probedModel(t)
	keys := []tea.KeyMsg{
		{Type: tea.KeyRight},
		{Type: tea.KeyDown},
		{Type: tea.KeyLeft},
		{Type: tea.KeyEnter},
	}
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(k)
		m = updated.(setupModel)
	}
	if cmd == nil || !m.done {
		t.Fatal("expected enter to finish the carousel")
	}

	res := m.result()
	if res.Cancelled {
		t.Fatal("unexpected cancel")
	}
	if res.VideoCodec != "libx265" {
		t.Errorf("codec = %q, want libx265", res.VideoCodec)
	}
	if res.Width != 1280 || res.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", res.Width, res.Height)
	}

	cfg := config.Default()
	res.Apply(&cfg)
	if cfg.Video.Codec != "libx265" || cfg.Video.Width != 1280 || cfg.Audio.BitrateKbps != res.AudioBitrate {
		t.Errorf("Apply did not copy selection: %+v", cfg.Video)
	}
}

func TestSetupCancelLeavesConfig(t *testing.T) {
	m := probedModel(t)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	res := updated.(setupModel).result()
	if !res.Cancelled {
		t.Fatal("expected cancelled result")
	}
	cfg := config.Default()
	before := cfg.Video
	res.Apply(&cfg)
	if cfg.Video != before {
		t.Errorf("cancelled result changed config: %+v", cfg.Video)
	}
}

func TestSetupIgnoresKeysWhileProbing(t *testing.T) {
	m := newSetupModel(config.Default(), nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(setupModel)
	if cmd != nil || m.done {
		t.Fatal("enter should be ignored until the probe finishes")
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
	}{
		{"1280x720", 1280, 720},
		{"1080x1920", 1080, 1920},
		{"bogus", 1920, 1080},
		{"0x0", 1920, 1080},
	}
	for _, tt := range tests {
		w, h := parseResolution(tt.in)
		if w != tt.w || h != tt.h {
			t.Errorf("parseResolution(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
		}
	}
}

func TestRenderReporterSendsRowMessages(t *testing.T) {
	var msgs []tea.Msg
	r := NewRenderReporter(
		func(m tea.Msg) { msgs = append(msgs, m) },
		func(engine.Job) map[string]string { return map[string]string{"STATUS": "rendering"} },
		func(res engine.Result) map[string]string {
			if res.Err != nil {
				return map[string]string{"STATUS": "failed"}
			}
			return map[string]string{"STATUS": "rendered"}
		},
	)

	job := engine.Job{Name: "intro"}
	r.Start(job)
	r.Progress(job, 0, 0)
	r.Progress(job, 5, 10)
	r.Complete(engine.Result{Name: "intro", Elapsed: time.Second})
	r.Complete(engine.Result{Name: "outro", Err: errors.New("boom")})

	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d: %+v", len(msgs), msgs)
	}
	if p, ok := msgs[1].(RowProgressMsg); !ok || p.Fraction != 0.5 {
		t.Errorf("expected half progress, got %+v", msgs[1])
	}
	if p, ok := msgs[2].(RowProgressMsg); !ok || p.Fraction != 1 {
		t.Errorf("expected completion to fill the bar, got %+v", msgs[2])
	}
	if u, ok := msgs[4].(RowUpdateMsg); !ok || u.Key != "outro" || u.Fields["STATUS"] != "failed" {
		t.Errorf("unexpected failure update %+v", msgs[4])
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatElapsed(1500 * time.Millisecond); got != "1.5s" {
		t.Errorf("FormatElapsed = %q", got)
	}
	if got := FormatElapsed(125 * time.Second); got != "2m05s" {
		t.Errorf("FormatElapsed = %q", got)
	}
	if got := FormatSize(0); got != "-" {
		t.Errorf("FormatSize(0) = %q", got)
	}
	if got := FormatSize(2_000_000); got != "2.0 MB" {
		t.Errorf("FormatSize = %q", got)
	}
}
