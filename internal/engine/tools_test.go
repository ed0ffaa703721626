package engine

import (
	"context"
	"testing"
)

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023": "6.1.1",
		"ffprobe version n7.0 Copyright":                        "7.0",
		"ffmpeg version 4.4.2-0ubuntu0.22.04.1":                 "4.4.2",
		"no digits here":                                        "no digits here",
	}
	for line, want := range tests {
		if got := normalizeVersion(line); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", line, got, want)
		}
	}
}

func TestMeetsMinimum(t *testing.T) {
	tests := []struct {
		version, minimum string
		want             bool
	}{
		{"6.1.1", "4.4", true},
		{"4.4", "4.4", true},
		{"4.3.9", "4.4", false},
		{"", "4.4", false},
		{"1.0", "", true},
	}
	for _, tt := range tests {
		if got := meetsMinimum(tt.version, tt.minimum); got != tt.want {
			t.Errorf("meetsMinimum(%q, %q) = %v, want %v", tt.version, tt.minimum, got, tt.want)
		}
	}
}

func TestProbeHWAccels(t *testing.T) {
	runner := &fakeRunner{stdout: map[string][]byte{
		"ffmpeg": []byte("Hardware acceleration methods:\nvdpau\ncuda\nvaapi\n\n"),
	}}
	methods, err := ProbeHWAccels(context.Background(), runner, "ffmpeg")
	if err != nil {
		t.Fatalf("ProbeHWAccels: %v", err)
	}
	if len(methods) != 3 || methods[1] != "cuda" {
		t.Errorf("unexpected methods %v", methods)
	}
}

func TestProbeEncodersMarksAvailability(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"-": true}}
	support := ProbeEncoders(context.Background(), runner, "ffmpeg")
	if len(support) == 0 {
		t.Fatal("expected candidates")
	}
	for _, s := range support {
		if s.Available {
			t.Errorf("%s should be unavailable when every probe fails", s.Codec)
		}
	}
}

func TestProgressWriterHandlesSplitLines(t *testing.T) {
	var seen []float64
	ended := false
	w := newProgressWriter(func(s float64) { seen = append(seen, s) }, func() { ended = true })

	for _, chunk := range []string{"out_time_us=15", "00000\nprogress=cont", "inue\nout_time_us=1000000\n", "out_time_ms=3000000\nprogress=end\n"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if len(seen) != 2 || seen[0] != 1.5 || seen[1] != 3 {
		t.Errorf("unexpected progress %v", seen)
	}
	if !ended {
		t.Errorf("end marker not seen")
	}
}

func TestInstallHint(t *testing.T) {
	tests := map[string]string{
		"darwin":  "brew install ffmpeg",
		"plan9":   "install ffmpeg using your platform's package manager",
		"windows": "winget install Gyan.FFmpeg (or choco install ffmpeg)",
	}
	for goos, want := range tests {
		if got := InstallHint(goos); got != want {
			t.Errorf("InstallHint(%q) = %q, want %q", goos, got, want)
		}
	}
}
