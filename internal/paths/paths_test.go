package paths

import (
	"os"
	"path/filepath"
	"testing"

	"reelcraft/internal/config"
)

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()
	wp, err := Resolve(root, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wp.ConfigFile != filepath.Join(root, "reelcraft.yaml") {
		t.Errorf("unexpected config file %s", wp.ConfigFile)
	}
	if wp.StateFile != filepath.Join(root, ".reelcraft", "state.json") {
		t.Errorf("unexpected state file %s", wp.StateFile)
	}
	if wp.LogsDir != filepath.Join(root, ".reelcraft", "logs") {
		t.Errorf("unexpected logs dir %s", wp.LogsDir)
	}
}

func TestResolvePrefersTOMLWhenPresent(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "reelcraft.toml"), []byte("version = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wp, err := Resolve(root, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if filepath.Base(wp.ConfigFile) != "reelcraft.toml" {
		t.Errorf("expected toml config, got %s", wp.ConfigFile)
	}

	wp, err = Resolve(root, "custom/settings.yaml")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wp.ConfigFile != filepath.Join(root, "custom/settings.yaml") {
		t.Errorf("config flag ignored: %s", wp.ConfigFile)
	}
}

func TestApplyConfig(t *testing.T) {
	root := t.TempDir()
	wp := newWorkspacePaths(root)

	cfg := config.Default()
	cfg.Outputs.Dir = "out/final"
	if got := ApplyConfig(wp, cfg).OutputsDir; got != filepath.Join(root, "out/final") {
		t.Errorf("relative outputs dir: got %s", got)
	}

	abs := filepath.Join(t.TempDir(), "elsewhere")
	cfg.Outputs.Dir = abs
	if got := ApplyConfig(wp, cfg).OutputsDir; got != abs {
		t.Errorf("absolute outputs dir: got %s", got)
	}
}

func TestOutputFor(t *testing.T) {
	wp := newWorkspacePaths("/work")
	tests := []struct {
		name, ext, want string
	}{
		{"promo", "", filepath.Join("/work/renders", "promo.mp4")},
		{"promo", "mkv", filepath.Join("/work/renders", "promo.mkv")},
		{"promo", ".mov", filepath.Join("/work/renders", "promo.mov")},
	}
	for _, tt := range tests {
		if got := wp.OutputFor(tt.name, tt.ext); got != tt.want {
			t.Errorf("OutputFor(%q, %q) = %s, want %s", tt.name, tt.ext, got, tt.want)
		}
	}
}

func TestEnsureMetaDirs(t *testing.T) {
	wp := newWorkspacePaths(t.TempDir())
	if err := wp.EnsureMetaDirs(); err != nil {
		t.Fatalf("EnsureMetaDirs: %v", err)
	}
	for _, dir := range []string{wp.MetaDir, wp.LogsDir, wp.OutputsDir} {
		ok, err := DirExists(dir)
		if err != nil || !ok {
			t.Errorf("expected %s to exist (err=%v)", dir, err)
		}
	}
	if ok, _ := FileExists(wp.MetaDir); ok {
		t.Errorf("FileExists should be false for a directory")
	}
}
