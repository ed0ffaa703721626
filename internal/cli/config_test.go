package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesOnce(t *testing.T) {
	dir := t.TempDir()

	if _, err := runCLI(t, "--workdir", dir, "config", "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "reelcraft.yaml")); err != nil {
		t.Fatalf("expected reelcraft.yaml: %v", err)
	}
	if _, err := runCLI(t, "--workdir", dir, "config", "init"); err == nil {
		t.Fatal("expected second init to refuse overwriting")
	}
	if _, err := runCLI(t, "--workdir", dir, "config", "init", "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestConfigInitTOMLIsDiscovered(t *testing.T) {
	dir := t.TempDir()
	if _, err := runCLI(t, "--workdir", dir, "config", "init", "--toml"); err != nil {
		t.Fatalf("init --toml: %v", err)
	}
	out, err := runCLI(t, "--workdir", dir, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "[engine]") {
		t.Errorf("expected TOML output, got:\n%s", out)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	if _, err := runCLI(t, "--workdir", dir, "config", "validate"); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	writeFile(t, dir, "reelcraft.yaml", "video:\n  crf: 99\n")
	out, err := runCLI(t, "--workdir", dir, "config", "validate")
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(out, "crf") {
		t.Errorf("expected crf finding in output:\n%s", out)
	}
}
