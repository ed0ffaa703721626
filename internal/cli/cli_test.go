package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"reelcraft/internal/config"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const videoDoc = `{"layers":[{"kind":"video","source":"a.mp4","startTime":0,"duration":4}],"globalOptions":{}}`

const slideDoc = `layers:
  - kind: image
    source: slide.png
    startTime: 0
    duration: 3
`

func loadWorkspaceAt(dir string) (string, config.Config, error) {
	prev := workdirFlag
	workdirFlag = dir
	defer func() { workdirFlag = prev }()
	wp, cfg, err := loadWorkspace()
	return wp.Root, cfg, err
}
