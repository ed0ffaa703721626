package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelcraft/internal/config"
)

// WorkspacePaths captures canonical locations for a reelcraft workspace.
type WorkspacePaths struct {
	Root       string
	ConfigFile string
	MetaDir    string
	LogsDir    string
	StateFile  string
	LockFile   string
	OutputsDir string
}

// Resolve determines the workspace root using the optional --workdir flag or
// the current working directory when the flag is empty. configFlag, when set,
// overrides config discovery.
func Resolve(workdirFlag, configFlag string) (WorkspacePaths, error) {
	var (
		root string
		err  error
	)

	if workdirFlag != "" {
		root, err = filepath.Abs(workdirFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return WorkspacePaths{}, fmt.Errorf("resolve workspace root: %w", err)
	}

	wp := newWorkspacePaths(root)
	if configFlag != "" {
		wp.ConfigFile = resolveWorkspacePath(root, configFlag)
	} else if ok, _ := FileExists(filepath.Join(root, "reelcraft.toml")); ok {
		wp.ConfigFile = filepath.Join(root, "reelcraft.toml")
	}
	return wp, nil
}

func newWorkspacePaths(root string) WorkspacePaths {
	metaDir := filepath.Join(root, ".reelcraft")
	return WorkspacePaths{
		Root:       root,
		ConfigFile: filepath.Join(root, "reelcraft.yaml"),
		MetaDir:    metaDir,
		LogsDir:    filepath.Join(metaDir, "logs"),
		StateFile:  filepath.Join(metaDir, "state.json"),
		LockFile:   filepath.Join(metaDir, "state.lock"),
		OutputsDir: filepath.Join(root, "renders"),
	}
}

// ApplyConfig points the outputs directory at the configured location.
func ApplyConfig(wp WorkspacePaths, cfg config.Config) WorkspacePaths {
	if dir := strings.TrimSpace(cfg.Outputs.Dir); dir != "" {
		wp.OutputsDir = resolveWorkspacePath(wp.Root, dir)
	}
	return wp
}

// Resolve makes value absolute relative to the workspace root.
func (p WorkspacePaths) Resolve(value string) string {
	return resolveWorkspacePath(p.Root, value)
}

// OutputFor returns where a render of the named timeline lands.
func (p WorkspacePaths) OutputFor(name, ext string) string {
	if ext == "" {
		ext = ".mp4"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(p.OutputsDir, name+ext)
}

func resolveWorkspacePath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureMetaDirs creates the hidden .reelcraft directory with its logs
// folder, plus the outputs directory.
func (p WorkspacePaths) EnsureMetaDirs() error {
	dirs := []string{p.MetaDir, p.LogsDir, p.OutputsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
