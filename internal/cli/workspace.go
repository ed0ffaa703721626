package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"reelcraft/internal/config"
	"reelcraft/internal/logx"
	"reelcraft/internal/paths"
)

// loadWorkspace resolves paths and configuration without touching disk.
func loadWorkspace() (paths.WorkspacePaths, config.Config, error) {
	wp, err := paths.Resolve(workdirFlag, configFlag)
	if err != nil {
		return paths.WorkspacePaths{}, config.Config{}, err
	}
	cfg, err := config.Load(wp.ConfigFile)
	if err != nil {
		return paths.WorkspacePaths{}, config.Config{}, err
	}
	return paths.ApplyConfig(wp, cfg), cfg, nil
}

// workspace is an opened workspace with its run log.
type workspace struct {
	paths  paths.WorkspacePaths
	cfg    config.Config
	logger zerolog.Logger
	closer io.Closer
}

// openWorkspace loads the workspace and starts a run log under its meta
// directory. Debug logs go to stderr with --verbose.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	wp, cfg, err := loadWorkspace()
	if err != nil {
		return nil, err
	}
	if err := wp.EnsureMetaDirs(); err != nil {
		return nil, err
	}
	opts := logx.Options{Verbose: verbose}
	if verbose {
		opts.Console = cmd.ErrOrStderr()
	}
	logger, closer, err := logx.New(wp, opts)
	if err != nil {
		return nil, err
	}
	return &workspace{paths: wp, cfg: cfg, logger: logger, closer: closer}, nil
}

func (w *workspace) Close() error {
	if w == nil || w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
