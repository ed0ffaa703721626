package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelcraft/internal/config"
	"reelcraft/internal/engine"
	"reelcraft/internal/paths"
	"reelcraft/internal/tui"
)

var (
	configInitTOML        bool
	configInitForce       bool
	configInitInteractive bool
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect or validate workspace configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	cmd.Flags().BoolVar(&configInitTOML, "toml", false, "Write reelcraft.toml instead of reelcraft.yaml")
	cmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVarP(&configInitInteractive, "interactive", "i", false, "Pick encoders and quality interactively")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors",
		Args:  cobra.NoArgs,
		RunE:  runConfigValidate,
	}
}

func initTarget(wp paths.WorkspacePaths) string {
	if configFlag != "" {
		return wp.ConfigFile
	}
	if configInitTOML {
		return filepath.Join(wp.Root, "reelcraft.toml")
	}
	return filepath.Join(wp.Root, "reelcraft.yaml")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	wp, err := paths.Resolve(workdirFlag, configFlag)
	if err != nil {
		return err
	}
	target := initTarget(wp)

	exists, err := paths.FileExists(target)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	if exists && !configInitForce {
		return fmt.Errorf("%s already exists; use --force to overwrite", target)
	}

	cfg := config.Default()
	if configInitInteractive {
		if !tui.IsTerminal(cmd.OutOrStdout()) {
			return errors.New("--interactive needs a terminal")
		}
		res, err := tui.RunSetup(cmd.OutOrStdout(), cfg, engine.CmdRunner{})
		if err != nil {
			return err
		}
		if res.Cancelled {
			return errors.New("setup cancelled; nothing written")
		}
		res.Apply(&cfg)
	}

	data, err := cfg.MarshalFor(target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	wp, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}

	data, err := cfg.MarshalFor(wp.ConfigFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))
	if len(data) == 0 || data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	wp, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	results := cfg.Validate(wp.Root)
	out := cmd.OutOrStdout()

	if outputJSON {
		payload := struct {
			Config  string                    `json:"config"`
			Valid   bool                      `json:"valid"`
			Results []config.ValidationResult `json:"results"`
		}{
			Config:  wp.ConfigFile,
			Valid:   !config.HasErrors(results),
			Results: results,
		}
		if payload.Results == nil {
			payload.Results = []config.ValidationResult{}
		}
		if err := writeJSON(out, payload); err != nil {
			return err
		}
	} else if len(results) == 0 {
		fmt.Fprintf(out, "%s: ok\n", wp.ConfigFile)
	} else {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.Level, r.Message})
		}
		writeTable(out, []string{"LEVEL", "MESSAGE"}, rows, nil)
	}

	if config.HasErrors(results) {
		return fmt.Errorf("%s has errors", wp.ConfigFile)
	}
	return nil
}
