package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	compileOutput string
	compilePreset string
	compileArgv   bool
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <timeline>",
		Short: "Print the ffmpeg command for a timeline document",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}

	cmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Output path (default: <outputs dir>/<name>.mp4)")
	cmd.Flags().StringVar(&compilePreset, "preset", "", "Apply a named preset from the config")
	cmd.Flags().BoolVar(&compileArgv, "argv", false, "Print one argument per line instead of a shell command")

	return cmd
}

type compileJSON struct {
	Timeline   string   `json:"timeline"`
	Output     string   `json:"output"`
	Executable string   `json:"executable"`
	Args       []string `json:"args"`
	Command    string   `json:"command"`
	Duration   float64  `json:"duration"`
}

func runCompile(cmd *cobra.Command, args []string) error {
	wp, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	tl, err := loadTimeline(args[0], cfg, compilePreset)
	if err != nil {
		return err
	}

	output := compileOutput
	if strings.TrimSpace(output) == "" {
		output = wp.OutputFor(jobName(args[0]), "")
	}
	compiled, err := tl.Command(output)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case outputJSON:
		return writeJSON(out, compileJSON{
			Timeline:   args[0],
			Output:     output,
			Executable: compiled.Executable,
			Args:       compiled.Args,
			Command:    compiled.String(),
			Duration:   tl.Duration(),
		})
	case compileArgv:
		for _, a := range compiled.Argv() {
			fmt.Fprintln(out, a)
		}
	default:
		fmt.Fprintln(out, compiled.String())
	}
	return nil
}
