package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelcraft/internal/config"
	"reelcraft/internal/engine"
	"reelcraft/internal/paths"
	"reelcraft/internal/tui"
)

var doctorSkipEncoders bool

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, encoders and workspace configuration",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
	cmd.Flags().BoolVar(&doctorSkipEncoders, "skip-encoders", false, "Skip the encoder test renders")
	return cmd
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

type doctorReport struct {
	Workspace string                  `json:"workspace"`
	Checks    []healthCheck           `json:"checks"`
	Tools     []engine.ToolStatus     `json:"tools"`
	Encoders  []engine.EncoderSupport `json:"encoders,omitempty"`
	HWAccels  []string                `json:"hwaccels,omitempty"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	wp, err := paths.Resolve(workdirFlag, configFlag)
	if err != nil {
		return err
	}
	cfg, cfgErr := config.Load(wp.ConfigFile)
	if cfgErr != nil {
		cfg = config.Default()
	}

	var status *tui.StatusWriter
	if tui.DetectMode(cmd.ErrOrStderr(), noProgress, outputJSON) == tui.ModeTUI {
		status = tui.NewStatusWriter(cmd.ErrOrStderr())
	}
	update := func(msg string) {
		if status != nil {
			status.Update(msg)
		}
	}

	report := doctorReport{Workspace: wp.Root}
	runner := engine.CmdRunner{}

	update("Checking tools...")
	ffmpeg := engine.DetectTool(ctx, runner, "ffmpeg", cfg.Engine.FFmpeg, engine.MinimumFFmpeg)
	ffprobe := engine.DetectTool(ctx, runner, "ffprobe", cfg.Engine.FFprobe, "")
	report.Tools = []engine.ToolStatus{ffmpeg, ffprobe}
	report.Checks = append(report.Checks, checkTools(report.Tools))
	report.Checks = append(report.Checks, checkConfig(wp, cfg, cfgErr))

	if ffmpeg.Satisfied {
		if !doctorSkipEncoders {
			update("Probing encoders...")
			report.Encoders = engine.ProbeEncoders(ctx, runner, ffmpeg.Path)
			report.Checks = append(report.Checks, checkEncoders(cfg, report.Encoders))
		}
		update("Listing hardware acceleration...")
		report.HWAccels, err = engine.ProbeHWAccels(ctx, runner, ffmpeg.Path)
		report.Checks = append(report.Checks, checkHWAccel(cfg, report.HWAccels, err))
	}
	if status != nil {
		status.Stop()
	}

	return writeDoctorResult(cmd.OutOrStdout(), report)
}

func checkTools(statuses []engine.ToolStatus) healthCheck {
	var found, problems []string
	for _, st := range statuses {
		if st.Satisfied {
			found = append(found, strings.TrimSpace(st.Name+" "+st.Version))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", st.Name, st.Error))
	}
	if len(problems) > 0 {
		summary := joinComma(problems)
		if len(found) == 0 {
			summary += "; " + engine.InstallHint("")
		}
		return healthCheck{Name: "Tools", Status: "error", Summary: summary}
	}
	return healthCheck{Name: "Tools", Status: "ok", Summary: joinComma(found)}
}

func checkConfig(wp paths.WorkspacePaths, cfg config.Config, loadErr error) healthCheck {
	if loadErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: loadErr.Error()}
	}
	results := cfg.Validate(wp.Root)
	if config.HasErrors(results) {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%d finding(s); run `reelcraft config validate`", len(results))}
	}
	if len(results) > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: results[0].Message}
	}
	exists, _ := paths.FileExists(wp.ConfigFile)
	if !exists {
		return healthCheck{Name: "Config", Status: "ok", Summary: "defaults (no config file)"}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: wp.ConfigFile}
}

func checkEncoders(cfg config.Config, encoders []engine.EncoderSupport) healthCheck {
	var available []string
	configured := false
	for _, e := range encoders {
		if !e.Available {
			continue
		}
		available = append(available, e.Codec)
		if e.Codec == cfg.Video.Codec {
			configured = true
		}
	}
	switch {
	case len(available) == 0:
		return healthCheck{Name: "Encoders", Status: "error", Summary: "no candidate encoder produced a frame"}
	case !configured && isProbedCodec(cfg.Video.Codec):
		return healthCheck{Name: "Encoders", Status: "warning", Summary: fmt.Sprintf("configured codec %s failed; available: %s", cfg.Video.Codec, joinComma(available))}
	}
	return healthCheck{Name: "Encoders", Status: "ok", Summary: joinComma(available)}
}

func isProbedCodec(codec string) bool {
	for _, family := range engine.CodecFamilies {
		for _, c := range family.Codecs {
			if c == codec {
				return true
			}
		}
	}
	return false
}

func checkHWAccel(cfg config.Config, methods []string, err error) healthCheck {
	if err != nil {
		return healthCheck{Name: "HW accel", Status: "warning", Summary: err.Error()}
	}
	if cfg.Engine.HWAccel != "" && cfg.Engine.HWAccel != "auto" {
		for _, m := range methods {
			if m == cfg.Engine.HWAccel {
				return healthCheck{Name: "HW accel", Status: "ok", Summary: m + " (configured)"}
			}
		}
		return healthCheck{Name: "HW accel", Status: "error", Summary: fmt.Sprintf("configured %s not in: %s", cfg.Engine.HWAccel, joinComma(methods))}
	}
	if len(methods) == 0 {
		return healthCheck{Name: "HW accel", Status: "ok", Summary: "none (software only)"}
	}
	return healthCheck{Name: "HW accel", Status: "ok", Summary: joinComma(methods)}
}

func writeDoctorResult(out io.Writer, report doctorReport) error {
	if outputJSON {
		return writeJSON(out, report)
	}
	fmt.Fprintf(out, "Workspace: %s\n", report.Workspace)
	rows := make([][]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		rows = append(rows, []string{c.Name, c.Status, c.Summary})
	}
	writeTable(out, []string{"CHECK", "STATUS", "SUMMARY"}, rows, nil)
	return nil
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}
