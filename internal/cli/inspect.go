package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelcraft/internal/engine"
	"reelcraft/pkg/timeline"
)

var (
	inspectPreset string
	inspectProbe  bool
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <timeline>",
		Short: "Show the layers, timing and sources of a timeline document",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	cmd.Flags().StringVar(&inspectPreset, "preset", "", "Apply a named preset from the config")
	cmd.Flags().BoolVar(&inspectProbe, "probe", false, "Probe sources with ffprobe and report problems")

	return cmd
}

type layerSummary struct {
	Index    int      `json:"index"`
	Kind     string   `json:"kind"`
	Source   string   `json:"source"`
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Implicit bool     `json:"implicit_duration,omitempty"` // end comes from the policy or the timeline
	Effects  []string `json:"effects,omitempty"`
}

type inspectReport struct {
	Timeline string               `json:"timeline"`
	Duration float64              `json:"duration"`
	Canvas   string               `json:"canvas"`
	Layers   []layerSummary       `json:"layers"`
	Sources  []string             `json:"sources"`
	Issues   []engine.SourceIssue `json:"issues,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	tl, err := loadTimeline(args[0], cfg, inspectPreset)
	if err != nil {
		return err
	}

	report := summarize(args[0], tl)
	if inspectProbe {
		prober := engine.Prober{FFprobe: cfg.Engine.FFprobe}
		report.Issues = prober.Check(ctx, tl)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	writeInspect(cmd.OutOrStdout(), report)
	if inspectProbe && hasErrorIssue(report.Issues) {
		return fmt.Errorf("%s has missing or unusable sources", args[0])
	}
	return nil
}

func summarize(path string, tl *timeline.Timeline) inspectReport {
	opts := tl.Options()
	report := inspectReport{
		Timeline: path,
		Duration: tl.Duration(),
		Canvas:   fmt.Sprintf("%dx%d@%s", opts.Width, opts.Height, strconv.FormatFloat(opts.FrameRate, 'f', -1, 64)),
		Sources:  tl.Sources(),
	}
	if opts.AspectRatio != "" {
		report.Canvas += " " + opts.AspectRatio
	}
	for i, l := range tl.Layers() {
		end, known := l.End(opts.Policy)
		if !known {
			end = report.Duration
		}
		s := layerSummary{
			Index:    i,
			Kind:     string(l.Kind),
			Source:   l.Source,
			Start:    l.Start,
			End:      end,
			Implicit: !l.HasDuration(),
		}
		for _, e := range l.Effects {
			s.Effects = append(s.Effects, e.Name)
		}
		if l.Composite != nil {
			s.Effects = append(s.Effects, "chromakey over "+l.Composite.Background)
		}
		report.Layers = append(report.Layers, s)
	}
	return report
}

func writeInspect(out io.Writer, report inspectReport) {
	title := cases.Title(language.Und)
	fmt.Fprintf(out, "Timeline: %s\n", report.Timeline)
	fmt.Fprintf(out, "Canvas:   %s\n", report.Canvas)
	fmt.Fprintf(out, "Duration: %s\n", formatSeconds(report.Duration))

	rows := make([][]string, 0, len(report.Layers))
	for _, l := range report.Layers {
		end := formatSeconds(l.End)
		if l.Implicit {
			end += "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(l.Index),
			title.String(l.Kind),
			l.Source,
			formatSeconds(l.Start),
			end,
			strings.Join(l.Effects, ", "),
		})
	}
	writeTable(out,
		[]string{"#", "KIND", "SOURCE", "START", "END", "EFFECTS"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
	if len(report.Sources) > 0 {
		fmt.Fprintf(out, "Sources (%d): %s\n", len(report.Sources), strings.Join(report.Sources, ", "))
	}

	if len(report.Issues) == 0 {
		return
	}
	issueRows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		issueRows = append(issueRows, []string{strconv.Itoa(issue.Layer), issue.Level, issue.Path, issue.Message})
	}
	writeTable(out, []string{"LAYER", "LEVEL", "PATH", "MESSAGE"}, issueRows, nil)
}

func hasErrorIssue(issues []engine.SourceIssue) bool {
	for _, issue := range issues {
		if issue.Level == "error" {
			return true
		}
	}
	return false
}
