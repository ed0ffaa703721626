package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"reelcraft/internal/engine"
	"reelcraft/internal/tui"
)

var (
	renderOutput      string
	renderPreset      string
	renderConcurrency int
	renderForce       bool
	renderDryRun      bool
	renderCheck       bool
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <timeline>...",
		Short: "Render timeline documents with ffmpeg, skipping unchanged outputs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRender,
	}

	cmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output path (single timeline only)")
	cmd.Flags().StringVar(&renderPreset, "preset", "", "Apply a named preset from the config")
	cmd.Flags().IntVar(&renderConcurrency, "concurrency", 0, "Concurrent ffmpeg processes (default: engine.concurrency)")
	cmd.Flags().BoolVar(&renderForce, "force", false, "Re-render even when inputs are unchanged")
	cmd.Flags().BoolVar(&renderDryRun, "dry-run", false, "Plan renders without running ffmpeg")
	cmd.Flags().BoolVar(&renderCheck, "check", false, "Probe sources with ffprobe before rendering")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderOutput != "" && len(args) > 1 {
		return errors.New("--output only applies when rendering a single timeline")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	jobs := make([]engine.Job, 0, len(args))
	for _, path := range args {
		tl, err := loadTimeline(path, ws.cfg, renderPreset)
		if err != nil {
			return err
		}
		output := renderOutput
		if output == "" {
			output = ws.paths.OutputFor(jobName(path), "")
		}
		jobs = append(jobs, engine.Job{
			Name:     jobName(path),
			Source:   path,
			Timeline: tl,
			Output:   output,
		})
	}

	svc, err := engine.NewService(ws.paths, ws.cfg, nil, ws.logger)
	if err != nil {
		return err
	}

	concurrency := renderConcurrency
	if concurrency <= 0 {
		concurrency = ws.cfg.Engine.Concurrency
	}
	opts := engine.Options{
		Concurrency:  concurrency,
		Force:        renderForce,
		DryRun:       renderDryRun,
		CheckSources: renderCheck,
	}

	out := cmd.OutOrStdout()
	var results []engine.Result
	switch tui.DetectMode(out, noProgress, outputJSON) {
	case tui.ModeTUI:
		results, err = renderInteractive(ctx, out, svc, jobs, opts, ws.paths.Root)
	default:
		results, err = svc.Render(ctx, jobs, opts)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		if err := writeRenderJSON(out, ws.paths.Root, results); err != nil {
			return err
		}
	} else {
		writeRenderSummary(out, cmd.ErrOrStderr(), ws.paths.Root, results)
	}

	if failed := countFailures(results); failed > 0 {
		return fmt.Errorf("%d render(s) failed; see logs for details", failed)
	}
	return nil
}

var renderColumns = []tui.Column{
	{Header: "NAME", Width: 18},
	{Header: "STATUS", Width: 10},
	{Header: "PROGRESS", Width: 20, Bar: true},
	{Header: "LENGTH", Width: 8},
	{Header: "OUTPUT", Width: 32},
}

func renderInteractive(ctx context.Context, out io.Writer, svc *engine.Service, jobs []engine.Job, opts engine.Options, root string) ([]engine.Result, error) {
	model := tui.NewProgressModel("Workspace: "+root, renderColumns)
	for _, job := range jobs {
		model.AddRow(job.Name, []string{
			job.Name,
			"pending",
			"",
			formatSeconds(job.Timeline.Duration()),
			relativeTo(root, job.Output),
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results   []engine.Result
		renderErr error
		finished  = make(chan struct{})
	)
	uiErr := tui.RunWithWork(out, model, func(send func(tea.Msg)) error {
		defer close(finished)
		opts.Reporter = tui.NewRenderReporter(send,
			func(engine.Job) map[string]string {
				return map[string]string{"STATUS": "rendering"}
			},
			func(res engine.Result) map[string]string {
				return map[string]string{"STATUS": resultStatus(res)}
			},
		)
		results, renderErr = svc.Render(ctx, jobs, opts)
		return renderErr
	})
	// An early quit cancels ffmpeg; wait for the workers to unwind.
	cancel()
	<-finished

	if renderErr != nil {
		return results, renderErr
	}
	return results, uiErr
}

func resultStatus(res engine.Result) string {
	switch {
	case res.Err != nil:
		return "failed"
	case strings.HasPrefix(res.Reason, "dry run"):
		return "planned"
	case res.Skipped:
		return "skipped"
	}
	return "rendered"
}

func countFailures(results []engine.Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func relativeTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func writeRenderSummary(out, errOut io.Writer, root string, results []engine.Result) {
	var rendered, skipped, failed int
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := resultStatus(res)
		switch status {
		case "failed":
			failed++
			fmt.Fprintf(errOut, "render %s failed: %v\n", res.Name, res.Err)
		case "rendered":
			rendered++
		default:
			skipped++
		}
		elapsed := "-"
		if res.Elapsed > 0 {
			elapsed = tui.FormatElapsed(res.Elapsed)
		}
		rows = append(rows, []string{
			res.Name,
			status,
			tui.NonEmptyOrDash(res.Reason),
			elapsed,
			tui.FormatSize(res.Size),
			relativeTo(root, res.OutputPath),
		})
	}
	writeTable(out,
		[]string{"NAME", "STATUS", "REASON", "TIME", "SIZE", "OUTPUT"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
	fmt.Fprintf(out, "completed renders: %d rendered, %d skipped, %d failed\n", rendered, skipped, failed)
}

type renderJSONResult struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	OutputPath string  `json:"output"`
	LogPath    string  `json:"log,omitempty"`
	Command    string  `json:"command,omitempty"`
	Duration   float64 `json:"duration"`
	ElapsedMS  int64   `json:"elapsed_ms"`
	Size       int64   `json:"size_bytes,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type renderJSONSummary struct {
	Rendered int `json:"rendered"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func writeRenderJSON(out io.Writer, root string, results []engine.Result) error {
	payload := struct {
		Workspace string             `json:"workspace"`
		Results   []renderJSONResult `json:"results"`
		Summary   renderJSONSummary  `json:"summary"`
	}{
		Workspace: root,
		Results:   make([]renderJSONResult, 0, len(results)),
	}
	for _, res := range results {
		status := resultStatus(res)
		switch status {
		case "failed":
			payload.Summary.Failed++
		case "rendered":
			payload.Summary.Rendered++
		default:
			payload.Summary.Skipped++
		}
		payload.Results = append(payload.Results, renderJSONResult{
			Name:       res.Name,
			Status:     status,
			Reason:     res.Reason,
			OutputPath: res.OutputPath,
			LogPath:    res.LogPath,
			Command:    res.Command,
			Duration:   res.Duration,
			ElapsedMS:  res.Elapsed.Milliseconds(),
			Size:       res.Size,
			Error:      errorString(res.Err),
		})
	}
	return writeJSON(out, payload)
}
