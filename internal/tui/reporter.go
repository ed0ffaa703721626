package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"reelcraft/internal/engine"
)

// RenderReporter adapts bubbletea message sending to engine.ProgressReporter.
// Callers supply the column mapping so the tui package stays layout agnostic.
type RenderReporter struct {
	send           func(tea.Msg)
	startFields    func(engine.Job) map[string]string
	completeFields func(engine.Result) map[string]string
}

// NewRenderReporter constructs a reporter keyed by job name.
func NewRenderReporter(
	send func(tea.Msg),
	startFields func(engine.Job) map[string]string,
	completeFields func(engine.Result) map[string]string,
) *RenderReporter {
	return &RenderReporter{
		send:           send,
		startFields:    startFields,
		completeFields: completeFields,
	}
}

// Start implements engine.ProgressReporter.
func (r *RenderReporter) Start(job engine.Job) {
	r.send(RowUpdateMsg{Key: job.Name, Fields: r.startFields(job)})
}

// Progress implements engine.ProgressReporter.
func (r *RenderReporter) Progress(job engine.Job, done, total float64) {
	if total <= 0 {
		return
	}
	r.send(RowProgressMsg{Key: job.Name, Fraction: done / total})
}

// Complete implements engine.ProgressReporter.
func (r *RenderReporter) Complete(res engine.Result) {
	if res.Err == nil {
		r.send(RowProgressMsg{Key: res.Name, Fraction: 1})
	}
	r.send(RowUpdateMsg{Key: res.Name, Fields: r.completeFields(res)})
}
