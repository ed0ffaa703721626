package cache

import "os"

const (
	ActionRender = "render"
	ActionSkip   = "skip"

	ReasonForced        = "forced"
	ReasonNew           = "new output"
	ReasonConfigChanged = "config changed"
	ReasonInputChanged  = "input changed"
	ReasonOutputMissing = "output missing"
	ReasonUpToDate      = "up to date"
)

// Target is one output and the hash of everything that produces it.
type Target struct {
	Output    string
	InputHash string
}

// TargetAction describes the action to take for a single output.
type TargetAction struct {
	Target Target
	Action string
	Reason string
}

// DetectChanges determines which outputs need rendering by comparing
// current inputs against the stored render state.
func DetectChanges(rs *RenderState, targets []Target, globalHash string, force bool) []TargetAction {
	actions := make([]TargetAction, len(targets))

	if force {
		for i, t := range targets {
			actions[i] = TargetAction{Target: t, Action: ActionRender, Reason: ReasonForced}
		}
		return actions
	}

	if globalHash != rs.GlobalConfigHash {
		for i, t := range targets {
			actions[i] = TargetAction{Target: t, Action: ActionRender, Reason: ReasonConfigChanged}
		}
		return actions
	}

	for i, t := range targets {
		prior, exists := rs.Jobs[t.Output]
		if !exists {
			actions[i] = TargetAction{Target: t, Action: ActionRender, Reason: ReasonNew}
			continue
		}

		if t.InputHash != prior.InputHash {
			actions[i] = TargetAction{Target: t, Action: ActionRender, Reason: ReasonInputChanged}
			continue
		}

		if _, err := os.Stat(t.Output); os.IsNotExist(err) {
			actions[i] = TargetAction{Target: t, Action: ActionRender, Reason: ReasonOutputMissing}
			continue
		}

		actions[i] = TargetAction{Target: t, Action: ActionSkip, Reason: ReasonUpToDate}
	}

	return actions
}

// Prune removes entries whose outputs are not in currentKeys.
func Prune(rs *RenderState, currentKeys map[string]bool) {
	for key := range rs.Jobs {
		if !currentKeys[key] {
			delete(rs.Jobs, key)
		}
	}
}
