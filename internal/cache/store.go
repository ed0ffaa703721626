package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the workspace lock.
var ErrLocked = errors.New("another reelcraft render is already running in this workspace")

// JobState tracks the inputs and output of one finished render.
type JobState struct {
	InputHash  string    `json:"input_hash"`
	Document   string    `json:"document,omitempty"`
	RenderedAt time.Time `json:"rendered_at"`
	RunID      string    `json:"run_id,omitempty"`
	Timeline   string    `json:"timeline,omitempty"`
	DurationS  float64   `json:"duration_s"`
}

// RenderState tracks render state across all outputs for change detection.
type RenderState struct {
	GlobalConfigHash string              `json:"global_config_hash"`
	Jobs             map[string]JobState `json:"jobs"`
}

// Load reads render state from the given path. A missing or corrupt file
// returns an empty state without error.
func Load(path string) (*RenderState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return emptyState(), nil
	}

	var rs RenderState
	if err := json.Unmarshal(data, &rs); err != nil {
		return emptyState(), nil
	}

	if rs.Jobs == nil {
		rs.Jobs = map[string]JobState{}
	}
	return &rs, nil
}

// Save writes the render state atomically to the given path.
func (rs *RenderState) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Record stores a finished render under its output path.
func (rs *RenderState) Record(output string, js JobState) {
	if rs.Jobs == nil {
		rs.Jobs = map[string]JobState{}
	}
	rs.Jobs[output] = js
}

func emptyState() *RenderState {
	return &RenderState{
		Jobs: map[string]JobState{},
	}
}

// Lock guards the state file against concurrent renders in one workspace.
type Lock struct {
	path string
	fl   *flock.Flock
}

// AcquireLock takes the workspace lock without blocking.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{path: path, fl: fl}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
