package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"reelcraft/internal/config"
	"reelcraft/pkg/timeline"
)

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// readTimeline decodes a timeline document; YAML or JSON by extension.
func readTimeline(path string) (*timeline.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	var tl *timeline.Timeline
	if isYAMLPath(path) {
		tl, err = timeline.FromYAML(data)
	} else {
		tl, err = timeline.FromJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tl, nil
}

// prepareTimeline fills options the document left unset from the config and
// then applies the named preset, if any.
func prepareTimeline(tl *timeline.Timeline, cfg config.Config, preset string) (*timeline.Timeline, error) {
	doc, err := tl.Document()
	if err != nil {
		return nil, err
	}
	cfg.Seed(&doc.GlobalOptions)
	if preset != "" {
		if err := cfg.ApplyPreset(preset, &doc.GlobalOptions); err != nil {
			return nil, err
		}
	}
	return timeline.FromDocument(doc)
}

func loadTimeline(path string, cfg config.Config, preset string) (*timeline.Timeline, error) {
	tl, err := readTimeline(path)
	if err != nil {
		return nil, err
	}
	return prepareTimeline(tl, cfg, preset)
}

// encodeTimeline renders tl as YAML or indented JSON depending on path.
func encodeTimeline(path string, tl *timeline.Timeline) ([]byte, error) {
	if isYAMLPath(path) || path == "" {
		return tl.ToYAML()
	}
	data, err := tl.ToJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// jobName derives a render name from a document path.
func jobName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
