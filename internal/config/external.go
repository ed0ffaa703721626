package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// resolveExternalPath returns path as-is if absolute, otherwise joins it with root.
func resolveExternalPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// loadPresetFiles reads each file in PresetFiles as map[string]Preset and
// merges it into c.Presets. A name may only be defined once.
func (c *Config) loadPresetFiles(root string) error {
	if len(c.PresetFiles) == 0 {
		return nil
	}

	if c.Presets == nil {
		c.Presets = map[string]Preset{}
	}

	sources := make(map[string]string, len(c.Presets))
	for name := range c.Presets {
		sources[name] = "inline config"
	}

	for _, relPath := range c.PresetFiles {
		data, err := os.ReadFile(resolveExternalPath(root, relPath))
		if err != nil {
			return fmt.Errorf("load preset file %q: %w", relPath, err)
		}

		var presets map[string]Preset
		if err := unmarshal(relPath, data, &presets); err != nil {
			return fmt.Errorf("parse preset file %q: %w", relPath, err)
		}

		for name, preset := range presets {
			if existing, ok := sources[name]; ok {
				return fmt.Errorf("preset %q defined in both %s and %q", name, existing, relPath)
			}
			sources[name] = relPath
			c.Presets[name] = preset
		}
	}

	return nil
}
