// Copyright © 2025 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/layout.go
// Summary: Screen layout files for the display service.

// Package config loads screen layout descriptions from disk and persists
// named layouts. It is the configuration collaborator of the display core:
// the core only ever consumes the parsed layout value.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lumenwm/lumen/display"
)

const layoutFileName = "layout.yaml"

// ConfigRoot returns the per-user configuration directory.
func ConfigRoot() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lumen"), nil
}

// DefaultLayoutPath is where LoadDefaultLayout looks for the layout file.
func DefaultLayoutPath() (string, error) {
	root, err := ConfigRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, layoutFileName), nil
}

// LoadLayoutFile reads and validates a layout description. YAML is the
// native format; files ending in .json are accepted for tooling that emits
// JSON.
func LoadLayoutFile(path string) (display.ScreenLayout, error) {
	var layout display.ScreenLayout
	data, err := os.ReadFile(path)
	if err != nil {
		return layout, err
	}

	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &layout)
	} else {
		err = yaml.Unmarshal(data, &layout)
	}
	if err != nil {
		return display.ScreenLayout{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := layout.Validate(); err != nil {
		return display.ScreenLayout{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return layout, nil
}

// SaveLayoutFile writes the layout as YAML, creating parent directories as
// needed.
func SaveLayoutFile(path string, layout display.ScreenLayout) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FallbackLayout is the single-screen configuration used when no layout
// file, stored layout or probed monitor set is available.
func FallbackLayout(devicePath string) display.ScreenLayout {
	return display.ScreenLayout{Screens: []display.ScreenDescriptor{
		{Device: devicePath, X: 0, Y: 0, Width: 1024, Height: 768, ScaleFactor: 1},
	}}
}
