// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads the run parameters from a YAML file layered over the defaults.
//
// # Description
//
// With an empty path, Load uses ~/.aqpe/aqpe.yaml and writes the defaults
// there on first run so users have a file to edit. With an explicit path,
// the file must exist. Fields absent from the file keep their default
// values; Sanitize is NOT applied here, since flag overrides are merged
// after loading.
//
// # Inputs
//
//   - path: config file path, or "" for the default location
//
// # Outputs
//
//   - Parameters: defaults overlaid with the file's values
//   - error: Non-nil when the file cannot be read or parsed
func Load(path string) (Parameters, error) {
	params := DefaultParameters()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return params, fmt.Errorf("could not find the user's home directory: %w", err)
		}
		path = filepath.Join(home, ".aqpe", "aqpe.yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf(" First run detected, creating the config at %s\n", path)
			if err := createDefault(path); err != nil {
				return params, err
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return params, nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	defaultCfg := DefaultParameters()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
