// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

// Package xdg locates Inventra files under the XDG base directories.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName        = "inventra"
	configFileName = "config.yaml"
)

// ConfigDir returns the XDG config directory for inventra.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the path of config.yaml in ConfigDir, or "" if there
// is no such file.
func ConfigFile(getenv func(string) string) (string, error) {
	path := filepath.Join(ConfigDir(getenv), configFileName)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
	case info.IsDir():
		return "", oops.Code("CONFIG_LOAD_FAILED").With("file", path).Errorf("config path is a directory")
	}
	return path, nil
}
