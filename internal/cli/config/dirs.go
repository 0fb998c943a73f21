// Package config provides configuration management for the ccclogin CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "ccclogin"

// UserConfigDir returns the OS-specific user configuration directory for ccclogin.
// On Linux: ~/.config/ccclogin
// On macOS: ~/Library/Application Support/ccclogin
// On Windows: %APPDATA%\ccclogin
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	return filepath.Join(configDir, appName), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// It sets the directory permissions to 0700 (owner read/write/execute only).
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
