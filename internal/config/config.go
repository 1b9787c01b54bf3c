package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.sockbench)
	ConfigDir string

	// DatabasePath is the SQLite database file holding run history
	DatabasePath string

	// SettingsFile is the default settings file
	SettingsFile string
)

// Initialize sets up the configuration directory and path globals.
// It creates ~/.sockbench/ if it doesn't exist.
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".sockbench"))
}

// InitializeAt is Initialize rooted at dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "sockbench.db")
	SettingsFile = filepath.Join(ConfigDir, "settings.yaml")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}
	return nil
}

// GetSettingsFilePath returns the settings file to load: a local
// .sockbench.yaml wins over the global one
func GetSettingsFilePath() string {
	if _, err := os.Stat(".sockbench.yaml"); err == nil {
		return ".sockbench.yaml"
	}
	return SettingsFile
}
