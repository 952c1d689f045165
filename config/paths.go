package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appName        = "orby"
	configFileName = "config.toml"
)

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return string(filepath.Separator)
}

// GetConfigFilePath returns the config file location: $ORBY_CONFIG when
// set, otherwise ~/.config/orby/config.toml on every platform.
func GetConfigFilePath() string {
	if p := os.Getenv("ORBY_CONFIG"); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(homeDir(), ".config", appName, configFileName)
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	switch {
	case path == "~":
		path = homeDir()
	case strings.HasPrefix(path, "~/"):
		path = filepath.Join(homeDir(), path[2:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates path with user-only permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions restricts the data directory to its owner, since
// it holds transcripts and tool output.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if os.IsNotExist(err) {
		return EnsureDir(dataDir)
	}
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0700 {
		return os.Chmod(dataDir, 0700)
	}
	return nil
}
