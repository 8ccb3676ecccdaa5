package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the bulletin home directory.
	DefaultDirName = ".bulletin"

	// CacheDirName holds the filesystem cache namespaces.
	CacheDirName = "cache"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CacheDBName is the SQLite cache database.
	CacheDBName = "cache.db"

	// CallLogName is the JSONL log of LLM calls.
	CallLogName = "calls.jsonl"

	// PromptsDirName holds prompt override templates.
	PromptsDirName = "prompts"

	// ReportsDirName holds batch reports.
	ReportsDirName = "reports"
)

// Dir represents the bulletin home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bulletin).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CachePath returns the root of the filesystem cache. Each namespace
// (text, responses) is a subdirectory.
func (d *Dir) CachePath() string {
	return filepath.Join(d.path, CacheDirName)
}

// CacheDBPath returns the SQLite cache database path.
func (d *Dir) CacheDBPath() string {
	return filepath.Join(d.path, CacheDBName)
}

// CallLogPath returns the LLM call log path.
func (d *Dir) CallLogPath() string {
	return filepath.Join(d.path, CallLogName)
}

// PromptsPath returns the prompt override directory.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// ReportsPath returns the directory batch reports are written to.
func (d *Dir) ReportsPath() string {
	return filepath.Join(d.path, ReportsDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.CachePath(), d.ReportsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
