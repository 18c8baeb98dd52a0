package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// ExportDir overrides the export artifact directory.
	// Empty means <baseDir>/exports.
	ExportDir string `json:"export_dir,omitempty"`

	// ExportFilePrefix is the leading component of export filenames.
	ExportFilePrefix string `json:"export_file_prefix,omitempty"`

	// SelectorConfigPath overrides the selector configuration file.
	// Empty means <baseDir>/selectors.json.
	SelectorConfigPath string `json:"selector_config_path,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of dispatcher tool names to exclude from
	// registration. Unknown names are ignored by the server.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ExportFilePrefix: "webgrab",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.webgrab.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}
	*result = *base
	if overlay == nil {
		return result
	}

	if overlay.ExportDir != "" {
		result.ExportDir = overlay.ExportDir
	}
	if overlay.ExportFilePrefix != "" {
		result.ExportFilePrefix = overlay.ExportFilePrefix
	}
	if overlay.SelectorConfigPath != "" {
		result.SelectorConfigPath = overlay.SelectorConfigPath
	}
	if overlay.DBMaxOpenConns != 0 {
		result.DBMaxOpenConns = overlay.DBMaxOpenConns
	}
	if overlay.DBMaxIdleConns != 0 {
		result.DBMaxIdleConns = overlay.DBMaxIdleConns
	}
	result.DisabledTools = mergeLists(base.DisabledTools, overlay.DisabledTools)

	return result
}

// ExportDirFor resolves the export directory for the given base directory.
func (c *Config) ExportDirFor(baseDir string) string {
	if c.ExportDir != "" {
		return c.ExportDir
	}
	return filepath.Join(baseDir, "exports")
}

// SelectorConfigFor resolves the selector configuration path for the given
// base directory.
func (c *Config) SelectorConfigFor(baseDir string) string {
	if c.SelectorConfigPath != "" {
		return c.SelectorConfigPath
	}
	return filepath.Join(baseDir, "selectors.json")
}

// mergeLists combines two string lists, preserving order and dropping
// duplicates.
func mergeLists(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
