package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/droidgate/droidgate/internal/android"
	"github.com/droidgate/droidgate/internal/preflight"
)

// Config represents the complete droidgate configuration.
// The gate thresholds themselves (supported NDK window, minimum API
// levels) are compile-time constants in internal/preflight and are
// deliberately not configurable; the config describes the environment
// being checked, not the rules it is checked against.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	NDK     NDKConfig     `yaml:"ndk" json:"ndk"`
	Android AndroidConfig `yaml:"android" json:"android"`
	Python  PythonConfig  `yaml:"python" json:"python"`
	History HistoryConfig `yaml:"history" json:"history"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// NDKConfig locates the NDK install and the native API level to check.
type NDKConfig struct {
	// Dir is the NDK installation directory. When empty it is resolved
	// from ANDROIDNDK, ANDROID_NDK_HOME, or ANDROID_NDK_ROOT, in that
	// order.
	Dir string `yaml:"dir" json:"dir"`

	// API is the minimum native API level the build targets.
	API int `yaml:"api" json:"api"`
}

// AndroidConfig describes the managed-runtime target of the build.
type AndroidConfig struct {
	// API is the target Android API level declared to the store.
	API int `yaml:"api" json:"api"`

	// Arch is the CPU architecture tag the build targets.
	Arch string `yaml:"arch" json:"arch"`
}

// PythonConfig selects the host interpreter to probe.
type PythonConfig struct {
	Interpreter string `yaml:"interpreter" json:"interpreter"`
}

// HistoryConfig controls the optional run history store.
// History is observational only: recorded runs are never consulted by
// the checks themselves.
type HistoryConfig struct {
	// Enabled turns on run recording (default: false, opt-in).
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the SQLite database file. Defaults to
	// ~/.droidgate/history.db.
	Path string `yaml:"path" json:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// OutputConfig configures terminal output.
type OutputConfig struct {
	// Color is "auto", "always", or "never".
	Color string `yaml:"color" json:"color"`
}

// NewConfig creates a new Config with sensible defaults: the recommended
// API levels, the default interpreter, and history disabled.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		NDK: NDKConfig{
			Dir: "",
			API: preflight.RecommendedNDKAPI,
		},
		Android: AndroidConfig{
			API:  preflight.RecommendedTargetAPI,
			Arch: string(android.ArchArm64V8a),
		},
		Python: PythonConfig{
			Interpreter: preflight.DefaultPythonInterpreter,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    defaultHistoryPath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// defaultHistoryPath returns the default history database path.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".droidgate", "history.db")
	}
	return filepath.Join(home, ".droidgate", "history.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/droidgate/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/droidgate/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "droidgate", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "droidgate", "config.yaml")
	}
	return filepath.Join(home, ".config", "droidgate", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// Load loads configuration for the given project directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/droidgate/config.yaml)
//  3. Project config (.droidgate.yaml in the project root)
//  4. Environment variables (ANDROIDNDK and friends, then DROIDGATE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .droidgate.yaml or .droidgate.yml.
func (c *Config) loadFromFile(dir string) error {
	// Try .yaml first (takes precedence)
	yamlPath := filepath.Join(dir, ".droidgate.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".droidgate.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.NDK.Dir != "" {
		c.NDK.Dir = other.NDK.Dir
	}
	if other.NDK.API != 0 {
		c.NDK.API = other.NDK.API
	}

	if other.Android.API != 0 {
		c.Android.API = other.Android.API
	}
	if other.Android.Arch != "" {
		c.Android.Arch = other.Android.Arch
	}

	if other.Python.Interpreter != "" {
		c.Python.Interpreter = other.Python.Interpreter
	}

	// Enabled can only be switched on here; switching an inherited "on"
	// back off goes through DROIDGATE_HISTORY_ENABLED.
	if other.History.Enabled {
		c.History.Enabled = true
	}
	if other.History.Path != "" {
		c.History.Path = other.History.Path
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}

	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
}

// ndkDirFromEnv resolves the NDK directory from the conventional
// environment variables, first match wins.
func ndkDirFromEnv() string {
	for _, name := range []string{"ANDROIDNDK", "ANDROID_NDK_HOME", "ANDROID_NDK_ROOT"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides. The generic
// Android build variables come first, then DROIDGATE_* on top.
func (c *Config) applyEnvOverrides() {
	if v := ndkDirFromEnv(); v != "" {
		c.NDK.Dir = v
	}
	if v := os.Getenv("ANDROIDAPI"); v != "" {
		if api, err := strconv.Atoi(v); err == nil && api > 0 {
			c.Android.API = api
		}
	}
	if v := os.Getenv("NDKAPI"); v != "" {
		if api, err := strconv.Atoi(v); err == nil && api > 0 {
			c.NDK.API = api
		}
	}

	if v := os.Getenv("DROIDGATE_NDK_DIR"); v != "" {
		c.NDK.Dir = v
	}
	if v := os.Getenv("DROIDGATE_NDK_API"); v != "" {
		if api, err := strconv.Atoi(v); err == nil && api > 0 {
			c.NDK.API = api
		}
	}
	if v := os.Getenv("DROIDGATE_ANDROID_API"); v != "" {
		if api, err := strconv.Atoi(v); err == nil && api > 0 {
			c.Android.API = api
		}
	}
	if v := os.Getenv("DROIDGATE_ARCH"); v != "" {
		c.Android.Arch = v
	}
	if v := os.Getenv("DROIDGATE_PYTHON"); v != "" {
		c.Python.Interpreter = v
	}
	if v := os.Getenv("DROIDGATE_HISTORY_ENABLED"); v != "" {
		c.History.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("DROIDGATE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("DROIDGATE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DROIDGATE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("DROIDGATE_COLOR"); v != "" {
		c.Output.Color = v
	}
}

// FindProjectRoot finds the project root directory.
// It looks for a .git directory or a .droidgate.yaml/.yml file by walking
// up the directory tree.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}

		if fileExists(filepath.Join(currentDir, ".droidgate.yaml")) ||
			fileExists(filepath.Join(currentDir, ".droidgate.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, return original directory
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Android.API < 1 {
		return fmt.Errorf("android.api must be a positive API level, got %d", c.Android.API)
	}
	if c.NDK.API < 1 {
		return fmt.Errorf("ndk.api must be a positive API level, got %d", c.NDK.API)
	}

	if _, err := android.Parse(c.Android.Arch); err != nil {
		return fmt.Errorf("android.arch: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("log.format must be 'text' or 'json', got %s", c.Log.Format)
	}

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[strings.ToLower(c.Output.Color)] {
		return fmt.Errorf("output.color must be 'auto', 'always', or 'never', got %s", c.Output.Color)
	}

	return nil
}

// Arch returns the configured architecture as a typed tag.
// Call Validate first; an unparseable tag falls back to the default.
func (c *Config) Arch() android.Arch {
	arch, err := android.Parse(c.Android.Arch)
	if err != nil {
		return android.ArchArm64V8a
	}
	return arch
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
