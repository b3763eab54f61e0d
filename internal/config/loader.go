package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bytemomo/moray/internal/candidate"
	"bytemomo/moray/internal/session"

	"gopkg.in/yaml.v3"
)

// Loader provides functionality to load and validate configuration files
type Loader struct {
	basePath string
}

// NewLoader creates a new configuration loader with the specified base path
func NewLoader(basePath string) *Loader {
	if basePath == "" {
		basePath = "."
	}
	return &Loader{
		basePath: basePath,
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	setDefaults(c)
	return c
}

// Load reads, expands and validates the configuration at path. An empty path
// yields the defaults.
func (l *Loader) Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	fullPath := l.resolvePath(path)

	data, err := l.readFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", fullPath, err)
	}

	// Expand environment variables
	data = l.expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", fullPath, err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %s: %w", fullPath, err)
	}

	return &cfg, nil
}

// resolvePath resolves a path relative to the loader's base path
func (l *Loader) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.basePath, path)
}

// readFile reads a file and returns its contents
func (l *Loader) readFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}

	return os.ReadFile(path)
}

// expandEnvVars expands environment variables in the configuration data
func (l *Loader) expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// setDefaults fills every unset field
func setDefaults(c *Config) {
	if c.Attack.DeauthDuration == 0 {
		c.Attack.DeauthDuration = 30 * time.Second
	}
	if c.Attack.BurstInterval == 0 {
		c.Attack.BurstInterval = 10 * time.Second
	}
	if c.Attack.PollInterval == 0 {
		c.Attack.PollInterval = time.Second
	}
	if c.Attack.PollAttempts == 0 {
		c.Attack.PollAttempts = 30
	}

	if c.Capture.Dir == "" {
		c.Capture.Dir = "captures"
	}
	if c.Capture.MinSize == 0 {
		c.Capture.MinSize = session.DefaultMinArtifactSize
	}
	if c.Capture.FrameCounter == "" {
		c.Capture.FrameCounter = session.CounterTshark
	}

	if c.Wordlist.Path == "" {
		c.Wordlist.Path = "wordlist.txt"
	}
	if c.Wordlist.Size == 0 {
		c.Wordlist.Size = candidate.DefaultWordlistSize
	}

	if c.Tools.Capture == "" {
		c.Tools.Capture = session.DefaultCaptureTool
	}
	if c.Tools.Deauth == "" {
		c.Tools.Deauth = session.DefaultDeauthTool
	}
	if c.Tools.Verify == "" {
		c.Tools.Verify = session.DefaultVerifyTool
	}
	if c.Tools.Inspect == "" {
		c.Tools.Inspect = c.Tools.Verify
	}
	if c.Tools.Frames == "" {
		c.Tools.Frames = session.DefaultFramesTool
	}

	if c.Report.Dir == "" {
		c.Report.Dir = "reports"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
