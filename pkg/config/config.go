// Package config holds the anchor tool configuration and its JSON
// file persistence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the tool's tunable settings. The scan gate's weights and
// threshold are deliberately not here: they are fixed policy constants
// in the scangate package.
type Config struct {
	// CheckpointDir is the directory the checkpoint store owns.
	CheckpointDir string `json:"checkpoint_dir"`

	// TopicIndexDir holds the tier-2 topic index files. May not exist.
	TopicIndexDir string `json:"topic_index_dir"`

	// TopicIndexPattern selects index files within TopicIndexDir.
	TopicIndexPattern string `json:"topic_index_pattern"`

	// MilestoneThresholds are the ascending token-usage trigger levels.
	MilestoneThresholds []int `json:"milestone_thresholds"`
}

// Default returns the default configuration rooted under ~/.anchor.
func Default() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: resolve home directory: %w", err)
	}
	base := filepath.Join(homeDir, ".anchor")
	return &Config{
		CheckpointDir:       filepath.Join(base, "checkpoints"),
		TopicIndexDir:       filepath.Join(base, "topics"),
		TopicIndexPattern:   "*.yaml",
		MilestoneThresholds: []int{100_000, 150_000, 180_000},
	}, nil
}

// Load reads configuration from path, layering the file's settings over
// the defaults. A missing file is not an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: create directory for %s: %w", path, err)
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
