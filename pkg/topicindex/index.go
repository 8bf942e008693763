// Package topicindex loads the tier-2 topic index the scan gate reads.
// The index is external data this core only consumes; absence is normal
// and reported as a nil index, not an error.
package topicindex

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/anchor/pkg/scangate"
)

// DefaultPattern selects which files in the index directory are read.
const DefaultPattern = "*.yaml"

// indexFile is the on-disk shape of one topic index document.
type indexFile struct {
	Topics []scangate.TopicEntry `yaml:"topics"`
}

// Load reads every index file in dir whose name matches pattern and
// aggregates the topic entries. A missing directory yields a nil index.
// Individual corrupt files are skipped; a topic index is advisory data,
// and a bad entry must not block gating.
func Load(dir, pattern string) (*scangate.TopicIndex, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("topicindex: bad file pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("topicindex: list %s: %w", dir, err)
	}

	var index scangate.TopicIndex
	for _, e := range entries {
		if e.IsDir() || !matcher.Match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("topicindex: skipping unreadable index file", "path", path, "err", err)
			continue
		}
		var f indexFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			slog.Debug("topicindex: skipping corrupt index file", "path", path, "err", err)
			continue
		}
		index.Topics = append(index.Topics, f.Topics...)
	}
	if len(index.Topics) == 0 {
		return nil, nil
	}
	return &index, nil
}
