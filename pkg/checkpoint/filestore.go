package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const fileExt = ".yaml"

var timeNow = time.Now // injected for testability

// FileStore is a local file-system implementation of Store. Each
// checkpoint generation is one file named
// {date}-{slug}-{HHMMSS}-{counter}.yaml; the live generation is the one
// with the highest counter that decodes. No locks are taken: safety
// rests on write-new-then-delete-old ordering, the highest-counter
// tie-break, and idempotent creation. Concurrent writers to the same key
// may silently lose the lower-counter branch; the intended deployment is
// a single active writer per key.
type FileStore struct {
	dir string
}

// NewFileStore creates the checkpoint directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: init directory %s: %v", ErrStoreIO, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store owns.
func (fs *FileStore) Dir() string { return fs.dir }

// KeyFor derives the logical key CreateIfAbsent would use for the hint
// today. Exposed so callers can address follow-up operations.
func (fs *FileStore) KeyFor(topicHint string) Key {
	return Key{Date: timeNow().Format("2006-01-02"), Slug: Slug(topicHint)}
}

// CreateIfAbsent implements Store.
func (fs *FileStore) CreateIfAbsent(ctx context.Context, topicHint string, initial *PartialUpdate) (*Checkpoint, bool, error) {
	if strings.TrimSpace(topicHint) == "" {
		return nil, false, fmt.Errorf("%w: empty topic hint", ErrInvalidArgument)
	}
	now := timeNow()
	key := Key{Date: now.Format("2006-01-02"), Slug: Slug(topicHint)}

	existing, err := fs.Retrieve(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	cp := &Checkpoint{
		ID:            NewID(key, now),
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	cp.apply(initial)
	if err := fs.writeGeneration(key, now, cp); err != nil {
		return nil, false, err
	}
	return cp, true, nil
}

// Retrieve implements Store.
func (fs *FileStore) Retrieve(_ context.Context, key Key) (*Checkpoint, error) {
	_, cp, err := fs.liveFile(key)
	return cp, err
}

// Update implements Store.
func (fs *FileStore) Update(_ context.Context, key Key, update *PartialUpdate) (*Checkpoint, error) {
	path, cp, err := fs.liveFile(key)
	if err != nil {
		return nil, err
	}
	cp.apply(update)
	cp.LastUpdatedAt = timeNow()
	if err := fs.writeFile(path, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// Compact implements Store. The successor is written under the
// incremented counter before the predecessor is touched, so a crash at
// any point leaves the old file alone or both files briefly coexisting —
// never zero checkpoints.
func (fs *FileStore) Compact(_ context.Context, key Key, trigger string, tokensBefore, tokensAfter int) (*Checkpoint, error) {
	oldPath, cp, err := fs.liveFile(key)
	if err != nil {
		return nil, err
	}
	now := timeNow()
	cp.CompactCounter++
	cp.LastUpdatedAt = now
	cp.CompactHistory = append(cp.CompactHistory, CompactionEvent{
		Counter:      cp.CompactCounter,
		Timestamp:    now,
		Trigger:      trigger,
		TokensBefore: tokensBefore,
		TokensAfter:  tokensAfter,
	})

	if err := fs.writeGeneration(key, now, cp); err != nil {
		return nil, err
	}
	// The new generation is durable; a failed removal only leaves the
	// pair coexisting, which the highest-counter tie-break resolves.
	if err := os.Remove(oldPath); err != nil {
		slog.Warn("checkpoint: could not remove retired generation", "path", oldPath, "err", err)
	}
	return cp, nil
}

// liveFile locates the live generation for the key: the candidate with
// the highest counter that fully decodes. Undecodable higher-counter
// files (a crashed writer's leftovers) are skipped and overwritten by
// the next compaction.
func (fs *FileStore) liveFile(key Key) (string, *Checkpoint, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return "", nil, fmt.Errorf("%w: list %s: %v", ErrStoreIO, fs.dir, err)
	}

	type candidate struct {
		name    string
		counter int
	}
	prefix := key.String() + "-"
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		counter, ok := parseGeneration(e.Name(), prefix)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), counter: counter})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].counter > candidates[j].counter })

	sawCorrupt := false
	for _, c := range candidates {
		path := filepath.Join(fs.dir, c.name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("%w: read %s: %v", ErrStoreIO, path, err)
		}
		cp, err := Parse(raw)
		if err != nil {
			slog.Debug("checkpoint: skipping undecodable generation", "path", path, "err", err)
			sawCorrupt = true
			continue
		}
		return path, cp, nil
	}
	if sawCorrupt {
		return "", nil, fmt.Errorf("%w: no decodable generation for %s", ErrCorrupt, key)
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// writeGeneration writes cp under the filename of its current counter,
// stamped with the generation time.
func (fs *FileStore) writeGeneration(key Key, at time.Time, cp *Checkpoint) error {
	name := fmt.Sprintf("%s-%s-%d%s", key.String(), at.Format("150405"), cp.CompactCounter, fileExt)
	return fs.writeFile(filepath.Join(fs.dir, name), cp)
}

// writeFile persists atomically via a temporary file and rename.
func (fs *FileStore) writeFile(path string, cp *Checkpoint) error {
	b, err := Serialize(cp)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("%w: write temp file: %v", ErrStoreIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("%w: atomic rename %s: %v", ErrStoreIO, path, err)
	}
	return nil
}

// parseGeneration extracts the compact counter from a filename of the
// form {prefix}HHMMSS-{counter}.yaml. Slugs contain hyphens, so a key
// that happens to prefix a longer slug is rejected by requiring exactly
// a six-digit time and a bare integer after the prefix.
func parseGeneration(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileExt) {
		return 0, false
	}
	rest := strings.TrimSuffix(name[len(prefix):], fileExt)
	parts := strings.Split(rest, "-")
	if len(parts) != 2 || len(parts[0]) != 6 {
		return 0, false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return 0, false
	}
	counter, err := strconv.Atoi(parts[1])
	if err != nil || counter < 0 {
		return 0, false
	}
	return counter, true
}
