package checkpoint

import "context"

// Store is the read/write interface for persisted checkpoints.
type Store interface {
	// CreateIfAbsent ensures a live checkpoint exists for today's
	// (date, slug) key. It is idempotent: when one already exists it is
	// returned unchanged with created=false.
	CreateIfAbsent(ctx context.Context, topicHint string, initial *PartialUpdate) (cp *Checkpoint, created bool, err error)

	// Retrieve returns the live checkpoint for the key, resolving
	// transient duplicates by the highest decodable compact counter.
	Retrieve(ctx context.Context, key Key) (*Checkpoint, error)

	// Update merges a partial update into the live checkpoint and
	// rewrites it in place.
	Update(ctx context.Context, key Key, update *PartialUpdate) (*Checkpoint, error)

	// Compact retires the live generation: the successor file is written
	// first and the predecessor removed only after a confirmed write.
	Compact(ctx context.Context, key Key, trigger string, tokensBefore, tokensAfter int) (*Checkpoint, error)
}
