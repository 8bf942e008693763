// Package milestone fires at-most-once checkpoint updates when a
// session's token usage crosses fixed budget thresholds.
package milestone

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/entrhq/anchor/pkg/checkpoint"
)

// DefaultThresholds are the ascending token-usage levels that trigger a
// proactive checkpoint update.
var DefaultThresholds = []int{100_000, 150_000, 180_000}

var timeNow = time.Now // injected for testability

// Tracker decides threshold crossings against the persisted checkpoint.
// It keeps no state of its own: fire-once behavior comes entirely from
// comparing the stored last_token_checkpoint, so a tracker is safe to
// reconstruct on every call.
type Tracker struct {
	store      checkpoint.Store
	thresholds []int
}

// TriggerResult reports whether an observation fired and at which
// threshold.
type TriggerResult struct {
	Fired     bool
	Threshold int
}

// NewTracker creates a tracker over the given store. Thresholds are
// sorted and deduplicated; non-positive entries are dropped. An empty
// set falls back to DefaultThresholds.
func NewTracker(store checkpoint.Store, thresholds []int) *Tracker {
	cleaned := make([]int, 0, len(thresholds))
	seen := make(map[int]bool, len(thresholds))
	for _, t := range thresholds {
		if t <= 0 || seen[t] {
			continue
		}
		seen[t] = true
		cleaned = append(cleaned, t)
	}
	sort.Ints(cleaned)
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultThresholds...)
	}
	return &Tracker{store: store, thresholds: cleaned}
}

// Observe reports current token usage for the key. When usage crosses a
// not-yet-recorded threshold, the checkpoint is updated with the
// caller's extra changes plus the new last_token_checkpoint and an
// appended history entry. Repeated or lower usage values never re-fire
// a threshold that was already persisted.
func (t *Tracker) Observe(ctx context.Context, key checkpoint.Key, currentUsage int, extra *checkpoint.PartialUpdate) (TriggerResult, error) {
	if currentUsage < 0 {
		return TriggerResult{}, fmt.Errorf("%w: negative usage %d", checkpoint.ErrInvalidArgument, currentUsage)
	}

	cp, err := t.store.Retrieve(ctx, key)
	if err != nil {
		return TriggerResult{}, err
	}
	last := cp.ContextMetrics.LastTokenCheckpoint

	crossed := 0
	for _, threshold := range t.thresholds {
		if last < threshold && threshold <= currentUsage {
			crossed = threshold
		}
	}
	if crossed == 0 {
		return TriggerResult{Fired: false}, nil
	}

	update := mergeExtra(extra, currentUsage, crossed)
	if _, err := t.store.Update(ctx, key, update); err != nil {
		return TriggerResult{}, err
	}
	return TriggerResult{Fired: true, Threshold: crossed}, nil
}

// mergeExtra layers the tracker's own metric changes over the caller's
// extra updates without mutating them.
func mergeExtra(extra *checkpoint.PartialUpdate, usage, threshold int) *checkpoint.PartialUpdate {
	var update checkpoint.PartialUpdate
	if extra != nil {
		update = *extra
	}
	var metrics checkpoint.ContextMetricsUpdate
	if update.ContextMetrics != nil {
		metrics = *update.ContextMetrics
	}
	metrics.LastTokenCheckpoint = &usage
	metrics.AppendCheckpointHistory = append(append([]checkpoint.MilestoneEvent(nil), metrics.AppendCheckpointHistory...), checkpoint.MilestoneEvent{
		Timestamp: timeNow(),
		Threshold: threshold,
		Usage:     usage,
	})
	update.ContextMetrics = &metrics
	return &update
}
