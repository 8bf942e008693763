package checkpoint

import (
	"fmt"
	"time"
)

// Key identifies the one live checkpoint for a logical session:
// the calendar date the session started plus the derived topic slug.
type Key struct {
	Date string // YYYY-MM-DD
	Slug string
}

// String renders the key as the filename prefix shared by every
// generation of the checkpoint.
func (k Key) String() string {
	return k.Date + "-" + k.Slug
}

// CompactionEvent records one compaction of the checkpoint's context.
// The history is append-only; counters are never reused.
type CompactionEvent struct {
	Counter      int       `yaml:"counter" json:"counter"`
	Timestamp    time.Time `yaml:"timestamp" json:"timestamp"`
	Trigger      string    `yaml:"trigger" json:"trigger"`
	TokensBefore int       `yaml:"tokens_before" json:"tokens_before"`
	TokensAfter  int       `yaml:"tokens_after" json:"tokens_after"`
}

// MilestoneEvent records a token-budget threshold crossing that
// triggered a proactive checkpoint update.
type MilestoneEvent struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Threshold int       `yaml:"threshold" json:"threshold"`
	Usage     int       `yaml:"usage" json:"usage"`
}

// ContextMetrics tracks the token footprint of the surrounding session.
type ContextMetrics struct {
	EstimatedTokens     int              `yaml:"estimated_tokens" json:"estimated_tokens"`
	MessageCount        int              `yaml:"message_count" json:"message_count"`
	LastTokenCheckpoint int              `yaml:"last_token_checkpoint" json:"last_token_checkpoint"`
	CheckpointHistory   []MilestoneEvent `yaml:"checkpoint_history,omitempty" json:"checkpoint_history,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// TaskState is the in-progress work description the checkpoint protects.
type TaskState struct {
	CurrentTask   string   `yaml:"current_task" json:"current_task"`
	TodoList      []string `yaml:"todo_list,omitempty" json:"todo_list,omitempty"`
	FilesModified []string `yaml:"files_modified,omitempty" json:"files_modified,omitempty"`
	KeyDecisions  []string `yaml:"key_decisions,omitempty" json:"key_decisions,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// RecoveryMetadata holds what a fresh session needs to resume the work.
type RecoveryMetadata struct {
	LastRetrieval     string   `yaml:"last_retrieval" json:"last_retrieval"`
	ActiveProject     string   `yaml:"active_project" json:"active_project"`
	ContextSummary    string   `yaml:"context_summary" json:"context_summary"`
	ProtocolsToReload []string `yaml:"protocols_to_reload,omitempty" json:"protocols_to_reload,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// Checkpoint is a durable snapshot of in-progress session state.
// RuntimeState is opaque caller environment metadata; the Extra maps
// carry fields written by newer versions so they survive a rewrite.
type Checkpoint struct {
	ID             string            `yaml:"id" json:"id"`
	CreatedAt      time.Time         `yaml:"created_at" json:"created_at"`
	LastUpdatedAt  time.Time         `yaml:"last_updated_at" json:"last_updated_at"`
	CompactCounter int               `yaml:"compact_counter" json:"compact_counter"`
	CompactHistory []CompactionEvent `yaml:"compact_history,omitempty" json:"compact_history,omitempty"`

	ContextMetrics   ContextMetrics    `yaml:"context_metrics" json:"context_metrics"`
	TaskState        TaskState         `yaml:"task_state" json:"task_state"`
	RecoveryMetadata RecoveryMetadata  `yaml:"recovery_metadata" json:"recovery_metadata"`
	RuntimeState     map[string]string `yaml:"runtime_state,omitempty" json:"runtime_state,omitempty"`

	Extra map[string]any `yaml:",inline" json:"-"`
}

// Validate ensures all required checkpoint fields are populated.
func (c *Checkpoint) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrCorrupt)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrCorrupt)
	}
	if c.CompactCounter < 0 {
		return fmt.Errorf("%w: negative compact counter %d", ErrCorrupt, c.CompactCounter)
	}
	for _, ev := range c.CompactHistory {
		if ev.Counter < 0 {
			return fmt.Errorf("%w: negative counter in compact history", ErrCorrupt)
		}
	}
	return nil
}

// NewID derives the immutable checkpoint identity from the logical key
// and the creation instant. The same inputs always produce the same ID.
func NewID(key Key, createdAt time.Time) string {
	return fmt.Sprintf("chk_%s-%s", key.String(), createdAt.Format("150405"))
}
