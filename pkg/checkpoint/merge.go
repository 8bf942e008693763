package checkpoint

// PartialUpdate carries the caller's changes to a checkpoint's mutable
// sections. Each section merges shallowly: a nil pointer field leaves the
// stored value alone, a set one replaces it wholesale. The field set is
// closed — there is no path for a caller to smuggle in unknown fields.
type PartialUpdate struct {
	ContextMetrics   *ContextMetricsUpdate
	TaskState        *TaskStateUpdate
	RecoveryMetadata *RecoveryMetadataUpdate
	RuntimeState     map[string]string
}

// ContextMetricsUpdate patches the context_metrics section.
// AppendCheckpointHistory entries are appended, never replaced; the
// stored history is append-only.
type ContextMetricsUpdate struct {
	EstimatedTokens         *int
	MessageCount            *int
	LastTokenCheckpoint     *int
	AppendCheckpointHistory []MilestoneEvent
}

// TaskStateUpdate patches the task_state section. Slice fields replace
// the stored value when non-nil.
type TaskStateUpdate struct {
	CurrentTask   *string
	TodoList      []string
	FilesModified []string
	KeyDecisions  []string
}

// RecoveryMetadataUpdate patches the recovery_metadata section.
type RecoveryMetadataUpdate struct {
	LastRetrieval     *string
	ActiveProject     *string
	ContextSummary    *string
	ProtocolsToReload []string
}

// apply merges u into the checkpoint. Timestamps are the store's concern
// and are not touched here.
func (c *Checkpoint) apply(u *PartialUpdate) {
	if u == nil {
		return
	}
	if m := u.ContextMetrics; m != nil {
		if m.EstimatedTokens != nil {
			c.ContextMetrics.EstimatedTokens = *m.EstimatedTokens
		}
		if m.MessageCount != nil {
			c.ContextMetrics.MessageCount = *m.MessageCount
		}
		if m.LastTokenCheckpoint != nil {
			c.ContextMetrics.LastTokenCheckpoint = *m.LastTokenCheckpoint
		}
		c.ContextMetrics.CheckpointHistory = append(c.ContextMetrics.CheckpointHistory, m.AppendCheckpointHistory...)
	}
	if ts := u.TaskState; ts != nil {
		if ts.CurrentTask != nil {
			c.TaskState.CurrentTask = *ts.CurrentTask
		}
		if ts.TodoList != nil {
			c.TaskState.TodoList = ts.TodoList
		}
		if ts.FilesModified != nil {
			c.TaskState.FilesModified = dedupe(ts.FilesModified)
		}
		if ts.KeyDecisions != nil {
			c.TaskState.KeyDecisions = ts.KeyDecisions
		}
	}
	if rm := u.RecoveryMetadata; rm != nil {
		if rm.LastRetrieval != nil {
			c.RecoveryMetadata.LastRetrieval = *rm.LastRetrieval
		}
		if rm.ActiveProject != nil {
			c.RecoveryMetadata.ActiveProject = *rm.ActiveProject
		}
		if rm.ContextSummary != nil {
			c.RecoveryMetadata.ContextSummary = *rm.ContextSummary
		}
		if rm.ProtocolsToReload != nil {
			c.RecoveryMetadata.ProtocolsToReload = rm.ProtocolsToReload
		}
	}
	if len(u.RuntimeState) > 0 {
		if c.RuntimeState == nil {
			c.RuntimeState = make(map[string]string, len(u.RuntimeState))
		}
		for k, v := range u.RuntimeState {
			c.RuntimeState[k] = v
		}
	}
}

// dedupe keeps the first occurrence of each path, preserving order.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
