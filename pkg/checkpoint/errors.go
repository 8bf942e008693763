package checkpoint

import "errors"

var (
	// ErrNotFound means no live checkpoint exists for the key. Callers
	// should fall back to CreateIfAbsent; this is never an I/O failure.
	ErrNotFound = errors.New("checkpoint: no live checkpoint for key")

	// ErrCorrupt means a checkpoint file exists but does not decode to a
	// valid checkpoint.
	ErrCorrupt = errors.New("checkpoint: corrupt checkpoint")

	// ErrStoreIO wraps file-system failures. Kept distinct from
	// ErrNotFound so callers can tell data loss from true absence.
	ErrStoreIO = errors.New("checkpoint: store I/O failure")

	// ErrInvalidArgument rejects unusable caller input such as an empty
	// topic hint or negative usage counters.
	ErrInvalidArgument = errors.New("checkpoint: invalid argument")
)
