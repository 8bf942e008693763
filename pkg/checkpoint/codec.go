package checkpoint

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse deserializes a raw checkpoint file into a Checkpoint.
// Fields this version does not know about land in the inline Extra maps
// and survive the next Serialize unchanged.
func Parse(raw []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Serialize renders a Checkpoint back to its on-disk byte representation.
func Serialize(c *Checkpoint) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: serialize %s: %w", c.ID, err)
	}
	return b, nil
}
