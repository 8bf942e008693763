// Package tokens estimates the token footprint of session text for the
// checkpoint's context metrics.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the BPE vocabulary used for counting. The count feeds
// a budget heuristic, so exact model alignment is not required.
const encodingName = "cl100k_base"

// Estimator counts tokens with a tiktoken encoding when one is
// available and falls back to a character heuristic when it is not.
type Estimator struct {
	enc *tiktoken.Tiktoken
}

// NewEstimator initializes the tiktoken encoding. On failure it returns
// a heuristic-only estimator along with the error so callers can log
// the degradation and keep going.
func NewEstimator() (*Estimator, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return &Estimator{}, fmt.Errorf("tokens: init encoding %s: %w", encodingName, err)
	}
	return &Estimator{enc: enc}, nil
}

// Count returns the estimated token count for the text. A nil receiver
// or missing encoding uses the chars/4 approximation.
func (e *Estimator) Count(text string) int {
	if e == nil || e.enc == nil {
		return len(text) / 4
	}
	return len(e.enc.Encode(text, nil, nil))
}
