// Package retrieval is the calling layer around the scan gate: it
// synthesizes cheap answers when resident context suffices and
// escalates to the caller-supplied expensive scanner when it does not.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/entrhq/anchor/pkg/checkpoint"
	"github.com/entrhq/anchor/pkg/scangate"
)

// Scanner is the expensive tier-3 collaborator. Implementations live
// outside this module; a full scan is invoked only when the gate rules
// cheap context insufficient.
type Scanner interface {
	FullScan(ctx context.Context, keywords []string) ([]Result, error)
}

// Result is one retrieval hit, from either tier.
type Result struct {
	Identifier string  `json:"identifier"`
	Content    string  `json:"content"`
	Relevance  float64 `json:"relevance"`
}

// OutcomeSource states which tier produced the results.
type OutcomeSource string

const (
	SourceCheap    OutcomeSource = "cheap"
	SourceFullScan OutcomeSource = "full-scan"
)

// Outcome is the answer to a lookup, with the verdict that shaped it.
type Outcome struct {
	Verdict *scangate.Verdict `json:"verdict"`
	Source  OutcomeSource     `json:"source"`
	Results []Result          `json:"results"`
}

var timeNow = time.Now // injected for testability

// Retriever gates lookups and records retrieval activity on the live
// checkpoint.
type Retriever struct {
	store   checkpoint.Store
	scanner Scanner
}

// New creates a retriever. The scanner may be nil for callers that only
// ever want cheap answers; an escalating lookup then fails.
func New(store checkpoint.Store, scanner Scanner) *Retriever {
	return &Retriever{store: store, scanner: scanner}
}

// Lookup evaluates the gate and answers from cheap context or the full
// scanner. The outcome is recorded as recovery metadata on the live
// checkpoint for the key; a key with no live checkpoint skips the
// recording rather than failing the lookup.
func (r *Retriever) Lookup(ctx context.Context, key checkpoint.Key, keywords []string, recentWindow []scangate.RecentEntry, topicIndex *scangate.TopicIndex) (*Outcome, error) {
	verdict, err := scangate.Evaluate(keywords, recentWindow, topicIndex)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Verdict: verdict}
	if verdict.Sufficient {
		outcome.Source = SourceCheap
		outcome.Results = synthesize(verdict)
	} else {
		if r.scanner == nil {
			return nil, fmt.Errorf("%w: lookup requires a full scan but no scanner is configured", checkpoint.ErrInvalidArgument)
		}
		results, err := r.scanner.FullScan(ctx, keywords)
		if err != nil {
			return nil, fmt.Errorf("retrieval: full scan: %w", err)
		}
		outcome.Source = SourceFullScan
		outcome.Results = results
	}

	if err := r.record(ctx, key, keywords, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

// synthesize turns gate evidence into lightweight results, ordered as
// the verdict ranked them.
func synthesize(verdict *scangate.Verdict) []Result {
	results := make([]Result, 0, len(verdict.MatchedPatterns))
	for _, ev := range verdict.MatchedPatterns {
		results = append(results, Result{
			Identifier: ev.Identifier,
			Content:    fmt.Sprintf("%s match: %s", ev.Source, strings.Join(ev.MatchedKeywords, ", ")),
			Relevance:  ev.Relevance,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Relevance > results[j].Relevance })
	return results
}

// record stamps the lookup on the live checkpoint's recovery metadata.
func (r *Retriever) record(ctx context.Context, key checkpoint.Key, keywords []string, outcome *Outcome) error {
	retrieval := fmt.Sprintf("%s keywords=[%s] source=%s confidence=%.2f",
		timeNow().Format(time.RFC3339), strings.Join(keywords, " "), outcome.Source, outcome.Verdict.Confidence)
	_, err := r.store.Update(ctx, key, &checkpoint.PartialUpdate{
		RecoveryMetadata: &checkpoint.RecoveryMetadataUpdate{LastRetrieval: &retrieval},
	})
	if errors.Is(err, checkpoint.ErrNotFound) {
		// No live checkpoint to annotate; the lookup itself still stands.
		return nil
	}
	return err
}
