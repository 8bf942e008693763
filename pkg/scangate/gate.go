// Package scangate decides whether already-resident context answers a
// lookup well enough to skip an expensive exhaustive scan. It is an
// admission-control heuristic, not a search ranker: the only output a
// caller acts on is the sufficiency verdict.
package scangate

import (
	"errors"
	"sort"
	"strings"
)

// Policy constants. These are fixed tuning knobs, named so they can be
// adjusted without touching the algorithm.
const (
	// Tier1Weight scales the recent-window relevance component.
	Tier1Weight = 0.6
	// Tier2Weight scales the topic-index relevance component.
	Tier2Weight = 0.4
	// SufficiencyThreshold is the blended confidence at or above which
	// the expensive scan is skipped.
	SufficiencyThreshold = 0.70
	// MaxEvidence bounds how many supporting matches a verdict carries.
	MaxEvidence = 5
)

// ErrNoKeywords rejects evaluation with an empty keyword set; a
// relevance ratio over zero keywords is undefined.
var ErrNoKeywords = errors.New("scangate: empty keyword set")

// Source labels where a piece of evidence came from.
type Source string

const (
	SourceRecent Source = "recent"
	SourceTopic  Source = "topic"
)

// Evidence is one cheap-context record that matched part of the query.
type Evidence struct {
	Source          Source   `json:"source"`
	Identifier      string   `json:"identifier"`
	Relevance       float64  `json:"relevance"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// Verdict is the gate's decision. It is computed fresh per call and
// never persisted.
type Verdict struct {
	Sufficient      bool       `json:"sufficient"`
	Confidence      float64    `json:"confidence"`
	MatchedPatterns []Evidence `json:"matched_patterns"`
	Tier1Relevance  float64    `json:"tier1_relevance"`
	Tier2Relevance  float64    `json:"tier2_relevance"`
}

// RecentEntry is one record from the caller-supplied recent-activity
// window (tier 1).
type RecentEntry struct {
	ID       string   `json:"id"`
	Task     string   `json:"task,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

func (e RecentEntry) textFields() []string {
	return append([]string{e.Task, e.Summary}, e.Keywords...)
}

// TopicEntry is one record of the topic index (tier 2).
type TopicEntry struct {
	Topic      string   `yaml:"topic"`
	Summary    string   `yaml:"summary"`
	Keywords   []string `yaml:"keywords"`
	Checkpoint string   `yaml:"checkpoint,omitempty"`
}

func (e TopicEntry) textFields() []string {
	return append([]string{e.Topic, e.Summary}, e.Keywords...)
}

// TopicIndex is the keyed tier-2 structure. A nil index is tolerated:
// the tier scores zero and evaluation proceeds.
type TopicIndex struct {
	Topics []TopicEntry
}

// Evaluate scores the keyword set against both cheap tiers and returns
// the blended verdict. Each matching entry contributes
// matchCount/len(keywords) to its tier's sum; tier sums clamp to 1.0
// after accumulation, so several partial matches can saturate a tier the
// same as one full match. Empty windows and missing indexes degrade to
// lower scores, never errors.
func Evaluate(keywords []string, recentWindow []RecentEntry, topicIndex *TopicIndex) (*Verdict, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	var evidence []Evidence

	tier1 := 0.0
	for _, entry := range recentWindow {
		matched := matchKeywords(keywords, entry.textFields())
		if len(matched) == 0 {
			continue
		}
		relevance := float64(len(matched)) / float64(len(keywords))
		tier1 += relevance
		evidence = append(evidence, Evidence{
			Source:          SourceRecent,
			Identifier:      entry.ID,
			Relevance:       relevance,
			MatchedKeywords: matched,
		})
	}
	tier1 = clamp01(tier1)

	tier2 := 0.0
	if topicIndex != nil {
		for _, entry := range topicIndex.Topics {
			matched := matchKeywords(keywords, entry.textFields())
			if len(matched) == 0 {
				continue
			}
			relevance := float64(len(matched)) / float64(len(keywords))
			tier2 += relevance
			evidence = append(evidence, Evidence{
				Source:          SourceTopic,
				Identifier:      entry.Topic,
				Relevance:       relevance,
				MatchedKeywords: matched,
			})
		}
	}
	tier2 = clamp01(tier2)

	confidence := Tier1Weight*tier1 + Tier2Weight*tier2

	// Top evidence by relevance. The stable sort preserves insertion
	// order on ties: tier-1 entries precede tier-2, each in input order.
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Relevance > evidence[j].Relevance
	})
	if len(evidence) > MaxEvidence {
		evidence = evidence[:MaxEvidence]
	}

	return &Verdict{
		Sufficient:      confidence >= SufficiencyThreshold,
		Confidence:      confidence,
		MatchedPatterns: evidence,
		Tier1Relevance:  tier1,
		Tier2Relevance:  tier2,
	}, nil
}

// matchKeywords returns the input keywords found as case-insensitive
// substrings of any of the fields, in input order.
func matchKeywords(keywords, fields []string) []string {
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	var matched []string
	for _, kw := range keywords {
		needle := strings.ToLower(kw)
		if needle == "" {
			continue
		}
		for _, f := range lowered {
			if strings.Contains(f, needle) {
				matched = append(matched, kw)
				break
			}
		}
	}
	return matched
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
