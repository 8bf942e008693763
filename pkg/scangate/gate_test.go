package scangate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEvaluateEmptyKeywords: a relevance ratio over zero keywords is
// undefined, so the gate refuses.
func TestEvaluateEmptyKeywords(t *testing.T) {
	_, err := Evaluate(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoKeywords)

	_, err = Evaluate([]string{}, []RecentEntry{{ID: "e1"}}, nil)
	assert.ErrorIs(t, err, ErrNoKeywords)
}

// TestEvaluateDegradesGracefully: empty window and missing index are
// low scores, not errors.
func TestEvaluateDegradesGracefully(t *testing.T) {
	v, err := Evaluate([]string{"patient"}, nil, nil)
	require.NoError(t, err)
	assert.False(t, v.Sufficient)
	assert.Zero(t, v.Confidence)
	assert.Zero(t, v.Tier1Relevance)
	assert.Zero(t, v.Tier2Relevance)
	assert.Empty(t, v.MatchedPatterns)
}

// TestEvaluatePartialMatchScenario: one window entry matching one of
// two keywords scores tier1 = 0.5, confidence 0.30, insufficient.
func TestEvaluatePartialMatchScenario(t *testing.T) {
	window := []RecentEntry{
		{ID: "recent-1", Keywords: []string{"patient", "record"}},
	}

	v, err := Evaluate([]string{"patient", "hipaa"}, window, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, v.Tier1Relevance, 1e-9)
	assert.Zero(t, v.Tier2Relevance)
	assert.InDelta(t, 0.30, v.Confidence, 1e-9)
	assert.False(t, v.Sufficient)
	require.Len(t, v.MatchedPatterns, 1)
	assert.Equal(t, SourceRecent, v.MatchedPatterns[0].Source)
	assert.Equal(t, []string{"patient"}, v.MatchedPatterns[0].MatchedKeywords)
}

// TestEvaluateSaturation: two half-matching entries accumulate to a
// full tier score, same as one complete match.
func TestEvaluateSaturation(t *testing.T) {
	window := []RecentEntry{
		{ID: "half-a", Keywords: []string{"patient"}},
		{ID: "half-b", Keywords: []string{"hipaa"}},
		{ID: "half-c", Keywords: []string{"patient"}},
	}

	v, err := Evaluate([]string{"patient", "hipaa"}, window, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Tier1Relevance)
}

// TestEvaluateThresholdBoundary pins the fixed policy constants.
func TestEvaluateThresholdBoundary(t *testing.T) {
	full := func(id string) RecentEntry {
		return RecentEntry{ID: id, Keywords: []string{"alpha", "beta"}}
	}
	fullTopic := TopicEntry{Topic: "both", Keywords: []string{"alpha", "beta"}}

	t.Run("both tiers saturated is sufficient", func(t *testing.T) {
		v, err := Evaluate([]string{"alpha", "beta"},
			[]RecentEntry{full("r1")},
			&TopicIndex{Topics: []TopicEntry{fullTopic}})
		require.NoError(t, err)
		assert.Equal(t, 1.0, v.Confidence)
		assert.True(t, v.Sufficient)
	})

	t.Run("half tier1 alone is insufficient", func(t *testing.T) {
		v, err := Evaluate([]string{"alpha", "missing"},
			[]RecentEntry{{ID: "r1", Keywords: []string{"alpha"}}}, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.30, v.Confidence, 1e-9)
		assert.False(t, v.Sufficient)
	})

	t.Run("tier1 alone saturated is insufficient", func(t *testing.T) {
		// 0.6 < 0.70: the recent window by itself can never clear the bar.
		v, err := Evaluate([]string{"alpha"},
			[]RecentEntry{full("r1")}, nil)
		require.NoError(t, err)
		assert.InDelta(t, Tier1Weight, v.Confidence, 1e-9)
		assert.False(t, v.Sufficient)
	})

	t.Run("saturated tier1 plus quarter tier2 crosses", func(t *testing.T) {
		// 0.6 + 0.4*0.25 = 0.70, inclusive threshold.
		v, err := Evaluate([]string{"a1", "b2", "c3", "d4"},
			[]RecentEntry{{ID: "r1", Keywords: []string{"a1", "b2", "c3", "d4"}}},
			&TopicIndex{Topics: []TopicEntry{{Topic: "partial", Keywords: []string{"a1"}}}})
		require.NoError(t, err)
		assert.InDelta(t, SufficiencyThreshold, v.Confidence, 1e-9)
		assert.True(t, v.Sufficient)
	})
}

// TestEvaluateCaseInsensitiveSubstring covers the matching rule across
// an entry's text fields.
func TestEvaluateCaseInsensitiveSubstring(t *testing.T) {
	window := []RecentEntry{
		{ID: "r1", Task: "Reviewing PATIENT intake flow", Summary: "notes on HIPAA-adjacent constraints"},
	}

	v, err := Evaluate([]string{"patient", "hipaa"}, window, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Tier1Relevance)
	require.Len(t, v.MatchedPatterns, 1)
	assert.Equal(t, []string{"patient", "hipaa"}, v.MatchedPatterns[0].MatchedKeywords)
}

// TestEvaluateEvidenceOrdering: top-K by relevance, ties broken
// tier1-before-tier2 then input order.
func TestEvaluateEvidenceOrdering(t *testing.T) {
	keywords := []string{"alpha", "beta"}
	var window []RecentEntry
	for i := 0; i < 4; i++ {
		window = append(window, RecentEntry{
			ID:       fmt.Sprintf("recent-%d", i),
			Keywords: []string{"alpha"},
		})
	}
	index := &TopicIndex{Topics: []TopicEntry{
		{Topic: "topic-full", Keywords: []string{"alpha", "beta"}},
		{Topic: "topic-half", Keywords: []string{"beta"}},
	}}

	v, err := Evaluate(keywords, window, index)
	require.NoError(t, err)
	require.Len(t, v.MatchedPatterns, MaxEvidence)

	// The full topic match ranks first; the four half-relevance recent
	// entries beat the equally-relevant topic entry on source order.
	assert.Equal(t, "topic-full", v.MatchedPatterns[0].Identifier)
	for i := 1; i < MaxEvidence; i++ {
		assert.Equal(t, SourceRecent, v.MatchedPatterns[i].Source)
		assert.Equal(t, fmt.Sprintf("recent-%d", i-1), v.MatchedPatterns[i].Identifier)
	}
}

// TestEvaluateBlankKeywordIgnoredInMatching: blank strings cannot match
// but still count toward the denominator.
func TestEvaluateBlankKeywordIgnoredInMatching(t *testing.T) {
	v, err := Evaluate([]string{"alpha", ""},
		[]RecentEntry{{ID: "r1", Keywords: []string{"alpha"}}}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v.Tier1Relevance, 1e-9)
}
