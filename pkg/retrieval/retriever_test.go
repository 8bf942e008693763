package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/entrhq/anchor/pkg/checkpoint"
	"github.com/entrhq/anchor/pkg/scangate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	calls   int
	results []Result
	err     error
}

func (f *fakeScanner) FullScan(_ context.Context, _ []string) ([]Result, error) {
	f.calls++
	return f.results, f.err
}

func newLookupStore(t *testing.T) (*checkpoint.FileStore, checkpoint.Key) {
	t.Helper()
	fs, err := checkpoint.NewFileStore(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)
	_, _, err = fs.CreateIfAbsent(context.Background(), "retrieval session", nil)
	require.NoError(t, err)
	return fs, fs.KeyFor("retrieval session")
}

func saturatedWindow(keywords ...string) []scangate.RecentEntry {
	return []scangate.RecentEntry{{ID: "recent-1", Keywords: keywords}}
}

func saturatedIndex(keywords ...string) *scangate.TopicIndex {
	return &scangate.TopicIndex{Topics: []scangate.TopicEntry{{Topic: "topic-1", Keywords: keywords}}}
}

// TestLookupSufficientSkipsScanner: a confident verdict answers from
// cheap context and never touches the expensive tier.
func TestLookupSufficientSkipsScanner(t *testing.T) {
	fs, key := newLookupStore(t)
	scanner := &fakeScanner{}
	r := New(fs, scanner)

	outcome, err := r.Lookup(context.Background(), key, []string{"patient", "hipaa"},
		saturatedWindow("patient", "hipaa"), saturatedIndex("patient", "hipaa"))
	require.NoError(t, err)

	assert.Equal(t, SourceCheap, outcome.Source)
	assert.True(t, outcome.Verdict.Sufficient)
	assert.Zero(t, scanner.calls)
	require.NotEmpty(t, outcome.Results)
	assert.Equal(t, "recent-1", outcome.Results[0].Identifier)
}

// TestLookupInsufficientEscalates delegates to the scanner and returns
// its results.
func TestLookupInsufficientEscalates(t *testing.T) {
	fs, key := newLookupStore(t)
	scanner := &fakeScanner{results: []Result{{Identifier: "archive-9", Content: "full text", Relevance: 0.9}}}
	r := New(fs, scanner)

	outcome, err := r.Lookup(context.Background(), key, []string{"patient", "hipaa"},
		saturatedWindow("unrelated"), nil)
	require.NoError(t, err)

	assert.Equal(t, SourceFullScan, outcome.Source)
	assert.Equal(t, 1, scanner.calls)
	require.Len(t, outcome.Results, 1)
	assert.Equal(t, "archive-9", outcome.Results[0].Identifier)
}

// TestLookupRecordsRetrieval stamps recovery metadata on the live
// checkpoint.
func TestLookupRecordsRetrieval(t *testing.T) {
	fs, key := newLookupStore(t)
	r := New(fs, &fakeScanner{})

	_, err := r.Lookup(context.Background(), key, []string{"patient", "hipaa"},
		saturatedWindow("patient", "hipaa"), saturatedIndex("patient", "hipaa"))
	require.NoError(t, err)

	cp, err := fs.Retrieve(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, cp.RecoveryMetadata.LastRetrieval, "keywords=[patient hipaa]")
	assert.Contains(t, cp.RecoveryMetadata.LastRetrieval, "source=cheap")
}

// TestLookupMissingCheckpointStillAnswers: recording is best-effort,
// the lookup result stands.
func TestLookupMissingCheckpointStillAnswers(t *testing.T) {
	fs, _ := newLookupStore(t)
	r := New(fs, &fakeScanner{})

	outcome, err := r.Lookup(context.Background(), checkpoint.Key{Date: "2026-08-30", Slug: "absent"},
		[]string{"patient", "hipaa"}, saturatedWindow("patient", "hipaa"), saturatedIndex("patient", "hipaa"))
	require.NoError(t, err)
	assert.Equal(t, SourceCheap, outcome.Source)
}

// TestLookupErrors covers keyword validation, scanner failures, and a
// missing scanner.
func TestLookupErrors(t *testing.T) {
	fs, key := newLookupStore(t)
	ctx := context.Background()

	_, err := New(fs, &fakeScanner{}).Lookup(ctx, key, nil, nil, nil)
	assert.ErrorIs(t, err, scangate.ErrNoKeywords)

	scanErr := errors.New("archive unreachable")
	_, err = New(fs, &fakeScanner{err: scanErr}).Lookup(ctx, key, []string{"patient"}, nil, nil)
	assert.ErrorIs(t, err, scanErr)

	_, err = New(fs, nil).Lookup(ctx, key, []string{"patient"}, nil, nil)
	assert.ErrorIs(t, err, checkpoint.ErrInvalidArgument)
}
