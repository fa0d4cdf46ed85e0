package main

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSafety struct {
	safe  bool
	err   error
	calls atomic.Int32
}

func (s *stubSafety) Check(ctx context.Context, path string) (bool, error) {
	s.calls.Add(1)
	return s.safe, s.err
}

type stubTagger struct {
	tags []string
	err  error
}

func (s *stubTagger) Tag(ctx context.Context, path string) ([]string, error) {
	return s.tags, s.err
}

type recordingLedger struct {
	mu      sync.Mutex
	records []ProvenanceRecord
	err     error
}

func (l *recordingLedger) Record(ctx context.Context, owner, contentID string) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	l.records = append(l.records, ProvenanceRecord{Owner: owner, ContentID: contentID})
	l.mu.Unlock()
	return nil
}

type countingStore struct {
	ContentStore
	putCalls atomic.Int32
}

func (c *countingStore) Put(ctx context.Context, localPath string) (string, error) {
	c.putCalls.Add(1)
	return c.ContentStore.Put(ctx, localPath)
}

type pipelineFixture struct {
	pipeline *UploadPipeline
	store    *countingStore
	ledger   *recordingLedger
	safety   *stubSafety
	tempDir  string
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	local, err := NewLocalContentStore(t.TempDir())
	require.NoError(t, err)

	store := &countingStore{ContentStore: local}
	ledger := &recordingLedger{}
	safety := &stubSafety{safe: true}
	tagger := &stubTagger{tags: []string{"text/plain", "txt"}}
	pool := NewWorkerPool(4)
	t.Cleanup(pool.Close)
	tempDir := t.TempDir()

	return &pipelineFixture{
		pipeline: NewUploadPipeline(store, ledger, safety, tagger, pool, tempDir),
		store:    store,
		ledger:   ledger,
		safety:   safety,
		tempDir:  tempDir,
	}
}

func (f *pipelineFixture) scratchCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	return len(entries)
}

func TestPipelineHappyPath(t *testing.T) {
	f := newPipelineFixture(t)

	result, err := f.pipeline.Run(context.Background(), "bob", "a.txt", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.ContentID)
	assert.Equal(t, []string{"text/plain", "txt"}, result.Tags)

	require.Len(t, f.ledger.records, 1)
	assert.Equal(t, "bob", f.ledger.records[0].Owner)
	assert.Equal(t, result.ContentID, f.ledger.records[0].ContentID)

	assert.Zero(t, f.scratchCount(t), "scratch file must be gone after completion")
}

func TestPipelineIdempotentContentID(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	first, err := f.pipeline.Run(ctx, "bob", "a.txt", strings.NewReader("same bytes"))
	require.NoError(t, err)
	second, err := f.pipeline.Run(ctx, "bob", "a.txt", strings.NewReader("same bytes"))
	require.NoError(t, err)

	assert.Equal(t, first.ContentID, second.ContentID)
}

func TestPipelineRejectsInvalidInput(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.Run(ctx, "bob", "", strings.NewReader("body"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.pipeline.Run(ctx, "bob", "a.txt", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.pipeline.Run(ctx, "bob", "a.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, f.store.putCalls.Load(), "no store call on invalid input")
	assert.Empty(t, f.ledger.records, "no ledger call on invalid input")
	assert.Zero(t, f.scratchCount(t))
}

func TestPipelineUnsafeContent(t *testing.T) {
	f := newPipelineFixture(t)
	f.safety.safe = false

	_, err := f.pipeline.Run(context.Background(), "bob", "evil.bin", strings.NewReader("payload"))
	assert.ErrorIs(t, err, ErrUnsafeContent)

	assert.Equal(t, int32(1), f.safety.calls.Load())
	assert.Zero(t, f.store.putCalls.Load(), "rejected content must not reach the store")
	assert.Empty(t, f.ledger.records)
	assert.Zero(t, f.scratchCount(t), "scratch file must be deleted on rejection")
}

type failingStore struct{}

func (failingStore) Put(ctx context.Context, localPath string) (string, error) {
	return "", ErrStoreUnavailable
}
func (failingStore) Get(ctx context.Context, contentID, destDir string) (string, error) {
	return "", ErrStoreUnavailable
}

func TestPipelineStoreFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.pipeline.store = failingStore{}

	_, err := f.pipeline.Run(context.Background(), "bob", "a.txt", strings.NewReader("body"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, f.ledger.records)
	assert.Zero(t, f.scratchCount(t))
}

func TestPipelineLedgerFailureLeavesStoredContent(t *testing.T) {
	f := newPipelineFixture(t)
	f.ledger.err = ErrLedgerUnavailable

	_, err := f.pipeline.Run(context.Background(), "bob", "a.txt", strings.NewReader("orphaned bytes"))
	assert.ErrorIs(t, err, ErrLedgerUnavailable)

	// stored bytes are deliberately not reclaimed on ledger failure
	assert.Equal(t, int32(1), f.store.putCalls.Load())
	id, err := contentDigestFromBytes(t, []byte("orphaned bytes"))
	require.NoError(t, err)
	_, err = f.pipeline.store.Get(context.Background(), id, t.TempDir())
	assert.NoError(t, err, "content should still be retrievable after ledger failure")

	assert.Zero(t, f.scratchCount(t))
}

func contentDigestFromBytes(t *testing.T, b []byte) (string, error) {
	t.Helper()
	return contentDigest(writeTempFile(t, "digest-probe", b))
}

func TestPipelineConcurrentUploadsDoNotCollide(t *testing.T) {
	f := newPipelineFixture(t)

	var wg sync.WaitGroup
	results := make([]*UploadResult, 2)
	errs := make([]error, 2)
	bodies := []string{"first user bytes", "second user bytes"}
	owners := []string{"alice", "bob"}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.pipeline.Run(context.Background(), owners[i], "same-name.txt", strings.NewReader(bodies[i]))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.NotEqual(t, results[0].ContentID, results[1].ContentID)

	// each stored blob round-trips its own bytes
	for i := 0; i < 2; i++ {
		path, err := f.pipeline.store.Get(context.Background(), results[i].ContentID, t.TempDir())
		require.NoError(t, err)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, bodies[i], string(got))
	}

	assert.Zero(t, f.scratchCount(t))
}

func TestPipelineFetch(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	result, err := f.pipeline.Run(ctx, "bob", "a.txt", strings.NewReader("fetch me"))
	require.NoError(t, err)

	path, err := f.pipeline.Fetch(ctx, result.ContentID)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fetch me", string(got))

	_, err = f.pipeline.Fetch(ctx, "unknown-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
