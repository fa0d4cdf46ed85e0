package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// UploadPipeline sequences one upload: validate → safety check →
// content-addressed store → provenance record → tagging. Every
// blocking stage is dispatched to the worker pool, stages run strictly
// in order, and the scratch file is removed on every exit path —
// success, rejection, or failure.
type UploadPipeline struct {
	store   ContentStore
	ledger  ProvenanceLedger
	safety  SafetyChecker
	tagger  Tagger
	pool    *WorkerPool
	tempDir string
}

func NewUploadPipeline(store ContentStore, ledger ProvenanceLedger, safety SafetyChecker, tagger Tagger, pool *WorkerPool, tempDir string) *UploadPipeline {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &UploadPipeline{
		store:   store,
		ledger:  ledger,
		safety:  safety,
		tagger:  tagger,
		pool:    pool,
		tempDir: tempDir,
	}
}

// Run executes the pipeline for one upload and returns the content
// identifier and tags. A client disconnect does not abort stages
// already dispatched: cleanup happens when the pipeline resolves, not
// when the caller goes away.
func (p *UploadPipeline) Run(ctx context.Context, owner, filename string, payload io.Reader) (*UploadResult, error) {
	if filename == "" || payload == nil {
		return nil, fmt.Errorf("%w: file name and payload are required", ErrInvalidInput)
	}

	// Stages run to completion even if the request context is
	// canceled mid-flight; only the wait for a free worker honors
	// the original context.
	stageCtx := context.WithoutCancel(ctx)

	// Collision-resistant scratch name: uploads run concurrently and
	// must never share a scratch file.
	scratch := filepath.Join(p.tempDir, uuid.New().String()+"_"+filepath.Base(filename))

	var written int64
	err := p.pool.Do(ctx, func() error {
		var err error
		written, err = writeScratch(scratch, payload)
		return err
	})
	if err != nil {
		removeScratch(scratch)
		return nil, fmt.Errorf("persisting upload: %w", err)
	}
	defer removeScratch(scratch)

	if written == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}

	var safe bool
	err = p.pool.Do(ctx, func() error {
		var err error
		safe, err = p.safety.Check(stageCtx, scratch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("safety check: %w", err)
	}
	if !safe {
		slog.Warn("upload rejected by safety check", "owner", owner, "filename", filename)
		return nil, ErrUnsafeContent
	}

	var contentID string
	err = p.pool.Do(ctx, func() error {
		var err error
		contentID, err = p.store.Put(stageCtx, scratch)
		return err
	})
	if err != nil {
		return nil, err
	}

	// A ledger failure after a successful store leaves the content
	// behind: stored bytes are not reclaimed. The caller sees the
	// failure; re-uploading the same bytes yields the same
	// identifier, so nothing is lost beyond the missing record.
	err = p.pool.Do(ctx, func() error {
		return p.ledger.Record(stageCtx, owner, contentID)
	})
	if err != nil {
		return nil, err
	}

	var tags []string
	err = p.pool.Do(ctx, func() error {
		var err error
		tags, err = p.tagger.Tag(stageCtx, scratch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("tagging: %w", err)
	}

	slog.Info("upload completed", "owner", owner, "contentId", contentID, "tags", tags)
	return &UploadResult{ContentID: contentID, Tags: tags}, nil
}

// Fetch retrieves stored content into a per-request scratch directory.
// The caller is responsible for removing the directory when done.
func (p *UploadPipeline) Fetch(ctx context.Context, contentID string) (string, error) {
	if contentID == "" {
		return "", fmt.Errorf("%w: content identifier is required", ErrInvalidInput)
	}
	destDir := filepath.Join(p.tempDir, "dl_"+uuid.New().String())

	var localPath string
	err := p.pool.Do(ctx, func() error {
		var err error
		localPath, err = p.store.Get(context.WithoutCancel(ctx), contentID, destDir)
		return err
	})
	if err != nil {
		os.RemoveAll(destDir)
		return "", err
	}
	return localPath, nil
}

func writeScratch(path string, payload io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, payload)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}

func removeScratch(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Error("removing scratch file", "path", path, "error", err)
	}
}
