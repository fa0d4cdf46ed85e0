package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolDo(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	var ran atomic.Bool
	err := p.Do(context.Background(), func() error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())

	wantErr := errors.New("boom")
	assert.ErrorIs(t, p.Do(context.Background(), func() error { return wantErr }), wantErr)
}

func TestWorkerPoolQueueWaitHonorsContext(t *testing.T) {
	p := NewWorkerPool(1)
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	go p.Do(context.Background(), func() error {
		close(started)
		<-block
		return nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the single worker is busy, so this submission waits on the
	// queue and the canceled context should release it
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Do(ctx, func() error { return nil })
	}()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
}
