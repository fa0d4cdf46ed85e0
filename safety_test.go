package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicSafetyChecker(t *testing.T) {
	checker := &HeuristicSafetyChecker{MaxBytes: 1024}
	ctx := context.Background()

	safe, err := checker.Check(ctx, writeTempFile(t, "ok.txt", []byte("plain text")))
	require.NoError(t, err)
	assert.True(t, safe)

	elf := append([]byte{0x7f, 'E', 'L', 'F'}, make([]byte, 64)...)
	safe, err = checker.Check(ctx, writeTempFile(t, "bin", elf))
	require.NoError(t, err)
	assert.False(t, safe, "ELF binaries are rejected")

	safe, err = checker.Check(ctx, writeTempFile(t, "pe.exe", []byte("MZ\x90\x00")))
	require.NoError(t, err)
	assert.False(t, safe, "PE binaries are rejected")

	big := make([]byte, 2048)
	safe, err = checker.Check(ctx, writeTempFile(t, "big.txt", big))
	require.NoError(t, err)
	assert.False(t, safe, "oversized files are rejected")
}

func TestContentTagger(t *testing.T) {
	tagger := ContentTagger{}

	tags, err := tagger.Tag(context.Background(), writeTempFile(t, "notes.txt", []byte("hello world")))
	require.NoError(t, err)

	assert.Contains(t, tags, "txt")
	assert.Contains(t, tags, "small")
	assert.NotEmpty(t, tags[0], "first tag is the detected content type")
}
