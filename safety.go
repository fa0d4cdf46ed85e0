package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SafetyChecker inspects a file before it is admitted to the store.
// A false verdict rejects the upload; an error means the check itself
// could not run.
type SafetyChecker interface {
	Check(ctx context.Context, localPath string) (bool, error)
}

// Tagger derives descriptive tags for an admitted file.
type Tagger interface {
	Tag(ctx context.Context, localPath string) ([]string, error)
}

// HeuristicSafetyChecker rejects files that sniff as native
// executables and files over the configured size cap. It is a
// placeholder for a real scanning service behind the same interface.
type HeuristicSafetyChecker struct {
	MaxBytes int64
}

func (c *HeuristicSafetyChecker) Check(ctx context.Context, localPath string) (bool, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return false, err
	}
	if c.MaxBytes > 0 && info.Size() > c.MaxBytes {
		return false, nil
	}

	head, err := readHead(localPath, 512)
	if err != nil {
		return false, err
	}
	if isExecutable(head) {
		return false, nil
	}
	return true, nil
}

// Magic numbers for ELF, Mach-O (both endian), and PE binaries.
func isExecutable(head []byte) bool {
	prefixes := [][]byte{
		{0x7f, 'E', 'L', 'F'},
		{0xfe, 0xed, 0xfa, 0xce},
		{0xfe, 0xed, 0xfa, 0xcf},
		{0xcf, 0xfa, 0xed, 0xfe},
		{'M', 'Z'},
	}
	for _, p := range prefixes {
		if len(head) >= len(p) && string(head[:len(p)]) == string(p) {
			return true
		}
	}
	return false
}

// ContentTagger tags files by detected content type, extension, and a
// coarse size bucket.
type ContentTagger struct{}

func (ContentTagger) Tag(ctx context.Context, localPath string) ([]string, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, err
	}

	head, err := readHead(localPath, 512)
	if err != nil {
		return nil, err
	}

	tags := []string{}

	contentType := http.DetectContentType(head)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	tags = append(tags, contentType)

	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(localPath), ".")); ext != "" {
		tags = append(tags, ext)
	}

	switch size := info.Size(); {
	case size < 1<<20:
		tags = append(tags, "small")
	case size < 100<<20:
		tags = append(tags, "medium")
	default:
		tags = append(tags, "large")
	}

	return tags, nil
}

func readHead(localPath string, n int) ([]byte, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, n)
	read, err := f.Read(head)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file head: %w", err)
	}
	return head[:read], nil
}
