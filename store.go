package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// ContentStore persists files under a content-addressed identifier:
// identical bytes always map to the identical identifier. Callers
// treat the identifier as opaque.
type ContentStore interface {
	// Put uploads the file at localPath and returns its content
	// identifier. Errors wrap ErrStoreUnavailable.
	Put(ctx context.Context, localPath string) (string, error)
	// Get downloads the identified content into destDir and returns
	// the local path. Unknown identifiers yield ErrNotFound.
	Get(ctx context.Context, contentID, destDir string) (string, error)
}

// contentDigest computes the hex BLAKE3 digest of the file bytes. This
// is the content identifier used by every store backend.
func contentDigest(localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LocalContentStore implements ContentStore on the local filesystem,
// one digest-named file per stored object.
type LocalContentStore struct {
	BaseDir string
}

func NewLocalContentStore(baseDir string) (*LocalContentStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &LocalContentStore{BaseDir: baseDir}, nil
}

func (s *LocalContentStore) Put(ctx context.Context, localPath string) (string, error) {
	id, err := contentDigest(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	dst := filepath.Join(s.BaseDir, id)
	if _, err := os.Stat(dst); err == nil {
		// already stored; content addressing makes Put idempotent
		return id, nil
	}

	if err := copyFile(localPath, dst); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

func (s *LocalContentStore) Get(ctx context.Context, contentID, destDir string) (string, error) {
	src := filepath.Join(s.BaseDir, contentID)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	dst := filepath.Join(destDir, contentID)
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
