// Package fsblob stores raw upload bytes on the local filesystem.
//
// Blobs are content-addressed under a two-level fan-out directory derived
// from the checksum, so re-uploads of identical bytes share one file and a
// directory never accumulates an unbounded number of entries.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/dartos/core"
	"github.com/poiesic/dartos/storage"
)

// Store is a filesystem-backed storage.BlobStore.
type Store struct {
	root   string
	logger *slog.Logger
}

var _ storage.BlobStore = (*Store)(nil)

// New creates a blob store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		root:   dir,
		logger: slog.Default().With("component", "fsblob"),
	}, nil
}

// Put stores data and returns its ref and checksum.
func (s *Store) Put(ctx context.Context, name string, data []byte) (string, uint64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	checksum := core.ChecksumBytes(data)
	ref := s.refFor(checksum)
	path := filepath.Join(s.root, ref)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", 0, err
	}

	// Write through a temp file so a crash never leaves a partial blob
	// behind under the final name.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return "", 0, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", 0, err
	}

	s.logger.Debug("blob stored", "name", name, "ref", ref, "bytes", len(data))
	return ref, checksum, nil
}

// Get retrieves the bytes for ref, verifying them against checksum.
func (s *Store) Get(ctx context.Context, ref string, checksum uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.Clean(ref)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	if core.ChecksumBytes(data) != checksum {
		return nil, storage.ErrChecksumMismatch
	}
	return data, nil
}

// Delete removes the blob for ref. Missing blobs are not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.root, filepath.Clean(ref)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// refFor builds the fan-out relative path for a checksum.
func (s *Store) refFor(checksum uint64) string {
	hex := fmt.Sprintf("%016x", checksum)
	return filepath.Join(hex[:2], hex[2:])
}
