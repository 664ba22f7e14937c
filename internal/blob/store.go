// Package blob stores attachment payloads on disk. Blobs are named by a
// generated handle and referenced from messages; they live for the
// lifetime of the conversation and are removed when it is deleted.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrTooLarge is returned by Save when the payload exceeds the configured
// maximum attachment size.
var ErrTooLarge = errors.New("attachment exceeds maximum size")

type Store struct {
	dir      string
	maxBytes int64
}

func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Save writes the payload to disk and returns its handle and size.
// The original filename only contributes its extension; the handle is a
// generated UUID so callers cannot traverse or collide paths.
func (s *Store) Save(src io.Reader, filename string) (ref string, size int64, err error) {
	ref = uuid.NewString() + filepath.Ext(filename)
	dest := filepath.Join(s.dir, ref)

	out, err := os.Create(dest)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}
	defer out.Close()

	// Read one byte past the cap to detect oversize payloads.
	size, err = io.Copy(out, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		os.Remove(dest)
		return "", 0, fmt.Errorf("write blob: %w", err)
	}
	if size > s.maxBytes {
		os.Remove(dest)
		return "", 0, ErrTooLarge
	}
	return ref, size, nil
}

// Path resolves a handle to its on-disk path, rejecting anything that is
// not a plain filename.
func (s *Store) Path(ref string) (string, error) {
	if ref == "" || filepath.Base(ref) != ref {
		return "", fmt.Errorf("invalid blob ref %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}

// Remove deletes the blobs for the given handles. Missing blobs are not an
// error; conversation deletion must not fail halfway through GC.
func (s *Store) Remove(refs ...string) error {
	var firstErr error
	for _, ref := range refs {
		path, err := s.Path(ref)
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
