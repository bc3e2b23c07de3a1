package disk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "trackroom/pkg/errors"
)

// Store keeps uploaded blobs as flat files under a single root directory.
// Keys are bare file names; anything that could escape the root is rejected
// before it reaches the filesystem.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Path resolves a key to its absolute location under the root.
func (s *Store) Path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, key), nil
}

// Write streams the reader into a new file under the key and returns the
// number of bytes written.
func (s *Store) Write(key string, r io.Reader) (int64, error) {
	path, err := s.Path(key)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", key, err)
	}

	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write %s: %w", key, err)
	}

	return written, nil
}

// Open returns a readable handle and its file info. The caller owns the
// handle and must close it.
func (s *Store) Open(key string) (*os.File, os.FileInfo, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", key, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	return f, info, nil
}

func (s *Store) Remove(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) Exists(key string) bool {
	path, err := s.Path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func validateKey(key string) error {
	if key == "" || key != filepath.Base(key) || strings.Contains(key, "..") {
		return apperrors.ErrPathTraversal
	}
	return nil
}

// SanitizeName strips an uploaded file name down to characters that are safe
// inside a storage key. Path separators and shell metacharacters become
// underscores; the extension survives untouched.
func SanitizeName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	sanitized := strings.Trim(b.String(), ".")
	if sanitized == "" {
		sanitized = "upload"
	}
	return sanitized
}
