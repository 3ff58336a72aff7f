package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists uploaded files under slash-separated keys such as
// "proyectos/<uuid>.png". Save is atomic: readers never see a partial file.
type FileStore interface {
	// Save writes r under key, replacing any existing file, and returns the
	// stored location.
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

var ErrInvalidKey = errors.New("clave de archivo invalida")

func cleanKey(key string) (string, error) {
	k := filepath.ToSlash(filepath.Clean("/" + key))[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") || strings.Contains(k, "..") {
		return "", ErrInvalidKey
	}
	return k, nil
}

// LocalFileStore keeps files under a root directory.
type LocalFileStore struct {
	root string
}

func NewLocalFileStore(root string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir %s: %w", root, err)
	}
	return &LocalFileStore{root: root}, nil
}

// Path returns the filesystem path of key.
func (s *LocalFileStore) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalFileStore) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	dst := s.Path(k)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-"+uuid.NewString()+"-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return "", err
	}
	return dst, nil
}

func (s *LocalFileStore) Exists(_ context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(s.Path(k))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalFileStore) Remove(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.Path(k)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// contextReader stops copying once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Imagenes resolves ruta_imagen keys to files under the store root for the
// PDF renderer. Invalid or missing keys resolve to "".
func (s *LocalFileStore) Imagenes() ImagenResolver {
	return func(ruta string) string {
		k, err := cleanKey(ruta)
		if err != nil {
			return ""
		}
		p := s.Path(k)
		if _, err := os.Stat(p); err != nil {
			return ""
		}
		return p
	}
}
