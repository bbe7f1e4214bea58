package backup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("backup object not found")
	ErrInvalidKey     = errors.New("invalid backup key")
)

// Target stores export objects by key. Keys use "/" as separator on every target.
type Target interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys starting with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// FSTarget keeps objects as files below a root directory.
type FSTarget struct {
	root string
}

func NewFSTarget(root string) (*FSTarget, error) {
	if root == "" {
		return nil, ErrInvalidKey
	}

	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}

	return &FSTarget{root: root}, nil
}

func (t *FSTarget) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := t.path(key)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	// write to a temp file first so a crash never leaves a truncated export under the final name
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func (t *FSTarget) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := t.path(key)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Join(ErrObjectNotFound, err)
	}

	return body, err
}

func (t *FSTarget) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string

	err := filepath.WalkDir(t.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return err
		}

		if key := filepath.ToSlash(rel); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(keys)

	return keys, nil
}

// path rejects keys that would leave the root.
func (t *FSTarget) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Join(ErrInvalidKey, errors.New(key))
	}

	return filepath.Join(t.root, clean), nil
}
