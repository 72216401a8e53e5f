package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kazi/core"
)

// LocalStore keeps files under a root directory.
type LocalStore struct {
	root string
}

var _ core.FileStore = (*LocalStore)(nil)

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrap(err, "creating storage dir")
	}
	return &LocalStore{root: root}, nil
}

// path resolves key inside root; keys escaping root are rejected.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash("/" + key))
	if clean == string(filepath.Separator) {
		return "", errors.Errorf("invalid key %q", key)
	}
	p := filepath.Join(s.root, clean)
	if !strings.HasPrefix(p, filepath.Clean(s.root)+string(filepath.Separator)) {
		return "", errors.Errorf("invalid key %q", key)
	}
	return p, nil
}

func (s *LocalStore) Write(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return errors.Wrap(err, "creating parent dir")
	}

	// write to a temp file first so readers never see partial content
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p), "renaming temp file")
}

func (s *LocalStore) Read(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, errors.Wrap(err, "reading file")
	}
	return data, nil
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "stating file")
	}
	return !info.IsDir(), nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing file")
	}
	return nil
}
