package files

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
)

// LocalStore saves uploads under a directory served by the web server.
type LocalStore struct {
	dir string
}

var _ core.FileStore = (*LocalStore)(nil)

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Dir() string { return s.dir }

// Save writes r to dir/filename, replacing any previous file of the same name.
func (s *LocalStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", errors.Errorf("invalid filename %q", filename)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating uploads dir")
	}

	f, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", errors.Wrap(err, "writing file")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing file")
	}
	return filename, nil
}
