package files

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
)

// upload backends
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// New returns the FileStore of conf.Uploads.Backend.
func New(ctx context.Context, conf *core.Config) (core.FileStore, error) {
	switch conf.Uploads.Backend {
	case BackendLocal, "":
		return NewLocalStore(conf.Uploads.Dir), nil
	case BackendS3:
		return NewS3Store(ctx, conf)
	default:
		return nil, errors.Errorf("unknown uploads backend %q", conf.Uploads.Backend)
	}
}
