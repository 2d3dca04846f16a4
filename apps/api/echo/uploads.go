package echoapi

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
)

type (
	// implemented by file stores serving files themselves (S3)
	fileURLResolver interface {
		URL(ctx context.Context, filename string) (string, error)
	}

	// implemented by file stores writing to a local directory
	fileDir interface {
		Dir() string
	}
)

// serveUpload serves a saved upload: straight from disk for local stores,
// through a short-lived redirect for remote ones.
func (s *Server) serveUpload(ctx echo.Context) error {
	name := ctx.Param("name")
	if name == "" || core.SecureFilename(name) != name {
		return echo.ErrNotFound
	}

	switch store := s.deps.Files.(type) {
	case fileURLResolver:
		url, err := store.URL(ctx.Request().Context(), name)
		if err != nil {
			return errors.Wrap(err, "resolving upload URL")
		}
		return ctx.Redirect(http.StatusFound, url)
	case fileDir:
		return ctx.File(filepath.Join(store.Dir(), name))
	default:
		return echo.ErrNotFound
	}
}
