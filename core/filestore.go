package core

import (
	"context"
	"io"
)

// FileStore persists uploaded files. Save returns the reference under which the file
// can later be served; filenames must already be sanitized with SecureFilename.
type FileStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Upload is a file received from a client, before it is saved to a FileStore.
type Upload struct {
	Filename string
	Body     io.Reader
}
