package filestore

import (
	"io"
)

// FileStore is a key-value blob store for file payloads.
type FileStore interface {
	// Save stores the content under key, replacing any previous content.
	Save(r io.Reader, key string) error

	// Get retrieves the content for key. A missing key yields an error matching fs.ErrNotExist.
	Get(key string) (io.ReadCloser, error)

	// Delete removes the content for key. A missing key yields an error matching fs.ErrNotExist.
	Delete(key string) error
}
