// Package storage stores listing images on a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2).
//
//	storage.Connect(ctx)
//	disk := storage.Default()
//	err := disk.Put(ctx, "listings/u-1/1718000000000_sofa.jpg", f, size, "image/jpeg")
//	url := disk.URL("listings/u-1/1718000000000_sofa.jpg")
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidPath is returned for keys that are empty or escape the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is implemented by every storage driver.
type Disk interface {
	Name() string

	// Put writes size bytes from r to key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens key for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for key.
	URL(key string) string
}

// cleanKey normalises key to a slash-separated relative path.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return k, nil
}
