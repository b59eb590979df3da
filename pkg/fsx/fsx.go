// Package fsx abstracts where resume files and profile batches are read from.
package fsx

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when the path does not exist.
var ErrNotFound = errors.New("file not found")

// FileReader reads whole files.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileSystem is a FileReader that can also stream and build paths.
type FileSystem interface {
	FileReader
	ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error)
	Join(elem ...string) string
}
