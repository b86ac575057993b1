package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Opener returns a fresh reader over a blob's content.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Blob is a client-side file waiting to be uploaded.
type Blob struct {
	// ID uniquely identifies the blob inside the client session.
	ID uuid.UUID
	// Name is the file name sent to the server.
	Name string
	// ContentType is the MIME type of the content.
	ContentType string
	// Size is the content length in bytes, or -1 when unknown.
	Size int64

	open Opener
}

// NewBlob creates a blob backed by an arbitrary opener.
func NewBlob(name, contentType string, size int64, open Opener) Blob {
	if contentType == "" {
		contentType = DetectContentType(name)
	}
	return Blob{
		ID:          uuid.New(),
		Name:        name,
		ContentType: contentType,
		Size:        size,
		open:        open,
	}
}

// BytesBlob creates an in-memory blob.
func BytesBlob(name string, data []byte) Blob {
	return NewBlob(name, "", int64(len(data)), func(context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FileBlob creates a blob backed by a file on the local filesystem.
func FileBlob(path string) (Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to stat attachment %s: %w", path, err)
	}
	if info.IsDir() {
		return Blob{}, fmt.Errorf("attachment %s is a directory", path)
	}
	return NewBlob(filepath.Base(path), "", info.Size(), func(context.Context) (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// Open returns a reader over the blob content. The caller must close it.
func (b Blob) Open(ctx context.Context) (io.ReadCloser, error) {
	if b.open == nil {
		return nil, fmt.Errorf("blob %s has no content source", b.Name)
	}
	return b.open(ctx)
}

// DetectContentType guesses a MIME type from a file name.
func DetectContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
