package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"catalog-console/core/attachment"

	"github.com/minio/minio-go/v7"
)

// BlobSource turns objects of one bucket into attachment blobs.
type BlobSource struct {
	client Client
	bucket string
}

// NewBlobSource creates a source over bucket.
func NewBlobSource(client Client, bucket string) *BlobSource {
	return &BlobSource{client: client, bucket: bucket}
}

// Check verifies the bucket is reachable.
func (s *BlobSource) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", s.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

// Blob returns a pending attachment backed by objectName. The object is read
// only when the blob is opened.
func (s *BlobSource) Blob(ctx context.Context, objectName string) (attachment.Blob, error) {
	objectName = strings.TrimPrefix(objectName, "/")
	info, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return attachment.Blob{}, fmt.Errorf("failed to stat object %s: %w", objectName, err)
	}

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = attachment.DetectContentType(objectName)
	}

	bucket := s.bucket
	return attachment.NewBlob(path.Base(objectName), contentType, info.Size, func(ctx context.Context) (io.ReadCloser, error) {
		return s.client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	}), nil
}

// List returns the object names under prefix.
func (s *BlobSource) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		names = append(names, obj.Key)
	}
	return names, nil
}
