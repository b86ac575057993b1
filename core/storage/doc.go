// Package storage reads files offered for upload from an S3-compatible object store.
//
// It wraps the MinIO Go client behind the Client interface so tests can use the
// mock in core/storage/mocks. BlobSource turns an object into an attachment.Blob
// that is streamed into the multipart body only when the write is sent.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	src := storage.NewBlobSource(client, cfg.Storage.Bucket)
//	blob, err := src.Blob(ctx, "catalog/lamp.jpg")
package storage
