package datasync

import (
	"context"

	"catalog-console/core/apiclient"
	"catalog-console/core/registry"
)

// Fetcher performs the network reads of a resync.
type Fetcher interface {
	// FetchRecords reads the record array served at path.
	FetchRecords(ctx context.Context, path string) ([]registry.Record, error)
	// FetchAudit reads the audit log array served at path.
	FetchAudit(ctx context.Context, path string) ([]AuditLogEntry, error)
}

// Forgetter is implemented by fetchers that share in-flight reads of a path.
// Forget ensures the next read of path hits the network.
type Forgetter interface {
	Forget(path string)
}

// APIFetcher reads collections through the REST client.
type APIFetcher struct {
	client *apiclient.Client
}

// NewAPIFetcher creates a fetcher on client.
func NewAPIFetcher(client *apiclient.Client) *APIFetcher {
	return &APIFetcher{client: client}
}

func (f *APIFetcher) FetchRecords(ctx context.Context, path string) ([]registry.Record, error) {
	var records []registry.Record
	if err := f.client.GetJSON(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (f *APIFetcher) FetchAudit(ctx context.Context, path string) ([]AuditLogEntry, error) {
	var entries []AuditLogEntry
	if err := f.client.GetJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Forget drops the shared in-flight read of path, if any.
func (f *APIFetcher) Forget(path string) {
	f.client.Forget(path)
}
