package datasync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-console/core/apiclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newAPIFetcher(t *testing.T, handler http.HandlerFunc) *APIFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	srv.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, TimeoutSeconds: 5},
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}), zap.NewNop())
	require.NoError(t, err)
	return NewAPIFetcher(client)
}

func TestAPIFetcher_FetchRecords(t *testing.T) {
	f := newAPIFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":1,"name":"Lamp","price":"12.50"}]`))
	})

	recs, err := f.FetchRecords(context.Background(), "/products")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].ID())
	assert.Equal(t, "Lamp", recs[0]["name"])
}

func TestAPIFetcher_MalformedBody(t *testing.T) {
	f := newAPIFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	})

	_, err := f.FetchRecords(context.Background(), "/products")
	assert.ErrorIs(t, err, apiclient.ErrMalformedBody)
}

func TestAPIFetcher_FetchAudit(t *testing.T) {
	f := newAPIFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audit_logs", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"action":"update","user_name":"Ada","table_name":"products","record_id":7,"created_at":"2026-02-01T10:00:00Z"},
			{"action":"delete","user":{"name":"Bob"},"table_name":"categories","record_id":"3","created_at":1767225600000}
		]`))
	})

	entries, err := f.FetchAudit(context.Background(), "/audit_logs")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, AuditLogEntry{
		Action:    "update",
		ActorName: "Ada",
		TableName: "products",
		RecordID:  "7",
		LoggedAt:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}, entries[0])
	assert.Equal(t, "Bob", entries[1].ActorName)
	assert.Equal(t, int64(1767225600000), entries[1].LoggedAt.UnixMilli())
}

func TestAuditLogEntry_UnmarshalErrors(t *testing.T) {
	var e AuditLogEntry
	assert.Error(t, e.UnmarshalJSON([]byte(`[1]`)))
	assert.Error(t, e.UnmarshalJSON([]byte(`{"created_at":"yesterday"}`)))
}

func TestParseTrigger(t *testing.T) {
	for _, tr := range []Trigger{InitialLoad, UserAction, BackgroundRefresh} {
		got, err := ParseTrigger(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}
	_, err := ParseTrigger("sometimes")
	assert.Error(t, err)
}
