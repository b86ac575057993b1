package mutation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"catalog-console/core/apiclient"
	"catalog-console/core/attachment"
	"catalog-console/core/datasync"
	"catalog-console/core/registry"
	"catalog-console/core/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

type fakeTransport struct {
	mu       sync.Mutex
	requests []sentRequest
	response []byte
	err      error
	block    chan struct{}
	entered  chan struct{}
	events   *[]string
}

func (f *fakeTransport) Do(ctx context.Context, r apiclient.Request) ([]byte, error) {
	var body string
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}
	f.mu.Lock()
	f.requests = append(f.requests, sentRequest{method: r.Method, path: r.Path, contentType: r.ContentType, body: body})
	if f.events != nil {
		*f.events = append(*f.events, "send")
	}
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.response, f.err
}

func (f *fakeTransport) sent() []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentRequest{}, f.requests...)
}

type fakeResyncer struct {
	active      string
	events      *[]string
	invalidated []string
	resyncs     []string
}

func (f *fakeResyncer) Active() string { return f.active }

func (f *fakeResyncer) Invalidate(keys ...string) {
	f.invalidated = append(f.invalidated, keys...)
	*f.events = append(*f.events, "invalidate")
}

func (f *fakeResyncer) Resync(_ context.Context, key string, trigger datasync.Trigger) datasync.Result {
	f.resyncs = append(f.resyncs, key+":"+trigger.String())
	*f.events = append(*f.events, "resync")
	return datasync.Result{Key: key, Trigger: trigger}
}

type fakeTeardown struct{ calls int }

func (f *fakeTeardown) Teardown(context.Context) error {
	f.calls++
	return nil
}

type gatewayFixture struct {
	gw        *Gateway
	transport *fakeTransport
	resyncer  *fakeResyncer
	teardown  *fakeTeardown
	events    []string
	notices   []datasync.Notice
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	f := &gatewayFixture{}
	f.transport = &fakeTransport{events: &f.events}
	f.resyncer = &fakeResyncer{active: registry.KeyProducts, events: &f.events}
	f.teardown = &fakeTeardown{}
	f.gw = NewGateway(registry.Default(), f.transport, f.resyncer, f.teardown, zap.NewNop(),
		WithNotifier(datasync.NotifierFunc(func(n datasync.Notice) { f.notices = append(f.notices, n) })),
	)
	return f
}

func validProduct() registry.Record {
	return registry.Record{"name": "Lamp", "price": "10", "category_id": 2.0}
}

func TestGateway_ValidationBlocksNetwork(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr error
		fields  []string
	}{
		{
			name:   "missing required field",
			req:    Request{Method: Create, Key: registry.KeyProducts, Payload: registry.Record{"name": "Lamp", "category_id": 1.0}},
			fields: []string{"price"},
		},
		{
			name:   "all missing fields are named",
			req:    Request{Method: Create, Key: registry.KeyProducts, Payload: registry.Record{"name": "  "}},
			fields: []string{"name", "price", "category_id"},
		},
		{
			name:    "update without id",
			req:     Request{Method: Update, Key: registry.KeyProducts, Payload: validProduct()},
			wantErr: ErrMissingID,
		},
		{
			name:    "delete without confirmation",
			req:     Request{Method: Delete, Key: registry.KeyProducts, ID: "7"},
			wantErr: ErrNotConfirmed,
		},
		{
			name:    "unknown collection",
			req:     Request{Method: Create, Key: "orders"},
			wantErr: datasync.ErrUnknownCollection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			_, err := f.gw.Mutate(context.Background(), tt.req)
			require.Error(t, err)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.fields, verr.Fields)
			}
			assert.Empty(t, f.transport.sent(), "no network call")
			assert.Empty(t, f.events)
		})
	}
}

func TestGateway_RequiredAttachmentSet(t *testing.T) {
	cat, err := registry.NewCatalog(
		mustDescriptor(t, registry.Spec{Key: "options", APIPath: "/options", Fields: []string{"id", "name"},
			Kinds: map[string]registry.FieldKind{"id": registry.KindIdentity, "name": registry.KindText}}),
		mustDescriptor(t, registry.Spec{
			Key: "banners", APIPath: "/banners",
			Fields:   []string{"id", "title", "files"},
			Kinds:    map[string]registry.FieldKind{"id": registry.KindIdentity, "title": registry.KindText, "files": registry.KindAttachments},
			Required: []string{"title", "files"},
		}),
	)
	require.NoError(t, err)

	transport := &fakeTransport{}
	events := []string{}
	gw := NewGateway(cat, transport, &fakeResyncer{events: &events}, nil, zap.NewNop())

	atts := attachment.NewReconciler("")
	atts.Set("files").AddLocal(attachment.BytesBlob("a.txt", []byte("a")))
	_, err = atts.Set("files").RemoveAt(0, attachment.KindLocal)
	require.NoError(t, err)

	_, err = gw.Mutate(context.Background(), Request{Method: Create, Key: "banners", Payload: registry.Record{}, Attachments: atts})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"title", "files"}, verr.Fields)
	assert.Empty(t, transport.sent())
}

func mustDescriptor(t *testing.T, spec registry.Spec) *registry.Descriptor {
	t.Helper()
	d, err := registry.NewDescriptor(spec)
	require.NoError(t, err)
	return d
}

func TestGateway_UpdateInvalidatesAndResyncsBeforeReturn(t *testing.T) {
	f := newGatewayFixture(t)
	f.transport.response = []byte(`{"id":7,"name":"Lamp","price":10}`)

	payload := validProduct()
	payload["id"] = 7.0
	resp, err := f.gw.Mutate(context.Background(), Request{Method: Update, Key: registry.KeyProducts, ID: "7", Payload: payload})
	require.NoError(t, err)

	assert.Equal(t, []string{"send", "invalidate", "resync"}, f.events)
	assert.Equal(t, []string{registry.KeyProducts, registry.KeyCrossRef}, f.resyncer.invalidated)
	assert.Equal(t, []string{"products:user_action"}, f.resyncer.resyncs)
	assert.Equal(t, registry.KeyProducts, resp.Resync.Key)
	assert.Equal(t, "7", resp.Record.ID())

	sent := f.transport.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, http.MethodPut, sent[0].method)
	assert.Equal(t, "/products/7", sent[0].path)
	assert.Equal(t, "application/json", sent[0].contentType)
	assert.NotContains(t, sent[0].body, `"id"`)
	assert.Contains(t, sent[0].body, `"price":10`)

	require.Len(t, f.notices, 1)
	assert.Equal(t, "Products updated", f.notices[0].Message)
}

func TestGateway_CreateResyncsActiveCollection(t *testing.T) {
	f := newGatewayFixture(t)
	f.resyncer.active = registry.KeyCategories

	_, err := f.gw.Mutate(context.Background(), Request{Method: Create, Key: registry.KeyProducts, Payload: validProduct()})
	require.NoError(t, err)

	assert.Equal(t, []string{"categories:user_action"}, f.resyncer.resyncs)
	assert.Equal(t, "/products", f.transport.sent()[0].path)
}

func TestGateway_CreateWithLocalBlobIsMultipart(t *testing.T) {
	f := newGatewayFixture(t)
	atts := attachment.NewReconciler("")
	atts.Set("images").AddLocal(attachment.BytesBlob("lamp.jpg", []byte("JPEG")))

	_, err := f.gw.Mutate(context.Background(), Request{Method: Create, Key: registry.KeyProducts, Payload: validProduct(), Attachments: atts})
	require.NoError(t, err)

	sent := f.transport.sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].contentType, "multipart/form-data")
	assert.Contains(t, sent[0].body, `filename="lamp.jpg"`)
}

func TestGateway_DeleteConfirmed(t *testing.T) {
	f := newGatewayFixture(t)

	resp, err := f.gw.Mutate(context.Background(), Request{Method: Delete, Key: registry.KeyProducts, ID: "9", Confirmed: true})
	require.NoError(t, err)
	assert.Nil(t, resp.Record)

	sent := f.transport.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, http.MethodDelete, sent[0].method)
	assert.Equal(t, "/products/9", sent[0].path)
	assert.Empty(t, sent[0].body)
}

func TestGateway_ServerErrorLeavesCacheUntouched(t *testing.T) {
	f := newGatewayFixture(t)
	f.transport.err = apiclient.NewHTTPError(422, "http://api/products", []byte(`{"message":"Price must be positive"}`))

	_, err := f.gw.Mutate(context.Background(), Request{Method: Create, Key: registry.KeyProducts, Payload: validProduct()})

	var merr *MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 422, merr.StatusCode)
	assert.Equal(t, "Price must be positive", merr.Message)
	assert.Equal(t, []string{"send"}, f.events)
	assert.Zero(t, f.teardown.calls)

	require.Len(t, f.notices, 1)
	assert.Equal(t, datasync.LevelError, f.notices[0].Level)
}

func TestGateway_AuthRejectionTearsDownSession(t *testing.T) {
	f := newGatewayFixture(t)
	f.transport.err = apiclient.NewHTTPError(401, "http://api/products", nil)

	_, err := f.gw.Mutate(context.Background(), Request{Method: Create, Key: registry.KeyProducts, Payload: validProduct()})
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.Equal(t, 1, f.teardown.calls)
	assert.Equal(t, []string{"send"}, f.events)
}

func TestGateway_RejectsConcurrentWriteToSameKey(t *testing.T) {
	f := newGatewayFixture(t)
	f.transport.events = nil
	f.resyncer.events = &[]string{}
	f.transport.block = make(chan struct{})
	f.transport.entered = make(chan struct{}, 2)

	done := make(chan error, 1)
	go func() {
		_, err := f.gw.Mutate(context.Background(), Request{Method: Create, Key: registry.KeyProducts, Payload: validProduct()})
		done <- err
	}()
	<-f.transport.entered

	_, err := f.gw.Mutate(context.Background(), Request{Method: Create, Key: registry.KeyProducts, Payload: validProduct()})
	assert.ErrorIs(t, err, ErrMutationInFlight)

	close(f.transport.block)
	require.NoError(t, <-done)

	_, err = f.gw.Mutate(context.Background(), Request{Method: Delete, Key: registry.KeyProducts, ID: "1", Confirmed: true})
	assert.NoError(t, err)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Key: "products", Fields: []string{"name", "price"}}
	assert.Equal(t, "products: missing required fields: name, price", err.Error())
	assert.False(t, errors.Is(err, ErrMutationInFlight))
}

func TestGateway_UpdateSendsOnlyTouchedAttachmentFields(t *testing.T) {
	tests := []struct {
		name   string
		images any
		omit   bool
		want   string
	}{
		{name: "Omitted", omit: true},
		{name: "ExplicitNull", images: nil, want: `"images":[]`},
		{name: "Paths", images: []any{"a.png", "/uploads/b.png"}, want: `"images":["/uploads/a.png","/uploads/b.png"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			payload := validProduct()
			if !tt.omit {
				payload["images"] = tt.images
			}

			_, err := f.gw.Mutate(context.Background(), Request{Method: Update, Key: registry.KeyProducts, ID: "7", Payload: payload})
			require.NoError(t, err)

			body := f.transport.sent()[0].body
			if tt.omit {
				assert.NotContains(t, body, `"images"`)
				return
			}
			assert.Contains(t, body, tt.want)
		})
	}
}

func TestGateway_UpdateKeepsUntouchedRequiredAttachments(t *testing.T) {
	cat, err := registry.NewCatalog(
		mustDescriptor(t, registry.Spec{Key: "options", APIPath: "/options", Fields: []string{"id", "name"},
			Kinds: map[string]registry.FieldKind{"id": registry.KindIdentity, "name": registry.KindText}}),
		mustDescriptor(t, registry.Spec{
			Key: "banners", APIPath: "/banners",
			Fields:   []string{"id", "title", "files"},
			Kinds:    map[string]registry.FieldKind{"id": registry.KindIdentity, "title": registry.KindText, "files": registry.KindAttachments},
			Required: []string{"title", "files"},
		}),
	)
	require.NoError(t, err)

	transport := &fakeTransport{}
	events := []string{}
	gw := NewGateway(cat, transport, &fakeResyncer{events: &events}, nil, zap.NewNop())

	_, err = gw.Mutate(context.Background(), Request{Method: Update, Key: "banners", ID: "4", Payload: registry.Record{"title": "Sale"}})
	require.NoError(t, err)
	assert.NotContains(t, transport.sent()[0].body, `"files"`)

	_, err = gw.Mutate(context.Background(), Request{Method: Update, Key: "banners", ID: "4", Payload: registry.Record{"title": "Sale", "files": []any{}}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"files"}, verr.Fields)

	_, err = gw.Mutate(context.Background(), Request{Method: Create, Key: "banners", Payload: registry.Record{"title": "Sale"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"files"}, verr.Fields)
}
