package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"catalog-console/core/apiclient"
	"catalog-console/core/attachment"
	"catalog-console/core/datasync"
	"catalog-console/core/registry"
	"catalog-console/core/session"
	"catalog-console/core/utils"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Request is a single write.
type Request struct {
	Method Method
	Key    string
	// ID addresses the record for Update and Delete.
	ID string
	// Payload holds the edited field values. Identity and server-managed
	// fields are stripped before transmission.
	Payload registry.Record
	// Attachments holds the edited attachment sets. When nil, the sets are
	// seeded from the persisted paths found in Payload.
	Attachments *attachment.Reconciler
	// Confirmed must be true for Delete.
	Confirmed bool
}

// Response is the outcome of a successful write.
type Response struct {
	// Record is the record returned by the server, nil for Delete or an empty body.
	Record registry.Record
	// Resync is the resync issued after the write.
	Resync datasync.Result
}

// Transport executes raw API requests.
type Transport interface {
	Do(ctx context.Context, r apiclient.Request) ([]byte, error)
}

// Resyncer is the part of the coordinator the gateway drives after a write.
type Resyncer interface {
	Active() string
	Invalidate(keys ...string)
	Resync(ctx context.Context, key string, trigger datasync.Trigger) datasync.Result
}

// Teardowner ends the session after an authentication rejection.
type Teardowner interface {
	Teardown(ctx context.Context) error
}

// Observer receives write statistics.
type Observer interface {
	ObserveMutation(key, method, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveMutation(string, string, string) {}

// Option configures a Gateway.
type Option func(*Gateway)

// WithNotifier sets where user-visible notices go.
func WithNotifier(n datasync.Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithNamespace sets the storage namespace used when seeding attachment sets.
func WithNamespace(ns string) Option {
	return func(g *Gateway) { g.namespace = ns }
}

// Gateway executes writes against the API. Writes to the same collection are
// serialized: a second write while one is running fails with ErrMutationInFlight.
type Gateway struct {
	catalog   *registry.Catalog
	transport Transport
	sync      Resyncer
	session   Teardowner
	notifier  datasync.Notifier
	observer  Observer
	logger    *zap.Logger
	namespace string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewGateway creates a gateway.
func NewGateway(catalog *registry.Catalog, transport Transport, resyncer Resyncer, sess Teardowner, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		catalog:   catalog,
		transport: transport,
		sync:      resyncer,
		session:   sess,
		observer:  nopObserver{},
		logger:    logger,
		namespace: attachment.DefaultNamespace,
		inFlight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.notifier == nil {
		g.notifier = datasync.NewLogNotifier(logger)
	}
	return g
}

// Mutate validates, encodes and sends req. On success the written collection and
// the cross-reference list are invalidated and the active collection is resynced
// before Mutate returns. On failure no cache entry is touched.
func (g *Gateway) Mutate(ctx context.Context, req Request) (*Response, error) {
	desc, ok := g.catalog.Lookup(req.Key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", datasync.ErrUnknownCollection, req.Key)
	}

	atts := req.Attachments
	if atts == nil && req.Method != Delete {
		atts = seedAttachments(g.namespace, desc, req.Payload)
	}
	if err := g.validate(req, desc, atts); err != nil {
		return nil, err
	}

	if !g.acquire(req.Key) {
		return nil, ErrMutationInFlight
	}
	defer g.release(req.Key)

	l := g.logger.With(
		zap.String("collection", req.Key),
		zap.Stringer("method", req.Method),
		zap.String("id", req.ID),
	)

	apiReq := apiclient.Request{Method: req.Method.HTTPMethod(), Path: desc.APIPath()}
	if req.Method != Create {
		apiReq.Path = desc.RecordPath(req.ID)
	}
	if req.Method != Delete {
		body, err := Encode(ctx, desc, req.Payload, atts)
		if err != nil {
			return nil, err
		}
		apiReq.Body = body.Reader
		apiReq.ContentType = body.ContentType
		l = l.With(zap.Bool("multipart", body.Multipart))
	}

	raw, err := g.transport.Do(ctx, apiReq)
	if err != nil {
		return nil, g.fail(ctx, l, req, err)
	}

	resp := &Response{Record: decodeRecord(raw)}
	l.Info("Write succeeded")
	g.observer.ObserveMutation(req.Key, req.Method.String(), "success")

	g.sync.Invalidate(req.Key, g.catalog.CrossRef().Key())
	active := g.sync.Active()
	if active == "" {
		active = req.Key
	}
	resp.Resync = g.sync.Resync(ctx, active, datasync.UserAction)

	g.notifier.Notify(datasync.Notice{
		Level:   datasync.LevelInfo,
		Message: fmt.Sprintf("%s %sd", desc.Label(), req.Method),
	})
	return resp, nil
}

// seedAttachments builds sets only for the attachment fields present in payload.
// Absent fields get no set and are left out of the request, so the server keeps
// what it has.
func seedAttachments(namespace string, desc *registry.Descriptor, payload registry.Record) *attachment.Reconciler {
	atts := attachment.NewReconciler(namespace)
	for _, field := range desc.FieldsOfKind(registry.KindAttachments) {
		if v, ok := payload[field]; ok {
			atts.Set(field).AddRemote(attachment.RemotePaths(v)...)
		}
	}
	return atts
}

func (g *Gateway) validate(req Request, desc *registry.Descriptor, atts *attachment.Reconciler) error {
	switch req.Method {
	case Create:
	case Update:
		if strings.TrimSpace(req.ID) == "" {
			return ErrMissingID
		}
	case Delete:
		if strings.TrimSpace(req.ID) == "" {
			return ErrMissingID
		}
		if !req.Confirmed {
			return ErrNotConfirmed
		}
		return nil
	default:
		return fmt.Errorf("unsupported write method %s", req.Method)
	}

	missingAtts := atts.Missing(desc)
	var missing []string
	for _, field := range desc.Required() {
		if desc.Kind(field) == registry.KindAttachments {
			// An update that does not touch the field keeps the stored files.
			if _, touched := atts.Lookup(field); !touched && req.Method == Update {
				continue
			}
			if slices.Contains(missingAtts, field) {
				missing = append(missing, field)
			}
			continue
		}
		if utils.IsBlank(req.Payload[field]) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Key: req.Key, Fields: missing}
	}
	return nil
}

func (g *Gateway) fail(ctx context.Context, l *zap.Logger, req Request, err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) || session.IsSessionError(err) {
		l.Warn("Write rejected, session expired", zap.Error(err))
		g.observer.ObserveMutation(req.Key, req.Method.String(), "session_expired")
		if g.session != nil {
			if terr := g.session.Teardown(context.WithoutCancel(ctx)); terr != nil {
				l.Warn("Session teardown failed", zap.Error(terr))
			}
		}
		g.notifier.Notify(datasync.Notice{Level: datasync.LevelError, Message: "Session expired, please log in again"})
		return session.ErrSessionExpired
	}

	merr := &MutationError{
		Method:  req.Method,
		Key:     req.Key,
		ID:      req.ID,
		Message: apiclient.Message(err),
		Err:     err,
	}
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		merr.StatusCode = httpErr.StatusCode
	}

	l.Warn("Write failed", zap.Error(err))
	g.observer.ObserveMutation(req.Key, req.Method.String(), "error")
	g.notifier.Notify(datasync.Notice{Level: datasync.LevelError, Message: merr.Error()})
	return merr
}

func (g *Gateway) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *Gateway) release(key string) {
	g.mu.Lock()
	delete(g.inFlight, key)
	g.mu.Unlock()
}

func decodeRecord(raw []byte) registry.Record {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil
	}
	var rec registry.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil
	}
	return rec
}
