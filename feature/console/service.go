package console

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"catalog-console/core/attachment"
	"catalog-console/core/datasync"
	"catalog-console/core/mutation"
	"catalog-console/core/registry"
	"catalog-console/core/session"

	"go.uber.org/zap"
)

// Service exposes the synchronization core to the console routes.
type Service struct {
	coord     *datasync.Coordinator
	gateway   *mutation.Gateway
	session   *session.Session
	auth      *session.Auth
	namespace string
	logger    *zap.Logger
}

// NewService creates a console service.
func NewService(coord *datasync.Coordinator, gateway *mutation.Gateway, sess *session.Session, auth *session.Auth, namespace string, logger *zap.Logger) *Service {
	if namespace == "" {
		namespace = attachment.DefaultNamespace
	}
	return &Service{
		coord:     coord,
		gateway:   gateway,
		session:   sess,
		auth:      auth,
		namespace: namespace,
		logger:    logger,
	}
}

// CollectionInfo describes a collection for clients of the console.
type CollectionInfo struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	APIPath  string           `json:"api_path"`
	Fields   []registry.Field `json:"fields"`
	Required []string         `json:"required"`
	Active   bool             `json:"active"`
	Fresh    bool             `json:"fresh"`
}

// Collections lists the catalog.
func (s *Service) Collections() []CollectionInfo {
	cat := s.coord.Catalog()
	active := s.coord.Active()
	var out []CollectionInfo
	for _, key := range cat.Keys() {
		d, _ := cat.Lookup(key)
		out = append(out, CollectionInfo{
			Key:      d.Key(),
			Label:    d.Label(),
			APIPath:  d.APIPath(),
			Fields:   d.Fields(),
			Required: d.Required(),
			Active:   key == active,
			Fresh:    s.coord.RecordCache().IsFresh(key),
		})
	}
	return out
}

// Resync brings key up to date and returns the resulting view.
func (s *Service) Resync(ctx context.Context, key string, trigger datasync.Trigger) (datasync.View, datasync.Result) {
	res := s.coord.Resync(ctx, key, trigger)
	return s.coord.View(), res
}

// Write runs a mutation.
func (s *Service) Write(ctx context.Context, req mutation.Request) (*mutation.Response, error) {
	return s.gateway.Mutate(ctx, req)
}

// Profile returns the logged-in profile, if any.
func (s *Service) Profile() (session.Profile, bool) {
	return s.session.Profile(), s.session.Authenticated()
}

// Login starts a session.
func (s *Service) Login(ctx context.Context, email, password string) (session.Profile, error) {
	return s.auth.Login(ctx, email, password)
}

// Logout ends the session.
func (s *Service) Logout(ctx context.Context) error {
	return s.auth.Logout(ctx)
}

// ParseForm turns a multipart form into a write payload. Plain values become
// payload fields; for every attachment field, "existing_<field>" values are kept
// as persisted paths and uploaded files become pending blobs. An empty
// "existing_<field>" value with no files clears the field.
func (s *Service) ParseForm(key string, form *multipart.Form) (registry.Record, *attachment.Reconciler, error) {
	d, ok := s.coord.Catalog().Lookup(key)
	if !ok {
		return nil, nil, datasync.ErrUnknownCollection
	}

	payload := registry.Record{}
	for name, values := range form.Value {
		if strings.HasPrefix(name, mutation.RetainedPrefix) || len(values) == 0 {
			continue
		}
		payload[name] = values[0]
	}

	atts := attachment.NewReconciler(s.namespace)
	for _, field := range d.FieldsOfKind(registry.KindAttachments) {
		kept, hasKept := form.Value[mutation.RetainedPrefix+field]
		files := form.File[field]
		if !hasKept && len(files) == 0 {
			// Not part of the form: the server keeps the current files.
			continue
		}
		set := atts.Set(field)
		set.AddRemote(kept...)
		for _, fh := range files {
			fh := fh
			set.AddLocal(attachment.NewBlob(fh.Filename, fh.Header.Get("Content-Type"), fh.Size,
				func(context.Context) (io.ReadCloser, error) { return fh.Open() }))
		}
	}
	return payload, atts, nil
}
