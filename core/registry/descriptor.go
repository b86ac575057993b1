package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultIdentityField is the name of the server-assigned identity field.
const DefaultIdentityField = "id"

// Record is a single entity as exchanged with the remote API.
type Record map[string]any

// ID returns the record's identity as a string, or "" when it has not been persisted yet.
func (r Record) ID() string {
	v, ok := r[DefaultIdentityField]
	if !ok || v == nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Descriptor describes one remote collection. It is immutable once built.
type Descriptor struct {
	key           string
	apiPath       string
	label         string
	fields        []Field
	kinds         map[string]FieldKind
	required      []string
	serverManaged []string
	identity      string
}

// Spec is the raw input used to build a Descriptor.
type Spec struct {
	// Key is the unique collection key (e.g. "products").
	Key string
	// APIPath is the REST path the collection is served from (e.g. "/products").
	APIPath string
	// Label is a human readable name; defaults to Key.
	Label string
	// Fields is the ordered field list.
	Fields []string
	// Kinds maps every field name in Fields to its kind.
	Kinds map[string]FieldKind
	// Required lists fields that must be non-empty before a write.
	Required []string
	// ServerManaged lists fields stripped from every write payload.
	ServerManaged []string
}

// ErrInvalidDescriptor is returned when a descriptor spec is inconsistent.
var ErrInvalidDescriptor = errors.New("invalid collection descriptor")

// NewDescriptor validates spec and builds an immutable Descriptor.
func NewDescriptor(spec Spec) (*Descriptor, error) {
	if spec.Key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidDescriptor)
	}
	if !strings.HasPrefix(spec.APIPath, "/") {
		return nil, fmt.Errorf("%w: %s: api path %q must start with /", ErrInvalidDescriptor, spec.Key, spec.APIPath)
	}

	d := &Descriptor{
		key:      spec.Key,
		apiPath:  strings.TrimSuffix(spec.APIPath, "/"),
		label:    spec.Label,
		kinds:    make(map[string]FieldKind, len(spec.Fields)),
		identity: DefaultIdentityField,
	}
	if d.label == "" {
		d.label = spec.Key
	}

	for _, name := range spec.Fields {
		kind, ok := spec.Kinds[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: field %q has no kind", ErrInvalidDescriptor, spec.Key, name)
		}
		if _, err := ParseFieldKind(string(kind)); err != nil {
			return nil, fmt.Errorf("%w: %s: field %q: %v", ErrInvalidDescriptor, spec.Key, name, err)
		}
		if _, dup := d.kinds[name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidDescriptor, spec.Key, name)
		}
		d.kinds[name] = kind
		d.fields = append(d.fields, Field{Name: name, Kind: kind})
	}

	for name := range spec.Kinds {
		if _, listed := d.kinds[name]; !listed {
			return nil, fmt.Errorf("%w: %s: kind given for unlisted field %q", ErrInvalidDescriptor, spec.Key, name)
		}
	}

	for _, name := range spec.Required {
		if _, ok := d.kinds[name]; !ok {
			return nil, fmt.Errorf("%w: %s: required field %q is not declared", ErrInvalidDescriptor, spec.Key, name)
		}
	}
	for _, name := range spec.ServerManaged {
		if _, ok := d.kinds[name]; !ok {
			return nil, fmt.Errorf("%w: %s: server-managed field %q is not declared", ErrInvalidDescriptor, spec.Key, name)
		}
	}
	d.required = slices.Clone(spec.Required)
	d.serverManaged = slices.Clone(spec.ServerManaged)

	return d, nil
}

// Key returns the collection key.
func (d *Descriptor) Key() string { return d.key }

// APIPath returns the collection REST path without a trailing slash.
func (d *Descriptor) APIPath() string { return d.apiPath }

// Label returns the display name.
func (d *Descriptor) Label() string { return d.label }

// IdentityField returns the name of the identity field.
func (d *Descriptor) IdentityField() string { return d.identity }

// Fields returns a copy of the ordered field list.
func (d *Descriptor) Fields() []Field { return slices.Clone(d.fields) }

// Required returns a copy of the required field names.
func (d *Descriptor) Required() []string { return slices.Clone(d.required) }

// Kind returns the kind of a field, or "" if the field is not declared.
func (d *Descriptor) Kind(field string) FieldKind { return d.kinds[field] }

// IsRequired reports whether a field must be filled before a write.
func (d *Descriptor) IsRequired(field string) bool { return slices.Contains(d.required, field) }

// IsServerManaged reports whether a field must be stripped from write payloads.
func (d *Descriptor) IsServerManaged(field string) bool {
	return field == d.identity || slices.Contains(d.serverManaged, field)
}

// FieldsOfKind returns the names of all fields with the given kind, in declaration order.
func (d *Descriptor) FieldsOfKind(kind FieldKind) []string {
	var out []string
	for _, f := range d.fields {
		if f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}

// RecordPath returns the REST path of a single record.
func (d *Descriptor) RecordPath(id string) string {
	return d.apiPath + "/" + id
}
