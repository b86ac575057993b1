package attachment

import (
	"catalog-console/core/registry"
)

// Reconciler tracks the attachment sets of one record being edited.
type Reconciler struct {
	namespace string
	sets      map[string]*Set
	order     []string
}

// NewReconciler creates an empty reconciler. namespace defaults to DefaultNamespace.
func NewReconciler(namespace string) *Reconciler {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Reconciler{
		namespace: namespace,
		sets:      make(map[string]*Set),
	}
}

// Load seeds one set per attachment field of d from the persisted values in rec.
// Missing or empty values produce empty sets.
func (r *Reconciler) Load(rec registry.Record, d *registry.Descriptor) {
	for _, field := range d.FieldsOfKind(registry.KindAttachments) {
		set := r.Set(field)
		set.AddRemote(RemotePaths(rec[field])...)
	}
}

// Set returns the set bound to field, creating it on first use.
func (r *Reconciler) Set(field string) *Set {
	if s, ok := r.sets[field]; ok {
		return s
	}
	s := NewSet(field, r.namespace)
	r.sets[field] = s
	r.order = append(r.order, field)
	return s
}

// Lookup returns the set bound to field if one exists.
func (r *Reconciler) Lookup(field string) (*Set, bool) {
	s, ok := r.sets[field]
	return s, ok
}

// Fields returns the fields with a set, in first-use order.
func (r *Reconciler) Fields() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// HasLocal reports whether any field holds a pending blob.
func (r *Reconciler) HasLocal() bool {
	for _, s := range r.sets {
		if s.HasLocal() {
			return true
		}
	}
	return false
}

// Missing returns the required attachment fields of d whose set is empty.
func (r *Reconciler) Missing(d *registry.Descriptor) []string {
	var missing []string
	for _, field := range d.FieldsOfKind(registry.KindAttachments) {
		if !d.IsRequired(field) {
			continue
		}
		if s, ok := r.sets[field]; !ok || s.Len() == 0 {
			missing = append(missing, field)
		}
	}
	return missing
}

// RemotePaths extracts persisted paths from a decoded record value.
// Single strings, string slices and JSON arrays of strings are accepted.
func RemotePaths(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
