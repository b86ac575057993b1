package attachment

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIndexOutOfRange is returned when RemoveAt addresses a missing entry.
var ErrIndexOutOfRange = errors.New("attachment index out of range")

// TransportView is the upload-ready split of an attachment field.
type TransportView struct {
	// RemoteRefs are the persisted paths to retain, in original order.
	RemoteRefs []string
	// LocalBlobs are the pending uploads, in selection order.
	LocalBlobs []Blob
}

// Set is the ordered attachment sequence of one record field.
type Set struct {
	field     string
	namespace string
	entries   []Entry
}

// NewSet creates an empty set for field. Remote paths are normalized under namespace.
func NewSet(field, namespace string) *Set {
	return &Set{field: field, namespace: namespace}
}

// Field returns the record field the set is bound to.
func (s *Set) Field() string { return s.field }

// Len returns the total number of entries.
func (s *Set) Len() int { return len(s.entries) }

// Entries returns a copy of the ordered entries.
func (s *Set) Entries() []Entry { return slices.Clone(s.entries) }

// AddRemote appends persisted paths. Adding a path that is already present is a no-op.
func (s *Set) AddRemote(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		norm := NormalizePath(s.namespace, p)
		if s.hasRemote(norm) {
			continue
		}
		s.entries = append(s.entries, RemoteEntry(norm))
	}
}

// AddLocal appends pending blobs. Existing entries are never removed.
func (s *Set) AddLocal(blobs ...Blob) {
	for _, b := range blobs {
		s.entries = append(s.entries, LocalEntry(b))
	}
}

// RemoveAt removes the index-th entry of the given kind. Remote and Local entries are
// addressed independently within their own subsequence.
func (s *Set) RemoveAt(index int, kind Kind) (Entry, error) {
	if index < 0 {
		return Entry{}, fmt.Errorf("%w: %s[%d] (%s)", ErrIndexOutOfRange, s.field, index, kind)
	}
	seen := 0
	for i, e := range s.entries {
		if e.Kind != kind {
			continue
		}
		if seen == index {
			s.entries = slices.Delete(s.entries, i, i+1)
			return e, nil
		}
		seen++
	}
	return Entry{}, fmt.Errorf("%w: %s[%d] (%s)", ErrIndexOutOfRange, s.field, index, kind)
}

// RemoveRemote removes a persisted path, reporting whether it was present.
func (s *Set) RemoveRemote(path string) bool {
	norm := NormalizePath(s.namespace, path)
	for i, e := range s.entries {
		if e.Kind == KindRemote && e.Path == norm {
			s.entries = slices.Delete(s.entries, i, i+1)
			return true
		}
	}
	return false
}

// HasLocal reports whether at least one pending blob is present.
func (s *Set) HasLocal() bool {
	for _, e := range s.entries {
		if e.Kind == KindLocal {
			return true
		}
	}
	return false
}

// TransportView splits the set into retained remote paths and pending blobs.
func (s *Set) TransportView() TransportView {
	var view TransportView
	for _, e := range s.entries {
		switch e.Kind {
		case KindRemote:
			view.RemoteRefs = append(view.RemoteRefs, e.Path)
		case KindLocal:
			view.LocalBlobs = append(view.LocalBlobs, e.Blob)
		}
	}
	return view
}

func (s *Set) hasRemote(path string) bool {
	for _, e := range s.entries {
		if e.Kind == KindRemote && e.Path == path {
			return true
		}
	}
	return false
}
