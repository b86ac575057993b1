package registry

import "fmt"

// FieldKind identifies how a record field is edited and transmitted.
type FieldKind string

const (
	// KindIdentity is the server-assigned identifier of a persisted record.
	KindIdentity FieldKind = "identity"
	// KindText is a free-form string.
	KindText FieldKind = "text"
	// KindInteger is a whole number.
	KindInteger FieldKind = "integer"
	// KindDecimal is a declared-decimal number, coerced to float64 before transmission.
	KindDecimal FieldKind = "decimal"
	// KindBoolean is a true/false flag.
	KindBoolean FieldKind = "boolean"
	// KindTimestamp is a server-produced point in time.
	KindTimestamp FieldKind = "timestamp"
	// KindReference points at a record of the cross-reference list.
	KindReference FieldKind = "reference"
	// KindAttachments holds a mixed set of remote file references and local blobs.
	KindAttachments FieldKind = "attachments"
)

// ParseFieldKind converts a string into a FieldKind, rejecting unknown values.
func ParseFieldKind(s string) (FieldKind, error) {
	switch k := FieldKind(s); k {
	case KindIdentity, KindText, KindInteger, KindDecimal, KindBoolean,
		KindTimestamp, KindReference, KindAttachments:
		return k, nil
	default:
		return "", fmt.Errorf("unknown field kind %q", s)
	}
}

// Field is a single named, typed field of a collection.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}
