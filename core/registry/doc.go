// Package registry holds the static catalog of collection descriptors.
//
// A Descriptor describes one remote entity collection: the API path it is served
// from, the ordered list of fields, which of those fields are required, and which
// are managed by the server and must never be transmitted on writes.
//
// # Field Kinds
//
// Every field carries an explicit FieldKind taken from a name-to-kind lookup table
// supplied at construction time. NewDescriptor fails fast when a listed field has no
// kind, so widget dispatch and payload coercion never have to guess from field names.
//
// # Usage
//
//	cat := registry.Default()
//	products, ok := cat.Lookup("products")
//	if ok && products.Kind("price") == registry.KindDecimal {
//	    // coerce before sending
//	}
package registry
