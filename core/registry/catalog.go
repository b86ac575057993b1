package registry

import (
	"fmt"
	"sort"
)

// Collection keys known to the console.
const (
	KeyProducts   = "products"
	KeyCategories = "categories"
	// KeyCrossRef is the cache key of the cross-reference list that feeds the
	// category selector inside product records.
	KeyCrossRef = "category_options"
	// KeyAuditLogs is the cache key of the audit log.
	KeyAuditLogs = "audit_logs"
)

// AuditPath is the REST path of the audit log.
const AuditPath = "/audit_logs"

// Catalog is the static set of collection descriptors plus the cross-reference list.
type Catalog struct {
	collections map[string]*Descriptor
	crossRef    *Descriptor
}

// NewCatalog builds a catalog from descriptors; crossRef describes the cross-reference list.
func NewCatalog(crossRef *Descriptor, collections ...*Descriptor) (*Catalog, error) {
	if crossRef == nil {
		return nil, fmt.Errorf("%w: missing cross-reference descriptor", ErrInvalidDescriptor)
	}
	c := &Catalog{
		collections: make(map[string]*Descriptor, len(collections)),
		crossRef:    crossRef,
	}
	for _, d := range collections {
		if d.Key() == crossRef.Key() || d.Key() == KeyAuditLogs {
			return nil, fmt.Errorf("%w: collection key %q is reserved", ErrInvalidDescriptor, d.Key())
		}
		if _, dup := c.collections[d.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate collection %q", ErrInvalidDescriptor, d.Key())
		}
		c.collections[d.Key()] = d
	}
	return c, nil
}

// Lookup returns the descriptor for key.
func (c *Catalog) Lookup(key string) (*Descriptor, bool) {
	d, ok := c.collections[key]
	return d, ok
}

// CrossRef returns the cross-reference list descriptor.
func (c *Catalog) CrossRef() *Descriptor { return c.crossRef }

// Keys returns all collection keys sorted alphabetically.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.collections))
	for k := range c.collections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default returns the built-in catalog of products and categories.
// crossRefPath overrides the API path of the cross-reference list when non-empty.
func Default(crossRefPath ...string) *Catalog {
	refPath := "/categories"
	if len(crossRefPath) > 0 && crossRefPath[0] != "" {
		refPath = crossRefPath[0]
	}

	products := mustDescriptor(Spec{
		Key:     KeyProducts,
		APIPath: "/products",
		Label:   "Products",
		Fields:  []string{"id", "name", "description", "price", "stock", "category_id", "images", "created_at", "updated_at"},
		Kinds: map[string]FieldKind{
			"id":          KindIdentity,
			"name":        KindText,
			"description": KindText,
			"price":       KindDecimal,
			"stock":       KindInteger,
			"category_id": KindReference,
			"images":      KindAttachments,
			"created_at":  KindTimestamp,
			"updated_at":  KindTimestamp,
		},
		Required:      []string{"name", "price", "category_id"},
		ServerManaged: []string{"created_at", "updated_at"},
	})

	categories := mustDescriptor(Spec{
		Key:     KeyCategories,
		APIPath: "/categories",
		Label:   "Categories",
		Fields:  []string{"id", "name", "description", "image", "active", "created_at", "updated_at"},
		Kinds: map[string]FieldKind{
			"id":          KindIdentity,
			"name":        KindText,
			"description": KindText,
			"image":       KindAttachments,
			"active":      KindBoolean,
			"created_at":  KindTimestamp,
			"updated_at":  KindTimestamp,
		},
		Required:      []string{"name"},
		ServerManaged: []string{"created_at", "updated_at"},
	})

	crossRef := mustDescriptor(Spec{
		Key:     KeyCrossRef,
		APIPath: refPath,
		Label:   "Category options",
		Fields:  []string{"id", "name"},
		Kinds: map[string]FieldKind{
			"id":   KindIdentity,
			"name": KindText,
		},
	})

	cat, err := NewCatalog(crossRef, products, categories)
	if err != nil {
		panic(err)
	}
	return cat
}

func mustDescriptor(spec Spec) *Descriptor {
	d, err := NewDescriptor(spec)
	if err != nil {
		panic(err)
	}
	return d
}
