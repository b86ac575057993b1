package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDescriptor(t *testing.T) {
	base := func() Spec {
		return Spec{
			Key:     "widgets",
			APIPath: "/widgets",
			Fields:  []string{"id", "name", "price"},
			Kinds: map[string]FieldKind{
				"id":    KindIdentity,
				"name":  KindText,
				"price": KindDecimal,
			},
			Required: []string{"name"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Spec)
		expectErr string
	}{
		{name: "Valid", mutate: func(*Spec) {}},
		{name: "EmptyKey", mutate: func(s *Spec) { s.Key = "" }, expectErr: "empty key"},
		{name: "RelativePath", mutate: func(s *Spec) { s.APIPath = "widgets" }, expectErr: "must start with /"},
		{name: "FieldWithoutKind", mutate: func(s *Spec) { s.Fields = append(s.Fields, "colour") }, expectErr: `field "colour" has no kind`},
		{name: "UnknownKind", mutate: func(s *Spec) { s.Kinds["price"] = "money" }, expectErr: `unknown field kind "money"`},
		{name: "KindForUnlistedField", mutate: func(s *Spec) { s.Kinds["ghost"] = KindText }, expectErr: `unlisted field "ghost"`},
		{name: "UnknownRequired", mutate: func(s *Spec) { s.Required = []string{"ghost"} }, expectErr: `required field "ghost"`},
		{name: "UnknownServerManaged", mutate: func(s *Spec) { s.ServerManaged = []string{"ghost"} }, expectErr: `server-managed field "ghost"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base()
			tt.mutate(&spec)
			d, err := NewDescriptor(spec)
			if tt.expectErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDescriptor)
				assert.Contains(t, err.Error(), tt.expectErr)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "widgets", d.Key())
			assert.Equal(t, KindDecimal, d.Kind("price"))
			assert.True(t, d.IsRequired("name"))
			assert.True(t, d.IsServerManaged("id"))
		})
	}
}

func TestDescriptor_Accessors(t *testing.T) {
	cat := Default()
	products, ok := cat.Lookup(KeyProducts)
	require.True(t, ok)

	assert.Equal(t, "/products", products.APIPath())
	assert.Equal(t, "/products/7", products.RecordPath("7"))
	assert.Equal(t, []string{"images"}, products.FieldsOfKind(KindAttachments))
	assert.True(t, products.IsServerManaged("created_at"))
	assert.False(t, products.IsServerManaged("name"))
	assert.Equal(t, FieldKind(""), products.Kind("nope"))

	// Returned slices are copies.
	req := products.Required()
	req[0] = "mutated"
	assert.Equal(t, "name", products.Required()[0])
}

func TestCatalog_Default(t *testing.T) {
	cat := Default("/category-options")
	assert.Equal(t, []string{KeyCategories, KeyProducts}, cat.Keys())
	assert.Equal(t, KeyCrossRef, cat.CrossRef().Key())
	assert.Equal(t, "/category-options", cat.CrossRef().APIPath())

	_, ok := cat.Lookup("unknown")
	assert.False(t, ok)
}

func TestNewCatalog_RejectsReservedKeys(t *testing.T) {
	ref := mustDescriptor(Spec{Key: KeyCrossRef, APIPath: "/x", Fields: []string{"id"}, Kinds: map[string]FieldKind{"id": KindIdentity}})
	clash := mustDescriptor(Spec{Key: KeyAuditLogs, APIPath: "/y", Fields: []string{"id"}, Kinds: map[string]FieldKind{"id": KindIdentity}})

	_, err := NewCatalog(ref, clash)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = NewCatalog(nil)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{"Missing", Record{"name": "x"}, ""},
		{"Nil", Record{"id": nil}, ""},
		{"String", Record{"id": "abc"}, "abc"},
		{"JSONNumber", Record{"id": float64(7)}, "7"},
		{"Int", Record{"id": 12}, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.ID())
		})
	}
}
