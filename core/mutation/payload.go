package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"catalog-console/core/attachment"
	"catalog-console/core/registry"
	"catalog-console/core/utils"
)

// RetainedPrefix names the multipart fields that tell the server which persisted
// attachments to keep.
const RetainedPrefix = "existing_"

// Body is an encoded request body.
type Body struct {
	Reader      io.Reader
	ContentType string
	Multipart   bool
}

// scalarFields returns the transmittable non-attachment fields of rec in
// descriptor order, with decimals coerced.
func scalarFields(d *registry.Descriptor, rec registry.Record) ([]string, map[string]any) {
	var order []string
	values := make(map[string]any)
	for _, f := range d.Fields() {
		if d.IsServerManaged(f.Name) || f.Kind == registry.KindAttachments {
			continue
		}
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		if f.Kind == registry.KindDecimal {
			v = coerceDecimal(v)
		}
		order = append(order, f.Name)
		values[f.Name] = v
	}
	return order, values
}

// coerceDecimal converts numeric input to float64. Anything else is sent as is
// and left to the server to reject.
func coerceDecimal(v any) any {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return v
	}
	if f, ok := utils.ToFloat(v); ok {
		return f
	}
	return v
}

// Encode builds the request body for a create or update. Any pending blob switches
// the whole request to multipart/form-data.
func Encode(ctx context.Context, d *registry.Descriptor, rec registry.Record, atts *attachment.Reconciler) (*Body, error) {
	if atts != nil && atts.HasLocal() {
		return encodeMultipart(ctx, d, rec, atts)
	}
	return encodeJSON(d, rec, atts)
}

func encodeJSON(d *registry.Descriptor, rec registry.Record, atts *attachment.Reconciler) (*Body, error) {
	_, values := scalarFields(d, rec)
	for _, field := range d.FieldsOfKind(registry.KindAttachments) {
		if atts == nil {
			continue
		}
		set, ok := atts.Lookup(field)
		if !ok {
			continue
		}
		refs := set.TransportView().RemoteRefs
		if refs == nil {
			refs = []string{}
		}
		values[field] = refs
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", d.Key(), err)
	}
	return &Body{Reader: bytes.NewReader(payload), ContentType: "application/json"}, nil
}

func encodeMultipart(ctx context.Context, d *registry.Descriptor, rec registry.Record, atts *attachment.Reconciler) (*Body, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	order, values := scalarFields(d, rec)
	for _, name := range order {
		v := values[name]
		if v == nil {
			continue
		}
		if err := w.WriteField(name, utils.ToString(v)); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, field := range d.FieldsOfKind(registry.KindAttachments) {
		set, ok := atts.Lookup(field)
		if !ok {
			continue
		}
		view := set.TransportView()
		for _, ref := range view.RemoteRefs {
			if err := w.WriteField(RetainedPrefix+field, ref); err != nil {
				return nil, fmt.Errorf("failed to write retained reference %s: %w", ref, err)
			}
		}
		for _, blob := range view.LocalBlobs {
			if err := writeBlob(ctx, w, field, blob); err != nil {
				return nil, err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &Body{Reader: &buf, ContentType: w.FormDataContentType(), Multipart: true}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeBlob(ctx context.Context, w *multipart.Writer, field string, blob attachment.Blob) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(blob.Name)))
	h.Set("Content-Type", blob.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", blob.Name, err)
	}

	rc, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open attachment %s: %w", blob.Name, err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("failed to copy attachment %s: %w", blob.Name, err)
	}
	return nil
}
