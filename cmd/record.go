package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"catalog-console/core/attachment"
	"catalog-console/core/datasync"
	"catalog-console/core/mutation"
	"catalog-console/core/registry"
	"catalog-console/core/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	setValues     []string
	attachFiles   []string
	attachObjects []string
	keepPaths     []string
	dropPaths     []string
	yesConfirm    bool
)

var createCmd = &cobra.Command{
	Use:   "create <collection>",
	Short: "Create a record",
	Long: `Create a record in a collection.

Examples:
  # Create a product with two uploaded images
  create products --set name=Chair --set price=49.90 --set category_id=3 \
    --attach images=./chair-front.png --attach images=./chair-back.png

  # Reuse an image already stored on the server
  create categories --set name=Seating --keep image=/uploads/seating.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(commandContext(cmd), mutation.Create, args[0], "")
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <collection> <id>",
	Short: "Update a record",
	Long: `Update a record. Fields not named with --set keep their current value.

Examples:
  # Change the price and replace one image
  update products 7 --set price=39.90 --drop images=/uploads/old.png --attach images=./new.png

  # Attach a file from the configured object store
  update products 7 --attach-object images=catalog/chair.png`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(commandContext(cmd), mutation.Update, args[0], args[1])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(commandContext(cmd), mutation.Delete, args[0], args[1])
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringArrayVar(&setValues, "set", nil, "Field value as field=value (repeatable)")
		c.Flags().StringArrayVar(&attachFiles, "attach", nil, "Upload a local file as field=path (repeatable)")
		c.Flags().StringArrayVar(&attachObjects, "attach-object", nil, "Upload an object from storage as field=object (repeatable)")
		c.Flags().StringArrayVar(&keepPaths, "keep", nil, "Reference a stored file as field=path (repeatable)")
	}
	updateCmd.Flags().StringArrayVar(&dropPaths, "drop", nil, "Remove a stored file as field=path (repeatable)")
	deleteCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm the deletion (non-interactive)")

	RootCmd.AddCommand(createCmd, updateCmd, deleteCmd)
}

func runWrite(ctx context.Context, method mutation.Method, key, id string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	d, ok := a.catalog.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", datasync.ErrUnknownCollection, key)
	}

	req := mutation.Request{Method: method, Key: key, ID: id}
	l := a.logger.With(zap.String("collection", key), zap.Stringer("method", method))

	switch method {
	case mutation.Delete:
		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		req.Confirmed = true
	default:
		current := registry.Record{}
		if method == mutation.Update {
			if current, err = findRecord(ctx, a, key, id); err != nil {
				return err
			}
		}

		var src objectSource
		if len(attachObjects) > 0 {
			blobs, err := a.blobSource(ctx)
			if err != nil {
				return err
			}
			src = blobs
		}

		req.Payload, req.Attachments, err = buildEdit(ctx, d, current, a.cfg.Storage.Namespace, editFlags{
			set:     setValues,
			files:   attachFiles,
			objects: attachObjects,
			keep:    keepPaths,
			drop:    dropPaths,
		}, src)
		if err != nil {
			return err
		}
	}

	resp, err := a.gateway.Mutate(ctx, req)
	if err != nil {
		return err
	}

	if rec := resp.Record; rec != nil {
		l.Info("Record saved", zap.String("id", rec.ID()))
	}
	for _, ferr := range resp.Resync.FetchErrors() {
		l.Warn("Resync incomplete, showing last known data", zap.Error(ferr))
	}
	return renderRecords(os.Stdout, d, a.coord.View().Records)
}

// findRecord loads the collection and returns the record with id.
func findRecord(ctx context.Context, a *app, key, id string) (registry.Record, error) {
	res := a.coord.Resync(ctx, key, datasync.InitialLoad)
	if res.Err != nil {
		return nil, res.Err
	}
	for _, rec := range a.coord.View().Records {
		if rec.ID() == id {
			return rec.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%s record %s not found", key, id)
}

type editFlags struct {
	set     []string
	files   []string
	objects []string
	keep    []string
	drop    []string
}

// objectSource resolves storage objects into blobs.
type objectSource interface {
	Blob(ctx context.Context, objectName string) (attachment.Blob, error)
}

// buildEdit applies the command line edits on top of current.
func buildEdit(ctx context.Context, d *registry.Descriptor, current registry.Record, namespace string, flags editFlags, src objectSource) (registry.Record, *attachment.Reconciler, error) {
	payload := current.Clone()
	atts := attachment.NewReconciler(namespace)
	atts.Load(current, d)

	for _, raw := range flags.set {
		field, value, err := parseAssignment(d, raw)
		if err != nil {
			return nil, nil, err
		}
		kind := d.Kind(field)
		if kind == registry.KindAttachments {
			return nil, nil, fmt.Errorf("%s is an attachment field, use --attach or --keep", field)
		}
		payload[field] = parseValue(kind, value)
	}

	for _, raw := range flags.drop {
		field, path, err := parseAttachment(d, raw)
		if err != nil {
			return nil, nil, err
		}
		if !atts.Set(field).RemoveRemote(path) {
			return nil, nil, fmt.Errorf("%s does not reference %s", field, path)
		}
	}
	for _, raw := range flags.keep {
		field, path, err := parseAttachment(d, raw)
		if err != nil {
			return nil, nil, err
		}
		atts.Set(field).AddRemote(path)
	}
	for _, raw := range flags.files {
		field, path, err := parseAttachment(d, raw)
		if err != nil {
			return nil, nil, err
		}
		blob, err := attachment.FileBlob(path)
		if err != nil {
			return nil, nil, err
		}
		atts.Set(field).AddLocal(blob)
	}
	for _, raw := range flags.objects {
		field, object, err := parseAttachment(d, raw)
		if err != nil {
			return nil, nil, err
		}
		if src == nil {
			return nil, nil, fmt.Errorf("object storage is not configured")
		}
		blob, err := src.Blob(ctx, object)
		if err != nil {
			return nil, nil, err
		}
		atts.Set(field).AddLocal(blob)
	}
	return payload, atts, nil
}

func parseAssignment(d *registry.Descriptor, raw string) (string, string, error) {
	field, value, ok := strings.Cut(raw, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return "", "", fmt.Errorf("expected field=value, got %q", raw)
	}
	if d.Kind(field) == "" {
		return "", "", fmt.Errorf("%s has no field %q", d.Key(), field)
	}
	if d.IsServerManaged(field) {
		return "", "", fmt.Errorf("%s is managed by the server", field)
	}
	return field, value, nil
}

func parseAttachment(d *registry.Descriptor, raw string) (string, string, error) {
	field, value, err := parseAssignment(d, raw)
	if err != nil {
		return "", "", err
	}
	if d.Kind(field) != registry.KindAttachments {
		return "", "", fmt.Errorf("%s is not an attachment field", field)
	}
	if value == "" {
		return "", "", fmt.Errorf("missing path in %q", raw)
	}
	return field, value, nil
}

// parseValue converts command line text by field kind. Text that does not parse
// is kept as typed and left for the server to reject.
func parseValue(kind registry.FieldKind, value string) any {
	switch kind {
	case registry.KindInteger, registry.KindReference:
		if f, ok := utils.ToFloat(value); ok && f == float64(int64(f)) {
			return int64(f)
		}
	case registry.KindBoolean:
		switch strings.ToLower(value) {
		case "true", "yes", "1":
			return true
		case "false", "no", "0":
			return false
		}
	}
	return value
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm the deletion: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
