package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"catalog-console/core/attachment"
	"catalog-console/core/datasync"
	"catalog-console/core/registry"
	"catalog-console/core/utils"

	"github.com/olekukonko/tablewriter"
)

// renderRecords prints records as a table with one column per descriptor field.
func renderRecords(w io.Writer, d *registry.Descriptor, records []registry.Record) error {
	fields := d.Fields()

	header := make([]any, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)
	for _, rec := range records {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = formatValue(f.Kind, rec[f.Name])
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatValue(kind registry.FieldKind, v any) string {
	if v == nil {
		return ""
	}
	switch kind {
	case registry.KindAttachments:
		return strings.Join(attachment.RemotePaths(v), "\n")
	case registry.KindDecimal:
		if f, ok := utils.ToFloat(v); ok {
			return fmt.Sprintf("%.2f", f)
		}
	case registry.KindBoolean:
		if utils.ToBool(v) {
			return "yes"
		}
		return "no"
	}
	return utils.ToString(v)
}

// renderAudit prints audit log entries, newest first as delivered by the API.
func renderAudit(w io.Writer, entries []datasync.AuditLogEntry) error {
	table := tablewriter.NewWriter(w)
	table.Header("When", "Actor", "Action", "Table", "Record")
	for _, e := range entries {
		when := ""
		if !e.LoggedAt.IsZero() {
			when = e.LoggedAt.Local().Format(time.DateTime)
		}
		if err := table.Append([]string{when, e.ActorName, e.Action, e.TableName, e.RecordID}); err != nil {
			return err
		}
	}
	return table.Render()
}

// renderOutcomes prints the per-source result of a resync.
func renderOutcomes(w io.Writer, res datasync.Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Source", "Key", "Fetched", "Applied", "Rows", "Error")
	for _, o := range res.Outcomes {
		msg := ""
		if o.Err != nil {
			msg = o.Err.Error()
		}
		row := []string{string(o.Source), o.Key, yesNo(o.Needed), yesNo(o.Applied), fmt.Sprint(o.Count), msg}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
