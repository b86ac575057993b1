package datasync

import (
	"fmt"
	"strconv"
	"time"

	"catalog-console/core/registry"

	"github.com/tidwall/gjson"
)

// Trigger is the reason a resync was requested.
type Trigger int

const (
	// InitialLoad is the first load of a collection view.
	InitialLoad Trigger = iota
	// UserAction is an explicit refresh or the follow-up to a write.
	UserAction
	// BackgroundRefresh is a periodic, silent revalidation.
	BackgroundRefresh
)

func (t Trigger) String() string {
	switch t {
	case InitialLoad:
		return "initial_load"
	case UserAction:
		return "user_action"
	case BackgroundRefresh:
		return "background_refresh"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

// ParseTrigger parses the String form of a trigger.
func ParseTrigger(s string) (Trigger, error) {
	switch s {
	case "initial_load", "":
		return InitialLoad, nil
	case "user_action":
		return UserAction, nil
	case "background_refresh":
		return BackgroundRefresh, nil
	}
	return 0, fmt.Errorf("unknown trigger %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Trigger) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t Trigger) showsLoading() bool { return t == InitialLoad || t == UserAction }

// Source identifies one of the concurrent reads of a resync.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceCrossRef Source = "cross_ref"
	SourceAudit    Source = "audit"
)

// AuditLogEntry is one server-produced audit record. It is never modified client-side.
type AuditLogEntry struct {
	Action    string    `json:"action"`
	ActorName string    `json:"user_name"`
	TableName string    `json:"table_name"`
	RecordID  string    `json:"record_id"`
	LoggedAt  time.Time `json:"created_at"`
}

// UnmarshalJSON accepts numeric or string record ids and either RFC 3339 or
// epoch-millisecond timestamps.
func (e *AuditLogEntry) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid audit log entry")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("audit log entry must be an object")
	}

	e.Action = res.Get("action").String()
	e.ActorName = firstString(res, "user_name", "user.name", "actor")
	e.TableName = res.Get("table_name").String()
	e.RecordID = res.Get("record_id").String()

	ts := res.Get("created_at")
	if !ts.Exists() {
		ts = res.Get("logged_at")
	}
	switch ts.Type {
	case gjson.Number:
		e.LoggedAt = time.UnixMilli(ts.Int()).UTC()
	case gjson.String:
		if ms, err := strconv.ParseInt(ts.Str, 10, 64); err == nil {
			e.LoggedAt = time.UnixMilli(ms).UTC()
			break
		}
		t, err := time.Parse(time.RFC3339Nano, ts.Str)
		if err != nil {
			return fmt.Errorf("invalid audit timestamp %q: %w", ts.Str, err)
		}
		e.LoggedAt = t
	}
	return nil
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// View is a snapshot of what the console currently shows.
type View struct {
	ActiveKey string            `json:"active_key"`
	Records   []registry.Record `json:"records"`
	CrossRef  []registry.Record `json:"cross_ref"`
	Audit     []AuditLogEntry   `json:"audit"`
	Loading   bool              `json:"loading"`
}

// Outcome describes what happened to a single source during a resync.
type Outcome struct {
	Source Source `json:"source"`
	Key    string `json:"key"`
	// Needed is true when the source required a network read.
	Needed bool `json:"needed"`
	// Applied is true when the result reached the view.
	Applied bool `json:"applied"`
	// Discarded is true when a newer fetch or key switch superseded this one.
	Discarded bool  `json:"discarded"`
	Count     int   `json:"count"`
	Err       error `json:"-"`
}

// Result summarises a resync.
type Result struct {
	Key      string    `json:"key"`
	Trigger  Trigger   `json:"trigger"`
	Outcomes []Outcome `json:"outcomes"`
	// Err is ErrSessionExpired when the resync tore the session down.
	Err error `json:"-"`
}

// Outcome returns the outcome for src.
func (r Result) Outcome(src Source) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Source == src {
			return o, true
		}
	}
	return Outcome{}, false
}

// FetchErrors returns the non-fatal errors recorded during the resync.
func (r Result) FetchErrors() []*FetchError {
	var errs []*FetchError
	for _, o := range r.Outcomes {
		if fe, ok := o.Err.(*FetchError); ok {
			errs = append(errs, fe)
		}
	}
	return errs
}
