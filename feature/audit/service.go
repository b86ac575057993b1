package audit

import (
	"context"
	"errors"

	"catalog-console/core/datasync"
	"catalog-console/core/registry"

	"go.uber.org/zap"
)

// ErrForbidden is returned when the session role may not view the audit log.
var ErrForbidden = errors.New("audit log requires the admin role")

// Viewer reports whether the current session may see the audit log.
type Viewer interface {
	CanViewAudit() bool
}

// Service reads the audit log through the coordinator.
type Service struct {
	coord  *datasync.Coordinator
	viewer Viewer
	logger *zap.Logger
}

// NewService creates an audit service.
func NewService(coord *datasync.Coordinator, viewer Viewer, logger *zap.Logger) *Service {
	return &Service{coord: coord, viewer: viewer, logger: logger}
}

// Report is the audit log as last synchronized.
type Report struct {
	Entries []datasync.AuditLogEntry `json:"entries"`
	Fresh   bool                     `json:"fresh"`
	// Outcome is set when the report was refreshed.
	Outcome *datasync.Outcome `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Entries returns the audit log. With refresh, the active collection (products
// when none is active) is resynced first, which always refetches the log.
func (s *Service) Entries(ctx context.Context, refresh bool) (Report, error) {
	if !s.viewer.CanViewAudit() {
		return Report{}, ErrForbidden
	}

	var report Report
	if refresh {
		key := s.coord.Active()
		if key == "" {
			key = registry.KeyProducts
		}
		res := s.coord.Resync(ctx, key, datasync.UserAction)
		if res.Err != nil {
			return Report{}, res.Err
		}
		if o, ok := res.Outcome(datasync.SourceAudit); ok {
			report.Outcome = &o
			if o.Err != nil {
				report.Error = o.Err.Error()
			}
		}
	}

	entry, ok := s.coord.AuditCache().Get(registry.KeyAuditLogs)
	if ok {
		report.Entries = entry.Data
	} else {
		report.Entries = s.coord.View().Audit
	}
	if report.Entries == nil {
		report.Entries = []datasync.AuditLogEntry{}
	}
	report.Fresh = s.coord.AuditCache().IsFresh(registry.KeyAuditLogs)
	return report, nil
}
