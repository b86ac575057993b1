// Package audit exposes the role-gated audit log at GET /console/audit.
// Only sessions with the admin role may read it.
package audit
