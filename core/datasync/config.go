package datasync

import "time"

// Config defines the synchronization settings.
type Config struct {
	// TTLMs is how long a fetched snapshot stays fresh, in milliseconds.
	TTLMs int `mapstructure:"ttl_ms" default:"300000"`
	// CrossRefPath is the API path of the cross-reference list.
	CrossRefPath string `mapstructure:"cross_ref_path" default:"/categories"`
	// AuditPath is the API path of the audit log.
	AuditPath string `mapstructure:"audit_path" default:"/audit_logs"`
	// RefreshSeconds is the background revalidation interval; 0 disables it.
	RefreshSeconds int `mapstructure:"refresh_seconds" default:"60"`
}

// TTL returns TTLMs as a duration.
func (c Config) TTL() time.Duration {
	if c.TTLMs <= 0 {
		return DefaultTTL
	}
	return time.Duration(c.TTLMs) * time.Millisecond
}

// RefreshInterval returns RefreshSeconds as a duration.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}
