package session

// Config holds configuration for session persistence.
type Config struct {
	// Scope isolates persisted sessions, the way a browser tab isolates its storage.
	Scope string `mapstructure:"scope" default:"default"`
	// Persist stores the session in the database; when false it lives in memory only.
	Persist bool `mapstructure:"persist" default:"true"`
}
