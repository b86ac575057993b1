package apiclient

// Config holds configuration for the remote REST API.
type Config struct {
	// BaseURL is the root URL every API path is appended to.
	BaseURL string `mapstructure:"base_url" default:"http://localhost:3000/api"`
	// TimeoutSeconds bounds every request, including body transfer.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent" default:"catalog-console/1.0"`
}
