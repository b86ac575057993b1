// Package config loads the console configuration.
//
// Values come from the environment, optionally seeded from a .env file, with
// defaults taken from the `default` struct tags of each section. Nested keys map
// to upper-case variables with dots replaced by underscores, so api.base_url is
// read from API_BASE_URL.
//
// # Sections
//
//   - API: remote REST API base URL, timeout and user agent
//   - Sync: cache TTL, cross-reference and audit paths, refresh interval
//   - Session: scope name and persistence
//   - Database: local state database (sqlite or mysql)
//   - Storage: S3/MinIO bucket attachments can be pulled from
//   - Server: local console HTTP server
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.BaseURL)
package config
