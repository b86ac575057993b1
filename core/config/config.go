package config

import (
	"reflect"
	"strings"

	"catalog-console/core/apiclient"
	"catalog-console/core/database"
	"catalog-console/core/datasync"
	"catalog-console/core/logger"
	"catalog-console/core/server"
	"catalog-console/core/session"
	"catalog-console/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// API holds the remote REST API settings.
	API apiclient.Config `mapstructure:"api"`
	// Sync holds cache and refresh settings.
	Sync datasync.Config `mapstructure:"sync"`
	// Session holds token persistence settings.
	Session session.Config `mapstructure:"session"`
	// Database holds configuration for the local state database.
	Database database.Config `mapstructure:"database"`
	// Storage holds configuration for the object store attachments can come from.
	Storage storage.Config `mapstructure:"storage"`
	// Server holds configuration for the local console HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and a .env file in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." || path == "" {
		envPath = ".env"
	}

	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. API_BASE_URL -> api.base_url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the struct and registers every mapstructure key in Viper with
// the value of its 'default' tag, so AutomaticEnv can see it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
