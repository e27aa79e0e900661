package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"collection-engine/core/database"
	"collection-engine/core/interaction"
	"collection-engine/core/logger"
	"collection-engine/core/server"
	"collection-engine/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting of the collection engine, one section per
// component.
type Config struct {
	// Server configures the HTTP API.
	Server server.Config `mapstructure:"server"`
	// Storage configures the document archive bucket.
	Storage storage.Config `mapstructure:"storage"`
	// Log configures the zap logger.
	Log logger.Config `mapstructure:"log"`
	// Database configures where section toggles are persisted.
	Database database.Config `mapstructure:"database"`
	// Engine holds configuration shared by every collection instance.
	Engine interaction.Config `mapstructure:"engine"`
}

// LoadConfig reads path/.env, when present, then the environment, and
// validates the result. Values in .env win over the process environment.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	bindValues(v, Config{}, "")

	// engine.near_end_threshold <- ENGINE_NEAR_END_THRESHOLD
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the engine cannot start with.
func (c *Config) Validate() error {
	if c.Engine.NearEndThreshold < 1 {
		return fmt.Errorf("engine.near_end_threshold must be at least 1, got %d", c.Engine.NearEndThreshold)
	}
	if _, err := c.Engine.Defaults(); err != nil {
		return fmt.Errorf("engine.default_expansion: %w", err)
	}
	if c.Engine.ExpansionCacheTTLSeconds < 0 {
		return fmt.Errorf("engine.expansion_cache_ttl_seconds must not be negative")
	}
	switch c.Database.Driver {
	case database.DriverMySQL, database.DriverSQLite, "":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return nil
}

// bindValues registers every mapstructure key of iface with its default tag
// value. A key viper has never seen is invisible to AutomaticEnv, so empty
// defaults are registered too.
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
