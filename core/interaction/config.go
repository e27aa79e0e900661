package interaction

import (
	"time"

	"collection-engine/core/snapshot"
)

// Config holds the engine settings shared by every collection instance.
type Config struct {
	// NearEndThreshold is the number of trailing items of the last section
	// that trigger a load when they come into view.
	NearEndThreshold int `mapstructure:"near_end_threshold" default:"5"`
	// DefaultExpansion is the state of sections the user never toggled
	// (none, expanded, collapsed).
	DefaultExpansion string `mapstructure:"default_expansion" default:"expanded"`
	// DiffAsync computes diffs of data updates off the owning executor.
	DiffAsync bool `mapstructure:"diff_async" default:"false"`
	// ExpansionCacheTTLSeconds is how long persisted toggles are cached.
	ExpansionCacheTTLSeconds int `mapstructure:"expansion_cache_ttl_seconds" default:"300"`
}

// Defaults returns the expansion default for every section index.
func (c Config) Defaults() (func(int) snapshot.ExpansionState, error) {
	state, err := snapshot.ParseExpansion(c.DefaultExpansion)
	if err != nil {
		return nil, err
	}
	if state == snapshot.Unspecified {
		return nil, nil
	}
	return snapshot.Fixed(state), nil
}

// CacheTTL returns the expansion cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.ExpansionCacheTTLSeconds) * time.Second
}
