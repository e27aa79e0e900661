// Package config provides configuration management for the collection engine.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, body limit)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Engine: near-end threshold, default expansion, async diffing, cache TTL
//
// Every key maps to an environment variable by upper-casing its path, e.g.
// ENGINE_NEAR_END_THRESHOLD for engine.near_end_threshold.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Engine.NearEndThreshold)
package config
