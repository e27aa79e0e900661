// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL or SQLite connections
// from the application's configuration.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and verifies the
// connection with a ping bounded by TimeoutSeconds. SQLite is used for local
// runs and tests (Name ":memory:" gives a private in-memory database).
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let features verify that the tables they
// rely on have the expected shape before serving traffic.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "collection_expansions", "collection_id", "section_key", "state")
package database
