// Package expansion persists the sections a user expanded or collapsed, per
// collection, so that reopening a collection restores them.
//
// Only explicit toggles are stored. Sections the user never touched keep
// following the configured default. Store writes them to the
// collection_expansions table through gorm; CachedStore puts a TTL cache in
// front of any Repository and collapses concurrent misses with singleflight.
package expansion
