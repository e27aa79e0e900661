// Package loader registers features on the Fiber router at startup.
//
// A Feature reports its name and whether it is enabled, and mounts its
// routes in Load. Manager.LoadAll skips disabled features and stops at the
// first one that fails to load. The collection feature is the only one the
// serve command registers today.
package loader
