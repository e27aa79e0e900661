// Package collection serves collections over HTTP.
//
// Every collection opened through the API becomes a session: a
// dispatch.Queue that owns an interaction.Controller rendering into a
// reconcile.MemoryRenderer. Requests are executed on the session's queue, so
// edits to one collection are serialized while different collections run in
// parallel.
//
// Sections toggled by the user are persisted per collection name through an
// expansion.Repository and restored when a document of the same name is
// opened again. Near-end requests page in further documents named
// "<name>-page-<n>" from the archive.
//
// # HTTP Endpoints
//
//   - POST   /collections                          : Open a document (body) or ?archive=<name>.
//   - GET    /collections/:id                      : Current visible state, ?all=1 includes collapsed items.
//   - PUT    /collections/:id                      : Replace the data and return the applied edit script.
//   - DELETE /collections/:id                      : Close the session.
//   - POST   /collections/:id/sections/:key/toggle : Toggle a section, or ?state=expanded|collapsed.
//   - POST   /collections/:id/drag                 : Commit a drag {"from": loc, "to": loc}.
//   - POST   /collections/:id/near-end             : Report a visible item {"section", "item", "count"}.
//   - POST   /collections/:id/refresh              : Reload the document from the archive.
//   - POST   /collections/:id/export               : Archive the current data, ?name= overrides the name.
//   - GET    /archive                              : Names of the archived documents.
//   - DELETE /archive/<name>                       : Delete an archived document and its persisted toggles.
//   - POST   /diff                                 : Stateless diff of {"old": doc, "new": doc}.
package collection
