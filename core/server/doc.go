// Package server holds the HTTP server configuration and builds the Fiber app.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key and the request body
// limit.
//
// # Middleware
//
// New installs, in order:
//   - rayid: tags each request with an X-Ray-ID.
//   - request logging through zap, carrying the ray ID.
//   - auth: rejects requests without the X-API-Key when one is configured.
//
// Features register their routes on the returned app through the loader.
package server
