// Package middleware groups the Fiber middleware installed in front of the
// collection API by server.New.
//
//   - rayid tags each request with an X-Ray-ID, reusing the client's value
//     when it sent one, so handler logs can be correlated.
//   - auth rejects requests whose X-API-Key does not match server.api_key.
//     An empty key leaves the API open.
package middleware
