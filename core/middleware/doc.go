// Package middleware contains HTTP middleware for the console server.
//
// # Components
//
//   - auth: API key validation for the console routes.
//   - rayid: assigns every request a ray id, stored in the context locals and
//     echoed in the X-Ray-ID response header for tracing.
package middleware
