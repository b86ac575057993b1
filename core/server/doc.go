// Package server holds the configuration of the local console HTTP server.
//
// The entry point in cmd/start.go builds the Fiber app from it; feature packages
// only see a fiber.Router.
package server
