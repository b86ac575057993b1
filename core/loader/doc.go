// Package loader provides the feature loading system of the console server.
//
// Each feature implements the Feature interface, which names it, reports whether
// it is enabled and mounts its routes.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps the registered features and loads the enabled ones in
// registration order.
package loader
