// Package database opens the local state database through GORM.
//
// SQLite is the default and keeps the console self-contained; MySQL can be
// configured for shared setups. The schema helpers verify that a migrated table
// carries the columns its model expects.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Falling back to in-memory session storage", zap.Error(err))
//	}
//	err = database.RequireColumns(db, "console_sessions", "scope", "token")
package database
