// Package datasync keeps the console's view of the remote collections in step
// with the API.
//
// Cache is a per-key store of the last known-good snapshot and its fetch time.
// Coordinator decides per resync which of the primary collection, the
// cross-reference list and the audit log need a network read, reads them
// concurrently and merges the results. A failed read degrades to the cached
// snapshot; an authentication rejection tears the session down.
//
// # Usage
//
//	coord := datasync.NewCoordinator(catalog, datasync.NewAPIFetcher(client), sess, logger)
//	res := coord.Resync(ctx, "products", datasync.InitialLoad)
//	for _, fe := range res.FetchErrors() {
//	    logger.Warn("partial data", zap.Error(fe))
//	}
//	view := coord.View()
package datasync
