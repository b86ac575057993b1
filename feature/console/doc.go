// Package console serves the local HTTP surface of the catalog console.
//
// # Routes
//
//	GET    /console/session
//	POST   /console/session/login
//	POST   /console/session/logout
//	GET    /console/collections
//	GET    /console/collections/:key             activate and load (InitialLoad)
//	POST   /console/collections/:key/resync      ?trigger=user_action|background_refresh
//	POST   /console/collections/:key/records     JSON or multipart body
//	PUT    /console/collections/:key/records/:id JSON or multipart body
//	DELETE /console/collections/:key/records/:id ?confirm=true
//
// Multipart bodies carry one file part per pending upload, named after the
// attachment field, and one "existing_<field>" value per persisted path to keep.
package console
