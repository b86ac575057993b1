// Package mutation executes create, update and delete requests.
//
// A write is validated before anything touches the network: every empty
// required field, attachment sets included, is reported in one ValidationError.
// The body is JSON unless some attachment field holds a pending blob, in which
// case the whole request becomes multipart/form-data with one file part per blob
// and one "existing_<field>" part per persisted path to keep.
package mutation
