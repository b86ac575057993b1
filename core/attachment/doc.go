// Package attachment manages attachment-bearing record fields.
//
// An attachment field holds an ordered mix of two kinds of entries:
//   - Remote: a file already persisted by the server, addressed by a storage path that
//     always starts with the server's storage namespace (e.g. "/uploads/").
//   - Local: a blob selected on the client that has not been uploaded yet.
//
// The Kind of every Entry is explicit, so no caller ever has to inspect the dynamic
// type of a value to tell the two apart.
//
// # Transport View
//
// Set.TransportView splits a field into the list of Remote paths (in their original
// order) and the list of Local blobs. The mutation gateway uses the split to decide the
// wire encoding: any Local blob anywhere forces a multipart request in which Remote
// paths become "retained reference" markers; otherwise Remote paths travel as plain
// strings in a JSON body. Removing a Remote entry therefore signals deletion to the
// server by omission.
//
// Sets and Reconcilers are owned by a single edit form and are not safe for
// concurrent use.
package attachment
