package attachment

import "strings"

// Kind discriminates attachment entries.
type Kind int

const (
	// KindRemote is an attachment already persisted by the server.
	KindRemote Kind = iota + 1
	// KindLocal is a blob selected on the client and not uploaded yet.
	KindLocal
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// DefaultNamespace is the storage prefix of every remote attachment path.
const DefaultNamespace = "/uploads/"

// Entry is a single attachment. Exactly one of Path (Remote) or Blob (Local) is set.
type Entry struct {
	Kind Kind
	Path string
	Blob Blob
}

// RemoteEntry builds a Remote entry for a persisted path.
func RemoteEntry(path string) Entry {
	return Entry{Kind: KindRemote, Path: path}
}

// LocalEntry builds a Local entry for a pending blob.
func LocalEntry(b Blob) Entry {
	return Entry{Kind: KindLocal, Blob: b}
}

// NormalizePath makes sure a remote path starts with the storage namespace.
func NormalizePath(namespace, path string) string {
	if namespace == "" {
		return path
	}
	trimmed := strings.TrimPrefix(path, "/")
	if strings.Trim(namespace, "/") == "" {
		return "/" + trimmed
	}
	ns := "/" + strings.Trim(namespace, "/") + "/"
	if strings.HasPrefix("/"+trimmed, ns) {
		return "/" + trimmed
	}
	return ns + trimmed
}
