package mutation

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is the kind of write.
type Method int

const (
	Create Method = iota + 1
	Update
	Delete
)

func (m Method) String() string {
	switch m {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// HTTPMethod returns the verb used on the wire.
func (m Method) HTTPMethod() string {
	switch m {
	case Create:
		return http.MethodPost
	case Update:
		return http.MethodPut
	case Delete:
		return http.MethodDelete
	default:
		return ""
	}
}

// ParseMethod accepts the String form or the matching HTTP verb.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "create", "post":
		return Create, nil
	case "update", "put":
		return Update, nil
	case "delete":
		return Delete, nil
	}
	return 0, fmt.Errorf("unknown write method %q", s)
}
