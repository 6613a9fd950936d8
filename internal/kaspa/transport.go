package kaspa

import "context"

// Transport carries a single request to a node and returns the decoded
// result mapping. Implementations must be safe for concurrent use.
type Transport interface {
	Call(ctx context.Context, method Method, params any) (map[string]any, error)
	Close() error
}

// MethodSupporter is implemented by transports that serve only part of the
// method set. Transports that do not implement it are assumed to serve all
// of Methods.
type MethodSupporter interface {
	Supports(method Method) bool
}

func supports(t Transport, m Method) bool {
	if s, ok := t.(MethodSupporter); ok {
		return s.Supports(m)
	}
	return true
}
