package kaspa

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TransportError is a failure below the RPC layer: the connection could not
// be made, the request could not be written, or the remote answered with a
// non-success status.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RPCError is a well-formed response whose error field was set by the node.
// Payload is the error value exactly as the node sent it.
type RPCError struct {
	Method  Method
	Payload any
}

func (e *RPCError) Error() string {
	detail, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Sprintf("RPC error: %v", e.Payload)
	}
	return fmt.Sprintf("RPC error: %s", detail)
}

// ConfigurationError reports a required setting that is missing or unusable.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Message)
}

// ValidationError reports a caller-supplied argument that violates a
// documented constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// TimeoutError reports an operation abandoned after its deadline. It matches
// context.DeadlineExceeded under errors.Is.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}
