package feishu

import "fmt"

// AuthenticationError is returned when no tenant access token could be acquired
type AuthenticationError struct {
	Message    string
	StatusCode int
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// UpstreamError is returned when the bitable service rejects a data operation
type UpstreamError struct {
	Operation  Operation
	StatusCode int
	// Message is the upstream "msg" or a generic fallback for the operation
	Message string
	// Details is the raw upstream body if it was valid JSON
	Details []byte
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// String includes the status code and is meant for logs.
func (e *UpstreamError) String() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Operation, e.StatusCode, e.Message)
}
