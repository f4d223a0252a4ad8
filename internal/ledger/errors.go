package ledger

import "fmt"

// NetworkError is a transport failure or a response the client could not
// understand. Users get a generic message; Err is for logs.
type NetworkError struct {
	Op     string
	Status int // 0 when no response arrived
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ledger %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the store rejected a well-formed request and said why.
// Message is safe to show to the user verbatim.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("ledger %s: status %d: %s", e.Op, e.Status, e.Message)
}
