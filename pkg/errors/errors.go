package errors

import "fmt"

// ErrNotFound indicates a record was not found in the store
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates a failed authentication attempt
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

// ErrDataIntegrity indicates upstream data that cannot be mapped to a record,
// e.g. a catalog item without a product group. Not retryable.
type ErrDataIntegrity struct {
	Resource string
	Reason   string
}

func (e *ErrDataIntegrity) Error() string {
	return fmt.Sprintf("%s: %s", e.Resource, e.Reason)
}
