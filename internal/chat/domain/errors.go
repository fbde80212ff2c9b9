package domain

import "errors"

// Router error kinds. The websocket layer drops these silently toward the
// client; they exist so callers and tests can observe why an event was a no-op.
var (
	// ErrSenderNotJoined the invoking connection has no presence binding
	ErrSenderNotJoined = errors.New("sender not joined")
	// ErrMessageNotFound the target message id is unknown
	ErrMessageNotFound = errors.New("message not found")
	// ErrBadRequest the payload is missing a required field
	ErrBadRequest = errors.New("bad request")
)
