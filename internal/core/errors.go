package core

import "errors"

// Error codes for terminal session conditions.
const (
	ErrCodeRoomFull          = "room_full"
	ErrCodeDuplicateIdentity = "duplicate_identity"
	ErrCodeKicked            = "kicked"
	ErrCodeJoinFailed        = "join_failed"
)

var (
	// ErrClosed is returned by engine calls made after teardown.
	ErrClosed = errors.New("engine closed")
	// ErrRejected is returned when the session was terminally rejected by the server.
	ErrRejected = errors.New("session rejected")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match any CoreError against ErrRejected.
func (e *CoreError) Is(target error) bool {
	return target == ErrRejected
}

// NewCoreError builds a CoreError.
func NewCoreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
