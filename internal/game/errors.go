package game

import "errors"

// Code is the machine-readable rejection reason sent to peers.
type Code string

const (
	CodeUnauthorizedAction Code = "UnauthorizedAction"
	CodeInvalidSequence    Code = "InvalidSequence"
	CodeRoomNotFound       Code = "RoomNotFound"
	CodeGameAlreadyEnded   Code = "GameAlreadyEnded"
	CodeGamePaused         Code = "GamePaused"
	CodeInvalidPayload     Code = "InvalidPayload"
	CodeRateLimited        Code = "RateLimited"
	CodeRoomFull           Code = "RoomFull"
)

// Error is a rejection raised while validating an action.
type Error struct {
	Code    Code
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrUnauthorized     = &Error{Code: CodeUnauthorizedAction, Message: "it is not your side's turn for that action"}
	ErrInvalidSequence  = &Error{Code: CodeInvalidSequence, Message: "action does not fit the current play"}
	ErrRoomNotFound     = &Error{Code: CodeRoomNotFound, Message: "room not found"}
	ErrGameAlreadyEnded = &Error{Code: CodeGameAlreadyEnded, Message: "game has ended"}
	ErrGamePaused       = &Error{Code: CodeGamePaused, Message: "waiting for both sides to be present"}
	ErrInvalidPayload   = &Error{Code: CodeInvalidPayload, Message: "malformed message"}
	ErrRateLimited      = &Error{Code: CodeRateLimited, Message: "too many messages"}
	ErrRoomFull         = &Error{Code: CodeRoomFull, Message: "room is full"}
)

// sequenceError returns an InvalidSequence rejection with a specific message.
func sequenceError(msg string) *Error {
	return &Error{Code: CodeInvalidSequence, Message: msg}
}

// ReasonOf maps any error to the reason string reported to peers. Errors
// outside the taxonomy are reported as InvalidPayload.
func ReasonOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInvalidPayload
}
