package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Authentication: the connection or request carried no usable identity.
	ErrMissingIdentity = fmt.Errorf("missing identity")
	ErrInvalidToken    = fmt.Errorf("invalid token")

	// Validation: the command is malformed, nothing is persisted or broadcast.
	ErrMissingChat     = fmt.Errorf("missing chat id")
	ErrEmptyContent    = fmt.Errorf("empty message content")
	ErrInvalidPayload  = fmt.Errorf("invalid payload")
	ErrInvalidPinOp    = fmt.Errorf("pin action must be pin or unpin")
	ErrSelfPrivateChat = fmt.Errorf("private chat requires two distinct users")

	// NotFound: the mutation target does not exist.
	ErrChatNotFound    = fmt.Errorf("chat not found")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrUserNotFound    = fmt.Errorf("user not found")

	// Authorization, re-checked server side.
	ErrNotMember           = fmt.Errorf("user is not a member of the chat")
	ErrNotAuthor           = fmt.Errorf("only the author may delete a message")
	ErrDeleteWindowExpired = fmt.Errorf("delete window expired")
	ErrPinForeignMessage   = fmt.Errorf("message does not belong to the chat")

	// Concurrency.
	ErrStalePinVersion = fmt.Errorf("stale pin list version")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// HTTPStatus maps a domain error to the status code the REST surface returns.
// Unknown errors are treated as persistence failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingIdentity), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotAuthor),
		errors.Is(err, ErrDeleteWindowExpired):
		return http.StatusForbidden
	case errors.Is(err, ErrChatNotFound), errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStalePinVersion):
		return http.StatusConflict
	case errors.Is(err, ErrMissingChat), errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidPinOp),
		errors.Is(err, ErrSelfPrivateChat), errors.Is(err, ErrPinForeignMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
