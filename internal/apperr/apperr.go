package apperr

import (
	"errors"
	"net/http"
)

// Sentinels. Every *Error unwraps to exactly one of these so callers can use errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrLocked             = errors.New("account locked")
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrServer             = errors.New("server error")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMalformedToken     = errors.New("malformed token")
)

// User-facing messages used when verbose backend errors are suppressed.
const (
	MsgNotFound           = "Account not found. Please register first."
	MsgInvalidCredentials = "Invalid email or password. Please check your credentials and try again."
	MsgDuplicateEmail     = "Email already registered. Please use a different email address."
	MsgLocked             = "Account is locked. Please contact support."
	MsgValidation         = "Invalid request data. Please check all fields and try again."
	MsgServer             = "Server error. Please try again later."
	MsgNetworkUnreachable = "Network error: Unable to connect to the server. Please make sure the backend server is running and try again."
	MsgUnauthorized       = "Your session has expired. Please log in again."
)

type Error struct {
	Kind    error
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: StatusOf(kind)}
}

func NotFound() *Error           { return New(ErrNotFound, MsgNotFound) }
func InvalidCredentials() *Error { return New(ErrInvalidCredentials, MsgInvalidCredentials) }
func DuplicateEmail() *Error     { return New(ErrDuplicateEmail, MsgDuplicateEmail) }
func Unauthorized() *Error       { return New(ErrUnauthorized, MsgUnauthorized) }

func NetworkUnreachable(cause error) error {
	return &causeError{err: New(ErrNetworkUnreachable, MsgNetworkUnreachable), cause: cause}
}

// causeError keeps the transport cause reachable through errors.As without
// leaking it into the user-facing message.
type causeError struct {
	err   *Error
	cause error
}

func (c *causeError) Error() string   { return c.err.Error() }
func (c *causeError) Unwrap() []error { return []error{c.err, c.cause} }

// KindFromStatus buckets an upstream HTTP status into the taxonomy.
func KindFromStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return ErrValidation
	case status == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case status == http.StatusForbidden:
		return ErrLocked
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrDuplicateEmail
	case status >= 500:
		return ErrServer
	default:
		return ErrValidation
	}
}

func CannedMessage(kind error) string {
	switch kind {
	case ErrNotFound:
		return MsgNotFound
	case ErrInvalidCredentials:
		return MsgInvalidCredentials
	case ErrDuplicateEmail:
		return MsgDuplicateEmail
	case ErrLocked:
		return MsgLocked
	case ErrValidation:
		return MsgValidation
	case ErrServer:
		return MsgServer
	case ErrNetworkUnreachable:
		return MsgNetworkUnreachable
	case ErrUnauthorized, ErrMalformedToken:
		return MsgUnauthorized
	default:
		return MsgServer
	}
}

// StatusOf is the status the gateway answers with for a given kind.
func StatusOf(kind error) int {
	switch kind {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidCredentials, ErrUnauthorized, ErrMalformedToken:
		return http.StatusUnauthorized
	case ErrDuplicateEmail:
		return http.StatusConflict
	case ErrLocked:
		return http.StatusForbidden
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNetworkUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable code used in the JSON error envelope.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrDuplicateEmail):
		return "email_taken"
	case errors.Is(err, ErrLocked):
		return "account_locked"
	case errors.Is(err, ErrNetworkUnreachable):
		return "backend_unreachable"
	case errors.Is(err, ErrValidation):
		return "invalid_request"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMalformedToken):
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// KindOf returns the sentinel err belongs to, or ErrServer.
func KindOf(err error) error {
	for _, k := range []error{
		ErrNotFound, ErrInvalidCredentials, ErrDuplicateEmail, ErrLocked,
		ErrNetworkUnreachable, ErrValidation, ErrUnauthorized, ErrMalformedToken, ErrServer,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrServer
}
