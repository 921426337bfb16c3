package authcore

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for use with errors.Is().
var (
	ErrConfigInvalid = errors.New("configuration is invalid")
	ErrStoreRequired = errors.New("store is required")
)

// Kind categorizes an Error for callers that translate it into a transport
// status.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindConflict
	KindNotFound
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Password length bounds enforced on register and update. bcrypt rejects
// inputs longer than 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// Messages returned to callers.
const (
	MsgEmailRequired         = "An email is required to generate a token"
	MsgIncorrectCredentials  = "Incorrect email or password"
	MsgIncorrectRefreshToken = "Incorrect email or refreshToken"
	MsgInvalidRefreshToken   = "Invalid refresh token."
	MsgValidationError       = "Validation Error"
	MsgUserNotFound          = "User does not exist"
	MsgTooManyLoginAttempts  = "Too many login attempts"
	MsgInvalidAccessToken    = "Invalid or expired access token"
	MsgInternalServerError   = "Internal server error"

	msgEmailFieldRequired       = `"email" is required`
	msgPasswordRequired         = `"password" is required`
	msgPasswordTooShort         = `"password" length must be at least 6 characters long`
	msgPasswordTooLong          = `"password" length must be less than or equal to 72 characters long`
	msgRoleInvalid              = `"role" must be one of [user, admin]`
	msgInvalidPagination        = "Invalid pagination parameters"
	msgProviderIdentityRequired = "A provider and external id are required"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field    string   `json:"field"`
	Location string   `json:"location"`
	Messages []string `json:"messages"`
}

// Error is returned by every Service operation.
type Error struct {
	Kind    Kind
	Message string

	// Public reports whether Message may be shown to end users.
	Public bool

	Fields []FieldError
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *Error) Unwrap() error {
	return e.Err
}

// PublicMessage returns the message safe for end users.
func (e *Error) PublicMessage() string {
	if e.Public {
		return e.Message
	}
	return MsgInternalServerError
}

// BadRequest creates a public KindBadRequest error.
func BadRequest(message string, err error) *Error {
	return &Error{Kind: KindBadRequest, Message: message, Public: true, Err: err}
}

// Unauthorized creates a public KindUnauthorized error.
func Unauthorized(message string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Public: true, Err: err}
}

// Conflict creates a public KindConflict error.
func Conflict(message string, err error, fields ...FieldError) *Error {
	return &Error{Kind: KindConflict, Message: message, Public: true, Fields: fields, Err: err}
}

// NotFound creates a public KindNotFound error.
func NotFound(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Public: true, Err: err}
}

// TooManyRequests creates a public KindTooManyRequests error.
func TooManyRequests(message string, err error) *Error {
	return &Error{Kind: KindTooManyRequests, Message: message, Public: true, Err: err}
}

// Internal creates an opaque KindInternal error.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps a Kind to an HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func emailConflict(err error) *Error {
	return fieldConflict("email", err)
}

// fieldConflict reports that field's value is already taken.
func fieldConflict(field string, err error) *Error {
	return Conflict(MsgValidationError, err, FieldError{
		Field:    field,
		Location: "body",
		Messages: []string{fmt.Sprintf("%q already exists", field)},
	})
}

func validationError(field, message string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Message: MsgValidationError,
		Public:  true,
		Fields:  []FieldError{{Field: field, Location: "body", Messages: []string{message}}},
	}
}
