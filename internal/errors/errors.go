package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionExpired is returned when an authenticated call carries a missing or invalid token.
	ErrSessionExpired = errors.New("session is no longer valid")
	// ErrUnsupportedType is returned when an uploaded file's type is outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when an uploaded file exceeds the byte ceiling.
	ErrTooLarge = errors.New("file exceeds the size limit")
	// ErrNetwork is returned when a remote call fails at the transport level.
	ErrNetwork = errors.New("could not reach the remote service")
	// ErrUpstream is returned when a remote service answered with a non-success response.
	ErrUpstream = errors.New("remote service returned an error")
	// ErrProtocol is returned when a remote response cannot be parsed into the expected shape.
	ErrProtocol = errors.New("unexpected response from remote service")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrSessionExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "SESSION_EXPIRED")
	case errors.Is(err, ErrUnsupportedType):
		return NewHTTPError(http.StatusUnsupportedMediaType, err.Error(), "UNSUPPORTED_TYPE")
	case errors.Is(err, ErrTooLarge):
		return NewHTTPError(http.StatusRequestEntityTooLarge, err.Error(), "TOO_LARGE")
	case errors.Is(err, ErrNetwork):
		return NewHTTPError(http.StatusBadGateway, err.Error(), "NETWORK_ERROR")
	case errors.Is(err, ErrUpstream):
		return NewHTTPError(http.StatusBadGateway, err.Error(), "UPSTREAM_ERROR")
	case errors.Is(err, ErrProtocol):
		return NewHTTPError(http.StatusBadGateway, err.Error(), "PROTOCOL_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
