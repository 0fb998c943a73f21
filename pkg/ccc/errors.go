package ccc

import "fmt"

// ErrorCode is a stable, machine-readable failure class reported by ccclogin.
type ErrorCode string

// Error codes.
const (
	// ErrCodeAuthenticationRejected indicates the server refused the credentials.
	ErrCodeAuthenticationRejected ErrorCode = "AUTHENTICATION_REJECTED"
	// ErrCodeTransportError indicates the server could not be reached or
	// answered with a non-success HTTP status.
	ErrCodeTransportError ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeCodecError indicates a request or response that could not be
	// encoded or decoded, usually a protocol version mismatch.
	ErrCodeCodecError ErrorCode = "CODEC_ERROR"
	// ErrCodeConfigurationError indicates invalid local configuration.
	ErrCodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"
)

// ErrorResponse is the structured form of a failed login, as printed by the CLI.
type ErrorResponse struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
	Details string    `json:"details,omitempty" yaml:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new ErrorResponse.
func NewError(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithDetails creates a new ErrorResponse with details.
func NewErrorWithDetails(code ErrorCode, message, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewAuthenticationRejectedError creates an authentication rejected error.
func NewAuthenticationRejectedError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeAuthenticationRejected, "Authentication rejected by server", details)
}

// NewTransportError creates a transport error.
func NewTransportError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeTransportError, "Server unreachable or returned an error", details)
}

// NewCodecError creates a codec error.
func NewCodecError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeCodecError, "Unexpected protocol message", details)
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(details string) *ErrorResponse {
	return NewErrorWithDetails(ErrCodeConfigurationError, "Configuration error", details)
}
