package auth

import (
	"errors"
	"fmt"

	"github.com/fzdarsky/ccclogin/pkg/ccc"
)

// Sentinels for matching the three failure kinds with errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrCodec     = errors.New("protocol codec failure")
	ErrRejected  = errors.New("authentication rejected")
)

// TransportError means the server could not be reached, the TLS handshake
// failed, or the server answered with a non-2xx status.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusCode returns the HTTP status that caused the failure, or 0 when the
// failure happened below HTTP.
func (e *TransportError) StatusCode() int {
	var s interface{ HTTPStatus() int }
	if errors.As(e.Err, &s) {
		return s.HTTPStatus()
	}
	return 0
}

// Codec operations.
const (
	OpEncode = "encode"
	OpDecode = "decode"
)

// CodecError means a request could not be encoded or a response body could
// not be decoded into the expected record. It points at a protocol mismatch,
// not at bad credentials.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("failed to %s protocol message: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCodec.
func (e *CodecError) Is(target error) bool { return target == ErrCodec }

// RejectedError means the server answered with a well-formed record that
// does not grant access. It never carries credential material.
type RejectedError struct {
	Tag             string
	IsAuthenticated string
	HasActiveKey    bool
	// Status and Message are the server's authn_status and error_message, if sent.
	Status  string
	Message string
}

func newRejectedError(tag string, resp *ccc.ServerResponse) *RejectedError {
	return &RejectedError{
		Tag:             tag,
		IsAuthenticated: resp.Data.IsAuthenticated,
		HasActiveKey:    resp.Data.ActiveKey != nil,
		Status:          ccc.Deref(resp.Data.AuthnStatus),
		Message:         ccc.Deref(resp.Data.ErrorMessage),
	}
}

func (e *RejectedError) Error() string {
	var reason string
	switch {
	case e.Tag != ccc.ServerResponseTag:
		reason = fmt.Sprintf("unexpected response record %q", e.Tag)
	case e.IsAuthenticated != ccc.AuthenticatedTrue:
		reason = "server did not accept the credentials"
	default:
		reason = "response carried no active key"
	}

	if e.Message != "" {
		return fmt.Sprintf("authentication rejected: %s (%s)", reason, e.Message)
	}
	return "authentication rejected: " + reason
}

// Is reports whether target is ErrRejected.
func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// IsTransportError reports whether err is, or wraps, a TransportError.
func IsTransportError(err error) bool { return errors.Is(err, ErrTransport) }

// IsCodecError reports whether err is, or wraps, a CodecError.
func IsCodecError(err error) bool { return errors.Is(err, ErrCodec) }

// IsRejected reports whether err is, or wraps, a RejectedError.
func IsRejected(err error) bool { return errors.Is(err, ErrRejected) }

// ToErrorResponse converts a login failure into its structured form.
func ToErrorResponse(err error) *ccc.ErrorResponse {
	switch {
	case IsRejected(err):
		return ccc.NewAuthenticationRejectedError(err.Error())
	case IsTransportError(err):
		return ccc.NewTransportError(err.Error())
	case IsCodecError(err):
		return ccc.NewCodecError(err.Error())
	default:
		return ccc.NewError(ccc.ErrCodeConfigurationError, err.Error())
	}
}
