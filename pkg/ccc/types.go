// Package ccc defines the records exchanged with a CCC access-control
// endpoint and the error codes reported by the ccclogin tool.
package ccc

import (
	"encoding/hex"
	"fmt"
)

// Top-level record tags. The server answers a client request with a record
// labelled ServerResponseTag; anything else is not an answer to our request.
const (
	ClientRequestTag  = "CCCclientRequest"
	ServerResponseTag = "CCCserverResponse"
)

// Fixed values describing this client to the server.
const (
	// RequestTypeUserPass is the credential-exchange request kind.
	RequestTypeUserPass = "UserPass"
	// DefaultClientType identifies the client implementation.
	DefaultClientType = "TRAC"
	// DefaultEndpointOS identifies the host operating system family.
	DefaultEndpointOS = "unix"
)

// AuthenticatedTrue is the literal the server emits for a successful login.
// It is compared as text; no other spelling is accepted.
const AuthenticatedTrue = "true"

// RequestHeader identifies a single request.
type RequestHeader struct {
	ID          string `sexpr:"id"`
	RequestType string `sexpr:"type"`
	SessionID   string `sexpr:"session_id"`
}

// RequestData carries the credentials of a UserPass request.
// Username and Password hold hex encodings, never plaintext.
type RequestData struct {
	ClientType string `sexpr:"client_type"`
	EndpointOS string `sexpr:"endpoint_os"`
	Username   string `sexpr:"username"`
	Password   string `sexpr:"password"`
}

// ClientRequest is the record sent under ClientRequestTag.
type ClientRequest struct {
	Header RequestHeader `sexpr:"RequestHeader"`
	Data   RequestData   `sexpr:"RequestData"`
}

// NewUserPassRequest builds a credential-exchange request for a fresh
// (sessionless) login. The credentials are hex encoded here.
func NewUserPassRequest(id, clientType, endpointOS, username, password string) *ClientRequest {
	return &ClientRequest{
		Header: RequestHeader{
			ID:          id,
			RequestType: RequestTypeUserPass,
			SessionID:   "",
		},
		Data: RequestData{
			ClientType: clientType,
			EndpointOS: endpointOS,
			Username:   EncodeHex(username),
			Password:   EncodeHex(password),
		},
	}
}

// ResponseHeader echoes request metadata. Only its presence matters for login.
type ResponseHeader struct {
	ID         *string `sexpr:"id"`
	Type       *string `sexpr:"type"`
	SessionID  *string `sexpr:"session_id"`
	ReturnCode *string `sexpr:"return_code"`
}

// ResponseData is the outcome of a credential exchange.
type ResponseData struct {
	IsAuthenticated string  `sexpr:"is_authenticated,required"`
	ActiveKey       *string `sexpr:"active_key"`

	AuthnStatus  *string `sexpr:"authn_status"`
	ErrorMessage *string `sexpr:"error_message"`
	ErrorID      *string `sexpr:"error_id"`
	ErrorCode    *string `sexpr:"error_code"`
}

// ServerResponse is the record received under ServerResponseTag.
type ServerResponse struct {
	Header ResponseHeader `sexpr:"ResponseHeader,required"`
	Data   ResponseData   `sexpr:"ResponseData,required"`
}

// Authenticated reports whether a decoded response grants access: the tag
// must be ServerResponseTag, is_authenticated must be exactly "true" and an
// active key must be present.
func Authenticated(tag string, resp *ServerResponse) bool {
	return resp != nil &&
		tag == ServerResponseTag &&
		resp.Data.IsAuthenticated == AuthenticatedTrue &&
		resp.Data.ActiveKey != nil
}

// EncodeHex returns the lowercase hex encoding of the UTF-8 bytes of s.
func EncodeHex(s string) string {
	return hex.EncodeToString([]byte(s))
}

// DecodeHex reverses EncodeHex.
func DecodeHex(s string) (string, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid hex value: %w", err)
	}
	return string(b), nil
}

// Deref returns the value of an optional field, or "" when absent.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
