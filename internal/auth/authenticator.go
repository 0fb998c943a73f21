package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fzdarsky/ccclogin/internal/logging"
	"github.com/fzdarsky/ccclogin/pkg/ccc"
	"github.com/fzdarsky/ccclogin/pkg/sexpr"
)

// Transport posts a request body and returns the response body of a 2xx
// answer. Any other outcome is an error.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// Codec converts records to and from their wire text.
type Codec interface {
	Encode(tag string, v any) (string, error)
	Decode(text string, v any) (string, error)
}

// Credentials is a username/password pair.
type Credentials struct {
	Username string
	Password string
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q, Password: ********}", c.Username)
}

// Validate checks that both fields are populated.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// Authenticator performs UserPass credential exchanges against one server.
// It keeps no state between calls apart from the shared request id counter,
// so a single Authenticator may be used from several goroutines.
type Authenticator struct {
	server     string
	creds      Credentials
	transport  Transport
	codec      Codec
	ids        RequestIDGenerator
	logger     *logging.Logger
	clientType string
	endpointOS string
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithCodec replaces the default CCC codec.
func WithCodec(c Codec) Option {
	return func(a *Authenticator) { a.codec = c }
}

// WithRequestIDs replaces DefaultCounter.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(a *Authenticator) { a.ids = g }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *logging.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// WithClientType overrides the client_type sent to the server.
func WithClientType(clientType string) Option {
	return func(a *Authenticator) { a.clientType = clientType }
}

// WithEndpointOS overrides the endpoint_os sent to the server.
func WithEndpointOS(os string) Option {
	return func(a *Authenticator) { a.endpointOS = os }
}

// NewAuthenticator creates an Authenticator for server, which is a host name
// optionally followed by ":port".
func NewAuthenticator(server string, creds Credentials, transport Transport, opts ...Option) *Authenticator {
	a := &Authenticator{
		server:     server,
		creds:      creds,
		transport:  transport,
		codec:      sexpr.Codec{},
		ids:        DefaultCounter,
		logger:     logging.Nop(),
		clientType: ccc.DefaultClientType,
		endpointOS: ccc.DefaultEndpointOS,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// URL returns the credential-exchange endpoint.
func (a *Authenticator) URL() string {
	return fmt.Sprintf("https://%s/clients/", a.server)
}

// Authenticate performs one credential exchange and returns the server's
// response when it grants access. The caller reads the active key from
// resp.Data.ActiveKey.
//
// Failures are a *TransportError, a *CodecError or a *RejectedError. There is
// no retry; cancelling ctx abandons the request in flight.
func (a *Authenticator) Authenticate(ctx context.Context) (*ccc.ServerResponse, error) {
	req := a.newRequest()
	log := a.logger.WithFields(map[string]any{
		"server":     a.server,
		"request_id": req.Header.ID,
	})

	text, err := a.codec.Encode(ccc.ClientRequestTag, req)
	if err != nil {
		return nil, &CodecError{Op: OpEncode, Err: err}
	}

	log.Debug("sending credential exchange request")

	body, err := a.transport.Post(ctx, a.URL(), []byte(text))
	if err != nil {
		log.Debug("credential exchange request failed", map[string]any{"error": err.Error()})
		return nil, &TransportError{Err: err}
	}

	var resp ccc.ServerResponse
	tag, err := a.codec.Decode(strings.ToValidUTF8(string(body), "\uFFFD"), &resp)
	if err != nil {
		log.Debug("undecodable credential exchange response", map[string]any{"error": err.Error()})
		return nil, &CodecError{Op: OpDecode, Err: err}
	}

	if !ccc.Authenticated(tag, &resp) {
		rejected := newRejectedError(tag, &resp)
		log.Debug("credentials rejected", map[string]any{
			"tag":              tag,
			"is_authenticated": rejected.IsAuthenticated,
			"has_active_key":   rejected.HasActiveKey,
		})
		return nil, rejected
	}

	log.Debug("credentials accepted", map[string]any{"authn_status": ccc.Deref(resp.Data.AuthnStatus)})
	return &resp, nil
}

func (a *Authenticator) newRequest() *ccc.ClientRequest {
	return ccc.NewUserPassRequest(a.ids.Next(), a.clientType, a.endpointOS, a.creds.Username, a.creds.Password)
}
