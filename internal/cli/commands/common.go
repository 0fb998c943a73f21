// Package commands provides CLI command implementations for the ccclogin tool.
package commands

import (
	"crypto/x509"
	"errors"
	"fmt"
	"io"

	"github.com/fzdarsky/ccclogin/internal/auth"
	"github.com/fzdarsky/ccclogin/internal/cli/client"
	"github.com/fzdarsky/ccclogin/internal/cli/clicontext"
	"github.com/fzdarsky/ccclogin/internal/cli/config"
	cliTLS "github.com/fzdarsky/ccclogin/internal/cli/tls"
	"github.com/fzdarsky/ccclogin/internal/logging"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitRejected  = 2
	ExitTransport = 3
	ExitCodec     = 4
)

// exitCodeFor maps a login failure to its exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, auth.ErrRejected):
		return ExitRejected
	case errors.Is(err, auth.ErrTransport):
		return ExitTransport
	case errors.Is(err, auth.ErrCodec):
		return ExitCodec
	default:
		return ExitError
	}
}

// createClient creates the HTTPS client for cfg.Server. Unknown server
// certificates are passed to prompt before anything is sent.
func createClient(cfg *config.Config, userAgent string, prompt client.CertificatePrompt) (auth.Transport, error) {
	if err := cfg.RequireServer(); err != nil {
		return nil, err
	}

	httpsClient, err := client.NewClient(client.Options{
		Host:               cfg.Server,
		CACert:             cfg.CACert,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		UserAgent:          userAgent,
		Prompt:             prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTPS client: %w", err)
	}

	return httpsClient, nil
}

// createLogger builds the logger described by cfg, writing to w.
// --verbose forces debug level.
func createLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if clicontext.Verbose() {
		level = logging.LevelDebug
	}

	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	logger := logging.New(level, format)
	logger.SetOutput(w, w)
	return logger, nil
}

// certificatePrompt asks about unknown certificates on in and out. Commands
// that already read from stdin pass their own reader so no input is lost.
func certificatePrompt(in io.Reader, out io.Writer) client.CertificatePrompt {
	return func(host string, cert *x509.Certificate) bool {
		return cliTLS.PromptAcceptCertificate(in, out, host, cert)
	}
}

// printError prints an error message to w.
func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "Error: "+format+"\n", args...)
}
