package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fzdarsky/ccclogin/internal/auth"
	"github.com/fzdarsky/ccclogin/internal/cli/client"
	"github.com/fzdarsky/ccclogin/internal/cli/config"
	"github.com/fzdarsky/ccclogin/internal/cli/output"
	"github.com/fzdarsky/ccclogin/pkg/ccc"
	"golang.org/x/term"
)

// LoginCommand implements the 'login' command, which exchanges a username
// and password for an active key.
type LoginCommand struct {
	userAgent string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	loadConfig   func() (*config.Config, error)
	newTransport func(cfg *config.Config, userAgent string, prompt client.CertificatePrompt) (auth.Transport, error)
}

// NewLoginCommand creates a new login command instance.
func NewLoginCommand(version string) *LoginCommand {
	return &LoginCommand{
		userAgent:    "ccclogin/" + version,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		loadConfig:   config.Load,
		newTransport: createClient,
	}
}

// Execute runs the login command and exits the process with its status.
func (c *LoginCommand) Execute(args []string) {
	os.Exit(c.Run(context.Background(), args))
}

// Run runs the login command and returns the process exit code.
func (c *LoginCommand) Run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var flags config.Flags
	fs.StringVar(&flags.Server, "server", "", "Access-control server host[:port]")
	fs.StringVar(&flags.Username, "username", "", "Username for authentication")
	fs.StringVar(&flags.Password, "password", "", "Password for authentication (prompts if not provided)")
	fs.StringVar(&flags.CACert, "ca-cert", "", "Path to custom CA certificate bundle")
	fs.BoolVar(&flags.Insecure, "insecure", false, "Skip server certificate verification")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Overall time limit for the login (default 30s)")
	fs.StringVar(&flags.Output, "output", "", "Output format: yaml or json")
	fs.StringVar(&flags.Output, "o", "", "Output format (shorthand)")
	save := fs.Bool("save", false, "Remember server and username in the config file")

	fs.Usage = func() {
		fmt.Fprintf(c.stderr, `Usage: ccclogin login [flags]

Authenticate against an access-control server with username and password
and print the active key it issues.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(c.stderr, `
Examples:
  # Interactive (prompts for username and password)
  ccclogin login --server vpn.example.com

  # Non-interactive (password from the environment)
  CCC_PASSWORD=secret ccclogin login -y --server vpn.example.com --username alice

  # With custom CA certificate, JSON output
  ccclogin login --server vpn.corp --ca-cert /etc/ssl/ca.pem --output json
`)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitError
	}
	if fs.NArg() > 0 {
		printError(c.stderr, "unexpected arguments: %s", strings.Join(fs.Args(), " "))
		return ExitError
	}

	// Load base configuration
	cfg, err := c.loadConfig()
	if err != nil {
		printError(c.stderr, "failed to load configuration: %v", err)
		return ExitError
	}

	// Apply command-line flags (highest priority)
	cfg.ApplyFlags(flags)

	if err := cfg.Validate(); err != nil {
		printError(c.stderr, "invalid configuration: %v", err)
		return ExitError
	}
	if err := cfg.RequireServer(); err != nil {
		printError(c.stderr, "%v", err)
		return ExitError
	}
	format, _ := output.ParseFormat(cfg.Output)

	logger, err := createLogger(cfg, c.stderr)
	if err != nil {
		printError(c.stderr, "%v", err)
		return ExitError
	}

	reader := bufio.NewReader(c.stdin)
	creds := auth.Credentials{Username: cfg.Username, Password: cfg.Password}
	if creds.Username == "" {
		creds.Username = c.promptUsername(reader)
	}
	if creds.Password == "" {
		if creds.Password, err = c.promptPassword(reader); err != nil {
			printError(c.stderr, "failed to read password: %v", err)
			return ExitError
		}
	}
	if err := creds.Validate(); err != nil {
		printError(c.stderr, "%v", err)
		return ExitError
	}

	transport, err := c.newTransport(cfg, c.userAgent, certificatePrompt(reader, c.stderr))
	if err != nil {
		printError(c.stderr, "%v", err)
		return ExitError
	}

	authenticator := auth.NewAuthenticator(cfg.Server, creds, transport,
		auth.WithLogger(logger),
		auth.WithClientType(cfg.ClientType),
		auth.WithEndpointOS(cfg.EndpointOS),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	logger.Info("authenticating", map[string]any{"url": authenticator.URL()})

	resp, err := authenticator.Authenticate(ctx)
	if err != nil {
		return c.fail(err, format)
	}

	result := output.LoginResult{
		Server:        cfg.Server,
		Authenticated: true,
		ActiveKey:     ccc.Deref(resp.Data.ActiveKey),
		AuthnStatus:   ccc.Deref(resp.Data.AuthnStatus),
	}
	if err := output.Write(c.stdout, result, format); err != nil {
		printError(c.stderr, "%v", err)
		return ExitError
	}

	// Save connection config for future runs (so --server isn't required next time)
	if *save {
		cfg.Username = creds.Username
		if err := cfg.Save(); err != nil {
			// Authentication already succeeded
			logger.Warn("failed to save connection config", map[string]any{"error": err.Error()})
		}
	}

	return ExitOK
}

// fail reports a login failure and returns its exit code. With JSON output
// the structured error is also printed to stdout.
func (c *LoginCommand) fail(err error, format output.Format) int {
	printError(c.stderr, "login failed: %v", err)

	if format == output.FormatJSON {
		if werr := output.Write(c.stdout, auth.ToErrorResponse(err), format); werr != nil {
			printError(c.stderr, "%v", werr)
		}
	}
	return exitCodeFor(err)
}

// promptUsername prompts the user to enter their username.
func (c *LoginCommand) promptUsername(reader *bufio.Reader) string {
	fmt.Fprintf(c.stderr, "Username: ")
	username, _ := reader.ReadString('\n')
	return strings.TrimSpace(username)
}

// promptPassword reads the password without echo when stdin is a terminal,
// otherwise as a plain line.
func (c *LoginCommand) promptPassword(reader *bufio.Reader) (string, error) {
	fmt.Fprintf(c.stderr, "Password: ")

	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintf(c.stderr, "\n")
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	password, err := reader.ReadString('\n')
	if err != nil && password == "" {
		return "", err
	}
	return strings.TrimRight(password, "\r\n"), nil
}
