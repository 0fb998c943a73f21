// Package main provides the ccclogin CLI tool.
//
// ccclogin exchanges a username and password for an active key with an
// access-control server speaking the CCC client protocol.
package main

import (
	"fmt"
	"os"

	"github.com/fzdarsky/ccclogin/internal/cli/clicontext"
	"github.com/fzdarsky/ccclogin/internal/cli/commands"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(commands.ExitError)
	}

	// Parse global flags and extract command
	args, command := parseGlobalFlags(os.Args[1:])

	// Handle special commands
	switch command {
	case "--help", "-h", "help":
		printUsage()
		os.Exit(commands.ExitOK)
	case "--version", "-v", "version":
		fmt.Printf("ccclogin version %s\n", version)
		os.Exit(commands.ExitOK)
	}

	// Route to command implementations
	switch command {
	case "login":
		commands.NewLoginCommand(version).Execute(args)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(commands.ExitError)
	}
}

// parseGlobalFlags processes global flags and returns remaining args and the command.
// Global flags like --assumeyes can appear anywhere in the argument list.
// Examples:
//
//	ccclogin -y login --server vpn.example.com        (before command)
//	ccclogin login -y --server vpn.example.com        (after command)
//	ccclogin login --server vpn.example.com --verbose (at the end)
func parseGlobalFlags(args []string) ([]string, string) {
	remainingArgs := make([]string, 0, len(args))
	var command string

	for _, arg := range args {
		switch arg {
		case "--assumeyes", "-y":
			clicontext.SetAssumeYes(true)
			continue
		case "--verbose":
			clicontext.SetVerbose(true)
			continue
		}

		// First non-flag argument is the command
		if command == "" && !isFlag(arg) {
			command = arg
			continue
		}

		// All other arguments are passed to the command
		remainingArgs = append(remainingArgs, arg)
	}

	return remainingArgs, command
}

// isFlag returns true if the argument looks like a flag (starts with -).
func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ccclogin - obtain an active key from a CCC access-control server

Usage:
  ccclogin <command> [flags]

Available Commands:
  login        Authenticate with username and password, print the active key
  help         Show help information
  version      Show version information

Global Flags:
  --help, -h        Show help information
  --version, -v     Show version information
  --assumeyes, -y   Automatically answer 'yes' to prompts (non-interactive mode)
  --verbose         Log protocol steps at debug level (credentials are never logged)

Exit Codes:
  0  active key obtained
  1  usage or configuration error
  2  credentials rejected by the server
  3  server unreachable or returned an HTTP error
  4  unexpected protocol message

Examples:
  # Authenticate interactively
  ccclogin login --server vpn.example.com

  # Non-interactive (auto-accept certificate, password from environment)
  CCC_PASSWORD=secret ccclogin login -y --server vpn.example.com --username alice

For detailed help on a specific command, run:
  ccclogin <command> --help

`)
}
