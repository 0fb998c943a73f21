// Package clicontext holds process-wide CLI state shared between commands.
package clicontext

import "sync"

// Global holds flags that affect all commands.
type Global struct {
	// AssumeYes answers 'yes' to every prompt, which today means trusting
	// an unknown server certificate without asking.
	AssumeYes bool
	// Verbose forces debug logging regardless of configuration.
	Verbose bool
}

var (
	globalContext = &Global{}
	mu            sync.RWMutex
)

// Get returns a copy of the current global CLI context.
func Get() Global {
	mu.RLock()
	defer mu.RUnlock()
	return *globalContext
}

// AssumeYes returns whether the CLI is in assume-yes mode.
func AssumeYes() bool {
	mu.RLock()
	defer mu.RUnlock()
	return globalContext.AssumeYes
}

// SetAssumeYes sets the assume-yes flag.
func SetAssumeYes(value bool) {
	mu.Lock()
	defer mu.Unlock()
	globalContext.AssumeYes = value
}

// Verbose returns whether debug logging was requested on the command line.
func Verbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return globalContext.Verbose
}

// SetVerbose sets the verbose flag.
func SetVerbose(value bool) {
	mu.Lock()
	defer mu.Unlock()
	globalContext.Verbose = value
}
