package cli

import "fmt"

// Process exit codes. Diagnostics are distinguished from usage and I/O
// failures so scripts can tell "your policy is wrong" from "the tool broke".
const (
	// ExitOK means compilation succeeded with no diagnostics.
	ExitOK = 0

	// ExitDiagnostics means the source compiled with errors.
	ExitDiagnostics = 1

	// ExitFailure means the tool itself failed (bad flags, I/O, config).
	ExitFailure = 2
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}
