package errors

import (
	"fmt"
	"strings"
	"time"
)

const _remedyFmt = "Try running `%s` in Terminal."

// ExecutableNotFoundError indicates that a process could not be spawned because its executable could not be located.
type ExecutableNotFoundError struct {
	Binary string
	Err    error
}

// Error is an implementation of the error interface.
func (n *ExecutableNotFoundError) Error() string {
	return "OpenCode CLI not found. Install OpenCode and ensure `opencode` is on your PATH."
}

// Unwrap returns the underlying spawn error.
func (n *ExecutableNotFoundError) Unwrap() error {
	return n.Err
}

// ProbeTimeoutError indicates that a one-shot check of the CLI did not finish within its bound.
type ProbeTimeoutError struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// Error is an implementation of the error interface.
func (n *ProbeTimeoutError) Error() string {
	return fmt.Sprintf("Timed out while checking OpenCode CLI. Make sure `%s` runs in Terminal.", commandLine(n.Args))
}

// ProcessExitError indicates that a one-shot invocation of the CLI exited with a non-zero status.
// Detail carries the best-effort diagnostic text taken from stderr, or stdout when stderr was empty.
type ProcessExitError struct {
	Binary   string
	Args     []string
	ExitCode int
	Detail   string
}

// Error is an implementation of the error interface.
func (n *ProcessExitError) Error() string {
	remedy := fmt.Sprintf(_remedyFmt, commandLine(n.Args))
	if n.Detail == "" {
		return "OpenCode CLI failed to start. " + remedy
	}
	return fmt.Sprintf("OpenCode CLI failed to start: %s. %s", n.Detail, remedy)
}

// commandLine renders the remedial command with the default command name, whatever binary was used.
func commandLine(args []string) string {
	return strings.Join(append([]string{"opencode"}, args...), " ")
}
