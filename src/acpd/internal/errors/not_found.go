package errors

import (
	stderr "errors"
	"fmt"
)

// WorkspaceNotFoundError indicates that no workspace entry exists for the given id.
type WorkspaceNotFoundError struct {
	ID string
}

// Error is an implementation of the error interface.
func (n *WorkspaceNotFoundError) Error() string {
	return fmt.Sprintf("Workspace %q not found", n.ID)
}

// SessionNotFoundError indicates that no session is registered for the given workspace.
type SessionNotFoundError struct {
	WorkspaceID string
}

// Error is an implementation of the error interface.
func (n *SessionNotFoundError) Error() string {
	return fmt.Sprintf("no session for workspace %q", n.WorkspaceID)
}

// NotFoundWorkspace returns the workspace id and true if WorkspaceNotFoundError is part of the
// error chain.
func NotFoundWorkspace(e error) (_ string, ok bool) {
	var nf *WorkspaceNotFoundError
	if !stderr.As(e, &nf) {
		return "", false
	}
	return nf.ID, true
}

// InitializationError wraps a failed handshake with a freshly spawned process.
type InitializationError struct {
	Err error
}

// Error is an implementation of the error interface.
func (n *InitializationError) Error() string {
	return fmt.Sprintf("Failed to initialize OpenCode ACP: %v", n.Err)
}

// Unwrap returns the handshake error.
func (n *InitializationError) Unwrap() error {
	return n.Err
}

// NoClientFoundError indicates that no UI client id is attached to the context.
type NoClientFoundError struct{}

// Error is an implementation of the error interface.
func (n *NoClientFoundError) Error() string {
	return "No client found in context"
}
