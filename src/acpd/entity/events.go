package entity

import "encoding/json"

// Names of the channels events are delivered on.
const (
	ChannelNotification = "opencode-event"
	ChannelWorkspace    = "workspace-event"
	ChannelDiagnostic   = "opencode-stderr"
)

// Kinds of lifecycle events.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// Event is an outbound, best-effort notification for the UI.
type Event interface {
	// Channel names the channel the event is delivered on.
	Channel() string
	// Workspace is the workspace the event originates from.
	Workspace() string
}

// NotificationEvent carries a notification sent by the peer.
// ID is only set when the peer sent a request of its own rather than a notification.
type NotificationEvent struct {
	WorkspaceID string          `json:"workspaceId"`
	Method      string          `json:"method"`
	Params      json.RawMessage `json:"params"`
	ID          json.RawMessage `json:"id,omitempty"`
}

// Channel implements Event.
func (NotificationEvent) Channel() string { return ChannelNotification }

// Workspace implements Event.
func (e NotificationEvent) Workspace() string { return e.WorkspaceID }

// WorkspaceEvent reports a session connecting or disconnecting.
type WorkspaceEvent struct {
	WorkspaceID string  `json:"workspace_id"`
	EventType   string  `json:"event_type"`
	ServerURL   *string `json:"server_url"`
	Error       *string `json:"error"`
}

// Channel implements Event.
func (WorkspaceEvent) Channel() string { return ChannelWorkspace }

// Workspace implements Event.
func (e WorkspaceEvent) Workspace() string { return e.WorkspaceID }

// NewConnectedEvent returns the event published once a session is ready.
func NewConnectedEvent(workspaceID, serverURL string) WorkspaceEvent {
	return WorkspaceEvent{WorkspaceID: workspaceID, EventType: EventConnected, ServerURL: &serverURL}
}

// NewDisconnectedEvent returns the event published once a session's output stream ends.
func NewDisconnectedEvent(workspaceID, reason string) WorkspaceEvent {
	return WorkspaceEvent{WorkspaceID: workspaceID, EventType: EventDisconnected, Error: &reason}
}

// DiagnosticEvent carries one line written by the peer to its diagnostic stream.
type DiagnosticEvent struct {
	WorkspaceID string `json:"workspaceId"`
	Line        string `json:"line"`
}

// Channel implements Event.
func (DiagnosticEvent) Channel() string { return ChannelDiagnostic }

// Workspace implements Event.
func (e DiagnosticEvent) Workspace() string { return e.WorkspaceID }
