package entity

import "encoding/json"

// WorkspaceParams select a workspace.
type WorkspaceParams struct {
	WorkspaceID string `json:"workspaceId"`
}

// RequestParams forward an arbitrary request to a workspace's peer.
type RequestParams struct {
	WorkspaceID string          `json:"workspaceId"`
	Method      string          `json:"method"`
	Params      json.RawMessage `json:"params,omitempty"`
	// TimeoutMs overrides the default request timeout when positive.
	TimeoutMs int64 `json:"timeoutMs,omitempty"`
}

// SessionParams select a conversation within a workspace.
type SessionParams struct {
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId"`
}

// PromptParams send a user message to a conversation.
type PromptParams struct {
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId"`
	Text        string `json:"text"`
	ProviderID  string `json:"providerId,omitempty"`
	ModelID     string `json:"modelId,omitempty"`
}

// DoctorParams select the binary to check.
type DoctorParams struct {
	OpencodeBin string `json:"opencodeBin,omitempty"`
}

// CreateSessionResult is returned when a conversation is created.
type CreateSessionResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DefaultSessionTitle is the title given to newly created conversations.
const DefaultSessionTitle = "New Session"

// NewSessionRequest is the payload of session/new.
type NewSessionRequest struct {
	Cwd        string            `json:"cwd"`
	McpServers []json.RawMessage `json:"mcpServers"`
}

// SessionRequest is the payload of the remote methods addressing one conversation.
type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

// PromptPart is one piece of user input.
type PromptPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// PromptRequest is the payload of session/prompt.
type PromptRequest struct {
	SessionID string       `json:"sessionId"`
	Prompt    []PromptPart `json:"prompt"`
	// ModelID has the form provider/model.
	ModelID string `json:"modelId,omitempty"`
}
