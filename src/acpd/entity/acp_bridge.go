// Package entity contains the domain types of the acpd service.
package entity

import (
	"encoding/json"
)

type keyType string

// ClientContextKey indicates the key used to identify the UI client UUID in the context.
const ClientContextKey keyType = "ClientUUID"

// BackendType selects the agent backend a workspace talks to.
type BackendType string

// Supported backends.
const (
	BackendCodex    BackendType = "codex"
	BackendOpenCode BackendType = "opencode"
)

// UnmarshalYAML defaults unknown and empty values to BackendCodex.
func (b *BackendType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*b = ParseBackend(s)
	return nil
}

// UnmarshalJSON defaults unknown and empty values to BackendCodex.
func (b *BackendType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = ParseBackend(s)
	return nil
}

// ParseBackend maps a configured backend name to a BackendType.
func ParseBackend(s string) BackendType {
	if BackendType(s) == BackendOpenCode {
		return BackendOpenCode
	}
	return BackendCodex
}

// WorkspaceEntry describes a project root the daemon can open a session for.
// It is immutable for the lifetime of a session.
type WorkspaceEntry struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Path        string      `json:"path" yaml:"path"`
	CodexBin    string      `json:"codexBin,omitempty" yaml:"codexBin"`
	OpencodeBin string      `json:"opencodeBin,omitempty" yaml:"opencodeBin"`
	Backend     BackendType `json:"backend" yaml:"backend"`
}

// DefaultAccessMode is used when the settings do not name one.
const DefaultAccessMode = "current"

// AppSettings are the global preferences shared by every workspace.
type AppSettings struct {
	CodexBin          string `json:"codexBin,omitempty" yaml:"codexBin"`
	OpencodeBin       string `json:"opencodeBin,omitempty" yaml:"opencodeBin"`
	DefaultAccessMode string `json:"defaultAccessMode" yaml:"defaultAccessMode"`
}

// SessionInfo summarizes a conversation stored by the CLI.
type SessionInfo struct {
	ID        string  `json:"id"`
	Title     *string `json:"title,omitempty"`
	CreatedAt *int64  `json:"createdAt,omitempty"`
	UpdatedAt *int64  `json:"updatedAt,omitempty"`
}

// ProviderModel is one model offered by a provider.
type ProviderModel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProviderInfo groups the models of one provider.
type ProviderInfo struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Models []ProviderModel `json:"models"`
}

// DoctorReport is the outcome of checking a CLI installation.
type DoctorReport struct {
	OK          bool    `json:"ok"`
	OpencodeBin *string `json:"opencodeBin"`
	Version     *string `json:"version"`
	ACPOK       bool    `json:"acpOk"`
	Details     *string `json:"details"`
}

// ClientInfo identifies this process to the peer during the handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the payload of the handshake request.
type InitializeParams struct {
	ProtocolVersion    int             `json:"protocolVersion"`
	ClientInfo         ClientInfo      `json:"clientInfo"`
	ClientCapabilities json.RawMessage `json:"clientCapabilities"`
}

// ProtocolVersion is announced in every handshake.
const ProtocolVersion = 1
