// Package stdiorpc speaks line-delimited JSON-RPC 2.0 with a single peer over a pair of byte streams.
//
// A Conn correlates outbound requests with their responses by numeric id and forwards
// everything the peer sends on its own initiative to a Publisher.
package stdiorpc

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"github.com/uber/acp-bridge/src/acpd/entity"
)

// Version is the protocol version tag carried by every message.
const Version = "2.0"

// DisconnectReason is reported to the UI when the peer's output stream ends.
const DisconnectReason = "OpenCode process ended"

// Publisher receives events. Publish must not block on delivery.
type Publisher interface {
	Publish(ctx context.Context, ev entity.Event)
}

// Request is an outbound call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      uint64          `json:"id"`
}

// Message is any inbound message: a response, a notification or a request from the peer.
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// ErrorObject is the error member of a response.
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// numericID returns the message id when it is a non-negative integer.
func (m *Message) numericID() (uint64, bool) {
	if isNull(m.ID) {
		return 0, false
	}
	id, err := strconv.ParseUint(string(bytes.TrimSpace(m.ID)), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

var _null = []byte("null")

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, _null)
}
