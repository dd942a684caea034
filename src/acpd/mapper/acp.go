package mapper

import (
	"context"
	"encoding/json"
	stderr "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/errors"
	"go.lsp.dev/jsonrpc2"
)

// RequestToWorkspaceParams maps the parameters from a jsonrpc2.Request into entity.WorkspaceParams.
func RequestToWorkspaceParams(req jsonrpc2.Request) (*entity.WorkspaceParams, error) {
	params := entity.WorkspaceParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if err := requireField("workspaceId", params.WorkspaceID); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToRequestParams maps the parameters from a jsonrpc2.Request into entity.RequestParams.
func RequestToRequestParams(req jsonrpc2.Request) (*entity.RequestParams, error) {
	params := entity.RequestParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if err := requireField("workspaceId", params.WorkspaceID); err != nil {
		return nil, err
	}
	if err := requireField("method", params.Method); err != nil {
		return nil, err
	}
	if params.TimeoutMs < 0 {
		return nil, fmt.Errorf("%s: timeoutMs must not be negative", jsonrpc2.ErrInvalidParams)
	}
	return &params, nil
}

// RequestToSessionParams maps the parameters from a jsonrpc2.Request into entity.SessionParams.
func RequestToSessionParams(req jsonrpc2.Request) (*entity.SessionParams, error) {
	params := entity.SessionParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if err := requireField("workspaceId", params.WorkspaceID); err != nil {
		return nil, err
	}
	if err := requireField("sessionId", params.SessionID); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToPromptParams maps the parameters from a jsonrpc2.Request into entity.PromptParams.
func RequestToPromptParams(req jsonrpc2.Request) (*entity.PromptParams, error) {
	params := entity.PromptParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	if err := requireField("workspaceId", params.WorkspaceID); err != nil {
		return nil, err
	}
	if err := requireField("sessionId", params.SessionID); err != nil {
		return nil, err
	}
	return &params, nil
}

// RequestToDoctorParams maps the parameters from a jsonrpc2.Request into entity.DoctorParams.
// All fields are optional.
func RequestToDoctorParams(req jsonrpc2.Request) (*entity.DoctorParams, error) {
	params := entity.DoctorParams{}
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// SessionToRequest builds the payload of the remote methods addressing a single conversation.
func SessionToRequest(p *entity.SessionParams) *entity.SessionRequest {
	return &entity.SessionRequest{SessionID: p.SessionID}
}

// PromptToRequest builds the session/prompt payload. The model is only selected when both
// the provider and the model are given.
func PromptToRequest(p *entity.PromptParams) *entity.PromptRequest {
	req := &entity.PromptRequest{
		SessionID: p.SessionID,
		Prompt:    []entity.PromptPart{{Type: "text", Text: p.Text}},
	}
	if p.ProviderID != "" && p.ModelID != "" {
		req.ModelID = p.ProviderID + "/" + p.ModelID
	}
	return req
}

// WorkspaceToNewSessionRequest builds the session/new payload for a workspace root.
func WorkspaceToNewSessionRequest(entry *entity.WorkspaceEntry) *entity.NewSessionRequest {
	return &entity.NewSessionRequest{
		Cwd:        entry.Path,
		McpServers: []json.RawMessage{},
	}
}

// ResultToCreateSession maps the result of session/new. The result must carry a sessionId.
func ResultToCreateSession(result json.RawMessage) (*entity.CreateSessionResult, error) {
	var created struct {
		SessionID *string `json:"sessionId"`
	}
	if err := json.Unmarshal(result, &created); err != nil {
		return nil, &errors.ParseError{What: "session/new result", Err: err}
	}
	if created.SessionID == nil {
		return nil, &errors.ParseError{What: "session/new result", Err: errors.New("missing field `sessionId`")}
	}
	return &entity.CreateSessionResult{
		ID:    *created.SessionID,
		Title: entity.DefaultSessionTitle,
	}, nil
}

// sessionInfo is the wire form of a conversation summary. id is required.
type sessionInfo struct {
	ID        *string `json:"id"`
	Title     *string `json:"title"`
	CreatedAt *int64  `json:"createdAt"`
	UpdatedAt *int64  `json:"updatedAt"`
}

func (s sessionInfo) toEntity() (entity.SessionInfo, error) {
	if s.ID == nil {
		return entity.SessionInfo{}, errors.New("missing field `id`")
	}
	return entity.SessionInfo{
		ID:        *s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

// ResultToSessionInfo maps the result of a remote method returning a single conversation.
// what names the payload in the error message.
func ResultToSessionInfo(result json.RawMessage, what string) (*entity.SessionInfo, error) {
	var wire sessionInfo
	if err := json.Unmarshal(result, &wire); err != nil {
		return nil, &errors.ParseError{What: what, Err: err}
	}
	info, err := wire.toEntity()
	if err != nil {
		return nil, &errors.ParseError{What: what, Err: err}
	}
	return &info, nil
}

// ParseSessionList maps the output of `session list --format json`.
// Empty or malformed output, including any element without an id, yields an empty list.
func ParseSessionList(stdout string) []entity.SessionInfo {
	sessions := []entity.SessionInfo{}
	if strings.TrimSpace(stdout) == "" {
		return sessions
	}
	var wire []sessionInfo
	if err := json.Unmarshal([]byte(stdout), &wire); err != nil {
		return sessions
	}
	for _, w := range wire {
		info, err := w.toEntity()
		if err != nil {
			return []entity.SessionInfo{}
		}
		sessions = append(sessions, info)
	}
	return sessions
}

// ParseProviders maps the output of `models`, one provider/model per line, into providers
// sorted by name. Lines without a slash are skipped.
func ParseProviders(stdout string) []entity.ProviderInfo {
	byProvider := make(map[string][]entity.ProviderModel)
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		providerID, modelID, ok := strings.Cut(line, "/")
		if !ok {
			continue
		}
		byProvider[providerID] = append(byProvider[providerID], entity.ProviderModel{
			ID:   modelID,
			Name: modelID,
		})
	}

	providers := make([]entity.ProviderInfo, 0, len(byProvider))
	for id, models := range byProvider {
		providers = append(providers, entity.ProviderInfo{
			ID:     id,
			Name:   id,
			Models: models,
		})
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Name < providers[j].Name
	})
	return providers
}

// ContextToClientUUID extracts the UI client UUID from a context.
func ContextToClientUUID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(entity.ClientContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoClientFoundError{}
	}
	return id, nil
}

// ErrorToReply converts an error returned by the controller into the error sent to the UI.
// Errors of the peer keep their code and data. Every other error is sent with its display message.
func ErrorToReply(err error) error {
	var remote *errors.RemoteError
	if !stderr.As(err, &remote) {
		return err
	}

	wire := jsonrpc2.NewError(jsonrpc2.Code(remote.Code), err.Error())
	if len(remote.Data) > 0 {
		data := remote.Data
		wire.Data = &data
	}
	return wire
}

func unmarshalParams(req jsonrpc2.Request, v interface{}) error {
	raw := req.Params()
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return wrapErrParse(err)
	}
	return nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: missing field %q", jsonrpc2.ErrInvalidParams, name)
	}
	return nil
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%s: %w", jsonrpc2.ErrParse, err)
}
