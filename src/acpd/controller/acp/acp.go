// Package acp implements the acpd business logic: it opens sessions with the opencode CLI and
// forwards the UI's requests to them.
package acp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/entity"
	uievents "github.com/uber/acp-bridge/src/acpd/gateway/ui-events"
	"github.com/uber/acp-bridge/src/acpd/internal/acpsession"
	"github.com/uber/acp-bridge/src/acpd/internal/clock"
	"github.com/uber/acp-bridge/src/acpd/internal/core"
	"github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/internal/executor"
	"github.com/uber/acp-bridge/src/acpd/internal/launcher"
	"github.com/uber/acp-bridge/src/acpd/internal/probe"
	"github.com/uber/acp-bridge/src/acpd/repository/session"
	"github.com/uber/acp-bridge/src/acpd/repository/workspace"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Configuration keys
	_requestTimeoutKey    = "acp.requestTimeout"
	_initializeTimeoutKey = "acp.initializeTimeout"
	_clientNameKey        = "acp.clientName"
	_clientVersionKey     = "acp.clientVersion"
	_serverURLKey         = "acp.serverURL"

	_defaultRequestTimeout    = 30 * time.Second
	_defaultInitializeTimeout = 120 * time.Second
	_defaultClientName        = "acpd"
	_defaultClientVersion     = "0.1.0"
	_defaultServerURL         = "acp://local"

	_acpSubcommand = "acp"
)

// Controller orchestrates the business logic for each request.
type Controller interface {
	// Session lifecycle.
	Connect(ctx context.Context, workspaceID string) error
	Disconnect(ctx context.Context, workspaceID string) error

	// Send forwards an arbitrary request to the workspace's peer and returns its raw result.
	Send(ctx context.Context, params *entity.RequestParams) (json.RawMessage, error)

	// Conversations held by the peer.
	CreateSession(ctx context.Context, workspaceID string) (*entity.CreateSessionResult, error)
	GetSession(ctx context.Context, params *entity.SessionParams) (*entity.SessionInfo, error)
	LoadSession(ctx context.Context, params *entity.SessionParams) (*entity.SessionInfo, error)
	DeleteSession(ctx context.Context, params *entity.SessionParams) error
	ListMessages(ctx context.Context, params *entity.SessionParams) (json.RawMessage, error)
	Prompt(ctx context.Context, params *entity.PromptParams) error
	Cancel(ctx context.Context, params *entity.SessionParams) error

	// One-shot CLI invocations.
	Doctor(ctx context.Context, params *entity.DoctorParams) (*entity.DoctorReport, error)
	ListSessions(ctx context.Context, workspaceID string) ([]entity.SessionInfo, error)
	ListProviders(ctx context.Context, workspaceID string) ([]entity.ProviderInfo, error)

	// UI clients.
	InitClient(ctx context.Context, conn jsonrpc2.Conn) (uuid.UUID, error)
	EndClient(ctx context.Context, id uuid.UUID) error
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Config     config.Provider
	Logger     *zap.SugaredLogger
	Stats      tally.Scope
	Clock      clock.Clock
	Sessions   session.Repository
	Workspaces workspace.Repository
	Launcher   launcher.Launcher
	Prober     probe.Prober
	Executor   executor.Executor
	Events     uievents.Gateway
	Output     io.Writer `name:"opencodeOutput" optional:"true"`
}

type controller struct {
	sessions   session.Repository
	workspaces workspace.Repository
	launcher   launcher.Launcher
	prober     probe.Prober
	executor   executor.Executor
	events     uievents.Gateway
	output     io.Writer
	logger     *zap.SugaredLogger
	stats      tally.Scope
	clock      clock.Clock

	requestTimeout    time.Duration
	initializeTimeout time.Duration
	clientInfo        entity.ClientInfo
	serverURL         string
}

// New creates a new controller.
func New(p Params) (Controller, error) {
	c := &controller{
		sessions:   p.Sessions,
		workspaces: p.Workspaces,
		launcher:   p.Launcher,
		prober:     p.Prober,
		executor:   p.Executor,
		events:     p.Events,
		output:     p.Output,
		logger:     p.Logger.With("component", "acp"),
		stats:      p.Stats,
		clock:      p.Clock,
	}

	var err error
	if c.requestTimeout, err = core.Duration(p.Config, _requestTimeoutKey, _defaultRequestTimeout); err != nil {
		return nil, err
	}
	if c.initializeTimeout, err = core.Duration(p.Config, _initializeTimeoutKey, _defaultInitializeTimeout); err != nil {
		return nil, err
	}
	if c.clientInfo.Name, err = stringOrDefault(p.Config, _clientNameKey, _defaultClientName); err != nil {
		return nil, err
	}
	if c.clientInfo.Version, err = stringOrDefault(p.Config, _clientVersionKey, _defaultClientVersion); err != nil {
		return nil, err
	}
	if c.serverURL, err = stringOrDefault(p.Config, _serverURLKey, _defaultServerURL); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *controller) Connect(ctx context.Context, workspaceID string) error {
	_, err := c.session(ctx, workspaceID)
	return err
}

func (c *controller) Disconnect(ctx context.Context, workspaceID string) error {
	c.logger.Infow("disconnecting", "workspaceId", workspaceID)
	return c.sessions.Delete(ctx, workspaceID)
}

// session returns the live session of a workspace, creating it when there is none.
func (c *controller) session(ctx context.Context, workspaceID string) (session.Session, error) {
	return c.sessions.GetOrCreate(ctx, workspaceID, func(ctx context.Context) (session.Session, error) {
		return c.create(ctx, workspaceID)
	})
}

// create spawns `<bin> acp` in the workspace root and performs the handshake.
// The process is killed when the handshake fails.
func (c *controller) create(ctx context.Context, workspaceID string) (session.Session, error) {
	entry, bin, err := c.resolve(ctx, workspaceID, "")
	if err != nil {
		return nil, err
	}

	version, err := c.prober.CheckInstallation(ctx, bin)
	if err != nil {
		return nil, err
	}

	proc, err := c.launcher.Spawn(bin, entry.Path, _acpSubcommand)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("spawned opencode", "workspaceId", workspaceID, "pid", proc.Pid(), "version", version)

	s := acpsession.New(acpsession.Params{
		Entry:          *entry,
		Process:        proc,
		Publisher:      c.events,
		Logger:         c.logger,
		Stats:          c.stats,
		Clock:          c.clock,
		Output:         c.output,
		RequestTimeout: c.requestTimeout,
	})

	if _, err := s.Initialize(ctx, c.clientInfo, c.initializeTimeout); err != nil {
		if cerr := s.Close(); cerr != nil {
			c.logger.Warnw("closing session after failed handshake", "workspaceId", workspaceID, "error", cerr)
		}
		return nil, &errors.InitializationError{Err: err}
	}

	c.events.Publish(ctx, entity.NewConnectedEvent(workspaceID, c.serverURL))
	return s, nil
}

// resolve returns the workspace entry and the binary to run for it, in priority order
// explicit, workspace override, global default.
func (c *controller) resolve(ctx context.Context, workspaceID, explicit string) (*entity.WorkspaceEntry, string, error) {
	entry, err := c.workspaces.Get(ctx, workspaceID)
	if err != nil {
		return nil, "", err
	}
	settings, err := c.workspaces.Settings(ctx)
	if err != nil {
		return nil, "", err
	}
	return entry, launcher.ResolveBinary(explicit, entry.OpencodeBin, settings.OpencodeBin), nil
}

func stringOrDefault(cfg config.Provider, key, def string) (string, error) {
	var s string
	if err := cfg.Get(key).Populate(&s); err != nil {
		return "", fmt.Errorf("getting config field %q: %w", key, err)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}
