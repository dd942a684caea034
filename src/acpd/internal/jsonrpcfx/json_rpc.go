// Package jsonrpcfx serves UI clients over JSON-RPC on a local TCP port.
package jsonrpcfx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber/acp-bridge/src/acpd/internal/serverinfofile"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyAddress = "jsonrpc.address"
	_outputKey        = "acp-address"
)

// Module is an fx module to handle JSON-RPC requests.
var Module = fx.Provide(New)

// JSONRPCModule represents a module to manage JSON-RPC requests.
type JSONRPCModule interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	ServeStream(ctx context.Context, conn jsonrpc2.Conn) error
	RegisterConnectionManager(connectionManager ConnectionManager) error
}

// Router serves as the interface through which handling of requests will be implemented.
type Router interface {
	HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error
	UUID() uuid.UUID
}

// ConnectionManager will manage each active connection and its corresponding Router throughout the lifecycle of a connection.
type ConnectionManager interface {
	NewConnection(ctx context.Context, conn jsonrpc2.Conn) (router Router, err error)
	RemoveConnection(ctx context.Context, id uuid.UUID)
}

type module struct {
	Address string `json:"address"`

	connectionMgr  ConnectionManager
	ln             net.Listener
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	conns   map[jsonrpc2.Conn]struct{}
	stopped bool
	wg      sync.WaitGroup
}

// Params define values to be used by JSONRPCModule.
type Params struct {
	fx.In

	Config         config.Provider
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
}

// New creates a new server to handle JSON-RPC requests on the configured address.
func New(p Params) (JSONRPCModule, error) {
	if p.Lifecycle == nil || p.Config == nil {
		return nil, errors.New("required parameters are missing")
	}

	m := newModule(p.Logger, p.ServerInfoFile)
	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})

	return m, nil
}

func newModule(logger *zap.SugaredLogger, infoFile serverinfofile.ServerInfoFile) *module {
	ctx, cancel := context.WithCancel(context.Background())
	return &module{
		logger:         logger,
		serverInfoFile: infoFile,
		ctx:            ctx,
		cancel:         cancel,
		conns:          make(map[jsonrpc2.Conn]struct{}),
	}
}

// OnStart listens on the configured address, publishes it to the server info file, then begins accepting connections.
func (m *module) OnStart(ctx context.Context) error {
	if err := m.setup(); err != nil {
		return err
	}

	// Report the bound address so that port 0 can be used.
	addr := m.ln.Addr().String()
	if err := m.serverInfoFile.UpdateField(_outputKey, addr); err != nil {
		m.ln.Close()
		return err
	}

	m.logger.Infow("started JSON-RPC inbound", "address", addr)
	m.wg.Add(1)
	go m.serve()
	return nil
}

// OnStop stops accepting connections, closes the open ones and waits for their handlers to return.
func (m *module) OnStop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	for conn := range m.conns {
		conn.Close()
	}
	m.mu.Unlock()

	m.cancel()
	var err error
	if m.ln != nil {
		err = m.ln.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeStream is called when a new connection is initiated. Requests received via the connection will be routed to the handler, and answered via the connection's replier.
// Each request is handled in its own goroutine so that a slow request does not hold up the others.
func (m *module) ServeStream(ctx context.Context, conn jsonrpc2.Conn) error {
	if m.connectionMgr == nil {
		m.logger.Errorf("cannot serve connection, no connection manager set")
		return errors.New("cannot serve connection, no connection manager set")
	}

	router, err := m.connectionMgr.NewConnection(ctx, conn)
	if err != nil {
		return err
	}
	m.logger.Infow("client connected", zap.Stringer("uuid", router.UUID()))

	var inflight sync.WaitGroup
	conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if err := router.HandleReq(ctx, reply, req); err != nil {
				m.logger.Warnw("handling request", "method", req.Method(), "uuid", router.UUID().String(), "error", err)
			}
		}()
		return nil
	})

	// Block until the connection is closed.
	<-conn.Done()
	inflight.Wait()

	m.connectionMgr.RemoveConnection(ctx, router.UUID())
	m.logger.Infow("client disconnected", zap.Stringer("uuid", router.UUID()))

	return conn.Err()
}

// RegisterConnectionManager sets the connection manager, which keeps track of current active connections and provides a Router implementation.
func (m *module) RegisterConnectionManager(connectionMgr ConnectionManager) error {
	if m.connectionMgr != nil {
		return errors.New("cannot register a duplicate connection manager")
	}
	m.connectionMgr = connectionMgr
	return nil
}

// setup should be called after creation of a new handler to set initial values.
func (m *module) setup() error {
	if m.Address == "" {
		return errors.New("setup called before address is set")
	}

	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listening on %q: %w", m.Address, err)
	}
	m.ln = ln
	return nil
}

// serve accepts connections until the listener is closed.
func (m *module) serve() {
	defer m.wg.Done()

	for {
		nc, err := m.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				m.logger.Errorw("accepting JSON-RPC connection", "error", err)
			}
			return
		}

		conn := jsonrpc2.NewConn(jsonrpc2.NewStream(nc))
		if !m.track(conn) {
			conn.Close()
			continue
		}

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			defer m.untrack(conn)

			if err := m.ServeStream(m.ctx, conn); err != nil && !isClosingError(err) {
				m.logger.Debugw("connection ended", "error", err)
			}
			conn.Close()
		}()
	}
}

func (m *module) track(conn jsonrpc2.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	m.conns[conn] = struct{}{}
	return true
}

func (m *module) untrack(conn jsonrpc2.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, conn)
}

// processConfig will parse the configuration for any values required by this module.
func (m *module) processConfig(cfg config.Provider) error {
	val := cfg.Get(_configKeyAddress)
	if err := val.Populate(&m.Address); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}

	if m.Address == "" {
		return fmt.Errorf("missing field %q in config", _configKeyAddress)
	}

	return nil
}

func isClosingError(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF)
}
