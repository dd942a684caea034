// Package uievents delivers session events to the connected UI clients.
package uievents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKey         = "events"
	_defaultBufferSize = 256
	_notifyTimeout     = 5 * time.Second
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Gateway fans events out to every registered UI client.
type Gateway interface {
	// RegisterClient registers a new client with the gateway. Should be called each time a UI connection is opened.
	RegisterClient(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn) error
	// DeregisterClient removes a client from the gateway. Should be called each time a UI connection is closed.
	DeregisterClient(ctx context.Context, id uuid.UUID) error
	// Publish queues an event for delivery and returns immediately. Events are dropped when the queue is full.
	Publish(ctx context.Context, ev entity.Event)
}

// Config is the events block of the service configuration.
type Config struct {
	BufferSize int `yaml:"bufferSize"`
}

// Params define values to be used by Gateway.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

type gateway struct {
	clients   map[uuid.UUID]jsonrpc2.Conn
	clientsMu sync.Mutex

	queue  chan entity.Event
	closer chan struct{}
	done   chan struct{}

	logger *zap.SugaredLogger
	stats  tally.Scope
}

// New returns a Gateway whose dispatcher runs for the lifetime of the application.
func New(p Params) (Gateway, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}
	if cfg.BufferSize < 0 {
		return nil, fmt.Errorf("invalid %s.bufferSize %d", _configKey, cfg.BufferSize)
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = _defaultBufferSize
	}

	g := newGateway(cfg.BufferSize, p.Logger, p.Stats)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go g.dispatch()
			return nil
		},
		OnStop: g.stop,
	})
	return g, nil
}

func newGateway(size int, logger *zap.SugaredLogger, stats tally.Scope) *gateway {
	return &gateway{
		clients: make(map[uuid.UUID]jsonrpc2.Conn),
		queue:   make(chan entity.Event, size),
		closer:  make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger,
		stats:   stats.SubScope("events"),
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	g.clients[id] = conn
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	delete(g.clients, id)
	return nil
}

func (g *gateway) Publish(ctx context.Context, ev entity.Event) {
	select {
	case g.queue <- ev:
	default:
		g.stats.Counter("dropped").Inc(1)
		g.logger.Debugw("dropping event", "channel", ev.Channel(), "workspaceId", ev.Workspace())
	}
}

func (g *gateway) dispatch() {
	defer close(g.done)
	for {
		select {
		case ev := <-g.queue:
			g.deliver(ev)
		case <-g.closer:
			g.drain()
			return
		}
	}
}

// drain delivers what is already queued without waiting for more.
func (g *gateway) drain() {
	for {
		select {
		case ev := <-g.queue:
			g.deliver(ev)
		default:
			return
		}
	}
}

func (g *gateway) deliver(ev entity.Event) {
	g.clientsMu.Lock()
	conns := make(map[uuid.UUID]jsonrpc2.Conn, len(g.clients))
	for id, conn := range g.clients {
		conns[id] = conn
	}
	g.clientsMu.Unlock()

	for id, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), _notifyTimeout)
		err := conn.Notify(ctx, ev.Channel(), ev)
		cancel()
		if err != nil {
			g.logger.Warnw("sending event to client", "client", id.String(), "channel", ev.Channel(), "error", err)
		}
	}
	g.stats.Counter("published").Inc(1)
}

func (g *gateway) stop(ctx context.Context) error {
	close(g.closer)
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
