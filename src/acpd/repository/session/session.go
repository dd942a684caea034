// Package session holds the live sessions of the daemon, at most one per workspace.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/errors"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Session is a live conversation stored by the repository.
type Session interface {
	// Entry is the workspace the session was opened for.
	Entry() entity.WorkspaceEntry
	WorkspaceID() string
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
	CallWithTimeout(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error)
	// Alive reports false once the session can no longer serve calls.
	Alive() bool
	Close() error
}

// CreateFunc builds a ready to use session. It runs at most once per reservation.
type CreateFunc func(ctx context.Context) (Session, error)

// Repository maps workspace ids to their sessions.
type Repository interface {
	// Get returns the live session of a workspace without creating one.
	Get(ctx context.Context, workspaceID string) (Session, error)
	// GetOrCreate returns the live session of a workspace, running create when there is none.
	// Concurrent callers for the same workspace share a single create and its outcome.
	GetOrCreate(ctx context.Context, workspaceID string, create CreateFunc) (Session, error)
	// Delete removes the session of a workspace and closes it.
	Delete(ctx context.Context, workspaceID string) error
	// SessionCount returns the number of sessions, including ones being created.
	SessionCount(ctx context.Context) (int, error)
	// CloseAll closes every session. The repository refuses new sessions afterwards.
	CloseAll(ctx context.Context) error
}

// Params define values to be used by Repository.
type Params struct {
	fx.In

	Stats     tally.Scope
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

// entry is a reservation for a workspace. ready is closed once session or err is set.
type entry struct {
	ready   chan struct{}
	session Session
	err     error
}

type repository struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	stats  tally.Scope
	logger *zap.SugaredLogger
}

// New returns a repository of sessions, closed when the application stops.
func New(p Params) Repository {
	r := &repository{
		entries: make(map[string]*entry),
		stats:   p.Stats.SubScope("registry"),
		logger:  p.Logger,
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: r.CloseAll,
	})
	return r
}

func (r *repository) Get(ctx context.Context, workspaceID string) (Session, error) {
	r.mu.Lock()
	e, ok := r.entries[workspaceID]
	r.mu.Unlock()
	if !ok {
		return nil, &errors.SessionNotFoundError{WorkspaceID: workspaceID}
	}

	select {
	case <-e.ready:
	default:
		return nil, &errors.SessionNotFoundError{WorkspaceID: workspaceID}
	}
	if e.err != nil || !e.session.Alive() {
		return nil, &errors.SessionNotFoundError{WorkspaceID: workspaceID}
	}
	return e.session, nil
}

func (r *repository) GetOrCreate(ctx context.Context, workspaceID string, create CreateFunc) (Session, error) {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, errors.ErrRegistryClosed
		}
		e, ok := r.entries[workspaceID]
		if !ok {
			e = &entry{ready: make(chan struct{})}
			r.entries[workspaceID] = e
			r.updateGauge()
			// The creation is shared with later callers and outlives the ctx of the one that started it.
			go r.create(context.WithoutCancel(ctx), workspaceID, e, create)
		}
		r.mu.Unlock()

		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		if !ok || e.session.Alive() {
			return e.session, nil
		}

		r.logger.Infow("evicting ended session", "workspaceId", workspaceID)
		r.remove(workspaceID, e)
		if err := e.session.Close(); err != nil {
			r.logger.Warnw("closing ended session", "workspaceId", workspaceID, "error", err)
		}
	}
}

// create runs create for the reservation e and publishes the outcome on it.
func (r *repository) create(ctx context.Context, workspaceID string, e *entry, create CreateFunc) {
	r.stats.Counter("spawns").Inc(1)
	s, err := create(ctx)

	var discarded Session
	r.mu.Lock()
	if err == nil && r.entries[workspaceID] != e {
		// Deleted or shut down while the session was being created.
		discarded, s = s, nil
		err = errors.ErrSessionDiscarded
		if r.closed {
			err = errors.ErrRegistryClosed
		}
	} else if err != nil {
		if r.entries[workspaceID] == e {
			delete(r.entries, workspaceID)
			r.updateGauge()
		}
		r.stats.Counter("spawn_failures").Inc(1)
	}
	e.session, e.err = s, err
	r.mu.Unlock()

	if discarded != nil {
		if cerr := discarded.Close(); cerr != nil {
			r.logger.Warnw("closing discarded session", "workspaceId", workspaceID, "error", cerr)
		}
	}
	close(e.ready)
}

func (r *repository) Delete(ctx context.Context, workspaceID string) error {
	r.mu.Lock()
	e, ok := r.entries[workspaceID]
	if ok {
		delete(r.entries, workspaceID)
		r.updateGauge()
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return closeEntry(ctx, e)
}

func (r *repository) SessionCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries), nil
}

func (r *repository) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.updateGauge()
	r.mu.Unlock()

	var err error
	for id, e := range entries {
		if cerr := closeEntry(ctx, e); cerr != nil {
			r.logger.Warnw("closing session", "workspaceId", id, "error", cerr)
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// closeEntry waits for a pending creation before closing its session.
// If ctx ends first, the creator closes the session itself once it finds its entry gone.
func closeEntry(ctx context.Context, e *entry) error {
	select {
	case <-e.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	if e.session == nil {
		return nil
	}
	return e.session.Close()
}

func (r *repository) remove(workspaceID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[workspaceID] == e {
		delete(r.entries, workspaceID)
		r.updateGauge()
	}
}

// updateGauge must be called with r.mu held.
func (r *repository) updateGauge() {
	r.stats.Gauge("active_sessions").Update(float64(len(r.entries)))
}
