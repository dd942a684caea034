// Package acpsession ties a spawned opencode process to the JSON-RPC connection running over its stdio.
package acpsession

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/clock"
	"github.com/uber/acp-bridge/src/acpd/internal/stdiorpc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const _drainTimeout = 2 * time.Second

// Process is the child a Session talks to.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser
	Kill() error
	Done() <-chan struct{}
}

// Params define values to be used by Session.
type Params struct {
	Entry     entity.WorkspaceEntry
	Process   Process
	Publisher stdiorpc.Publisher
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
	// Output, when set, also receives every diagnostic line prefixed with the workspace id.
	Output io.Writer
	// RequestTimeout bounds Call.
	RequestTimeout time.Duration
}

// Session is one live conversation with a spawned process.
type Session struct {
	entry          entity.WorkspaceEntry
	proc           Process
	conn           *stdiorpc.Conn
	logger         *zap.SugaredLogger
	requestTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New wires the process' streams to a connection and starts reading from them.
func New(p Params) *Session {
	s := &Session{
		entry:          p.Entry,
		proc:           p.Process,
		logger:         p.Logger.With("workspaceId", p.Entry.ID),
		requestTimeout: p.RequestTimeout,
		conn: stdiorpc.New(stdiorpc.Params{
			WorkspaceID: p.Entry.ID,
			Reader:      p.Process.Stdout(),
			Writer:      p.Process.Stdin(),
			Publisher:   p.Publisher,
			Logger:      p.Logger,
			Stats:       p.Stats,
			Clock:       p.Clock,
		}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		publisher := p.Publisher
		if p.Output != nil {
			publisher = &outputPublisher{Publisher: publisher, out: p.Output}
		}
		stdiorpc.ForwardDiagnostics(p.Entry.ID, p.Process.Stderr(), publisher)
	}()
	s.conn.Start()
	return s
}

// Entry returns the workspace the session was opened for.
func (s *Session) Entry() entity.WorkspaceEntry {
	return s.entry
}

// WorkspaceID returns the id of the workspace the session was opened for.
func (s *Session) WorkspaceID() string {
	return s.entry.ID
}

// Call sends a request bounded by the session's default timeout.
func (s *Session) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return s.conn.Call(ctx, method, params, s.requestTimeout)
}

// CallWithTimeout sends a request bounded by timeout.
func (s *Session) CallWithTimeout(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	return s.conn.Call(ctx, method, params, timeout)
}

// Initialize performs the handshake that makes the session usable.
func (s *Session) Initialize(ctx context.Context, client entity.ClientInfo, timeout time.Duration) (json.RawMessage, error) {
	return s.conn.Call(ctx, "initialize", entity.InitializeParams{
		ProtocolVersion:    entity.ProtocolVersion,
		ClientInfo:         client,
		ClientCapabilities: json.RawMessage("{}"),
	}, timeout)
}

// Done is closed once the peer's output stream has ended.
func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

// Alive reports whether the peer's output stream is still open.
func (s *Session) Alive() bool {
	select {
	case <-s.conn.Done():
		return false
	default:
		return true
	}
}

// Close kills the process and waits for every goroutine the session started.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var err error
		err = multierr.Append(err, s.proc.Kill())
		if cerr := s.proc.Stdin().Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
		<-s.proc.Done()

		drained := make(chan struct{})
		go func() {
			s.wg.Wait()
			<-s.conn.Done()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(_drainTimeout):
			// A grandchild still holds the pipes open.
			s.logger.Warnw("output not drained after exit, closing pipes")
			_ = s.proc.Stdout().Close()
			_ = s.proc.Stderr().Close()
			<-drained
		}
		_ = s.proc.Stdout().Close()
		_ = s.proc.Stderr().Close()

		s.logger.Infow("session closed")
		s.closeErr = err
	})
	return s.closeErr
}

// outputPublisher copies diagnostic lines to out before publishing them.
type outputPublisher struct {
	stdiorpc.Publisher
	out io.Writer
}

func (o *outputPublisher) Publish(ctx context.Context, ev entity.Event) {
	if d, ok := ev.(entity.DiagnosticEvent); ok {
		_, _ = io.WriteString(o.out, "["+d.WorkspaceID+"] "+d.Line+"\n")
	}
	o.Publisher.Publish(ctx, ev)
}
