package stdiorpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uber-go/tally"
	"github.com/uber/acp-bridge/src/acpd/internal/clock"
	acperrors "github.com/uber/acp-bridge/src/acpd/internal/errors"
	"go.uber.org/zap"
)

const _unknownError = "Unknown error"

var _emptyParams = json.RawMessage("{}")

// Params define values to be used by Conn.
type Params struct {
	// WorkspaceID tags every event published by the connection.
	WorkspaceID string
	// Reader is the peer's output stream. Only the connection's read loop reads from it.
	Reader io.Reader
	// Writer is the peer's input stream. When it is an io.Closer it is closed once a write
	// outlasts the timeout of its call.
	Writer    io.Writer
	Publisher Publisher
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
}

// Conn is one JSON-RPC conversation with a peer.
type Conn struct {
	workspaceID string
	publisher   Publisher
	logger      *zap.SugaredLogger
	stats       tally.Scope
	clock       clock.Clock

	writeMu sync.Mutex
	w       *bufio.Writer
	out     io.Writer
	r       *bufio.Reader

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan *Message
	closed  bool

	startOnce sync.Once
	done      chan struct{}
}

// New creates a Conn. Nothing is read until Start is called.
func New(p Params) *Conn {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Conn{
		workspaceID: p.WorkspaceID,
		publisher:   p.Publisher,
		logger:      p.Logger.With("workspaceId", p.WorkspaceID),
		stats:       p.Stats.SubScope("rpc"),
		clock:       c,
		w:           bufio.NewWriter(p.Writer),
		out:         p.Writer,
		r:           bufio.NewReader(p.Reader),
		pending:     make(map[uint64]chan *Message),
		done:        make(chan struct{}),
	}
}

// Start launches the read loop. Calling it again has no effect.
func (c *Conn) Start() {
	c.startOnce.Do(func() {
		go c.readLoop()
	})
}

// Done is closed once the read loop has terminated.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Pending returns the number of calls awaiting a response.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Call sends method with params and waits up to timeout for the matching response.
// Nil params are sent as an empty object. The returned payload is JSON null when the response carried no result.
func (c *Conn) Call(ctx context.Context, method string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	raw, err := encodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("encoding params for %s: %w", method, err)
	}

	id := c.nextID.Add(1)
	slot := make(chan *Message, 1)
	if !c.register(id, slot) {
		return nil, acperrors.ErrChannelClosed
	}

	c.stats.Counter("calls").Inc(1)
	sw := c.stats.Timer("latency").Start()
	defer sw.Stop()

	timer := c.clock.NewTimer(timeout)
	defer timer.Stop()

	// The write counts against the timeout, so a peer that stops reading cannot hold writeMu past it.
	written := make(chan error, 1)
	go func() {
		written <- c.write(Request{JSONRPC: Version, Method: method, Params: raw, ID: id})
	}()
	select {
	case err := <-written:
		if err != nil {
			c.take(id)
			return nil, &acperrors.StreamIOError{Op: "write to opencode stdin", Err: err}
		}
	case <-timer.C:
		c.take(id)
		c.stats.Counter("timeouts").Inc(1)
		c.logger.Warnw("peer stopped reading, closing its input", "method", method, "id", id, "timeout", timeout)
		c.closeInput()
		return nil, &acperrors.RequestTimeoutError{Method: method, ID: id, Timeout: timeout}
	case <-ctx.Done():
		// The write goes on in the background. Its response, if any, is discarded as unmatched.
		c.take(id)
		return nil, ctx.Err()
	}

	select {
	case msg, ok := <-slot:
		return c.resolve(msg, ok)
	case <-timer.C:
		if c.take(id) {
			c.stats.Counter("timeouts").Inc(1)
			c.logger.Debugw("request timed out", "method", method, "id", id, "timeout", timeout)
			return nil, &acperrors.RequestTimeoutError{Method: method, ID: id, Timeout: timeout}
		}
	case <-ctx.Done():
		if c.take(id) {
			return nil, ctx.Err()
		}
	}

	// The read loop claimed the slot first. It fills or closes the slot while holding the
	// table lock, so this receive does not block.
	msg, ok := <-slot
	return c.resolve(msg, ok)
}

func (c *Conn) register(id uint64, slot chan *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.pending[id] = slot
	return true
}

// take removes id from the table and reports whether it was still there.
func (c *Conn) take(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	delete(c.pending, id)
	return ok
}

// deliver hands msg to the call waiting on id. It reports false when nobody is waiting.
func (c *Conn) deliver(id uint64, msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)
	slot <- msg
	return true
}

// terminate closes every pending slot and refuses new calls.
func (c *Conn) terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, slot := range c.pending {
		close(slot)
		delete(c.pending, id)
	}
}

// closeInput unblocks a stuck write. The peer sees the end of its input and normally exits,
// which ends the read loop.
func (c *Conn) closeInput() {
	if closer, ok := c.out.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.logger.Debugw("closing peer input", "error", err)
		}
	}
}

func (c *Conn) write(req Request) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.w.Write(append(b, '\n')); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Conn) resolve(msg *Message, ok bool) (json.RawMessage, error) {
	if !ok {
		return nil, acperrors.ErrChannelClosed
	}

	if !isNull(msg.Error) {
		c.stats.Counter("remote_errors").Inc(1)
		var obj ErrorObject
		if err := json.Unmarshal(msg.Error, &obj); err != nil || obj.Message == "" {
			obj.Message = _unknownError
		}
		return nil, &acperrors.RemoteError{Code: obj.Code, Message: obj.Message, Data: obj.Data}
	}

	if isNull(msg.Result) {
		return json.RawMessage("null"), nil
	}
	return msg.Result, nil
}

func encodeParams(params interface{}) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return _emptyParams, nil
	case json.RawMessage:
		if isNull(p) {
			return _emptyParams, nil
		}
		if !json.Valid(p) {
			return nil, acperrors.New("invalid JSON")
		}
		return p, nil
	}

	b, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	if isNull(b) {
		return _emptyParams, nil
	}
	return b, nil
}
