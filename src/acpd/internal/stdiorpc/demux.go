package stdiorpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/uber/acp-bridge/src/acpd/entity"
)

// readLoop reads one message per line until the peer's output ends.
// It is the only reader of c.r.
func (c *Conn) readLoop() {
	defer close(c.done)

	var readErr error
	for {
		line, err := c.r.ReadBytes('\n')
		if len(line) > 0 {
			c.dispatch(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				readErr = err
			}
			break
		}
	}

	c.terminate()
	if readErr != nil {
		c.logger.Warnw("failed to read opencode stdout", "error", readErr)
	}
	c.logger.Infow("opencode output ended")
	c.publisher.Publish(context.Background(), entity.NewDisconnectedEvent(c.workspaceID, DisconnectReason))
}

func (c *Conn) dispatch(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		c.stats.SubScope("demux").Counter("malformed").Inc(1)
		c.logger.Debugw("dropping unparsable line", "line", string(line), "error", err)
		return
	}

	// Anything naming a method originates from the peer, even when it carries an id.
	if msg.Method != "" {
		ev := entity.NotificationEvent{
			WorkspaceID: c.workspaceID,
			Method:      msg.Method,
			Params:      msg.Params,
		}
		if !isNull(msg.ID) {
			ev.ID = msg.ID
		}
		c.publisher.Publish(context.Background(), ev)
		return
	}

	id, ok := msg.numericID()
	if !ok {
		c.stats.SubScope("demux").Counter("malformed").Inc(1)
		c.logger.Debugw("dropping message without id or method", "line", string(line))
		return
	}

	if !c.deliver(id, &msg) {
		c.stats.SubScope("demux").Counter("unmatched").Inc(1)
		c.logger.Debugw("discarding response nobody is waiting for", "id", id)
	}
}
