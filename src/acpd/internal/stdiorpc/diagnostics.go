package stdiorpc

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/uber/acp-bridge/src/acpd/entity"
)

// ForwardDiagnostics publishes every non-blank line read from r until it ends.
// Read errors end forwarding silently.
func ForwardDiagnostics(workspaceID string, r io.Reader, publisher Publisher) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, " \t\r\n"); strings.TrimSpace(line) != "" {
			publisher.Publish(context.Background(), entity.DiagnosticEvent{WorkspaceID: workspaceID, Line: line})
		}
		if err != nil {
			return
		}
	}
}
