// Package fakepeer turns a test binary into a stand-in for the opencode CLI.
//
// Tests call MaybeRun first thing in TestMain and then spawn their own binary
// (see Binary) with EnvMode set. The child answers the one-shot subcommands and
// serves a small line-delimited JSON-RPC peer for "acp".
package fakepeer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// EnvMode selects the behavior of the fake peer. The test binary behaves normally when it is unset.
const EnvMode = "ACPD_FAKE_PEER"

// Modes understood by the fake peer.
const (
	ModeOK          = "ok"
	ModeVersionFail = "version-fail"
	ModeHang        = "hang"
	ModeInitError   = "init-error"
)

// Methods with test-only behavior in the acp serve loop.
const (
	MethodExit   = "test/exit"
	MethodSilent = "test/silent"
	MethodNotify = "test/notify"
)

// MissingSession is answered with an error by session/get and session/load.
const MissingSession = "ses_missing"

// Version is printed by --version in ModeOK.
const Version = "1.2.3"

// Models is printed by the models subcommand.
var Models = []string{"openai/gpt-4", "", "openai/gpt-4-mini", "not-a-model", "anthropic/claude"}

// SessionList is printed by session list --format json.
const SessionList = `[{"id":"ses_1","title":"First","createdAt":1700000000,"updatedAt":1700000100},{"id":"ses_2"}]`

// MaybeRun runs the fake peer and exits when EnvMode is set. It returns immediately otherwise.
func MaybeRun() {
	mode := os.Getenv(EnvMode)
	if mode == "" {
		return
	}
	os.Exit(run(mode, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Binary returns the path of the running test binary.
func Binary() (string, error) {
	return os.Executable()
}

// Install links the running test binary into dir under the default command name and returns dir.
func Install(dir string) (string, error) {
	bin, err := Binary()
	if err != nil {
		return "", err
	}
	return dir, os.Symlink(bin, filepath.Join(dir, "opencode"))
}

func run(mode string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if mode == ModeHang {
		time.Sleep(time.Hour)
		return 0
	}

	switch strings.Join(args, " ") {
	case "--version":
		if mode == ModeVersionFail {
			fmt.Fprintln(stderr, "bad config")
			return 2
		}
		fmt.Fprintln(stdout, Version)
		return 0
	case "acp --help":
		fmt.Fprintln(stdout, "Usage: opencode acp")
		return 0
	case "models":
		fmt.Fprintln(stdout, strings.Join(Models, "\n"))
		return 0
	case "session list --format json":
		fmt.Fprintln(stdout, SessionList)
		return 0
	case "acp":
		return serve(mode, stdin, stdout, stderr)
	}

	fmt.Fprintf(stderr, "unknown command: %v\n", args)
	return 1
}

type message struct {
	ID     *uint64         `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

func serve(mode string, stdin io.Reader, stdout, stderr io.Writer) int {
	var mu sync.Mutex
	write := func(v interface{}) {
		b, _ := json.Marshal(v)
		mu.Lock()
		defer mu.Unlock()
		stdout.Write(append(b, '\n'))
	}

	fmt.Fprintln(stderr, "fake opencode ready")
	// Noise a real peer may produce before speaking JSON.
	fmt.Fprintln(stdout, "starting opencode acp")

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil || msg.ID == nil {
			continue
		}
		id := *msg.ID

		switch msg.Method {
		case "initialize":
			if mode == ModeInitError {
				write(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      id,
					"error":   map[string]interface{}{"code": -32603, "message": "unsupported protocol version"},
				})
				continue
			}
			write(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      id,
				"result":  map[string]interface{}{"protocolVersion": 1, "agentInfo": map[string]string{"name": "opencode", "version": Version}},
			})
		case "session/new":
			write(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "session/update",
				"params":  map[string]string{"sessionId": "ses_new", "status": "created"},
			})
			write(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": map[string]string{"sessionId": "ses_new"}})
		case "session/get", "session/load":
			var params struct {
				SessionID string `json:"sessionId"`
			}
			_ = json.Unmarshal(msg.Params, &params)
			if params.SessionID == MissingSession {
				write(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      id,
					"error":   map[string]interface{}{"code": -32602, "message": "session not found"},
				})
				continue
			}
			write(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      id,
				"result":  map[string]interface{}{"id": params.SessionID, "title": "First", "createdAt": 1700000000},
			})
		case MethodNotify:
			write(map[string]interface{}{"jsonrpc": "2.0", "method": "test/event", "params": msg.Params})
			write(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": nil})
		case MethodSilent:
		case MethodExit:
			return 0
		default:
			write(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      id,
				"result":  map[string]interface{}{"method": msg.Method, "params": msg.Params},
			})
		}
	}
	return 0
}
