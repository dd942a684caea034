// Package launcher resolves the opencode executable and spawns it with piped standard streams.
package launcher

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	acperrors "github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// DefaultBinary is the command spawned when neither the caller, the workspace nor the settings name a binary.
	DefaultBinary = "opencode"

	_configKey = "launcher"
	_waitDelay = 2 * time.Second
)

var (
	_systemPaths = []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		"/usr/bin",
		"/bin",
		"/usr/sbin",
		"/sbin",
	}
	_homePaths = []string{
		".local/bin",
		".cargo/bin",
		".bun/bin",
	}
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Config is the launcher block of the service configuration.
type Config struct {
	ExtraPaths []string `yaml:"extraPaths"`
}

// Launcher builds one-shot commands and long-lived child processes for the opencode CLI.
type Launcher interface {
	// Command returns a command for a one-shot invocation of bin, bound to ctx.
	// A lookup failure is reported when the command is run.
	Command(ctx context.Context, bin string, args ...string) *exec.Cmd
	// Spawn starts bin in dir with stdin, stdout and stderr piped.
	Spawn(bin string, dir string, args ...string) (*Process, error)
}

// Params define values to be used by Launcher.
type Params struct {
	fx.In

	Config config.Provider
	Logger *zap.SugaredLogger
	FS     fs.FS
}

type launcher struct {
	logger     *zap.SugaredLogger
	fs         fs.FS
	extraPaths []string
	getenv     func(string) string
	environ    func() []string
}

// New creates a new Launcher.
func New(p Params) (Launcher, error) {
	var cfg Config
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}

	return &launcher{
		logger:     p.Logger,
		fs:         p.FS,
		extraPaths: cfg.ExtraPaths,
		getenv:     os.Getenv,
		environ:    os.Environ,
	}, nil
}

// ResolveBinary returns the first candidate that is not blank, or "" when every candidate is blank.
// Candidates are given in priority order: explicit request, workspace override, global default.
func ResolveBinary(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// ExtraPaths returns the common installation directories searched in addition to PATH.
// Home relative directories are only included when home is set.
func ExtraPaths(home string, configured []string) []string {
	extras := append([]string{}, _systemPaths...)
	if home != "" {
		for _, p := range _homePaths {
			extras = append(extras, filepath.Join(home, p))
		}
	}
	return append(extras, configured...)
}

// AugmentPath appends to path every extra directory it does not already contain.
// Empty elements are dropped and the original order is preserved.
func AugmentPath(path string, extras []string) string {
	seen := make(map[string]struct{})
	var dirs []string
	add := func(dir string) {
		if dir == "" {
			return
		}
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	for _, dir := range filepath.SplitList(path) {
		add(dir)
	}
	for _, dir := range extras {
		add(dir)
	}
	return strings.Join(dirs, string(os.PathListSeparator))
}

func (l *launcher) Command(ctx context.Context, bin string, args ...string) *exec.Cmd {
	path, env, err := l.resolve(bin)
	if err != nil {
		cmd := exec.CommandContext(ctx, DefaultBinary, args...)
		cmd.Err = err
		return cmd
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = env
	cmd.WaitDelay = _waitDelay
	return cmd
}

func (l *launcher) Spawn(bin string, dir string, args ...string) (*Process, error) {
	if dir != "" {
		ok, err := l.fs.DirExists(dir)
		if err != nil {
			return nil, fmt.Errorf("checking working directory %q: %w", dir, err)
		}
		if !ok {
			return nil, fmt.Errorf("working directory %q does not exist", dir)
		}
	}

	name := ResolveBinary(bin, DefaultBinary)
	path, env, err := l.resolve(bin)
	if err != nil {
		return nil, &acperrors.ExecutableNotFoundError{Binary: name, Err: err}
	}

	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	cmd.Env = env

	p, err := start(cmd)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, iofs.ErrNotExist) {
			return nil, &acperrors.ExecutableNotFoundError{Binary: name, Err: err}
		}
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	l.logger.Infow("Spawned", "Path", cmd.Path, "Dir", dir, "Args", args, "Pid", p.Pid())
	return p, nil
}

// resolve returns the executable to run and the environment to give it.
// A nil environment means the child inherits ours unmodified.
func (l *launcher) resolve(bin string) (string, []string, error) {
	if bin = strings.TrimSpace(bin); bin != "" {
		return bin, nil, nil
	}

	searchPath := AugmentPath(l.getenv("PATH"), ExtraPaths(l.getenv("HOME"), l.extraPaths))
	path, err := l.lookPath(DefaultBinary, searchPath)
	if err != nil {
		return "", nil, err
	}
	return path, withPath(l.environ(), searchPath), nil
}

func (l *launcher) lookPath(name string, searchPath string) (string, error) {
	for _, dir := range filepath.SplitList(searchPath) {
		candidate := filepath.Join(dir, name)
		ok, err := l.fs.IsExecutable(candidate)
		if err != nil {
			l.logger.Debugw("skipping search path entry", "path", candidate, "error", err)
			continue
		}
		if ok {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func withPath(env []string, searchPath string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if !strings.HasPrefix(kv, "PATH=") {
			out = append(out, kv)
		}
	}
	return append(out, "PATH="+searchPath)
}
