// Package probe checks that the opencode CLI is installed and usable before a session is spawned.
package probe

import (
	"context"
	"errors"
	iofs "io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/uber/acp-bridge/src/acpd/entity"
	"github.com/uber/acp-bridge/src/acpd/internal/core"
	acperrors "github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/internal/executor"
	"github.com/uber/acp-bridge/src/acpd/internal/launcher"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyTimeout = "acp.probeTimeout"
	_defaultTimeout   = 5 * time.Second
	_acpHelpDetails   = "Failed to run `opencode acp --help`."
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Prober runs bounded one-shot checks of the CLI.
type Prober interface {
	// CheckInstallation runs `<bin> --version` and returns its trimmed output, "" when it printed nothing.
	CheckInstallation(ctx context.Context, bin string) (string, error)
	// Doctor checks both the version and the acp subcommand of bin.
	Doctor(ctx context.Context, bin string) (*entity.DoctorReport, error)
}

// Params define values to be used by Prober.
type Params struct {
	fx.In

	Config   config.Provider
	Launcher launcher.Launcher
	Executor executor.Executor
	Logger   *zap.SugaredLogger
}

type prober struct {
	launcher launcher.Launcher
	executor executor.Executor
	logger   *zap.SugaredLogger
	timeout  time.Duration
}

// New creates a new Prober.
func New(p Params) (Prober, error) {
	timeout, err := core.Duration(p.Config, _configKeyTimeout, _defaultTimeout)
	if err != nil {
		return nil, err
	}
	return &prober{
		launcher: p.Launcher,
		executor: p.Executor,
		logger:   p.Logger,
		timeout:  timeout,
	}, nil
}

func (p *prober) CheckInstallation(ctx context.Context, bin string) (string, error) {
	return p.run(ctx, bin, "--version")
}

func (p *prober) Doctor(ctx context.Context, bin string) (*entity.DoctorReport, error) {
	version, err := p.CheckInstallation(ctx, bin)
	if err != nil {
		return nil, err
	}

	report := &entity.DoctorReport{}
	if bin != "" {
		report.OpencodeBin = &bin
	}
	if version != "" {
		report.Version = &version
	}

	if _, err := p.run(ctx, bin, "acp", "--help"); err != nil {
		p.logger.Debugw("acp capability check failed", "bin", bin, "error", err)
		details := _acpHelpDetails
		report.Details = &details
	} else {
		report.ACPOK = true
	}
	report.OK = report.Version != nil && report.ACPOK
	return report, nil
}

func (p *prober) run(ctx context.Context, bin string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	name := launcher.ResolveBinary(bin, launcher.DefaultBinary)
	stdout, stderr, exitCode, err := p.executor.Run(p.launcher.Command(ctx, bin, args...))
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", &acperrors.ProbeTimeoutError{Binary: name, Args: args, Timeout: p.timeout}
		}
		return "", ctxErr
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &acperrors.ProcessExitError{
				Binary:   name,
				Args:     args,
				ExitCode: exitCode,
				Detail:   firstNonEmpty(strings.TrimSpace(stderr), strings.TrimSpace(stdout)),
			}
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, iofs.ErrNotExist) {
			return "", &acperrors.ExecutableNotFoundError{Binary: name, Err: err}
		}
		return "", err
	}
	return strings.TrimSpace(stdout), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
