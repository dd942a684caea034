package acp

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os/exec"

	"github.com/uber/acp-bridge/src/acpd/entity"
	acperrors "github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/internal/launcher"
	"github.com/uber/acp-bridge/src/acpd/mapper"
)

func (c *controller) Doctor(ctx context.Context, params *entity.DoctorParams) (*entity.DoctorReport, error) {
	settings, err := c.workspaces.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return c.prober.Doctor(ctx, launcher.ResolveBinary(params.OpencodeBin, settings.OpencodeBin))
}

func (c *controller) ListSessions(ctx context.Context, workspaceID string) ([]entity.SessionInfo, error) {
	stdout, err := c.runCLI(ctx, workspaceID, "session list", "session", "list", "--format", "json")
	if err != nil {
		return nil, err
	}
	return mapper.ParseSessionList(stdout), nil
}

func (c *controller) ListProviders(ctx context.Context, workspaceID string) ([]entity.ProviderInfo, error) {
	stdout, err := c.runCLI(ctx, workspaceID, "models", "models")
	if err != nil {
		return nil, err
	}
	return mapper.ParseProviders(stdout), nil
}

// runCLI runs a one-shot subcommand in the workspace root and returns its stdout.
// Only a failure to run the command is an error; output of a failed command is still returned.
func (c *controller) runCLI(ctx context.Context, workspaceID, name string, args ...string) (string, error) {
	entry, bin, err := c.resolve(ctx, workspaceID, "")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	cmd := c.launcher.Command(ctx, bin, args...)
	cmd.Dir = entry.Path
	stdout, stderr, exitCode, err := c.executor.Run(cmd)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			c.logger.Debugw("opencode exited with an error", "args", args, "exitCode", exitCode, "stderr", stderr)
			return stdout, nil
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, iofs.ErrNotExist) {
			return "", &acperrors.ExecutableNotFoundError{Binary: launcher.ResolveBinary(bin, launcher.DefaultBinary), Err: err}
		}
		return "", fmt.Errorf("Failed to run opencode %s: %w", name, err)
	}
	return stdout, nil
}
