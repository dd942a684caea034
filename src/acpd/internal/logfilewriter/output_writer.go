// Package logfilewriter keeps human readable output that is separate from the daemon's own logs.
package logfilewriter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/uber/acp-bridge/src/acpd/internal/fs"
	"github.com/uber/acp-bridge/src/acpd/internal/serverinfofile"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	_fmtOutputKey = "output:%s"

	// OpencodeOutput names the file that collects the diagnostic stream of every spawned opencode process.
	OpencodeOutput = "acpd-opencode"
)

// Module provides the opencode output writer under the name "opencodeOutput".
var Module = fx.Provide(
	fx.Annotate(NewOpencodeOutput, fx.ResultTags(`name:"opencodeOutput"`)),
)

// Params define the dependencies for SetupOutputWriter.
type Params struct {
	fx.In

	FS             fs.FS
	Lifecycle      fx.Lifecycle
	ServerInfoFile serverinfofile.ServerInfoFile
}

// NewOpencodeOutput sets up the writer shared by all opencode sessions.
func NewOpencodeOutput(p Params) (io.Writer, error) {
	return SetupOutputWriter(p, OpencodeOutput)
}

// SetupOutputWriter creates a temporary file under <tmp>/<name> and returns a writer that appends
// timestamped lines to it. The file path is published in the server info file as "output:<name>"
// so a UI can tail it. The file is removed on stop.
func SetupOutputWriter(p Params, name string) (io.Writer, error) {
	dir := filepath.Join(os.TempDir(), name)
	if err := p.FS.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	file, err := p.FS.TempFile(dir, "*.log")
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}

	if err := p.ServerInfoFile.UpdateField(fmt.Sprintf(_fmtOutputKey, name), file.Name()); err != nil {
		return nil, multierr.Append(err, multierr.Append(file.Close(), p.FS.Remove(file.Name())))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(file),
		zap.InfoLevel,
	)
	logger := zap.New(core).Sugar()

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return multierr.Append(file.Close(), p.FS.Remove(file.Name()))
		},
	})

	return &loggerWriter{logger: logger}, nil
}

type loggerWriter struct {
	logger *zap.SugaredLogger
}

// Write logs each non-empty line of p.
func (o *loggerWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimRight(line, "\r"); len(line) > 0 {
			o.logger.Info(line)
		}
	}
	return len(p), nil
}
