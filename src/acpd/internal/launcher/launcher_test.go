package launcher

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	acperrors "github.com/uber/acp-bridge/src/acpd/internal/errors"
	"github.com/uber/acp-bridge/src/acpd/internal/fakepeer"
	"github.com/uber/acp-bridge/src/acpd/internal/fs"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	fakepeer.MaybeRun()
	goleak.VerifyTestMain(m)
}

func newTestLauncher(t *testing.T, env map[string]string) *launcher {
	return &launcher{
		logger:  zap.NewNop().Sugar(),
		fs:      fs.New(),
		getenv:  func(k string) string { return env[k] },
		environ: func() []string { return []string{"PATH=/ignored", "LANG=C"} },
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    []string
		wantErr bool
	}{
		{
			name: "extra paths",
			yaml: "launcher:\n  extraPaths: [/opt/tools/bin]\n",
			want: []string{"/opt/tools/bin"},
		},
		{
			name: "no launcher block",
			yaml: "other: true\n",
		},
		{
			name:    "malformed block",
			yaml:    "launcher:\n  extraPaths:\n    nested: true\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := config.NewYAML(config.Source(strings.NewReader(tt.yaml)))
			require.NoError(t, err)

			l, err := New(Params{Config: provider, Logger: zap.NewNop().Sugar(), FS: fs.New()})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.(*launcher).extraPaths)
		})
	}
}

func TestResolveBinary(t *testing.T) {
	assert.Equal(t, "/explicit/opencode", ResolveBinary("/explicit/opencode", "/workspace/opencode", "/settings/opencode"))
	assert.Equal(t, "/workspace/opencode", ResolveBinary("", "  /workspace/opencode ", "/settings/opencode"))
	assert.Equal(t, "/settings/opencode", ResolveBinary(" ", "", "/settings/opencode"))
	assert.Equal(t, "", ResolveBinary("", "  "))
	assert.Equal(t, "", ResolveBinary())
}

func TestExtraPaths(t *testing.T) {
	assert.Equal(t, []string{
		"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin", "/bin", "/usr/sbin", "/sbin",
	}, ExtraPaths("", nil))

	assert.Equal(t, []string{
		"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin", "/bin", "/usr/sbin", "/sbin",
		"/home/dev/.local/bin", "/home/dev/.cargo/bin", "/home/dev/.bun/bin",
		"/opt/tools/bin",
	}, ExtraPaths("/home/dev", []string{"/opt/tools/bin"}))
}

func TestAugmentPath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		extras []string
		want   string
	}{
		{
			name:   "appends missing extras in order",
			path:   "/usr/bin:/custom/bin",
			extras: []string{"/opt/homebrew/bin", "/usr/bin", "/bin"},
			want:   "/usr/bin:/custom/bin:/opt/homebrew/bin:/bin",
		},
		{
			name:   "drops empty elements",
			path:   "::/custom/bin:",
			extras: []string{"", "/bin"},
			want:   "/custom/bin:/bin",
		},
		{
			name:   "empty path",
			path:   "",
			extras: []string{"/bin", "/bin"},
			want:   "/bin",
		},
		{
			name: "nothing to add",
			path: "/bin:/usr/bin",
			want: "/bin:/usr/bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AugmentPath(tt.path, tt.extras))
		})
	}
}

func TestCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit binary keeps environment", func(t *testing.T) {
		l := newTestLauncher(t, map[string]string{"PATH": "/usr/bin"})
		cmd := l.Command(ctx, "/explicit/opencode", "--version")
		assert.Equal(t, "/explicit/opencode", cmd.Path)
		assert.Nil(t, cmd.Env)
		assert.NoError(t, cmd.Err)
	})

	t.Run("default binary found on augmented path", func(t *testing.T) {
		dir, err := fakepeer.Install(t.TempDir())
		require.NoError(t, err)

		l := newTestLauncher(t, map[string]string{"PATH": dir})
		cmd := l.Command(ctx, "", "--version")
		assert.Equal(t, filepath.Join(dir, "opencode"), cmd.Path)
		assert.Equal(t, []string{"--version"}, cmd.Args[1:])
		assert.Contains(t, cmd.Env, "PATH="+AugmentPath(dir, ExtraPaths("", nil)))
		assert.NotContains(t, cmd.Env, "PATH=/ignored")
		assert.Contains(t, cmd.Env, "LANG=C")
	})

	t.Run("default binary missing", func(t *testing.T) {
		l := newTestLauncher(t, map[string]string{"PATH": t.TempDir()})
		// Shadow the system directories so a real installation is not found.
		l.fs = missingFS{FS: fs.New()}
		cmd := l.Command(ctx, "", "--version")
		require.Error(t, cmd.Err)
		assert.ErrorIs(t, cmd.Run(), exec.ErrNotFound)
	})
}

type missingFS struct {
	fs.FS
}

func (missingFS) IsExecutable(string) (bool, error) { return false, nil }

func TestSpawn(t *testing.T) {
	bin, err := fakepeer.Binary()
	require.NoError(t, err)

	t.Run("pipes", func(t *testing.T) {
		t.Setenv(fakepeer.EnvMode, fakepeer.ModeOK)
		l := newTestLauncher(t, nil)

		p, err := l.Spawn(bin, t.TempDir(), "acp")
		require.NoError(t, err)
		assert.NotZero(t, p.Pid())

		stderr := bufio.NewReader(p.Stderr())
		line, err := stderr.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "fake opencode ready\n", line)

		_, err = io.WriteString(p.Stdin(), `{"jsonrpc":"2.0","method":"initialize","params":{},"id":1}`+"\n")
		require.NoError(t, err)

		stdout := bufio.NewReader(p.Stdout())
		line, err = stdout.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "starting opencode acp\n", line)
		line, err = stdout.ReadString('\n')
		require.NoError(t, err)
		assert.Contains(t, line, `"id":1`)

		require.NoError(t, p.Stdin().Close())
		assert.NoError(t, p.Wait())
		_, err = stdout.ReadString('\n')
		assert.ErrorIs(t, err, io.EOF)

		p.Stdout().Close()
		p.Stderr().Close()
	})

	t.Run("kill", func(t *testing.T) {
		t.Setenv(fakepeer.EnvMode, fakepeer.ModeHang)
		l := newTestLauncher(t, nil)

		p, err := l.Spawn(bin, "", "acp")
		require.NoError(t, err)
		require.NoError(t, p.Kill())
		assert.Error(t, p.Wait())
		<-p.Done()
		// Already reaped.
		assert.NoError(t, p.Kill())

		p.Stdout().Close()
		p.Stderr().Close()
	})

	t.Run("explicit binary not found", func(t *testing.T) {
		l := newTestLauncher(t, nil)
		_, err := l.Spawn(filepath.Join(t.TempDir(), "opencode"), "", "acp")
		require.Error(t, err)
		assert.True(t, acperrors.IsExecutableNotFound(err))
		assert.Equal(t, "OpenCode CLI not found. Install OpenCode and ensure `opencode` is on your PATH.", err.Error())
	})

	t.Run("default binary not found", func(t *testing.T) {
		l := newTestLauncher(t, map[string]string{"PATH": t.TempDir()})
		l.fs = missingFS{FS: fs.New()}
		_, err := l.Spawn("", "", "acp")
		assert.True(t, acperrors.IsExecutableNotFound(err))
	})

	t.Run("missing working directory", func(t *testing.T) {
		l := newTestLauncher(t, nil)
		_, err := l.Spawn(bin, filepath.Join(t.TempDir(), "gone"), "acp")
		require.Error(t, err)
		assert.False(t, acperrors.IsExecutableNotFound(err))
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("not executable", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "opencode")
		require.NoError(t, os.WriteFile(file, []byte("text"), 0644))

		l := newTestLauncher(t, nil)
		_, err := l.Spawn(file, "", "acp")
		require.Error(t, err)
		assert.False(t, acperrors.IsExecutableNotFound(err))
	})
}
