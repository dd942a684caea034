package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/acp-bridge/src/acpd/internal/fs"
	"github.com/uber/acp-bridge/src/acpd/internal/fs/fsmock"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEnv(t *testing.T) {
	tests := []struct {
		name      string
		envVal    string
		expectVal string
	}{
		{
			name:      "local",
			expectVal: EnvLocal,
		},
		{
			name:      "development",
			envVal:    "development",
			expectVal: EnvDevelopment,
		},
		{
			name:      "unknown falls back to local",
			envVal:    "staging",
			expectVal: EnvLocal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(_envAcpdEnvironment, tt.envVal)

			fxtest.New(
				t,
				fx.Provide(func() Context {
					return Context{Environment: EnvLocal}
				}),
				fx.Decorate(decorateEnvContext),
				fx.Invoke(func(ctx Context) {
					require.Equal(t, tt.expectVal, ctx.Environment, "unexpected environment")
				}),
			).RequireStart().RequireStop()
		})
	}
}

func newLoggingProvider(t *testing.T, outputPaths ...string) config.Provider {
	p, err := config.NewStaticProvider(map[string]interface{}{
		"logging": map[string]interface{}{
			"outputPaths": outputPaths,
		},
	})
	require.NoError(t, err)
	return p
}

func TestDecorateConfigProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsMock := fsmock.NewMockFS(ctrl)
	fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)

	fxtest.New(
		t,
		fx.Provide(func() fs.FS {
			return fsMock
		}),
		fx.Provide(func() config.Provider {
			return newLoggingProvider(t, "/tmp/foo/acpd.log")
		}),
		fx.Decorate(decorateConfigProvider),
		fx.Invoke(func(cfg config.Provider) {}),
	).RequireStart().RequireStop()
}

func TestEnsureLogFolder(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("no errors", func(t *testing.T) {
		fsMock := fsmock.NewMockFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)
		fsMock.EXPECT().MkdirAll("/tmp/bar").Return(nil)

		_, err := ensureLogFolder(newLoggingProvider(t, "/tmp/foo/acpd1.log", "stderr", "/tmp/bar/acpd2.log"), fsMock)
		assert.NoError(t, err)
	})

	t.Run("error creating directory", func(t *testing.T) {
		fsMock := fsmock.NewMockFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(errors.New("error creating directory"))

		_, err := ensureLogFolder(newLoggingProvider(t, "/tmp/foo/acpd1.log", "/tmp/bar/acpd2.log"), fsMock)
		assert.EqualError(t, err, "creating logging directory: error creating directory")
	})

	t.Run("invalid logging block", func(t *testing.T) {
		p, err := config.NewStaticProvider(map[string]interface{}{"logging": "verbose"})
		require.NoError(t, err)
		_, err = ensureLogFolder(p, fsmock.NewMockFS(ctrl))
		assert.ErrorContains(t, err, "loading logging config")
	})
}
