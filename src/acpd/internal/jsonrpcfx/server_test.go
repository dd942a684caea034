package jsonrpcfx_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/acp-bridge/src/acpd/internal/jsonrpc2mock"
	"github.com/uber/acp-bridge/src/acpd/internal/jsonrpcfx"
	"github.com/uber/acp-bridge/src/acpd/internal/jsonrpcfx/jsonrpcfxmock"
	"github.com/uber/acp-bridge/src/acpd/internal/serverinfofile/serverinfofilemock"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newProvider(t *testing.T, address string) config.Provider {
	provider, err := config.NewStaticProvider(map[string]interface{}{
		"jsonrpc": map[string]interface{}{"address": address},
	})
	require.NoError(t, err)
	return provider
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := jsonrpcfx.New(jsonrpcfx.Params{})
	assert.EqualError(t, err, "required parameters are missing")

	_, err = jsonrpcfx.New(jsonrpcfx.Params{
		Config:         newProvider(t, "127.0.0.1:5860"),
		Lifecycle:      fxtest.NewLifecycle(t),
		Logger:         zap.NewNop().Sugar(),
		ServerInfoFile: serverinfofilemock.NewMockServerInfoFile(ctrl),
	})
	assert.NoError(t, err)
}

func TestServeStream(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	m, err := jsonrpcfx.New(jsonrpcfx.Params{
		Config:         newProvider(t, "127.0.0.1:5860"),
		Lifecycle:      fxtest.NewLifecycle(t),
		Logger:         zap.NewNop().Sugar(),
		ServerInfoFile: serverinfofilemock.NewMockServerInfoFile(ctrl),
	})
	require.NoError(t, err)
	conn := jsonrpc2mock.NewMockConn(ctrl)

	t.Run("no connection manager registered", func(t *testing.T) {
		assert.Error(t, m.ServeStream(ctx, conn))
	})

	mgr := jsonrpcfxmock.NewMockConnectionManager(ctrl)
	require.NoError(t, m.RegisterConnectionManager(mgr))

	t.Run("failed NewConnection", func(t *testing.T) {
		mgr.EXPECT().NewConnection(gomock.Any(), conn).Return(nil, errors.New("sample error"))
		assert.EqualError(t, m.ServeStream(ctx, conn), "sample error")
	})

	t.Run("requests are routed until the connection closes", func(t *testing.T) {
		id, err := uuid.NewV4()
		require.NoError(t, err)
		router := jsonrpcfxmock.NewMockRouter(ctrl)
		router.EXPECT().UUID().Return(id).AnyTimes()
		mgr.EXPECT().NewConnection(gomock.Any(), conn).Return(router, nil)

		req, err := jsonrpc2.NewCall(jsonrpc2.NewNumberID(1), "acp/doctor", nil)
		require.NoError(t, err)
		handled := make(chan struct{})
		router.EXPECT().HandleReq(gomock.Any(), gomock.Any(), req).DoAndReturn(
			func(context.Context, jsonrpc2.Replier, jsonrpc2.Request) error {
				close(handled)
				return errors.New("logged, not fatal")
			})

		done := make(chan struct{})
		conn.EXPECT().Go(gomock.Any(), gomock.Any()).Do(func(ctx context.Context, h jsonrpc2.Handler) {
			// The handler returns before the request is processed.
			assert.NoError(t, h(ctx, func(context.Context, interface{}, error) error { return nil }, req))
			<-handled
			close(done)
		})
		conn.EXPECT().Done().Return(done)
		conn.EXPECT().Err().Return(nil)
		mgr.EXPECT().RemoveConnection(gomock.Any(), id)

		assert.NoError(t, m.ServeStream(ctx, conn))
	})
}

// echoRouter replies to every call with its method name.
type echoRouter struct {
	id uuid.UUID
}

func (r echoRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if req.Method() == "test/block" {
		<-ctx.Done()
		return reply(ctx, nil, ctx.Err())
	}
	return reply(ctx, map[string]string{"method": req.Method()}, nil)
}

func (r echoRouter) UUID() uuid.UUID { return r.id }

type recordingManager struct {
	mu      sync.Mutex
	added   []uuid.UUID
	removed []uuid.UUID
}

func (m *recordingManager) NewConnection(ctx context.Context, conn jsonrpc2.Conn) (jsonrpcfx.Router, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, id)
	return echoRouter{id: id}, nil
}

func (m *recordingManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
}

func (m *recordingManager) removedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.removed)
}

func dial(t *testing.T, addr string) jsonrpc2.Conn {
	nc, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(nc))
	conn.Go(context.Background(), jsonrpc2.MethodNotFoundHandler)
	return conn
}

func TestServe(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
	var addr string
	infoFile.EXPECT().UpdateField("acp-address", gomock.Any()).DoAndReturn(func(_, value string) error {
		addr = value
		return nil
	})

	lc := fxtest.NewLifecycle(t)
	m, err := jsonrpcfx.New(jsonrpcfx.Params{
		Config:         newProvider(t, "127.0.0.1:0"),
		Lifecycle:      lc,
		Logger:         zap.NewNop().Sugar(),
		ServerInfoFile: infoFile,
	})
	require.NoError(t, err)
	mgr := &recordingManager{}
	require.NoError(t, m.RegisterConnectionManager(mgr))
	lc.RequireStart()

	client := dial(t, addr)

	// A blocked request does not hold up the next one.
	blockCtx, cancelBlock := context.WithCancel(ctx)
	defer cancelBlock()
	blocked := make(chan error, 1)
	go func() {
		_, err := client.Call(blockCtx, "test/block", nil, nil)
		blocked <- err
	}()

	var result map[string]string
	_, err = client.Call(ctx, "acp/doctor", nil, &result)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"method": "acp/doctor"}, result)

	second := dial(t, addr)
	require.NoError(t, second.Close())
	<-second.Done()
	require.Eventually(t, func() bool { return mgr.removedCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	// Stopping cancels the blocked request and closes the remaining client.
	lc.RequireStop()
	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client connection still open after stop")
	}
	// The client never gets an answer once the server is gone.
	cancelBlock()
	assert.Error(t, <-blocked)
	assert.Equal(t, 2, mgr.removedCount())
}
