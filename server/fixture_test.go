package server_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/frobware/go-tracectl"
	"github.com/frobware/go-tracectl/interpreter/catalog"
	"github.com/frobware/go-tracectl/interpreter/store/sqlite"
	"github.com/frobware/go-tracectl/manager"
	"github.com/frobware/go-tracectl/server"
	"github.com/frobware/go-tracectl/wire"
)

// testLogger returns a logger for tests. By default it discards all output.
// Set TRACECTL_TEST_VERBOSE=1 to enable logging.
func testLogger() *slog.Logger {
	if os.Getenv("TRACECTL_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testCatalog = `
[[ust]]
name = "app:start"
loglevel = "INFO"
fields = [{ name = "id", type = "integer" }]

[[ust]]
name = "app:stop"
`

// testFixture is a server over an in-memory store, reached through an
// in-memory listener.
type testFixture struct {
	Server   *server.Server
	Client   *wire.ControlClient
	Conn     *grpc.ClientConn
	Registry *prometheus.Registry
	t        *testing.T
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewInMemory(ctx, testLogger())
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.Parse(testCatalog)
	require.NoError(t, err)

	mgr := manager.New(st,
		manager.WithTracer(tracectl.DomainUST, catalog.NewTracer(cat, tracectl.DomainUST)),
		manager.WithLogger(testLogger()))

	reg := prometheus.NewRegistry()
	srv := server.New(mgr, server.WithLogger(testLogger()), server.WithRegisterer(reg))

	lis := bufconn.Listen(1 << 20)
	gs := srv.NewGRPCServer()
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testFixture{
		Server:   srv,
		Client:   wire.NewControlClient(conn),
		Conn:     conn,
		Registry: reg,
		t:        t,
	}
}

func (f *testFixture) createSession(name string) wire.Handle {
	f.t.Helper()
	_, err := f.Client.CreateSession(context.Background(), &wire.SessionRequest{Name: name})
	require.NoError(f.t, err)
	return wire.Handle{Session: name, Domain: tracectl.DomainUST}
}
