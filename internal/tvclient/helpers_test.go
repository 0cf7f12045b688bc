package tvclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npezzotti/tvdash/internal/api"
	"github.com/npezzotti/tvdash/internal/assets"
	"github.com/npezzotti/tvdash/internal/config"
	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/npezzotti/tvdash/internal/server"
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/npezzotti/tvdash/internal/testutil"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	dashboard *server.Dashboard
}

func newTestServer(t *testing.T) *testServer {
	logger := testutil.TestLogger(t)
	reg := registry.NewMemory()
	hub := server.NewHub(logger, reg, stats.Discard{})
	go hub.Run()

	store, err := assets.NewStore(t.TempDir(), 0, logger)
	require.NoError(t, err)

	d := server.NewDashboard(logger, reg, hub, stats.Discard{})
	app := api.NewTVDashApp(http.NewServeMux(), logger, d, hub, store, config.Default())
	srv := httptest.NewServer(app.Handler())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hub.Shutdown(ctx)
		srv.Close()
	})

	return &testServer{Server: srv, dashboard: d}
}

// runInBackground runs fn until the test ends.
func runInBackground(t *testing.T, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("runner did not stop after cancel")
		}
	})
}
