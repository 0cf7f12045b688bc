package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/tvdash/internal/assets"
	"github.com/npezzotti/tvdash/internal/config"
	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/npezzotti/tvdash/internal/server"
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/npezzotti/tvdash/internal/testutil"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	gifBytes = append([]byte("GIF89a"), bytes.Repeat([]byte{0}, 32)...)
)

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(*server.ServerMessage) {}

func newTestStore(t *testing.T, maxBytes int64) *assets.Store {
	s, err := assets.NewStore(t.TempDir(), maxBytes, testutil.TestLogger(t))
	require.NoError(t, err)
	return s
}

// newTestApp wires an app whose broadcasts go nowhere. A nil reg or store
// is replaced with an in-memory registry or a temp dir store.
func newTestApp(t *testing.T, reg registry.Repository, store AssetStore) *TVDashApp {
	logger := testutil.TestLogger(t)
	if reg == nil {
		reg = registry.NewMemory()
	}
	if store == nil {
		store = newTestStore(t, 0)
	}

	hub := server.NewHub(logger, reg, stats.Discard{})
	d := server.NewDashboard(logger, reg, nopBroadcaster{}, stats.Discard{})
	return NewTVDashApp(http.NewServeMux(), logger, d, hub, store, config.Default())
}

func serve(app *TVDashApp, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, target, field, filename string, content []byte) *http.Request {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.Copy(fw, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
