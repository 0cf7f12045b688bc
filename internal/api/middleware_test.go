package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/tvdash/internal/config"
	"github.com/npezzotti/tvdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestErrorHandler_PanicRecovery(t *testing.T) {
	logger, logs := testutil.ObservedLogger()
	app := &TVDashApp{
		log: logger,
	}

	panicHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("test panic"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := app.errorHandler(panicHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
	entries := logs.FilterMessage("panic").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "test panic", entries[0].ContextMap()["error"])
	}
}

func Test_errorHandler_NoPanic(t *testing.T) {
	app := &TVDashApp{log: zap.NewNop()}

	called := false
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler := app.errorHandler(okHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.True(t, called, "expected handler to be called")
}

func Test_requestLogger(t *testing.T) {
	logger, logs := testutil.ObservedLogger()
	app := &TVDashApp{log: logger}

	teapot := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := app.requestLogger(teapot)

	t.Run("generates an id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tvs", nil))

		assert.Equal(t, http.StatusTeapot, rr.Code)
		assert.Len(t, rr.Header().Get(requestIdHeader), 36, "expected a uuid request id")
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tvs", nil)
		req.Header.Set(requestIdHeader, "abc-123")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, "abc-123", rr.Header().Get(requestIdHeader))
	})

	entries := logs.FilterMessage("request").All()
	if assert.Len(t, entries, 2) {
		fields := entries[1].ContextMap()
		assert.Equal(t, "abc-123", fields["request_id"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
		assert.Equal(t, "/api/tvs", fields["path"])
	}
}

func TestCORS(t *testing.T) {
	base := newTestApp(t, nil, nil)

	cfg := config.Default()
	cfg.AllowedOrigins = []string{"http://allowed.example"}
	app := NewTVDashApp(http.NewServeMux(), testutil.TestLogger(t), base.dashboard, base.hub, newTestStore(t, 0), cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/tvs", nil)
	req.Header.Set("Origin", "http://allowed.example")
	rr := serve(app, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://allowed.example", rr.Header().Get("Access-Control-Allow-Origin"))
}
