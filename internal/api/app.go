package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/tvdash/internal/assets"
	"github.com/npezzotti/tvdash/internal/config"
	"github.com/npezzotti/tvdash/internal/server"
	"go.uber.org/zap"
)

// AssetStore keeps uploaded images.
type AssetStore interface {
	Save(tvId int, filename string, r io.Reader) (assets.Asset, error)
	Remove(ref string) error
	MaxBytes() int64
	Handler() http.Handler
}

type TVDashApp struct {
	log            *zap.Logger
	srv            *http.Server
	dashboard      *server.Dashboard
	hub            *server.Hub
	assets         AssetStore
	allowedOrigins []string
}

func NewTVDashApp(mux *http.ServeMux, logger *zap.Logger, dashboard *server.Dashboard, hub *server.Hub, store AssetStore, cfg *config.Config) *TVDashApp {
	s := &TVDashApp{
		log:            logger,
		dashboard:      dashboard,
		hub:            hub,
		assets:         store,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /api/tvs", s.listTVs)
	mux.HandleFunc("POST /api/tvs", s.createTV)
	mux.HandleFunc("GET /api/tvs/{id}", s.getTV)
	mux.HandleFunc("DELETE /api/tvs/{id}", s.deleteTV)
	mux.HandleFunc("POST /api/tvs/{id}/upload", s.uploadImage)
	mux.HandleFunc("POST /api/tvs/{id}/youtube", s.setYoutubeLink)
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.Handle("GET "+assets.RefPrefix, store.Handler())
	if cfg.StaticDir != "" {
		mux.Handle("GET /", s.staticPages(cfg.StaticDir))
	}

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.requestLogger(h)
	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *TVDashApp) Handler() http.Handler {
	return s.srv.Handler
}

func (s *TVDashApp) Start() error {
	s.log.Info("starting server", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

func (s *TVDashApp) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
