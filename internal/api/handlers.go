package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/tvdash/internal/server"
	"github.com/npezzotti/tvdash/internal/types"
	"go.uber.org/zap"
)

// multipartOverhead is the room left for multipart headers on top of the
// image size ceiling.
const multipartOverhead = 1 << 20

var errNoImage = errors.New("image file is required")

type CreateTVRequest struct {
	Name string `json:"name"`
}

type SetYoutubeLinkRequest struct {
	YoutubeLink *string `json:"youtube_link"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (s *TVDashApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("json encode", zap.Error(err))
	}
}

func (s *TVDashApp) writeError(w http.ResponseWriter, err error) {
	errResp := toApiError(err, s.assets.MaxBytes())
	if errResp.StatusCode >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *TVDashApp) tvId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		errResp := NewBadRequestError("invalid tv id")
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, false
	}
	return id, true
}

func (s *TVDashApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *TVDashApp) listTVs(w http.ResponseWriter, r *http.Request) {
	tvs := s.dashboard.ListTVs()
	if tvs == nil {
		tvs = []types.TV{}
	}
	s.writeJson(w, http.StatusOK, tvs)
}

func (s *TVDashApp) createTV(w http.ResponseWriter, r *http.Request) {
	var req CreateTVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tv, err := s.dashboard.CreateTV(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusCreated, tv)
}

func (s *TVDashApp) getTV(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tvId(w, r)
	if !ok {
		return
	}

	tv, err := s.dashboard.GetTV(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, tv)
}

func (s *TVDashApp) setYoutubeLink(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tvId(w, r)
	if !ok {
		return
	}

	var req SetYoutubeLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	tv, err := s.dashboard.SetYoutubeLink(id, req.YoutubeLink)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJson(w, http.StatusOK, tv)
}

func (s *TVDashApp) deleteTV(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tvId(w, r)
	if !ok {
		return
	}

	tv, err := s.dashboard.DeleteTV(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if tv.Image != nil {
		s.releaseAsset(*tv.Image)
	}

	s.writeJson(w, http.StatusOK, MessageResponse{Message: "tv deleted"})
}

func (s *TVDashApp) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tvId(w, r)
	if !ok {
		return
	}

	if _, err := s.dashboard.GetTV(id); err != nil {
		s.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.assets.MaxBytes()+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		errResp := NewBadRequestError("expected multipart/form-data")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	part, err := nextImagePart(mr)
	if err != nil {
		if errors.Is(err, errNoImage) {
			errResp := NewBadRequestError(errNoImage.Error())
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		s.writeError(w, err)
		return
	}
	defer part.Close()

	asset, err := s.assets.Save(id, part.FileName(), part)
	if err != nil {
		s.writeError(w, err)
		return
	}

	tv, prev, err := s.dashboard.UploadImage(id, asset.Ref)
	if err != nil {
		// the tv went away while the file was being stored
		s.releaseAsset(asset.Ref)
		s.writeError(w, err)
		return
	}

	if prev != nil && *prev != asset.Ref {
		s.releaseAsset(*prev)
	}

	s.writeJson(w, http.StatusOK, tv)
}

func nextImagePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoImage
		}
		if err != nil {
			return nil, err
		}

		if part.FormName() == "image" && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func (s *TVDashApp) releaseAsset(ref string) {
	if err := s.assets.Remove(ref); err != nil {
		s.log.Warn("failed to remove asset", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *TVDashApp) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	return slices.Contains(s.allowedOrigins, origin) || slices.Contains(s.allowedOrigins, "*")
}

func (s *TVDashApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("error upgrading connection", zap.Error(err))
		return
	}

	client, err := server.NewClient(conn, s.hub, s.log)
	if err != nil {
		s.log.Error("new client", zap.Error(err))
		conn.Close()
		return
	}

	s.hub.RegisterClient(client)
	go client.Write()
	go client.Read()
}

var displayPath = regexp.MustCompile(`^/tv-\d+$`)

// staticPages serves the dashboard at "/" and the display page at
// "/tv-<id>". Other paths fall through to the files in dir.
func (s *TVDashApp) staticPages(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			http.ServeFile(w, r, filepath.Join(dir, "dashboard.html"))
		case displayPath.MatchString(r.URL.Path):
			http.ServeFile(w, r, filepath.Join(dir, "tv-display.html"))
		default:
			files.ServeHTTP(w, r)
		}
	})
}
