package assets

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// RefPrefix is the URL prefix under which stored assets are served.
const RefPrefix = "/uploads/"

const DefaultMaxBytes = 10 << 20

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("only image files are allowed")
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Asset describes a stored upload.
type Asset struct {
	Ref         string
	Name        string
	Size        int64
	Digest      string
	ContentType string
}

// Store keeps uploaded images on disk, one file per TV. Files are stored
// verbatim.
type Store struct {
	dir      string
	maxBytes int64
	log      *zap.Logger

	digestsLock sync.RWMutex
	digests     map[string]string
}

func NewStore(dir string, maxBytes int64, logger *zap.Logger) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Store{
		dir:      dir,
		maxBytes: maxBytes,
		log:      logger,
		digests:  make(map[string]string),
	}, nil
}

func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save stores the contents of r as tv-<tvId><ext>, where ext comes from the
// client supplied filename. Both the extension and the sniffed content type
// must be an allowed image type.
func (s *Store) Save(tvId int, filename string, r io.Reader) (Asset, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedTypes[ext]; !ok {
		return Asset{}, fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return Asset{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	hasher := blake3.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return Asset{}, fmt.Errorf("write upload: %w", err)
	}
	if n > s.maxBytes {
		return Asset{}, ErrTooLarge
	}
	if n == 0 {
		return Asset{}, fmt.Errorf("%w: empty file", ErrUnsupportedType)
	}

	mtype, err := mimetype.DetectFile(tmp.Name())
	if err != nil {
		return Asset{}, fmt.Errorf("detect content type: %w", err)
	}
	if !isAllowedMime(mtype.String()) {
		return Asset{}, fmt.Errorf("%w: content type %q", ErrUnsupportedType, mtype.String())
	}

	if err := tmp.Close(); err != nil {
		return Asset{}, fmt.Errorf("close temp file: %w", err)
	}

	name := fmt.Sprintf("tv-%d%s", tvId, ext)
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return Asset{}, fmt.Errorf("store upload: %w", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	s.digestsLock.Lock()
	s.digests[name] = digest
	s.digestsLock.Unlock()

	s.log.Info("stored upload",
		zap.Int("tv_id", tvId),
		zap.String("file", name),
		zap.Int64("size", n),
		zap.String("content_type", mtype.String()),
		zap.String("blake3", digest))

	return Asset{
		Ref:         RefPrefix + name,
		Name:        name,
		Size:        n,
		Digest:      digest,
		ContentType: mtype.String(),
	}, nil
}

// Remove deletes the file behind ref. A missing file is not an error.
func (s *Store) Remove(ref string) error {
	name, ok := s.nameFromRef(ref)
	if !ok {
		return fmt.Errorf("invalid asset reference %q", ref)
	}

	s.digestsLock.Lock()
	delete(s.digests, name)
	s.digestsLock.Unlock()

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove asset: %w", err)
	}

	s.log.Info("removed asset", zap.String("file", name))
	return nil
}

// Handler serves stored assets. It must be mounted at RefPrefix.
func (s *Store) Handler() http.Handler {
	fs := http.StripPrefix(RefPrefix, http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(name, ".") {
			http.NotFound(w, r)
			return
		}

		s.digestsLock.RLock()
		digest, ok := s.digests[name]
		s.digestsLock.RUnlock()
		if ok {
			w.Header().Set("ETag", `"`+digest+`"`)
		}
		w.Header().Set("Cache-Control", "no-cache")

		fs.ServeHTTP(w, r)
	})
}

func (s *Store) nameFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, RefPrefix)
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}

func isAllowedMime(m string) bool {
	for _, t := range allowedTypes {
		if strings.EqualFold(t, m) {
			return true
		}
	}
	return false
}
