package web

import (
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

const (
	indexPage    = "index.html"
	notFoundPage = "404.html"
)

// Site serves a directory of pages and assets read-only.
type Site struct {
	fsys fs.FS
	log  *zap.Logger
}

func NewSite(dir string, log *zap.Logger) *Site {
	return &Site{fsys: os.DirFS(dir), log: log}
}

func NewSiteFS(fsys fs.FS, log *zap.Logger) *Site {
	return &Site{fsys: fsys, log: log}
}

func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.notFound(w, r)
		return
	}

	name, ok := s.resolve(r.URL.Path)
	if !ok {
		s.notFound(w, r)
		return
	}
	s.serveFile(w, r, name)
}

// resolve maps a URL path to a regular file: directories serve their
// index.html and extensionless paths fall back to <path>.html.
func (s *Site) resolve(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}

	candidates := []string{name}
	if name == "." {
		candidates = []string{indexPage}
	} else {
		candidates = append(candidates, path.Join(name, indexPage))
		if path.Ext(name) == "" {
			candidates = append(candidates, name+".html")
		}
	}

	for _, c := range candidates {
		if !fs.ValidPath(c) {
			continue
		}
		fi, err := fs.Stat(s.fsys, c)
		if err == nil && fi.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

func (s *Site) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := s.fsys.Open(name)
	if err != nil {
		s.notFound(w, r)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		s.notFound(w, r)
		return
	}

	if isHTML(name) {
		w.Header().Set("Cache-Control", "no-store")
	}

	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, fi.ModTime(), rs)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		s.serverError(w, name, err)
		return
	}
	http.ServeContent(w, r, name, fi.ModTime(), strings.NewReader(string(data)))
}

func (s *Site) notFound(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(s.fsys, notFoundPage)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.log != nil {
			s.log.Warn("read 404 page failed", zap.Error(err))
		}
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNotFound)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

func (s *Site) serverError(w http.ResponseWriter, name string, err error) {
	if s.log != nil {
		s.log.Error("serve static file failed", zap.String("file", name), zap.Error(err))
	}
	http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}
