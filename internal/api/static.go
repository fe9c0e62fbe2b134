package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the front-end files from one directory. Dotfiles and
// the named data files (ledger, catalog) are never served.
type StaticHandler struct {
	root   string
	admin  string
	hidden map[string]struct{}
	files  http.Handler
}

func NewStaticHandler(root, adminPage string, hidden ...string) *StaticHandler {
	s := &StaticHandler{
		root:   root,
		admin:  adminPage,
		hidden: make(map[string]struct{}, len(hidden)),
		files:  http.FileServer(http.Dir(root)),
	}
	for _, name := range hidden {
		if name = filepath.Base(name); name != "" && name != "." {
			s.hidden[strings.ToLower(name)] = struct{}{}
		}
	}
	return s
}

func (s *StaticHandler) isHidden(urlPath string) bool {
	for _, seg := range strings.Split(urlPath, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	_, ok := s.hidden[strings.ToLower(path.Base(urlPath))]
	return ok
}

func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	urlPath := path.Clean("/" + r.URL.Path)
	if s.isHidden(urlPath) {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}

	full := filepath.Join(s.root, filepath.FromSlash(urlPath))
	info, err := os.Stat(full)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(full, "index.html")); err != nil {
			respondWithError(w, http.StatusNotFound, "Not found.")
			return
		}
	}
	s.files.ServeHTTP(w, r)
}

// ServeAdmin serves the fixed admin page behind its friendly alias.
func (s *StaticHandler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	full := filepath.Join(s.root, filepath.Base(s.admin))
	f, err := os.Open(full)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		respondWithError(w, http.StatusNotFound, "Not found.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
