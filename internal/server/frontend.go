package server

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

//go:embed frontend
var embeddedFrontend embed.FS

// frontendFS returns frontend_dir when configured, else the bundled page.
func (s *Server) frontendFS() fs.FS {
	if dir := strings.TrimSpace(s.cfg.Paths.FrontendDir); dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(embeddedFrontend, "frontend")
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *Server) registerFrontend(mux *http.ServeMux) {
	fsys := s.frontendFS()
	files := http.FileServerFS(fsys)
	mux.Handle("GET /static/", http.StripPrefix("/static/", files))
	// Catch-all so pages can load root-relative assets; "/" serves index.html.
	mux.Handle("GET /", files)
}
