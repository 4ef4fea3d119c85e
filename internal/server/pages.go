package http

import (
	_ "embed"
	"net/http"
)

//go:embed pages/login.html
var loginPage []byte

//go:embed pages/uploader.html
var uploaderPage []byte

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(loginPage)
}

func (s *Server) handleUploaderPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(r); !ok {
		http.Redirect(w, r, "/api/login", http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(uploaderPage)
}
