package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

const sessionCookie = "session"

// authorize resolves the request's session cookie against the session
// store. It is the sole gate in front of the ingestion pipeline.
func (s *Server) authorize(r *http.Request) (models.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return models.Session{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := s.sessions.Get(ctx, c.Value)
	if err != nil {
		return models.Session{}, false
	}
	return sess, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.UploaderUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.UploaderPass)) == 1
	if !userOK || !passOK {
		s.log.Warn().Str("username", username).Msg("login rejected")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`Invalid credentials. <a href="/api/login">Try again</a>`))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := s.sessions.Create(ctx, username)
	if err != nil {
		s.log.Error().Err(err).Msg("session create failed")
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	s.log.Info().Str("username", username).Msg("login ok")
	http.Redirect(w, r, "/api/uploader", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		_ = s.sessions.Destroy(ctx, c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, "/api/login", http.StatusFound)
}
