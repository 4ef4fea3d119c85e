package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/spengler302/shopify-feed-uploader/internal/api"
	"github.com/spengler302/shopify-feed-uploader/internal/config"
	"github.com/spengler302/shopify-feed-uploader/internal/session"
)

type Server struct {
	api      *api.API
	sessions session.Store
	cfg      config.Config
	log      zerolog.Logger
	mux      *http.ServeMux
}

func New(a *api.API, sessions session.Store, cfg config.Config, log zerolog.Logger) *Server {
	s := &Server{api: a, sessions: sessions, cfg: cfg, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	go func() {
		<-ctx.Done()
		_ = httpSrv.Shutdown(context.Background())
	}()
	return httpSrv.ListenAndServe()
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
