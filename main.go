package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/spengler302/shopify-feed-uploader/internal/api"
	"github.com/spengler302/shopify-feed-uploader/internal/config"
	"github.com/spengler302/shopify-feed-uploader/internal/feed"
	http "github.com/spengler302/shopify-feed-uploader/internal/server"
	"github.com/spengler302/shopify-feed-uploader/internal/session"
	"github.com/spengler302/shopify-feed-uploader/internal/shopify"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	ctx := context.Background()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// adapters
	store := shopify.New(cfg)

	var sessions session.Store
	if cfg.PGHost != "" {
		pg, err := session.NewPGStore(ctx, cfg.BuildDSN(), cfg.SessionTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres init failed")
		}
		defer pg.Close()
		sessions = pg
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL, nil)
	}

	// service
	repo := feed.NewRepository(store, cfg.HTTPTimeout)
	svc := feed.New(store, nil, repo, log)

	// api facade
	app := api.New(svc)

	// http server uses the api layer
	s := http.New(app, sessions, cfg, log)
	log.Info().Str("addr", cfg.ListenAddr).Str("store", cfg.ShopifyStore).Msg("listening")
	if err := s.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
