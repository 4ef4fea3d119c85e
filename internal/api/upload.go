package api

import (
	"context"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// Upload ingests one batch of raw images into the feed. force treats an
// unreadable manifest as a fresh start.
func (a *API) Upload(ctx context.Context, uploads []models.Upload, force bool) (models.IngestResult, error) {
	return a.feed.Ingest(ctx, uploads, force)
}

// Feed returns the published manifest plus the CDN base it is served from.
func (a *API) Feed(ctx context.Context) (models.FeedManifest, string, error) {
	return a.feed.Current(ctx)
}

// Reconcile folds registered-but-unlisted feed images back into the
// manifest.
func (a *API) Reconcile(ctx context.Context) (models.IngestResult, error) {
	return a.feed.Reconcile(ctx)
}
