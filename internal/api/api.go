package api

import (
	"time"

	"github.com/spengler302/shopify-feed-uploader/internal/feed"
)

// API is the application-facing facade. All callers (HTTP now, CLI later)
// go through this.
type API struct {
	feed *feed.Service
}

func New(f *feed.Service) *API {
	return &API{feed: f}
}

// Health responds with the health status of the app.
func (api *API) Health() interface{} {
	payload := map[string]interface{}{
		"app":       "shopify-feed-uploader",
		"startedAt": time.Now().Format(time.RFC3339),
		"status":    "ok",
	}
	return payload
}
