package feed

import (
	"context"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// Asset kinds accepted by the remote store's registration phase. The kind
// controls which projection fields the platform returns for the asset.
const (
	KindImage = "IMAGE"
	KindFile  = "FILE"
)

// AssetStore is the remote platform's three-phase asset-creation protocol
// plus the filename lookups the manifest repository needs. Each accepted
// filename goes through staging, transfer, and registration in order; a
// StagedTarget is single-use regardless of the transfer outcome.
type AssetStore interface {
	RequestStaging(ctx context.Context, filename, mimeType string) (models.StagedTarget, error)
	TransferBytes(ctx context.Context, target models.StagedTarget, data []byte) (string, error)
	RegisterAsset(ctx context.Context, resourceURL, alt, kind string) (models.RemoteFile, error)

	// LookupFileURL resolves a files-listing query to the first match's
	// public URL, or ErrRemoteNotFound.
	LookupFileURL(ctx context.Context, query string) (string, error)

	// ListFiles returns up to limit entries matching the query.
	ListFiles(ctx context.Context, query string, limit int) ([]models.RemoteEntry, error)
}

// Normalizer re-encodes raw upload bytes into the feed's fixed JPEG policy
// and names the result for the given sequence number.
type Normalizer interface {
	Normalize(src []byte, seq int) (jpegBytes []byte, filename string, err error)
}
