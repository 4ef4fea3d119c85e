package feed

import "errors"

// Error kinds of the ingestion pipeline. Adapters and the repository wrap
// these with fmt.Errorf("...: %w", ...) so callers can classify with
// errors.Is while keeping the underlying detail.
var (
	// ErrNoImages rejects a request carrying zero images.
	ErrNoImages = errors.New("no images uploaded")

	// ErrNormalize means the input could not be decoded as an image.
	ErrNormalize = errors.New("image normalization failed")

	// Remote-protocol phases, in order.
	ErrStaging      = errors.New("staged upload request failed")
	ErrTransfer     = errors.New("byte transfer failed")
	ErrRegistration = errors.New("asset registration failed")

	// ErrRemoteNotFound means a filename lookup matched nothing.
	ErrRemoteNotFound = errors.New("remote file not found")

	// ErrManifestNotFound means no manifest has ever been published. Clean
	// first use: the pipeline starts from an empty manifest.
	ErrManifestNotFound = errors.New("no manifest published yet")

	// ErrManifestRead means the manifest exists (or its existence could not
	// be determined) but could not be fetched or parsed. Unlike first use
	// this aborts ingestion unless the operator explicitly forces a fresh
	// start, since starting fresh here would truncate the feed.
	ErrManifestRead = errors.New("manifest read failed")

	// ErrManifestPublish is fatal: the batch's assets may be registered
	// remotely but the manifest does not list them.
	ErrManifestPublish = errors.New("manifest publish failed")
)
