package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// ManifestName is the reserved logical name of the feed manifest in the
// remote store. The platform renames the stored copy on every publish, so
// the repository always re-resolves "current" by lookup instead of
// tracking an id.
const ManifestName = "feed.json"

// manifestQuery finds the most recently published manifest document.
const manifestQuery = "filename:feed"

var seqPattern = regexp.MustCompile(`feed-(\d+)\.jpg`)

// Repository reads and writes the FeedManifest as a single logical
// document through the remote asset store.
type Repository struct {
	store AssetStore
	cdn   *http.Client
}

func NewRepository(store AssetStore, timeout time.Duration) *Repository {
	return &Repository{
		store: store,
		cdn: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchCurrent locates the latest published manifest by filename lookup and
// parses it. It returns the manifest's public URL alongside so callers can
// derive the CDN base. A store that has never seen a manifest yields
// ErrManifestNotFound; any lookup, fetch, or parse failure yields
// ErrManifestRead so callers can tell first use from a transient failure.
func (r *Repository) FetchCurrent(ctx context.Context) (models.FeedManifest, string, error) {
	empty := models.FeedManifest{Images: []string{}}

	url, err := r.store.LookupFileURL(ctx, manifestQuery)
	if err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			return empty, "", ErrManifestNotFound
		}
		return empty, "", fmt.Errorf("%w: lookup: %v", ErrManifestRead, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return empty, "", fmt.Errorf("%w: %v", ErrManifestRead, err)
	}
	resp, err := r.cdn.Do(req)
	if err != nil {
		return empty, "", fmt.Errorf("%w: %v", ErrManifestRead, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return empty, "", fmt.Errorf("%w: cdn returned %d", ErrManifestRead, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, "", fmt.Errorf("%w: %v", ErrManifestRead, err)
	}

	var m models.FeedManifest
	if err := json.Unmarshal(body, &m); err != nil {
		return empty, "", fmt.Errorf("%w: parse: %v", ErrManifestRead, err)
	}
	if m.Images == nil {
		m.Images = []string{}
	}
	return m, url, nil
}

// NextSequence returns the next sequence number to assign. Manifests carry
// it explicitly; legacy manifests fall back to the numeric suffix of the
// last listed filename. An empty manifest (or an unparseable last entry)
// starts at 1. Gaps from entries of past runs are never backfilled.
func (r *Repository) NextSequence(m models.FeedManifest) int {
	if m.NextSeq > 0 {
		return m.NextSeq
	}
	if len(m.Images) == 0 {
		return 1
	}
	last := m.Images[len(m.Images)-1]
	match := seqPattern.FindStringSubmatch(last)
	if match == nil {
		return 1
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 1
	}
	return n + 1
}

// Append adds filename to the manifest unless already present. Idempotent.
func (r *Repository) Append(m models.FeedManifest, filename string) models.FeedManifest {
	if m.Contains(filename) {
		return m
	}
	m.Images = append(m.Images, filename)
	return m
}

// Dedupe removes duplicate filenames, keeping first occurrence order.
func (r *Repository) Dedupe(m models.FeedManifest) models.FeedManifest {
	seen := make(map[string]struct{}, len(m.Images))
	out := make([]string, 0, len(m.Images))
	for _, img := range m.Images {
		if _, ok := seen[img]; ok {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
	}
	m.Images = out
	return m
}

// Publish serializes the manifest and pushes it through the full
// stage/transfer/register sequence under ManifestName, always as the
// generic-file kind. The platform supersedes the prior document; the next
// FetchCurrent re-resolves by lookup.
func (r *Repository) Publish(ctx context.Context, m models.FeedManifest) error {
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestPublish, err)
	}

	target, err := r.store.RequestStaging(ctx, ManifestName, "application/json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestPublish, err)
	}
	resourceURL, err := r.store.TransferBytes(ctx, target, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestPublish, err)
	}
	if _, err := r.store.RegisterAsset(ctx, resourceURL, ManifestName, KindFile); err != nil {
		return fmt.Errorf("%w: %v", ErrManifestPublish, err)
	}
	return nil
}

// CDNBase derives the common URL prefix of the manifest's own location, the
// base under which the feed images are served.
func CDNBase(manifestURL string) string {
	i := strings.LastIndex(manifestURL, "/")
	if i < 0 {
		return manifestURL
	}
	return manifestURL[:i+1]
}
