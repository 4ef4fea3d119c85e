package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// Service drives one ingestion request end to end: load the manifest,
// assign sequence names, push each image through the three remote phases,
// and republish the manifest as a whole. The manifest is a single-writer
// document with no remote locking, so Ingest and Reconcile serialize on
// an in-process mutex.
type Service struct {
	store AssetStore
	norm  Normalizer
	repo  *Repository
	log   zerolog.Logger

	mu sync.Mutex
}

func New(store AssetStore, norm Normalizer, repo *Repository, log zerolog.Logger) *Service {
	if norm == nil {
		norm = JPEGNormalizer{}
	}
	return &Service{store: store, norm: norm, repo: repo, log: log}
}

// Ingest processes one batch of uploads in submission order. Either the
// full batch's manifest update is published or the request fails; there is
// no partial success. Images whose computed filename is already listed are
// skipped without touching the remote store, which makes re-submitting an
// already-published batch a no-op.
//
// force treats a manifest read failure as a fresh start. Without it a read
// failure aborts, since publishing over an unreadable manifest would
// truncate the feed.
func (s *Service) Ingest(ctx context.Context, uploads []models.Upload, force bool) (models.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(uploads) == 0 {
		return models.IngestResult{}, ErrNoImages
	}

	m, _, err := s.repo.FetchCurrent(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrManifestNotFound):
		// Clean first use.
	case errors.Is(err, ErrManifestRead) && force:
		s.log.Warn().Err(err).Msg("manifest unreadable, starting fresh on operator request")
		m = models.FeedManifest{Images: []string{}}
	default:
		return models.IngestResult{}, err
	}

	seq := s.repo.NextSequence(m)
	uploaded, skipped := 0, 0

	for _, up := range uploads {
		name := SequenceName(seq)
		if m.Contains(name) {
			s.log.Debug().Str("file", name).Msg("already in feed, skipping")
			seq++
			skipped++
			continue
		}

		data, name, err := s.norm.Normalize(up.Data, seq)
		if err != nil {
			return models.IngestResult{}, fmt.Errorf("%s: %w", up.Filename, err)
		}

		if err := s.pushImage(ctx, name, data); err != nil {
			return models.IngestResult{}, err
		}
		m = s.repo.Append(m, name)
		s.log.Info().Str("file", name).Int("bytes", len(data)).Msg("image published")
		seq++
		uploaded++
	}

	m = s.repo.Dedupe(m)
	m.NextSeq = seq
	if err := s.repo.Publish(ctx, m); err != nil {
		return models.IngestResult{}, err
	}

	s.log.Info().Int("uploaded", uploaded).Int("skipped", skipped).
		Int("total", len(m.Images)).Msg("manifest published")
	return models.IngestResult{Images: m.Images, Uploaded: uploaded, Skipped: skipped}, nil
}

// pushImage drives the three remote phases for one normalized image. A
// registration failure leaves the transferred bytes orphaned on the remote
// side; the protocol has no compensation, so the orphan is logged and the
// whole request aborts.
func (s *Service) pushImage(ctx context.Context, name string, data []byte) error {
	target, err := s.store.RequestStaging(ctx, name, "image/jpeg")
	if err != nil {
		return err
	}
	resourceURL, err := s.store.TransferBytes(ctx, target, data)
	if err != nil {
		return err
	}
	if _, err := s.store.RegisterAsset(ctx, resourceURL, name, KindImage); err != nil {
		s.log.Warn().Str("file", name).Str("resource", resourceURL).
			Msg("transferred bytes orphaned by failed registration")
		return err
	}
	return nil
}

// Current returns the published manifest and the CDN base derived from its
// own location.
func (s *Service) Current(ctx context.Context) (models.FeedManifest, string, error) {
	m, url, err := s.repo.FetchCurrent(ctx)
	if err != nil {
		return m, "", err
	}
	return m, CDNBase(url), nil
}

// Reconcile lists remote files matching the feed naming pattern and
// appends any registered-but-unlisted images to the manifest in sequence
// order, then republishes if anything changed. This is the recovery path
// for assets orphaned by a failed manifest publish in an earlier run.
func (s *Service) Reconcile(ctx context.Context) (models.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, _, err := s.repo.FetchCurrent(ctx)
	if err != nil && !errors.Is(err, ErrManifestNotFound) {
		return models.IngestResult{}, err
	}

	entries, err := s.store.ListFiles(ctx, "filename:feed-", 250)
	if err != nil {
		return models.IngestResult{}, err
	}

	type candidate struct {
		name string
		seq  int
	}
	var missing []candidate
	for _, e := range entries {
		match := seqPattern.FindStringSubmatch(e.Name)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || e.Name != SequenceName(n) {
			continue
		}
		if m.Contains(e.Name) {
			continue
		}
		missing = append(missing, candidate{name: e.Name, seq: n})
	}
	if len(missing) == 0 {
		return models.IngestResult{Images: m.Images}, nil
	}

	sort.Slice(missing, func(i, j int) bool { return missing[i].seq < missing[j].seq })
	for _, c := range missing {
		m = s.repo.Append(m, c.name)
		if c.seq >= m.NextSeq {
			m.NextSeq = c.seq + 1
		}
		s.log.Info().Str("file", c.name).Msg("reconciled orphaned image into feed")
	}

	m = s.repo.Dedupe(m)
	if err := s.repo.Publish(ctx, m); err != nil {
		return models.IngestResult{}, err
	}
	return models.IngestResult{Images: m.Images, Uploaded: len(missing)}, nil
}
