package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/spengler302/shopify-feed-uploader/internal/feed"
	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// maxUploadBytes bounds one multipart request held in memory.
const maxUploadBytes = 64 << 20

// uploadTimeout covers the whole batch: normalization plus three remote
// calls per image plus the manifest republish.
const uploadTimeout = 5 * time.Minute

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(r); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusInternalServerError, "malformed multipart form: "+err.Error())
		return
	}

	var uploads []models.Upload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			uploads = append(uploads, models.Upload{Filename: header.Filename, Data: data})
		}
	}

	force := r.FormValue("force") == "1" || r.FormValue("force") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	result, err := s.api.Upload(ctx, uploads, force)
	if err != nil {
		s.log.Error().Err(err).Int("images", len(uploads)).Msg("upload failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"images":  result.Images,
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	manifest, cdnBase, err := s.api.Feed(ctx)
	switch {
	case errors.Is(err, feed.ErrManifestNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "feed.json not found"})
		return
	case err != nil:
		s.log.Error().Err(err).Msg("feed fetch failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images":             manifest.Images,
		"nextSequenceNumber": manifest.NextSeq,
		"cdnBase":            cdnBase,
	})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(r); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	result, err := s.api.Reconcile(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reconcile failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"images":     result.Images,
		"reconciled": result.Uploaded,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
