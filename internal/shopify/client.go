// Package shopify adapts the Shopify Admin GraphQL API to the asset-store
// port: staged uploads, raw byte transfer against the staged target, and
// file registration.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spengler302/shopify-feed-uploader/internal/config"
	"github.com/spengler302/shopify-feed-uploader/internal/feed"
	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// Ensure Client implements the feed.AssetStore interface.
var _ feed.AssetStore = (*Client)(nil)

func New(cfg config.Config) *Client {
	return NewWithEndpoint(cfg.AdminURL(), cfg.ShopifyToken, cfg.HTTPTimeout)
}

// NewWithEndpoint exists so tests can point the client at a local server.
func NewWithEndpoint(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		http: &http.Client{
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

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func joinUserErrors(errs []userError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// graphql posts a query document and decodes response.data into out.
// Top-level GraphQL errors are returned as-is; phase classification is the
// caller's job.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("admin api returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %v", err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %v", err)
		}
	}
	return nil
}

const stagedUploadsCreateQuery = `
mutation stagedUploadsCreate($input: [StagedUploadInput!]!) {
  stagedUploadsCreate(input: $input) {
    stagedTargets {
      url
      resourceUrl
      parameters { name value }
    }
    userErrors { field message }
  }
}`

// RequestStaging asks the platform to allocate a single-use upload slot for
// filename. The caller must not proceed to transfer on failure.
func (c *Client) RequestStaging(ctx context.Context, filename, mimeType string) (models.StagedTarget, error) {
	variables := map[string]any{
		"input": []map[string]any{{
			"filename":   filename,
			"mimeType":   mimeType,
			"resource":   "FILE",
			"httpMethod": "POST",
		}},
	}

	var data struct {
		StagedUploadsCreate struct {
			StagedTargets []models.StagedTarget `json:"stagedTargets"`
			UserErrors    []userError           `json:"userErrors"`
		} `json:"stagedUploadsCreate"`
	}
	if err := c.graphql(ctx, stagedUploadsCreateQuery, variables, &data); err != nil {
		return models.StagedTarget{}, fmt.Errorf("%w: %v", feed.ErrStaging, err)
	}
	if len(data.StagedUploadsCreate.UserErrors) > 0 {
		return models.StagedTarget{}, fmt.Errorf("%w: %s",
			feed.ErrStaging, joinUserErrors(data.StagedUploadsCreate.UserErrors))
	}
	if len(data.StagedUploadsCreate.StagedTargets) == 0 {
		return models.StagedTarget{}, fmt.Errorf("%w: no staged target returned", feed.ErrStaging)
	}
	return data.StagedUploadsCreate.StagedTargets[0], nil
}

// TransferBytes POSTs data to the staged target as a multipart form,
// attaching the platform-required parameters verbatim and in the order
// received, then the file field. The target is consumed either way.
func (c *Client) TransferBytes(ctx context.Context, target models.StagedTarget, data []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for _, p := range target.Parameters {
		if err := form.WriteField(p.Name, p.Value); err != nil {
			return "", fmt.Errorf("%w: %v", feed.ErrTransfer, err)
		}
	}
	part, err := form.CreateFormFile("file", "file")
	if err != nil {
		return "", fmt.Errorf("%w: %v", feed.ErrTransfer, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: %v", feed.ErrTransfer, err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", feed.ErrTransfer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", feed.ErrTransfer, err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", feed.ErrTransfer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: target returned %d: %s", feed.ErrTransfer, resp.StatusCode, detail)
	}
	return target.ResourceURL, nil
}

const fileCreateQuery = `
mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      id
      alt
      preview { image { url } }
    }
    userErrors { field message }
  }
}`

const genericFileCreateQuery = `
mutation fileCreate($files: [FileCreateInput!]!) {
  fileCreate(files: $files) {
    files {
      id
      alt
    }
    userErrors { field message }
  }
}`

// RegisterAsset converts a transferred blob into a catalog entry. The kind
// controls the projection: images carry a preview URL, generic files do
// not. A failure here permanently orphans the transferred bytes; the
// protocol offers no compensation, so callers report instead of retrying.
func (c *Client) RegisterAsset(ctx context.Context, resourceURL, alt, kind string) (models.RemoteFile, error) {
	query := genericFileCreateQuery
	if kind == feed.KindImage {
		query = fileCreateQuery
	}
	variables := map[string]any{
		"files": []map[string]any{{
			"alt":            alt,
			"contentType":    kind,
			"originalSource": resourceURL,
		}},
	}

	var data struct {
		FileCreate struct {
			Files []struct {
				ID      string `json:"id"`
				Alt     string `json:"alt"`
				Preview *struct {
					Image *struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"preview"`
			} `json:"files"`
			UserErrors []userError `json:"userErrors"`
		} `json:"fileCreate"`
	}
	if err := c.graphql(ctx, query, variables, &data); err != nil {
		return models.RemoteFile{}, fmt.Errorf("%w: %v", feed.ErrRegistration, err)
	}
	if len(data.FileCreate.UserErrors) > 0 {
		return models.RemoteFile{}, fmt.Errorf("%w: %s",
			feed.ErrRegistration, joinUserErrors(data.FileCreate.UserErrors))
	}
	if len(data.FileCreate.Files) == 0 {
		return models.RemoteFile{}, fmt.Errorf("%w: no file returned", feed.ErrRegistration)
	}

	f := data.FileCreate.Files[0]
	out := models.RemoteFile{ID: f.ID, Alt: f.Alt, ContentType: kind}
	if f.Preview != nil && f.Preview.Image != nil {
		out.PreviewURL = f.Preview.Image.URL
	}
	return out, nil
}

const fileLookupQuery = `
query fileLookup($query: String!) {
  files(first: 1, query: $query) {
    edges {
      node {
        ... on GenericFile { url }
      }
    }
  }
}`

// LookupFileURL resolves a files query to the first match's public URL.
func (c *Client) LookupFileURL(ctx context.Context, query string) (string, error) {
	var data struct {
		Files struct {
			Edges []struct {
				Node struct {
					URL string `json:"url"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"files"`
	}
	if err := c.graphql(ctx, fileLookupQuery, map[string]any{"query": query}, &data); err != nil {
		return "", err
	}
	if len(data.Files.Edges) == 0 || data.Files.Edges[0].Node.URL == "" {
		return "", fmt.Errorf("%w: %q", feed.ErrRemoteNotFound, query)
	}
	return data.Files.Edges[0].Node.URL, nil
}

const fileListQuery = `
query fileList($query: String!, $first: Int!) {
  files(first: $first, query: $query) {
    edges {
      node {
        ... on GenericFile { url }
        ... on MediaImage { image { url } }
      }
    }
  }
}`

// ListFiles returns up to limit files matching the query, named by the
// basename of their public URL.
func (c *Client) ListFiles(ctx context.Context, query string, limit int) ([]models.RemoteEntry, error) {
	if limit <= 0 || limit > 250 {
		limit = 250
	}

	var data struct {
		Files struct {
			Edges []struct {
				Node struct {
					URL   string `json:"url"`
					Image *struct {
						URL string `json:"url"`
					} `json:"image"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"files"`
	}
	err := c.graphql(ctx, fileListQuery, map[string]any{"query": query, "first": limit}, &data)
	if err != nil {
		return nil, err
	}

	var out []models.RemoteEntry
	for _, e := range data.Files.Edges {
		u := e.Node.URL
		if u == "" && e.Node.Image != nil {
			u = e.Node.Image.URL
		}
		if u == "" {
			continue
		}
		out = append(out, models.RemoteEntry{Name: baseName(u), URL: u})
	}
	return out, nil
}

// baseName extracts the filename from a CDN URL, dropping any query
// string Shopify appends for versioning.
func baseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	p := u.Path
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}
