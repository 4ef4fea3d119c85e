package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spengler302/shopify-feed-uploader/internal/feed"
	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// adminServer fakes the Admin GraphQL endpoint: it records each request and
// answers from the respond callback.
func adminServer(t *testing.T, respond func(req gqlRequest) string) (*Client, *[]gqlRequest) {
	t.Helper()
	var seen []gqlRequest
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret-token", r.Header.Get("X-Shopify-Access-Token"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		_, _ = io.WriteString(w, respond(req))
	}))
	t.Cleanup(s.Close)
	return NewWithEndpoint(s.URL, "secret-token", 2*time.Second), &seen
}

func TestRequestStaging_OK(t *testing.T) {
	c, seen := adminServer(t, func(gqlRequest) string {
		return `{"data":{"stagedUploadsCreate":{"stagedTargets":[{
			"url":"https://bucket.test/upload",
			"resourceUrl":"https://bucket.test/tmp/feed-001.jpg",
			"parameters":[{"name":"key","value":"tmp/feed-001.jpg"},{"name":"policy","value":"abc"}]
		}],"userErrors":[]}}}`
	})

	target, err := c.RequestStaging(context.Background(), "feed-001.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.test/upload", target.URL)
	assert.Equal(t, "https://bucket.test/tmp/feed-001.jpg", target.ResourceURL)
	require.Len(t, target.Parameters, 2)
	assert.Equal(t, models.Param{Name: "key", Value: "tmp/feed-001.jpg"}, target.Parameters[0])

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Contains(t, req.Query, "stagedUploadsCreate")
	input := req.Variables["input"].([]any)[0].(map[string]any)
	assert.Equal(t, "feed-001.jpg", input["filename"])
	assert.Equal(t, "image/jpeg", input["mimeType"])
	assert.Equal(t, "FILE", input["resource"])
	assert.Equal(t, "POST", input["httpMethod"])
}

func TestRequestStaging_UserErrors(t *testing.T) {
	c, _ := adminServer(t, func(gqlRequest) string {
		return `{"data":{"stagedUploadsCreate":{"stagedTargets":[],
			"userErrors":[{"field":["input"],"message":"filename too long"}]}}}`
	})

	_, err := c.RequestStaging(context.Background(), "feed-001.jpg", "image/jpeg")
	require.ErrorIs(t, err, feed.ErrStaging)
	assert.Contains(t, err.Error(), "filename too long")
}

func TestRequestStaging_GraphQLErrors(t *testing.T) {
	c, _ := adminServer(t, func(gqlRequest) string {
		return `{"errors":[{"message":"throttled"}]}`
	})

	_, err := c.RequestStaging(context.Background(), "feed-001.jpg", "image/jpeg")
	require.ErrorIs(t, err, feed.ErrStaging)
	assert.Contains(t, err.Error(), "throttled")
}

func TestTransferBytes_ParamsVerbatimInOrderThenFile(t *testing.T) {
	type field struct{ name, value string }
	var got []field
	var fileBytes []byte

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, err := io.ReadAll(part)
			require.NoError(t, err)
			if part.FormName() == "file" {
				fileBytes = data
				continue
			}
			got = append(got, field{part.FormName(), string(data)})
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer s.Close()

	c := NewWithEndpoint("http://unused.test", "secret-token", 2*time.Second)
	target := models.StagedTarget{
		URL:         s.URL,
		ResourceURL: "https://bucket.test/tmp/feed-001.jpg",
		Parameters: []models.Param{
			{Name: "key", Value: "tmp/feed-001.jpg"},
			{Name: "policy", Value: "abc"},
			{Name: "signature", Value: "xyz"},
		},
	}

	resourceURL, err := c.TransferBytes(context.Background(), target, []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, target.ResourceURL, resourceURL)
	assert.Equal(t, []field{{"key", "tmp/feed-001.jpg"}, {"policy", "abc"}, {"signature", "xyz"}}, got)
	assert.Equal(t, []byte("jpeg bytes"), fileBytes)
}

func TestTransferBytes_NonSuccessStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "AccessDenied", http.StatusForbidden)
	}))
	defer s.Close()

	c := NewWithEndpoint("http://unused.test", "secret-token", 2*time.Second)
	_, err := c.TransferBytes(context.Background(), models.StagedTarget{URL: s.URL}, []byte("x"))
	require.ErrorIs(t, err, feed.ErrTransfer)
	assert.Contains(t, err.Error(), "403")
}

func TestRegisterAsset_ImageProjection(t *testing.T) {
	c, seen := adminServer(t, func(gqlRequest) string {
		return `{"data":{"fileCreate":{"files":[{
			"id":"gid://shopify/MediaImage/42","alt":"feed-001.jpg",
			"preview":{"image":{"url":"https://cdn.test/feed-001.jpg"}}
		}],"userErrors":[]}}}`
	})

	f, err := c.RegisterAsset(context.Background(), "https://bucket.test/tmp/feed-001.jpg", "feed-001.jpg", feed.KindImage)
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/MediaImage/42", f.ID)
	assert.Equal(t, feed.KindImage, f.ContentType)
	assert.Equal(t, "https://cdn.test/feed-001.jpg", f.PreviewURL)

	req := (*seen)[0]
	assert.Contains(t, req.Query, "preview { image { url } }")
	files := req.Variables["files"].([]any)[0].(map[string]any)
	assert.Equal(t, "IMAGE", files["contentType"])
	assert.Equal(t, "https://bucket.test/tmp/feed-001.jpg", files["originalSource"])
}

func TestRegisterAsset_GenericFileProjection(t *testing.T) {
	c, seen := adminServer(t, func(gqlRequest) string {
		return `{"data":{"fileCreate":{"files":[{
			"id":"gid://shopify/GenericFile/7","alt":"feed.json"
		}],"userErrors":[]}}}`
	})

	f, err := c.RegisterAsset(context.Background(), "https://bucket.test/tmp/feed.json", "feed.json", feed.KindFile)
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/GenericFile/7", f.ID)
	assert.Empty(t, f.PreviewURL)

	req := (*seen)[0]
	assert.NotContains(t, req.Query, "preview", "generic files carry no preview projection")
}

func TestRegisterAsset_UserErrors(t *testing.T) {
	c, _ := adminServer(t, func(gqlRequest) string {
		return `{"data":{"fileCreate":{"files":[],
			"userErrors":[{"field":["files"],"message":"original source invalid"}]}}}`
	})

	_, err := c.RegisterAsset(context.Background(), "https://bucket.test/x", "x", feed.KindImage)
	require.ErrorIs(t, err, feed.ErrRegistration)
	assert.Contains(t, err.Error(), "original source invalid")
}

func TestLookupFileURL(t *testing.T) {
	c, seen := adminServer(t, func(req gqlRequest) string {
		if strings.Contains(fmt.Sprint(req.Variables["query"]), "filename:feed") {
			return `{"data":{"files":{"edges":[{"node":{"url":"https://cdn.test/files/feed.json?v=1"}}]}}}`
		}
		return `{"data":{"files":{"edges":[]}}}`
	})

	url, err := c.LookupFileURL(context.Background(), "filename:feed")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/files/feed.json?v=1", url)
	assert.Contains(t, (*seen)[0].Query, "files(first: 1")

	_, err = c.LookupFileURL(context.Background(), "filename:nothing")
	require.ErrorIs(t, err, feed.ErrRemoteNotFound)
}

func TestListFiles_MixedNodeTypes(t *testing.T) {
	c, _ := adminServer(t, func(gqlRequest) string {
		return `{"data":{"files":{"edges":[
			{"node":{"url":"https://cdn.test/files/feed.json?v=3"}},
			{"node":{"image":{"url":"https://cdn.test/files/feed-001.jpg?v=1"}}},
			{"node":{}}
		]}}}`
	})

	entries, err := c.ListFiles(context.Background(), "filename:feed-", 250)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.RemoteEntry{Name: "feed.json", URL: "https://cdn.test/files/feed.json?v=3"}, entries[0])
	assert.Equal(t, models.RemoteEntry{Name: "feed-001.jpg", URL: "https://cdn.test/files/feed-001.jpg?v=1"}, entries[1])
}
