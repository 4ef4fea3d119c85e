package models

import "time"

// FeedManifest is the single source of truth for what is in the feed: an
// ordered list of published image filenames. NextSeq is the next sequence
// number to assign; manifests written before the field existed leave it 0
// and the repository recovers it from the last filename.
type FeedManifest struct {
	Images  []string `json:"images"`
	NextSeq int      `json:"nextSequenceNumber,omitempty"`
}

// Contains reports whether name is already listed.
func (m FeedManifest) Contains(name string) bool {
	for _, img := range m.Images {
		if img == name {
			return true
		}
	}
	return false
}

// Param is one platform-required transfer parameter. Order matters: the
// transfer endpoint expects the parameters verbatim and in the order the
// platform returned them.
type Param struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StagedTarget is a platform-issued, single-use destination for one pending
// byte transfer. It is consumed by the transfer attempt whether or not the
// attempt succeeds.
type StagedTarget struct {
	URL         string  `json:"url"`
	ResourceURL string  `json:"resourceUrl"`
	Parameters  []Param `json:"parameters"`
}

// RemoteFile is a registered asset inside the remote store.
type RemoteFile struct {
	ID          string `json:"id"`
	Alt         string `json:"alt"`
	ContentType string `json:"contentType"`
	PreviewURL  string `json:"previewUrl,omitempty"`
}

// RemoteEntry is one row of a remote files listing: the asset's filename
// (derived from its public URL) and the URL itself.
type RemoteEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Upload is one raw inbound image as received from the HTTP boundary.
type Upload struct {
	Filename string
	Data     []byte
}

// IngestResult is the consolidated outcome of one ingestion run.
type IngestResult struct {
	Images   []string `json:"images"`
	Uploaded int      `json:"uploaded"`
	Skipped  int      `json:"skipped"`
}

// Session is an authenticated operator session.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
