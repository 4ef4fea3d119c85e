package feed

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// jpegQuality is the fixed re-encode quality applied to every accepted
// upload regardless of input format.
const jpegQuality = 90

// SequenceName computes the published filename for a sequence number:
// feed-<NNN>.jpg, zero-padded to 3 digits. Numbers beyond 999 widen the
// field and stop sorting lexically; that bound is accepted, not handled.
func SequenceName(seq int) string {
	return fmt.Sprintf("feed-%03d.jpg", seq)
}

// JPEGNormalizer re-encodes any decodable image into the feed's fixed
// JPEG policy.
type JPEGNormalizer struct{}

var _ Normalizer = JPEGNormalizer{}

func (JPEGNormalizer) Normalize(src []byte, seq int) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNormalize, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNormalize, err)
	}
	return buf.Bytes(), SequenceName(seq), nil
}
