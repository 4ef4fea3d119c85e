package feed

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_ReencodesToJPEG(t *testing.T) {
	n := JPEGNormalizer{}

	out, name, err := n.Normalize(pngBytes(t, 8, 6), 7)
	require.NoError(t, err)
	assert.Equal(t, "feed-007.jpg", name)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestNormalize_JPEGInputStillReencoded(t *testing.T) {
	n := JPEGNormalizer{}

	first, _, err := n.Normalize(pngBytes(t, 4, 4), 1)
	require.NoError(t, err)

	out, name, err := n.Normalize(first, 2)
	require.NoError(t, err)
	assert.Equal(t, "feed-002.jpg", name)
	_, err = jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
}

func TestNormalize_UndecodableInput(t *testing.T) {
	n := JPEGNormalizer{}

	_, _, err := n.Normalize([]byte("definitely not an image"), 1)
	require.ErrorIs(t, err, ErrNormalize)
}

func TestSequenceName(t *testing.T) {
	assert.Equal(t, "feed-001.jpg", SequenceName(1))
	assert.Equal(t, "feed-042.jpg", SequenceName(42))
	assert.Equal(t, "feed-999.jpg", SequenceName(999))
	// Beyond 999 the field widens; ordering by name breaks down there.
	assert.Equal(t, "feed-1000.jpg", SequenceName(1000))
}
