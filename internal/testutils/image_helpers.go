package testutils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// PNGBytes encodes a solid w x h image of color c as PNG.
func PNGBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "Failed to encode test PNG")
	return buf.Bytes()
}

// ServeBytes returns a handler that answers with data and contentType.
func ServeBytes(t *testing.T, contentType string, data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		if _, err := w.Write(data); err != nil {
			t.Logf("Warning: failed to write image body: %v", err)
		}
	}
}
