package imageproc

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestFit_DownscalesPreservingAspect(t *testing.T) {
	r := NewResizer(0, 0)
	out, err := r.Fit(context.Background(), encodeJPEG(t, 1600, 1200), "jpg")
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, cfg.Width, 600)
	assert.LessOrEqual(t, cfg.Height, 600)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 450, cfg.Height)
}

func TestFit_NeverUpscales(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(120, 80)))

	out, err := NewResizer(600, 80).Fit(context.Background(), buf.Bytes(), ".PNG")
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestFit_UnknownSubtypeBecomesJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(900, 300)))

	out, err := NewResizer(600, 80).Fit(context.Background(), buf.Bytes(), "bmp")
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestFit_Errors(t *testing.T) {
	_, err := NewResizer(600, 80).Fit(context.Background(), []byte("not an image"), "jpg")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewResizer(600, 80).Fit(ctx, encodeJPEG(t, 10, 10), "jpg")
	assert.ErrorIs(t, err, context.Canceled)
}
