// Package imageproc shrinks uploaded images to a bounding box.
package imageproc

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	DefaultMaxDimension = 600
	DefaultQuality      = 80
)

type Transformer interface {
	// Fit returns data re-encoded for ext, scaled down to the bounding box.
	Fit(ctx context.Context, data []byte, ext string) ([]byte, error)
}

// Resizer fits images into MaxWidth x MaxHeight, preserving aspect ratio and
// never upscaling. Unknown image subtypes are re-encoded as JPEG.
type Resizer struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func NewResizer(maxDimension, quality int) *Resizer {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Resizer{MaxWidth: maxDimension, MaxHeight: maxDimension, Quality: quality}
}

func (r *Resizer) Fit(ctx context.Context, data []byte, ext string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	fitted := imaging.Fit(img, r.MaxWidth, r.MaxHeight, imaging.Lanczos)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "png":
		err = imaging.Encode(&buf, fitted, imaging.PNG)
	case "gif":
		err = imaging.Encode(&buf, fitted, imaging.GIF)
	case "webp":
		err = webp.Encode(&buf, fitted, &webp.Options{Quality: float32(r.Quality)})
	default:
		err = imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(r.Quality))
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
