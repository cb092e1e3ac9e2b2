// Package raster turns a remote or inline image reference into JPEG bytes
// that the document engine can embed.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"civic_horizon/domain"
)

const (
	DefaultQuality  = 90
	DefaultMaxBytes = 20 << 20
	// DefaultMaxPixels caps the decoded size; a small compressed file can
	// still describe a huge canvas.
	DefaultMaxPixels = 8192 * 8192
)

// LoadError reports a source that could not be fetched or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load image %s: %v", shorten(e.Source), e.Err)
}

func (e *LoadError) Unwrap() error {
	return domain.AssetLoadError("image unavailable", e.Err)
}

// Rasterizer fetches and re-encodes images. One attempt per call.
type Rasterizer struct {
	client   *http.Client
	quality  int
	maxBytes int64
}

// New creates a Rasterizer. A nil client gets a plain http.Client; callers
// bound the wait through the context.
func New(client *http.Client) *Rasterizer {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Rasterizer{client: client, quality: DefaultQuality, maxBytes: DefaultMaxBytes}
}

// Rasterize loads src and returns it as JPEG. An empty src is not an
// error: it yields no image.
func (r *Rasterizer) Rasterize(ctx context.Context, src string) (*domain.RasterImage, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil
	}

	data, err := r.load(ctx, src)
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}
	img, err := ToJPEG(data, r.quality)
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}
	return img, nil
}

func (r *Rasterizer) load(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURL(src)
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return nil, fmt.Errorf("unsupported image source")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", r.maxBytes)
	}
	return data, nil
}

// decodeDataURL accepts base64 image data URLs only.
func decodeDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if !strings.HasPrefix(meta, "image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data url %q", meta)
	}
	return base64.StdEncoding.DecodeString(payload)
}

// ToJPEG decodes PNG, GIF or JPEG data, flattens it onto an opaque white
// canvas and encodes it as JPEG.
func ToJPEG(data []byte, quality int) (*domain.RasterImage, error) {
	return toJPEG(data, quality, DefaultMaxPixels)
}

func toJPEG(data []byte, quality, maxPixels int) (*domain.RasterImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Over)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return &domain.RasterImage{
		Data:   buf.Bytes(),
		Format: "JPEG",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

func shorten(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
