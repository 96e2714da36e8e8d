// Package imaging serves grid image assets as browser-friendly JPEG or PNG,
// optionally scaled down.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoder
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp" // decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // decoder
	_ "golang.org/x/image/webp" // decoder

	"github.com/divawifi/wifi/internal/grid"
)

// MaxWidth caps the requested width.
const MaxWidth = 2048

// MaxPixels caps the decoded size of a source image (width × height).
const MaxPixels = 64 << 20

var (
	// ErrUnsupported is returned for asset data no registered decoder reads.
	ErrUnsupported = errors.New("unsupported image format")
	// ErrTooLarge is returned when the header declares more than MaxPixels.
	ErrTooLarge = errors.New("image dimensions too large")
)

// Options select the output encoding.
type Options struct {
	// Width scales the image to this many pixels wide, keeping the aspect
	// ratio. Zero or a width larger than the source keeps the source size.
	Width int
	// Format is "jpeg" (default) or "png".
	Format  string
	Quality int
}

// Convert decodes data and re-encodes it per opts. It returns the encoded
// bytes and their content type.
func Convert(data []byte, opts Options) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupported
		}
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	img = Scale(img, opts.Width)

	var buf bytes.Buffer
	switch strings.ToLower(opts.Format) {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	case "", "jpg", "jpeg":
		q := opts.Quality
		if q <= 0 || q > 100 {
			q = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
	return nil, "", fmt.Errorf("unknown output format %q", opts.Format)
}

// Scale resizes img to width, keeping the aspect ratio. It never enlarges.
func Scale(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || width >= b.Dx() {
		return img
	}
	if width > MaxWidth {
		width = MaxWidth
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Server converts image assets fetched from the asset service.
type Server struct {
	assets grid.AssetService
}

// NewServer creates a Server over assets.
func NewServer(assets grid.AssetService) *Server {
	return &Server{assets: assets}
}

// Image loads asset id and converts it.
func (s *Server) Image(ctx context.Context, id uuid.UUID, opts Options) ([]byte, string, error) {
	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("load asset %s: %w", id, err)
	}
	return Convert(asset.Data, opts)
}
