package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	// MaxImages is the batch limit per evaluation.
	MaxImages = 4
	// MaxImageBytes caps a single upload at 10MB.
	MaxImageBytes = 10 << 20
	// JPEGQuality is the fixed re-encode quality.
	JPEGQuality = 80
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/heic": true,
	"image/heif": true,
}

// Upload is one raw blob with its declared MIME type.
type Upload struct {
	Data        []byte
	ContentType string
}

// Normalized is a re-encoded JPEG buffer, ephemeral and owned by the
// pipeline invocation that produced it.
type Normalized struct {
	Data   []byte
	Width  int
	Height int
}

// Normalizer validates and re-encodes uploaded images. In-memory only, no
// disk writes.
type Normalizer struct {
	maxEdge int
}

// NewNormalizer builds a normalizer. maxEdge bounds the longest image edge
// before re-encoding; <= 0 disables downscaling.
func NewNormalizer(maxEdge int) *Normalizer {
	return &Normalizer{maxEdge: maxEdge}
}

// NormalizeBatch enforces the batch contract and re-encodes every accepted
// blob to JPEG at the fixed quality. Any failure rejects the whole batch;
// there is no partial success.
func (n *Normalizer) NormalizeBatch(batch []Upload) ([]Normalized, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(batch) > MaxImages {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyImages, len(batch), MaxImages)
	}

	// Gate on declared type and size before any decode work.
	for i, up := range batch {
		mime := strings.ToLower(strings.TrimSpace(up.ContentType))
		if idx := strings.Index(mime, ";"); idx >= 0 {
			mime = strings.TrimSpace(mime[:idx])
		}
		if !allowedTypes[mime] {
			return nil, fmt.Errorf("%w: %s (image %d)", ErrUnsupportedType, up.ContentType, i)
		}
		if len(up.Data) > MaxImageBytes {
			return nil, fmt.Errorf("%w: %d bytes (image %d)", ErrImageTooLarge, len(up.Data), i)
		}
	}

	out := make([]Normalized, 0, len(batch))
	for i, up := range batch {
		img, err := n.encode(up.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: image %d: %v", ErrCodec, i, err)
		}
		out = append(out, img)
	}
	return out, nil
}

func (n *Normalizer) encode(data []byte) (Normalized, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("decode: %w", err)
	}

	src = n.downscale(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Normalized{}, fmt.Errorf("encode jpeg: %w", err)
	}

	b := src.Bounds()
	return Normalized{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// downscale bounds the longest edge at maxEdge, preserving aspect ratio.
func (n *Normalizer) downscale(src image.Image) image.Image {
	if n.maxEdge <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= n.maxEdge {
		return src
	}

	scale := float64(n.maxEdge) / float64(longest)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
