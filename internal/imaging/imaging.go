package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the maximum width or height for stored JPEG and PNG images.
const MaxDimension = 1600

// JPEGQuality is the compression quality for re-encoded JPEG output.
const JPEGQuality = 85

// MaxUploadSize is the largest accepted image payload.
const MaxUploadSize = 10 << 20

// AllowedMIME maps the accepted raster types to the extension files are
// stored with.
var AllowedMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	// ErrNotImage is returned when the payload is not an accepted image.
	ErrNotImage = errors.New("solo se permiten imágenes JPEG, PNG, GIF o WebP")
	// ErrTooLarge is returned when the payload exceeds MaxUploadSize.
	ErrTooLarge = errors.New("la imagen supera el tamaño máximo")
)

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data []byte
	MIME string
	Ext  string
}

// AllowedExt reports whether ext is the extension of an accepted type.
func AllowedExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range AllowedMIME {
		if e == ext {
			return true
		}
	}
	return false
}

// Process reads image data, validates it by sniffing and decoding the bytes,
// and downscales JPEG or PNG images larger than MaxDimension keeping their
// format. GIF and WebP images are stored as received.
func Process(r io.Reader) (*ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}

	// Client headers and file names are never trusted.
	mime := mimetype.Detect(data).String()
	ext, ok := AllowedMIME[mime]
	if !ok {
		return nil, ErrNotImage
	}
	result := &ProcessResult{Data: data, MIME: mime, Ext: ext}

	// A full decode rejects payloads that only carry a valid magic number.
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if mime != "image/jpeg" && mime != "image/png" {
		return result, nil
	}

	bounds := img.Bounds()
	w, h := fitWithin(bounds.Dx(), bounds.Dy(), MaxDimension)
	if w == bounds.Dx() && h == bounds.Dy() {
		return result, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if mime == "image/png" {
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", mime, err)
	}
	result.Data = buf.Bytes()
	return result, nil
}

// FileName returns a random file name with the given extension.
func FileName(ext string) string {
	return uuid.NewString() + ext
}

// fitWithin scales w x h down to fit a limit x limit box, keeping the
// aspect ratio. Sizes already inside the box are returned unchanged.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w > h {
		return limit, clampOne(h * limit / w)
	}
	return clampOne(w * limit / h), limit
}

func clampOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
