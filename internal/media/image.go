package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/google/uuid"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

type Source string

const (
	SourceFile   Source = "file"
	SourceCamera Source = "camera"
)

// Image is an immutable handle to decoded pixel data. A new acquisition
// supersedes the previous handle, it never mutates it.
type Image struct {
	ID         string
	Pixels     image.Image
	Width      int
	Height     int
	Format     string
	Source     Source
	AcquiredAt time.Time
}

// FromBytes decodes an uploaded image file into the canonical handle.
// Accepted encodings are JPEG, PNG and GIF.
func FromBytes(data []byte, source Source) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	return &Image{
		ID:         uuid.New().String(),
		Pixels:     img,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		Source:     source,
		AcquiredAt: time.Now(),
	}, nil
}

// FromFrame wraps an already-decoded camera frame.
func FromFrame(img image.Image, source Source) *Image {
	bounds := img.Bounds()
	return &Image{
		ID:         uuid.New().String(),
		Pixels:     img,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     "frame",
		Source:     source,
		AcquiredAt: time.Now(),
	}
}

// EncodeJPEG renders pixels back to JPEG bytes, used when archiving camera
// frames that never existed as a file.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
