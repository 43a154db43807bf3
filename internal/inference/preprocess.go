package inference

import (
	"errors"
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// Preprocess converts decoded pixels into the model's input layout: bilinear
// resize to width×height, three channels interleaved (NHWC), float32 scaled
// into [0,1], with a leading batch dimension of 1.
func Preprocess(img image.Image, width, height int) ([]float32, []int64, error) {
	if img == nil {
		return nil, nil, errors.New("no pixel data")
	}
	if width <= 0 || height <= 0 {
		return nil, nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	bounds := resized.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, nil, fmt.Errorf("resize produced %dx%d, want %dx%d",
			bounds.Dx(), bounds.Dy(), width, height)
	}

	data := make([]float32, height*width*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			data[i] = float32(r>>8) / 255.0
			data[i+1] = float32(g>>8) / 255.0
			data[i+2] = float32(b>>8) / 255.0
			i += 3
		}
	}

	return data, []int64{1, int64(height), int64(width), 3}, nil
}
