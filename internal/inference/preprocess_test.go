package inference

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessGreenImage(t *testing.T) {
	img := solidImage(10, 10, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	data, shape, err := Preprocess(img, 224, 224)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if len(data) != 224*224*3 {
		t.Fatalf("Expected %d values, got %d", 224*224*3, len(data))
	}
	if len(shape) != 4 || shape[0] != 1 || shape[1] != 224 || shape[2] != 224 || shape[3] != 3 {
		t.Fatalf("Expected shape [1 224 224 3], got %v", shape)
	}

	for i := 0; i < len(data); i += 3 {
		r, g, b := data[i], data[i+1], data[i+2]
		if r < 0 || r > 1 || g < 0 || g > 1 || b < 0 || b > 1 {
			t.Fatalf("Expected normalized values in [0,1], got (%f, %f, %f) at pixel %d", r, g, b, i/3)
		}
		if g < 0.9 {
			t.Fatalf("Expected green channel near 1, got %f at pixel %d", g, i/3)
		}
		if r > 0.1 || b > 0.1 {
			t.Fatalf("Expected red and blue channels near 0, got (%f, %f) at pixel %d", r, b, i/3)
		}
	}
}

func TestPreprocessCustomSize(t *testing.T) {
	img := solidImage(5, 5, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	data, shape, err := Preprocess(img, 64, 48)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	if len(data) != 64*48*3 {
		t.Errorf("Expected %d values, got %d", 64*48*3, len(data))
	}
	if len(shape) != 4 || shape[1] != 48 || shape[2] != 64 {
		t.Errorf("Expected shape [1 48 64 3], got %v", shape)
	}
}

func TestPreprocessInvalidInput(t *testing.T) {
	if _, _, err := Preprocess(nil, 224, 224); err == nil {
		t.Error("Expected an error for a nil image")
	}

	img := solidImage(4, 4, color.RGBA{A: 255})
	if _, _, err := Preprocess(img, 0, 224); err == nil {
		t.Error("Expected an error for a zero target width")
	}
	if _, _, err := Preprocess(img, 224, -1); err == nil {
		t.Error("Expected an error for a negative target height")
	}
}

func TestProbabilitiesNormalize(t *testing.T) {
	probs, err := probabilities([]float32{1.0, 2.0, 3.0})
	if err != nil {
		t.Fatalf("probabilities failed: %v", err)
	}

	var sum float32
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("Expected probability in [0,1], got %f", p)
		}
		sum += p
	}
	if math.Abs(float64(sum)-1.0) > 1e-5 {
		t.Errorf("Expected probabilities to sum to 1, got %f", sum)
	}

	if idx, _ := argmax(probs); idx != 2 {
		t.Errorf("Expected normalization to preserve the argmax, got index %d", idx)
	}
}

func TestProbabilitiesUniform(t *testing.T) {
	probs, err := probabilities([]float32{0.7, 0.7, 0.7})
	if err != nil {
		t.Fatalf("probabilities failed: %v", err)
	}

	for i, p := range probs {
		if math.Abs(float64(p)-1.0/3.0) > 1e-5 {
			t.Errorf("Expected uniform probability at index %d, got %f", i, p)
		}
	}
}

func TestProbabilitiesRejectNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
	}{
		{"empty", nil},
		{"nan", []float32{0.1, float32(math.NaN())}},
		{"positive infinity", []float32{float32(math.Inf(1)), 0.1}},
		{"negative infinity", []float32{0.1, float32(math.Inf(-1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := probabilities(tt.scores); err == nil {
				t.Error("Expected an error for non-finite scores")
			}
		})
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name  string
		probs []float32
		want  int
	}{
		{"single element", []float32{0.5}, 0},
		{"clear winner", []float32{0.1, 0.2, 0.7}, 2},
		{"tie keeps first", []float32{0.4, 0.4, 0.2}, 0},
		{"later tie keeps earlier", []float32{0.1, 0.45, 0.45}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := argmax(tt.probs)
			if got != tt.want {
				t.Errorf("Expected index %d, got %d", tt.want, got)
			}
			if conf != tt.probs[tt.want] {
				t.Errorf("Expected confidence %f, got %f", tt.probs[tt.want], conf)
			}
		})
	}
}
