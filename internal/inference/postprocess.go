package inference

import (
	"errors"
	"fmt"
	"math"
)

// probabilities validates the raw output vector and normalizes it with
// softmax. A non-finite score anywhere fails the whole run.
func probabilities(scores []float32) ([]float32, error) {
	if len(scores) == 0 {
		return nil, errors.New("empty output vector")
	}
	for i, v := range scores {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite score at index %d", i)
		}
	}
	return softmax(scores), nil
}

func softmax(scores []float32) []float32 {
	max := scores[0]
	for _, v := range scores[1:] {
		if v > max {
			max = v
		}
	}

	exps := make([]float64, len(scores))
	var sum float64
	for i, v := range scores {
		exps[i] = math.Exp(float64(v - max))
		sum += exps[i]
	}

	probs := make([]float32, len(scores))
	for i, e := range exps {
		probs[i] = float32(e / sum)
	}
	return probs
}

// argmax returns the index of the highest probability; ties resolve to the
// first occurrence.
func argmax(probs []float32) (int, float32) {
	best := 0
	for i, v := range probs {
		if v > probs[best] {
			best = i
		}
	}
	return best, probs[best]
}
