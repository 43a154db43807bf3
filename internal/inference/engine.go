package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wastesort/internal/media"
	"wastesort/internal/metrics"
	"wastesort/internal/model"
	"wastesort/internal/waste"
)

var (
	ErrModelNotReady = errors.New("model not ready")
	ErrBusy          = errors.New("classification already in progress")
	ErrInference     = errors.New("inference failed")
)

// Model is the slice of the model handle the engine needs. *model.Handle
// implements it.
type Model interface {
	Status() model.Status
	InputSize() (int, int)
	Classes() []string
	Run(data []float32, shape []int64) ([]float32, error)
}

var _ Model = (*model.Handle)(nil)

// Engine turns an acquired image into a classification result: resize,
// tensor layout, one forward pass, argmax. One run at a time; a concurrent
// call is rejected with ErrBusy rather than queued.
type Engine struct {
	model Model
	mu    sync.Mutex
}

func New(m Model) *Engine {
	return &Engine{model: m}
}

func (e *Engine) Classify(ctx context.Context, img *media.Image) (waste.Result, error) {
	if st := e.model.Status(); st != model.StatusReady {
		return waste.Result{}, fmt.Errorf("%w: status is %s", ErrModelNotReady, st)
	}

	if !e.mu.TryLock() {
		return waste.Result{}, ErrBusy
	}
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return waste.Result{}, err
	}

	start := time.Now()

	width, height := e.model.InputSize()
	data, shape, err := Preprocess(img.Pixels, width, height)
	if err != nil {
		return waste.Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	scores, err := e.model.Run(data, shape)
	if err != nil {
		return waste.Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	probs, err := probabilities(scores)
	if err != nil {
		return waste.Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	index, confidence := argmax(probs)
	elapsed := time.Since(start)
	metrics.InferenceDuration.Observe(elapsed.Seconds())

	result := waste.Result{
		Index:      index,
		Category:   waste.Map(index),
		Confidence: confidence,
		Elapsed:    elapsed,
	}
	if classes := e.model.Classes(); index < len(classes) {
		result.RawLabel = classes[index]
	}
	return result, nil
}
