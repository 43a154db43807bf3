package model

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultMaxAttempts  = 20
	defaultInputSize    = 224
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

var (
	ErrDependencyUnavailable = errors.New("onnx runtime unavailable")
	ErrModelLoad             = errors.New("model load failed")
)

type Config struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string
	PollInterval time.Duration
	MaxAttempts  int
	Notify       func(Status, error)
}

// Handle is the process-wide reference to the inference model. The
// composition root creates it once and passes it by reference; it loads
// exactly once and transitions Loading→Ready or Loading→Failed, never
// again afterward.
type Handle struct {
	cfg Config

	locate func(string) (string, error)
	init   func(string) error

	mu         sync.RWMutex
	status     Status
	loadErr    error
	meta       Metadata
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string

	done chan struct{}
}

func New(cfg Config) *Handle {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	h := &Handle{
		cfg:    cfg,
		status: StatusLoading,
		meta:   Metadata{InputWidth: defaultInputSize, InputHeight: defaultInputSize},
		done:   make(chan struct{}),
	}
	h.locate = locateRuntime
	h.init = h.initSession

	h.notify(StatusLoading, nil)
	return h
}

// Load acquires the model: a bounded poll for the runtime library followed
// by one session initialization. Call it exactly once, typically on its own
// goroutine; observers follow Status, WaitReady and the Notify callback.
func (h *Handle) Load(ctx context.Context) error {
	libPath, err := h.waitForRuntime(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		h.fail(err)
		return err
	}

	log.Printf("[MODEL] Runtime library found at %s", libPath)

	if err := h.init(libPath); err != nil {
		err = fmt.Errorf("%w: %v", ErrModelLoad, err)
		h.fail(err)
		return err
	}

	h.transition(StatusReady, nil)
	log.Printf("[MODEL] Model ready: %s", h.cfg.ModelPath)
	return nil
}

func (h *Handle) waitForRuntime(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= h.cfg.MaxAttempts; attempt++ {
		path, err := h.locate(h.cfg.LibraryPath)
		if err == nil {
			return path, nil
		}
		lastErr = err

		if attempt == h.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(h.cfg.PollInterval):
		}
	}
	return "", fmt.Errorf("gave up after %d attempts: %v", h.cfg.MaxAttempts, lastErr)
}

func (h *Handle) initSession(libPath string) error {
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize onnx runtime: %w", err)
		}
	}

	meta := Metadata{InputWidth: defaultInputSize, InputHeight: defaultInputSize}
	if h.cfg.MetadataPath != "" {
		loaded, err := loadMetadata(h.cfg.MetadataPath)
		if err != nil {
			return err
		}
		meta = loaded
	}

	if _, err := os.Stat(h.cfg.ModelPath); err != nil {
		return fmt.Errorf("model asset: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(h.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to read model io: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("expected a single input and output, got %d/%d", len(inputs), len(outputs))
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(h.cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	h.mu.Lock()
	h.meta = meta
	h.session = session
	h.inputName = inputs[0].Name
	h.outputName = outputs[0].Name
	h.mu.Unlock()
	return nil
}

func (h *Handle) fail(err error) {
	log.Printf("[MODEL] Load failed: %v", err)
	h.transition(StatusFailed, err)
}

func (h *Handle) transition(status Status, err error) {
	h.mu.Lock()
	h.status = status
	h.loadErr = err
	h.mu.Unlock()
	close(h.done)
	h.notify(status, err)
}

func (h *Handle) notify(status Status, err error) {
	if h.cfg.Notify != nil {
		h.cfg.Notify(status, err)
	}
}

func (h *Handle) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *Handle) LoadErr() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadErr
}

func (h *Handle) Metadata() Metadata {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.meta
}

func (h *Handle) InputSize() (int, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.meta.InputWidth, h.meta.InputHeight
}

func (h *Handle) Classes() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.meta.Classes
}

// WaitReady blocks until the load reaches a terminal state or ctx expires.
// It returns the load error when the terminal state is Failed.
func (h *Handle) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.status != StatusReady {
		return h.loadErr
	}
	return nil
}

// Run executes one forward pass over an already-preprocessed input. Every
// tensor allocated here is destroyed before returning, on success and
// failure alike.
func (h *Handle) Run(data []float32, shape []int64) ([]float32, error) {
	h.mu.RLock()
	session := h.session
	status := h.status
	h.mu.RUnlock()

	if status != StatusReady || session == nil {
		return nil, fmt.Errorf("model status is %s", status)
	}

	input, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("forward pass failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}

	scores := make([]float32, len(tensor.GetData()))
	copy(scores, tensor.GetData())
	return scores, nil
}

func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session != nil {
		if err := h.session.Destroy(); err != nil {
			log.Printf("[MODEL] Error destroying session: %v", err)
		}
		h.session = nil
	}
}
