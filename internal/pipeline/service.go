package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"wastesort/internal/capture"
	"wastesort/internal/inference"
	"wastesort/internal/media"
	"wastesort/internal/metrics"
	"wastesort/internal/model"
	"wastesort/internal/waste"
)

// State is the classification pipeline state.
type State string

const (
	StateIdle                 State = "idle"
	StateImageReady           State = "image_ready"
	StateClassifying          State = "classifying"
	StateClassified           State = "classified"
	StateClassificationFailed State = "classification_failed"
)

// ErrNoImage is returned when classification is requested before any
// image has been provided.
var ErrNoImage = errors.New("no image to classify")

// Classifier runs a forward pass over one image.
type Classifier interface {
	Classify(ctx context.Context, img *media.Image) (waste.Result, error)
}

// ModelState reports the loader status for snapshots.
type ModelState interface {
	Status() model.Status
	LoadErr() error
}

var (
	_ Classifier = (*inference.Engine)(nil)
	_ ModelState = (*model.Handle)(nil)
)

// Service drives the classification pipeline. It tracks the current
// image and result, runs inference, owns the camera session, and
// publishes presentation events through the hub.
type Service struct {
	mu     sync.Mutex
	state  State
	image  *media.Image
	result *waste.Result

	model  ModelState
	engine Classifier
	camera *capture.Manager
	hub    *Hub
}

func NewService(m ModelState, engine Classifier, camera *capture.Manager, hub *Hub) *Service {
	return &Service{
		state:  StateIdle,
		model:  m,
		engine: engine,
		camera: camera,
		hub:    hub,
	}
}

// IngestFile decodes an uploaded image and makes it current. A decode
// failure leaves the pipeline untouched.
func (s *Service) IngestFile(ctx context.Context, data []byte) (*media.Image, error) {
	img, err := media.FromBytes(data, media.SourceFile)
	if err != nil {
		return nil, err
	}
	s.install(img)
	return img, nil
}

// install makes img the current image. Any previous result is cleared
// and an open capture session is closed.
func (s *Service) install(img *media.Image) {
	if s.camera != nil {
		s.camera.Close()
	}

	s.mu.Lock()
	s.image = img
	s.result = nil
	s.state = StateImageReady
	s.mu.Unlock()

	log.Printf("[PIPELINE] New %s image %s (%dx%d)", img.Source, img.ID, img.Width, img.Height)
	metrics.ImagesIngested.WithLabelValues(string(img.Source)).Inc()
	s.hub.Publish(Event{Type: EventImageChanged, Data: NewImageInfo(img)})
}

// OpenCamera starts a capture session on the configured camera.
func (s *Service) OpenCamera(ctx context.Context) error {
	if s.camera == nil {
		return fmt.Errorf("%w: no camera configured", capture.ErrDeviceUnavailable)
	}

	// The session must outlive the request that opened it.
	if err := s.camera.Open(context.WithoutCancel(ctx)); err != nil {
		s.publishCameraError(err)
		return err
	}
	return nil
}

// CaptureFrame grabs one frame from the active session and makes it
// the current image. The session ends once the frame is taken.
func (s *Service) CaptureFrame(ctx context.Context) (*media.Image, error) {
	if s.camera == nil {
		return nil, fmt.Errorf("%w: no camera configured", capture.ErrDeviceUnavailable)
	}

	img, err := s.camera.Capture(ctx)
	if err != nil {
		if !errors.Is(err, capture.ErrNoActiveSession) {
			s.publishCameraError(err)
		}
		return nil, err
	}

	s.install(img)
	return img, nil
}

// CloseCamera ends the capture session if one is open.
func (s *Service) CloseCamera() {
	if s.camera != nil {
		s.camera.Close()
	}
}

// CameraActive reports whether a capture session is open.
func (s *Service) CameraActive() bool {
	return s.camera != nil && s.camera.Active()
}

func (s *Service) publishCameraError(err error) {
	metrics.CameraErrors.Inc()
	s.hub.Publish(Event{Type: EventCameraError, Data: ErrorInfo{Message: err.Error()}})
}

// Classify runs the model over the current image. Only one
// classification runs at a time; a result for an image that was
// replaced mid-run is discarded.
func (s *Service) Classify(ctx context.Context) (waste.Result, error) {
	s.mu.Lock()
	if s.image == nil {
		s.mu.Unlock()
		return waste.Result{}, ErrNoImage
	}
	if s.state == StateClassifying {
		s.mu.Unlock()
		return waste.Result{}, inference.ErrBusy
	}
	img := s.image
	s.state = StateClassifying
	s.mu.Unlock()

	s.hub.Publish(Event{Type: EventClassificationStarted, Data: NewImageInfo(img)})

	result, err := s.engine.Classify(ctx, img)

	s.mu.Lock()
	stale := s.image != img
	if !stale {
		if err != nil {
			s.state = StateClassificationFailed
		} else {
			s.result = &result
			s.state = StateClassified
		}
	}
	s.mu.Unlock()

	if stale {
		log.Printf("[PIPELINE] Discarded a stale classification for image %s", img.ID)
		if err != nil {
			return waste.Result{}, err
		}
		return result, nil
	}

	if err != nil {
		metrics.ClassificationFailures.WithLabelValues(failureReason(err)).Inc()
		s.hub.Publish(Event{Type: EventClassificationFailed, Data: ErrorInfo{Message: err.Error()}})
		return waste.Result{}, err
	}

	log.Printf("[PIPELINE] Classified image %s as %s (confidence %.2f)", img.ID, result.Category.ID, result.Confidence)
	metrics.ClassificationsTotal.WithLabelValues(result.Category.ID).Inc()
	s.hub.Publish(Event{Type: EventClassificationCompleted, Data: result})
	return result, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, inference.ErrModelNotReady):
		return "model_not_ready"
	case errors.Is(err, inference.ErrInference):
		return "inference"
	default:
		return "other"
	}
}

// Snapshot is a point-in-time view of the pipeline for the status
// endpoint and for newly connected event subscribers.
type Snapshot struct {
	State       State         `json:"state"`
	ModelStatus model.Status  `json:"model_status"`
	ModelError  string        `json:"model_error,omitempty"`
	Image       *ImageInfo    `json:"image,omitempty"`
	Result      *waste.Result `json:"result,omitempty"`
	CameraOpen  bool          `json:"camera_open"`
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.state,
		ModelStatus: s.model.Status(),
		CameraOpen:  s.camera != nil && s.camera.Active(),
	}
	if err := s.model.LoadErr(); err != nil {
		snap.ModelError = err.Error()
	}
	if s.image != nil {
		snap.Image = NewImageInfo(s.image)
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}
