package capture

import (
	"context"
	"errors"
	"image"
	"testing"

	"wastesort/internal/media"
)

type fakeStream struct {
	frame    image.Image
	frameErr error
	closed   int
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	if s.frameErr != nil {
		return nil, s.frameErr
	}
	return s.frame, nil
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

type fakeDevice struct {
	name    string
	facing  Facing
	stream  *fakeStream
	openErr error
	opens   int
}

func (d *fakeDevice) Name() string   { return d.name }
func (d *fakeDevice) Facing() Facing { return d.facing }

func (d *fakeDevice) Open(ctx context.Context) (Stream, error) {
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.stream, nil
}

func grayFrame() image.Image {
	return image.NewGray(image.Rect(0, 0, 4, 4))
}

func TestOpenPrefersEnvironmentFacing(t *testing.T) {
	front := &fakeDevice{name: "front", facing: FacingUser, stream: &fakeStream{frame: grayFrame()}}
	back := &fakeDevice{name: "back", facing: FacingEnvironment, stream: &fakeStream{frame: grayFrame()}}
	manager := NewManager([]Device{front, back}, FacingEnvironment)

	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if back.opens != 1 {
		t.Errorf("Expected the environment camera to open once, got %d", back.opens)
	}
	if front.opens != 0 {
		t.Errorf("Expected the user camera to stay closed, got %d opens", front.opens)
	}
	if !manager.Active() {
		t.Error("Expected an active session after Open")
	}
}

func TestOpenFallsBackToFirstDevice(t *testing.T) {
	front := &fakeDevice{name: "front", facing: FacingUser, stream: &fakeStream{frame: grayFrame()}}
	manager := NewManager([]Device{front}, FacingEnvironment)

	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if front.opens != 1 {
		t.Errorf("Expected the only camera to open once, got %d", front.opens)
	}
}

func TestOpenWithoutDevices(t *testing.T) {
	manager := NewManager(nil, FacingEnvironment)

	err := manager.Open(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Expected ErrDeviceUnavailable, got %v", err)
	}
	if manager.Active() {
		t.Error("Expected no active session after a failed Open")
	}
}

func TestOpenPermissionDenied(t *testing.T) {
	denied := &fakeDevice{name: "locked", facing: FacingEnvironment, openErr: ErrPermissionDenied}
	manager := NewManager([]Device{denied}, FacingEnvironment)

	err := manager.Open(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got %v", err)
	}
	if manager.Active() {
		t.Error("Expected no active session when permission is denied")
	}
}

func TestOpenReplacesExistingSession(t *testing.T) {
	first := &fakeStream{frame: grayFrame()}
	second := &fakeStream{frame: grayFrame()}
	device := &fakeDevice{name: "cam", facing: FacingEnvironment, stream: first}
	manager := NewManager([]Device{device}, FacingEnvironment)

	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("First Open failed: %v", err)
	}

	device.stream = second
	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("Second Open failed: %v", err)
	}

	if first.closed != 1 {
		t.Errorf("Expected the first stream to close once, got %d", first.closed)
	}
	if second.closed != 0 {
		t.Errorf("Expected the second stream to stay open, got %d closes", second.closed)
	}
	if !manager.Active() {
		t.Error("Expected an active session after reopening")
	}
}

func TestCaptureWithoutSession(t *testing.T) {
	manager := NewManager(nil, FacingEnvironment)

	_, err := manager.Capture(context.Background())
	if !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Expected ErrNoActiveSession, got %v", err)
	}
}

func TestCaptureClosesSession(t *testing.T) {
	stream := &fakeStream{frame: grayFrame()}
	device := &fakeDevice{name: "cam", facing: FacingEnvironment, stream: stream}
	manager := NewManager([]Device{device}, FacingEnvironment)

	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	img, err := manager.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if img.Source != media.SourceCamera {
		t.Errorf("Expected a camera-sourced image, got %s", img.Source)
	}
	if manager.Active() {
		t.Error("Expected the session to close after capture")
	}
	if stream.closed != 1 {
		t.Errorf("Expected the stream to close once, got %d", stream.closed)
	}

	if _, err := manager.Capture(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Expected ErrNoActiveSession after capture, got %v", err)
	}
}

func TestCaptureFrameErrorStillClosesSession(t *testing.T) {
	stream := &fakeStream{frameErr: ErrDeviceUnavailable}
	device := &fakeDevice{name: "cam", facing: FacingEnvironment, stream: stream}
	manager := NewManager([]Device{device}, FacingEnvironment)

	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, err := manager.Capture(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("Expected ErrDeviceUnavailable, got %v", err)
	}
	if manager.Active() {
		t.Error("Expected the session to close after a failed capture")
	}
	if stream.closed != 1 {
		t.Errorf("Expected the stream to close once, got %d", stream.closed)
	}
}

func TestCloseIdempotent(t *testing.T) {
	stream := &fakeStream{frame: grayFrame()}
	device := &fakeDevice{name: "cam", facing: FacingEnvironment, stream: stream}
	manager := NewManager([]Device{device}, FacingEnvironment)

	manager.Close()

	if err := manager.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	manager.Close()
	manager.Close()

	if stream.closed != 1 {
		t.Errorf("Expected the stream to close once, got %d", stream.closed)
	}
	if manager.Active() {
		t.Error("Expected no active session after Close")
	}
}
