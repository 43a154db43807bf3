//go:build gocv

package capture

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// WebcamDevice reads frames from a local camera through OpenCV.
type WebcamDevice struct {
	ID   int
	Face Facing
}

var _ Device = (*WebcamDevice)(nil)

func NewWebcamDevice(id int, facing Facing) *WebcamDevice {
	return &WebcamDevice{ID: id, Face: facing}
}

func (d *WebcamDevice) Name() string   { return fmt.Sprintf("webcam-%d", d.ID) }
func (d *WebcamDevice) Facing() Facing { return d.Face }

func (d *WebcamDevice) Open(ctx context.Context) (Stream, error) {
	vc, err := gocv.OpenVideoCapture(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", ErrDeviceUnavailable, d.ID)
	}
	return &webcamStream{vc: vc}, nil
}

type webcamStream struct {
	vc *gocv.VideoCapture
}

func (s *webcamStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		return nil, fmt.Errorf("%w: failed to read frame from device", ErrDeviceUnavailable)
	}

	frame, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return frame, nil
}

func (s *webcamStream) Close() error {
	return s.vc.Close()
}
