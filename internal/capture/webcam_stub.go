//go:build !gocv

package capture

import (
	"context"
	"fmt"
)

// WebcamDevice is the local camera backend. Builds without the gocv
// tag stub it out so the server runs without OpenCV installed.
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
	return nil, fmt.Errorf("%w: webcam support requires the gocv build tag", ErrDeviceUnavailable)
}
