package capture

import (
	"context"
	"errors"
	"image"
)

var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	ErrNoActiveSession   = errors.New("no active capture session")
)

// Facing describes which way a camera points.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Stream delivers frames from an open camera device.
type Stream interface {
	// Frame returns the next decoded frame from the device.
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Device is a camera that can be opened for a capture session.
type Device interface {
	Name() string
	Facing() Facing
	Open(ctx context.Context) (Stream, error)
}
