package capture

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// MJPEGDevice reads frames from an MJPEG-over-HTTP stream, the format
// served by IP cameras and phone camera apps.
type MJPEGDevice struct {
	URL    string
	Label  string
	Face   Facing
	Client *http.Client
}

var _ Device = (*MJPEGDevice)(nil)

func NewMJPEGDevice(url, label string, facing Facing) *MJPEGDevice {
	return &MJPEGDevice{URL: url, Label: label, Face: facing}
}

func (d *MJPEGDevice) Name() string   { return d.Label }
func (d *MJPEGDevice) Facing() Facing { return d.Face }

// Open connects to the stream and starts decoding frames in the
// background.
func (d *MJPEGDevice) Open(ctx context.Context) (Stream, error) {
	client := d.Client
	if client == nil {
		// No client timeout, the body stays open for the life of
		// the session.
		client = &http.Client{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: camera returned status %d", ErrPermissionDenied, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: camera returned status %d", ErrDeviceUnavailable, resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrDeviceUnavailable, resp.Header.Get("Content-Type"))
	}
	boundary := params["boundary"]
	if boundary == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: stream has no multipart boundary", ErrDeviceUnavailable)
	}

	s := &mjpegStream{
		body:   resp.Body,
		frames: make(chan image.Image, 1),
		done:   make(chan struct{}),
	}
	go s.readLoop(multipart.NewReader(resp.Body, boundary))
	return s, nil
}

type mjpegStream struct {
	body      io.ReadCloser
	frames    chan image.Image
	done      chan struct{}
	closeOnce sync.Once
}

// readLoop decodes JPEG parts as they arrive, keeping only the latest
// frame when the consumer falls behind.
func (s *mjpegStream) readLoop(reader *multipart.Reader) {
	for {
		part, err := reader.NextPart()
		if err != nil {
			s.shutdown()
			return
		}

		frame, err := jpeg.Decode(part)
		if err != nil {
			continue
		}

		select {
		case s.frames <- frame:
		default:
			select {
			case <-s.frames:
			default:
			}
			select {
			case s.frames <- frame:
			default:
			}
		}
	}
}

func (s *mjpegStream) Frame(ctx context.Context) (image.Image, error) {
	// A buffered frame is still valid after the stream ends.
	select {
	case frame := <-s.frames:
		return frame, nil
	default:
	}

	select {
	case frame := <-s.frames:
		return frame, nil
	case <-s.done:
		return nil, fmt.Errorf("%w: camera stream ended", ErrDeviceUnavailable)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *mjpegStream) Close() error {
	s.shutdown()
	return nil
}

func (s *mjpegStream) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.body.Close()
	})
}
