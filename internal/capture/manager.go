package capture

import (
	"context"
	"fmt"
	"log"
	"sync"

	"wastesort/internal/media"
)

// Manager owns the camera lifecycle. At most one capture session is
// open at a time; opening a new one closes the previous session first.
type Manager struct {
	mu      sync.Mutex
	devices []Device
	prefer  Facing
	device  Device
	stream  Stream
}

// NewManager creates a manager over the configured devices. The
// preferred facing decides which device a session opens when several
// are available, defaulting to the environment-facing camera.
func NewManager(devices []Device, prefer Facing) *Manager {
	if prefer == "" {
		prefer = FacingEnvironment
	}
	return &Manager{devices: devices, prefer: prefer}
}

// Open starts a capture session on the best matching device.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()

	device := m.pick()
	if device == nil {
		return fmt.Errorf("%w: no camera devices configured", ErrDeviceUnavailable)
	}

	stream, err := device.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open camera %s: %w", device.Name(), err)
	}

	m.device = device
	m.stream = stream
	log.Printf("[CAPTURE] Opened camera %s facing %s", device.Name(), device.Facing())
	return nil
}

func (m *Manager) pick() Device {
	for _, d := range m.devices {
		if d.Facing() == m.prefer {
			return d
		}
	}
	if len(m.devices) > 0 {
		return m.devices[0]
	}
	return nil
}

// Capture grabs a single frame and ends the session. The session is
// closed whether or not the frame was read successfully.
func (m *Manager) Capture(ctx context.Context) (*media.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil, ErrNoActiveSession
	}

	frame, err := m.stream.Frame(ctx)
	m.closeLocked()
	if err != nil {
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}

	return media.FromFrame(frame, media.SourceCamera), nil
}

// Close ends the current session. Closing with no session open is a
// no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.stream == nil {
		return
	}
	if err := m.stream.Close(); err != nil {
		log.Printf("[CAPTURE] Failed to close camera %s: %v", m.device.Name(), err)
	}
	m.device = nil
	m.stream = nil
}

// Active reports whether a capture session is currently open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream != nil
}
