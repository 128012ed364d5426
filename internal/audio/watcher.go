package audio

import (
	"context"
	"time"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

// AccessState reports the tracked permission state and whether a call may be
// holding the device.
type AccessState func() (state domain.PermissionState, inCall bool)

// DeviceWatcher polls the microphone for consent changes made outside the app.
// The device is only test-acquired while the tracked state is denied and no
// call is in progress; while granted only the stored outcome is consulted.
type DeviceWatcher struct {
	mic      ports.MicrophoneAccess
	audio    ports.AudioConfig
	state    AccessState
	interval time.Duration
}

func NewDeviceWatcher(mic ports.MicrophoneAccess, audio ports.AudioConfig, state AccessState, interval time.Duration) *DeviceWatcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DeviceWatcher{mic: mic, audio: audio, state: state, interval: interval}
}

// Watch blocks until ctx is done.
func (w *DeviceWatcher) Watch(ctx context.Context, onChange func(domain.PermissionStatus)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if next, ok := w.observe(ctx); ok {
			onChange(next)
		}
	}
}

// observe reports a status only when it differs from the tracked state.
func (w *DeviceWatcher) observe(ctx context.Context) (domain.PermissionStatus, bool) {
	state, inCall := w.state()
	if inCall {
		return "", false
	}

	switch state {
	case domain.PermissionGranted:
		status, err := w.mic.Query(ctx)
		return status, err == nil && status == domain.PermissionStatusDenied
	case domain.PermissionDenied:
		if err := w.mic.TestAcquire(ctx, w.audio); err != nil {
			return "", false
		}
		return domain.PermissionStatusGranted, true
	default:
		return "", false
	}
}
