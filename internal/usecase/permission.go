package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

const (
	msgPreviouslyDenied = "Microphone access was previously denied. Allow microphone access for this application in your system privacy settings, then press Retry."
	msgDeniedChanged    = "Microphone access was denied."
)

// PermissionTracker owns the microphone permission state machine.
type PermissionTracker struct {
	mic    ports.MicrophoneAccess
	audio  ports.AudioConfig
	events ports.EventSink
	log    *slog.Logger

	mu   sync.Mutex
	snap domain.PermissionSnapshot
}

func NewPermissionTracker(mic ports.MicrophoneAccess, audio ports.AudioConfig, events ports.EventSink, log *slog.Logger) *PermissionTracker {
	if log == nil {
		log = slog.Default()
	}
	return &PermissionTracker{
		mic:    mic,
		audio:  audio,
		events: events,
		log:    log.With("component", "permission"),
		snap:   domain.PermissionSnapshot{State: domain.PermissionUnknown},
	}
}

// Initialize runs the capability checks and the non-prompting query.
func (p *PermissionTracker) Initialize(ctx context.Context) domain.PermissionSnapshot {
	p.set(domain.PermissionSnapshot{State: domain.PermissionChecking})

	if ok, reason := p.mic.Capabilities(ctx); !ok {
		p.log.Info("capture unavailable", "reason", reason)
		return p.set(domain.PermissionSnapshot{
			State:        domain.PermissionUnavailable,
			Reason:       reason,
			TextFallback: true,
			Checked:      true,
		})
	}

	status, err := p.mic.Query(ctx)
	if err != nil {
		p.log.Warn("permission query failed", "err", err)
		return p.set(domain.PermissionSnapshot{State: domain.PermissionUnknown, Checked: true})
	}

	switch status {
	case domain.PermissionStatusGranted:
		return p.set(domain.PermissionSnapshot{State: domain.PermissionGranted, Checked: true})
	case domain.PermissionStatusDenied:
		return p.set(domain.PermissionSnapshot{
			State:        domain.PermissionDenied,
			Reason:       msgPreviouslyDenied,
			TextFallback: true,
			Checked:      true,
		})
	default:
		return p.set(domain.PermissionSnapshot{State: domain.PermissionUnknown, Checked: true})
	}
}

// Retry clears the current state and re-runs the full check.
func (p *PermissionTracker) Retry(ctx context.Context) domain.PermissionSnapshot {
	p.set(domain.PermissionSnapshot{State: domain.PermissionUnknown})
	return p.Initialize(ctx)
}

// Request prompts for access with a test acquire-then-release. It does nothing
// when capture is unavailable or already granted.
func (p *PermissionTracker) Request(ctx context.Context) domain.PermissionSnapshot {
	current := p.Snapshot()
	if current.State == domain.PermissionUnavailable || current.State == domain.PermissionGranted {
		return current
	}

	p.set(domain.PermissionSnapshot{State: domain.PermissionRequesting, Checked: current.Checked})

	err := p.mic.TestAcquire(ctx, p.audio)
	if err == nil {
		return p.set(domain.PermissionSnapshot{State: domain.PermissionGranted, Checked: true})
	}

	kind := domain.PermissionErrUnknown
	detail := err.Error()
	var permErr *ports.PermissionError
	if errors.As(err, &permErr) {
		kind = permErr.Kind
		detail = permErr.Detail
	}
	p.log.Warn("microphone request failed", "kind", kind, "err", err)

	return p.set(domain.PermissionSnapshot{
		State:        domain.PermissionDenied,
		Reason:       kind.Remediation(detail),
		TextFallback: true,
		Checked:      true,
	})
}

// PermissionChanged applies an out-of-band consent change. Changes are
// ignored while capture is unavailable.
func (p *PermissionTracker) PermissionChanged(status domain.PermissionStatus) {
	p.mu.Lock()
	if p.snap.State == domain.PermissionUnavailable {
		p.mu.Unlock()
		return
	}
	var next domain.PermissionSnapshot
	switch status {
	case domain.PermissionStatusGranted:
		next = domain.PermissionSnapshot{State: domain.PermissionGranted, Checked: true}
	case domain.PermissionStatusDenied:
		next = domain.PermissionSnapshot{
			State:        domain.PermissionDenied,
			Reason:       msgDeniedChanged,
			TextFallback: true,
			Checked:      true,
		}
	default:
		p.mu.Unlock()
		return
	}
	if next.State == p.snap.State {
		p.mu.Unlock()
		return
	}
	p.snap = next
	p.mu.Unlock()

	p.events.PermissionChanged(next)
}

// Snapshot returns the current permission state.
func (p *PermissionTracker) Snapshot() domain.PermissionSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *PermissionTracker) set(next domain.PermissionSnapshot) domain.PermissionSnapshot {
	p.mu.Lock()
	p.snap = next
	p.mu.Unlock()

	p.events.PermissionChanged(next)
	return next
}
