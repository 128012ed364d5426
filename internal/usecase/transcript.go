package usecase

import (
	"sync"

	"ruralhealth/internal/domain"
)

// released is a human voice segment that made it into the transcript, with
// the context that preceded it.
type released struct {
	segment domain.TranscriptionSegment
	history []domain.TranscriptionSegment
}

// transcript is the append-only segment log of one consultation. Voice
// segments can be held back and released in capture order.
type transcript struct {
	mu       sync.Mutex
	segments []domain.TranscriptionSegment
	sealed   bool
	onAppend func(domain.TranscriptionSegment)

	ordered     bool
	contextSize int
	next        int
	pending     map[int]*domain.TranscriptionSegment
	resolved    map[int]bool
}

func newTranscript(ordered bool, contextSize int, onAppend func(domain.TranscriptionSegment)) *transcript {
	if onAppend == nil {
		onAppend = func(domain.TranscriptionSegment) {}
	}
	return &transcript{
		ordered:     ordered,
		contextSize: contextSize,
		onAppend:    onAppend,
		pending:     map[int]*domain.TranscriptionSegment{},
		resolved:    map[int]bool{},
	}
}

// append adds a segment immediately. It returns the segments that preceded
// it, bounded by the context size, and false once the transcript is sealed.
func (t *transcript) append(segment domain.TranscriptionSegment) ([]domain.TranscriptionSegment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return nil, false
	}
	return t.appendLocked(segment), true
}

func (t *transcript) appendLocked(segment domain.TranscriptionSegment) []domain.TranscriptionSegment {
	history := t.tailLocked(t.contextSize)
	t.segments = append(t.segments, segment)
	t.onAppend(segment)
	return history
}

// resolve records the outcome of voice segment seq; nil means nothing is
// appended for it. Without ordering the segment is appended on arrival.
func (t *transcript) resolve(seq int, segment *domain.TranscriptionSegment) []released {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return nil
	}

	if !t.ordered {
		if segment == nil {
			return nil
		}
		history := t.appendLocked(*segment)
		return []released{{segment: *segment, history: history}}
	}

	t.resolved[seq] = true
	t.pending[seq] = segment

	var out []released
	for t.resolved[t.next] {
		ready := t.pending[t.next]
		delete(t.pending, t.next)
		delete(t.resolved, t.next)
		t.next++
		if ready == nil {
			continue
		}
		history := t.appendLocked(*ready)
		out = append(out, released{segment: *ready, history: history})
	}
	return out
}

// seal rejects all later appends.
func (t *transcript) seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
	t.pending = map[int]*domain.TranscriptionSegment{}
	t.resolved = map[int]bool{}
}

func (t *transcript) snapshot() []domain.TranscriptionSegment {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.TranscriptionSegment, len(t.segments))
	copy(out, t.segments)
	return out
}

func (t *transcript) tailLocked(n int) []domain.TranscriptionSegment {
	if n <= 0 || len(t.segments) == 0 {
		return nil
	}
	start := len(t.segments) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.TranscriptionSegment, len(t.segments)-start)
	copy(out, t.segments[start:])
	return out
}
