package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/logging"
	"ruralhealth/internal/ports"
)

type fakeMic struct {
	mu       sync.Mutex
	capable  bool
	reason   string
	status   domain.PermissionStatus
	queryErr error
	acquire  error
	acquires int
	queries  int
}

func (p *fakeMic) Capabilities(context.Context) (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capable, p.reason
}

func (p *fakeMic) Query(context.Context) (domain.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries++
	return p.status, p.queryErr
}

func (p *fakeMic) TestAcquire(context.Context, ports.AudioConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquires++
	return p.acquire
}

func (p *fakeMic) set(fn func(*fakeMic)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakeMic) acquireCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires
}

type fakeSession struct {
	reader *io.PipeReader
	writer *io.PipeWriter

	mu      sync.Mutex
	stopped bool
}

func newFakeSession() *fakeSession {
	r, w := io.Pipe()
	return &fakeSession{reader: r, writer: w}
}

func (s *fakeSession) Read(p []byte) (int, error) { return s.reader.Read(p) }

func (s *fakeSession) Close() error { return s.Stop() }

func (s *fakeSession) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.writer.Close()
}

func (s *fakeSession) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakeCapture struct {
	mu       sync.Mutex
	err      error
	starts   int
	sessions []*fakeSession
}

func (c *fakeCapture) Start(context.Context, ports.AudioConfig) (ports.AudioSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.err != nil {
		return nil, c.err
	}
	session := newFakeSession()
	c.sessions = append(c.sessions, session)
	return session, nil
}

func (c *fakeCapture) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

func (c *fakeCapture) last() *fakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) == 0 {
		return nil
	}
	return c.sessions[len(c.sessions)-1]
}

type fakePackager struct{}

func (fakePackager) Package(pcm []byte, seq int) ports.AudioClip {
	return ports.AudioClip{Data: pcm, MimeType: "audio/wav", Filename: fmt.Sprintf("segment-%d.wav", seq)}
}

type fakeTranscriber struct {
	mu      sync.Mutex
	calls   []string
	handler func(ctx context.Context, clip ports.AudioClip) (ports.Transcription, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, clip ports.AudioClip) (ports.Transcription, error) {
	f.mu.Lock()
	f.calls = append(f.calls, clip.Filename)
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		return ports.Transcription{Text: "spoken " + clip.Filename, Confidence: 0.93}, nil
	}
	return handler(ctx, clip)
}

func (f *fakeTranscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAssistant struct {
	mu       sync.Mutex
	requests []domain.ChatRequest
	handler  func(ctx context.Context, req domain.ChatRequest) (ports.AssistantReply, error)
}

func (f *fakeAssistant) Chat(ctx context.Context, req domain.ChatRequest) (ports.AssistantReply, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		return handler(ctx, req)
	}
	if req.UserContext.Role == summaryUserRole {
		return ports.AssistantReply{Text: "Headache for two days. Rest advised."}, nil
	}
	return ports.AssistantReply{Text: "Please rest and drink water."}, nil
}

func (f *fakeAssistant) snapshot() []domain.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChatRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *fakeAssistant) turns() int {
	n := 0
	for _, req := range f.snapshot() {
		if req.UserContext.Role != summaryUserRole {
			n++
		}
	}
	return n
}

type fakeSpeaker struct {
	mu    sync.Mutex
	texts []string
	rates []float64
}

func (s *fakeSpeaker) Speak(_ context.Context, text string, rate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	s.rates = append(s.rates, rate)
	return nil
}

func (s *fakeSpeaker) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

type fakeRules struct{}

func (fakeRules) Apply(text string) (string, error) {
	return strings.ReplaceAll(text, "b p", "BP"), nil
}

type stateChange struct {
	status domain.CallStatus
	reason domain.CallStateReason
}

type recordingEvents struct {
	mu          sync.Mutex
	navigations []domain.AppSession
	states      []stateChange
	permissions []domain.PermissionSnapshot
	segments    []domain.TranscriptionSegment
	ticks       []int
	chats       [][]domain.ChatMessage
	connections []domain.ConnectionState
	languages   []string
	errors      []domain.ErrorCode
}

func (e *recordingEvents) NavigationChanged(session domain.AppSession) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.navigations = append(e.navigations, session)
}

func (e *recordingEvents) CallStateChanged(status domain.CallStatus, reason domain.CallStateReason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, stateChange{status: status, reason: reason})
}

func (e *recordingEvents) PermissionChanged(snapshot domain.PermissionSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.permissions = append(e.permissions, snapshot)
}

func (e *recordingEvents) SegmentAppended(_ string, segment domain.TranscriptionSegment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.segments = append(e.segments, segment)
}

func (e *recordingEvents) DurationTick(_ string, seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks = append(e.ticks, seconds)
}

func (e *recordingEvents) ChatChanged(state domain.ConnectionState, messages []domain.ChatMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connections = append(e.connections, state)
	e.chats = append(e.chats, messages)
}

func (e *recordingEvents) LanguageChanged(code string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.languages = append(e.languages, code)
}

func (e *recordingEvents) SessionError(code domain.ErrorCode, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors = append(e.errors, code)
}

func (e *recordingEvents) segmentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.segments)
}

func (e *recordingEvents) hasReason(reason domain.CallStateReason) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, change := range e.states {
		if change.reason == reason {
			return true
		}
	}
	return false
}

func (e *recordingEvents) hasError(code domain.ErrorCode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, got := range e.errors {
		if got == code {
			return true
		}
	}
	return false
}

func (e *recordingEvents) lastPermission() domain.PermissionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.permissions) == 0 {
		return domain.PermissionSnapshot{}
	}
	return e.permissions[len(e.permissions)-1]
}

type harness struct {
	manager     *ConsultationManager
	permission  *PermissionTracker
	mic         *fakeMic
	capture     *fakeCapture
	transcriber *fakeTranscriber
	assistant   *fakeAssistant
	speaker     *fakeSpeaker
	events      *recordingEvents
}

// testAudio makes one segment 16 bytes long with an 8 byte minimum tail.
var testAudio = ports.AudioConfig{SampleRate: 8, Channels: 1}

func newHarness(t *testing.T, mic *fakeMic, mutate func(*Config)) *harness {
	t.Helper()

	h := &harness{
		mic:         mic,
		capture:     &fakeCapture{},
		transcriber: &fakeTranscriber{},
		assistant:   &fakeAssistant{},
		speaker:     &fakeSpeaker{},
		events:      &recordingEvents{},
	}
	cfg := Config{
		Audio:           testAudio,
		SegmentSeconds:  1,
		TickInterval:    time.Hour,
		ContextSegments: 4,
		OrderBySequence: true,
		SpeechRate:      0.9,
		Chat:            CallPolicy{Timeout: time.Second},
		Transcription:   CallPolicy{Timeout: time.Second},
		Summary:         CallPolicy{Timeout: time.Second},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h.permission = NewPermissionTracker(mic, testAudio, h.events, logging.Discard())
	h.manager = NewConsultationManager(
		h.capture,
		fakePackager{},
		h.transcriber,
		h.assistant,
		h.speaker,
		fakeRules{},
		h.permission,
		h.events,
		logging.Discard(),
		cfg,
	)
	t.Cleanup(h.manager.Discard)
	return h
}

func grantedMic() *fakeMic {
	return &fakeMic{capable: true, status: domain.PermissionStatusGranted}
}

// waitSummary blocks until the ended call has finished its closing work.
func (h *harness) waitSummary(t *testing.T) {
	t.Helper()

	h.manager.mu.Lock()
	call := h.manager.current
	h.manager.mu.Unlock()
	if call == nil {
		t.Fatalf("no call to wait for")
	}
	select {
	case <-call.summaryDone:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for summary")
	}
}

func (h *harness) transcript() []domain.TranscriptionSegment {
	session, _ := h.manager.Session()
	return session.Transcription
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
