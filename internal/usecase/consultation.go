package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

var (
	ErrNoActiveCall   = errors.New("no active consultation")
	ErrCallInProgress = errors.New("a consultation is already in progress")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrNoTranscript   = errors.New("no consultation transcript")
)

const (
	defaultConfidence = 0.8

	msgCaptureFailed   = "Unable to start voice recording. Using text-only mode."
	msgRecordingFailed = "Recording error occurred. Continuing with text input only."
	msgTranscribeDown  = "Transcription unavailable. You can keep typing your messages."
	msgConsultationEnd = "Consultation ended. Generating summary..."
)

// Config controls consultation behaviour.
type Config struct {
	Audio                      ports.AudioConfig
	SegmentSeconds             int
	TickInterval               time.Duration
	ContextSegments            int
	OrderBySequence            bool
	SurfaceTranscriptionErrors bool
	SpeechRate                 float64
	ChunkSize                  int
	Chat                       CallPolicy
	Transcription              CallPolicy
	Summary                    CallPolicy
}

// ConsultationManager runs one voice consultation at a time: permission
// gating, segmented capture, transcription, AI turns and the closing summary.
type ConsultationManager struct {
	capture     ports.AudioCapture
	packager    ports.SegmentPackager
	transcriber ports.Transcriber
	assistant   ports.Assistant
	speaker     ports.Speaker
	rules       ports.RulesEngine
	permission  *PermissionTracker
	events      ports.EventSink
	summarizer  summarizer
	log         *slog.Logger
	cfg         Config

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	current *activeCall
}

func NewConsultationManager(
	capture ports.AudioCapture,
	packager ports.SegmentPackager,
	transcriber ports.Transcriber,
	assistant ports.Assistant,
	speaker ports.Speaker,
	rules ports.RulesEngine,
	permission *PermissionTracker,
	events ports.EventSink,
	log *slog.Logger,
	cfg Config,
) *ConsultationManager {
	if cfg.SegmentSeconds <= 0 {
		cfg.SegmentSeconds = 3
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.ContextSegments <= 0 {
		cfg.ContextSegments = 4
	}
	if cfg.SpeechRate <= 0 {
		cfg.SpeechRate = 0.9
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &ConsultationManager{
		capture:     capture,
		packager:    packager,
		transcriber: transcriber,
		assistant:   assistant,
		speaker:     speaker,
		rules:       rules,
		permission:  permission,
		events:      events,
		summarizer:  newSummarizer(assistant, cfg.Summary),
		log:         log.With("component", "consultation"),
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// StartCall begins a consultation. It never fails because of audio: without
// a granted, openable microphone the call runs in text-only mode.
func (c *ConsultationManager) StartCall(ctx context.Context, req CallRequest) (domain.CallStatus, error) {
	if req.Type != domain.ConsultationPatient && req.Type != domain.ConsultationDoctor {
		req.Type = domain.ConsultationPatient
	}

	c.mu.Lock()
	if c.current != nil && c.current.active() {
		c.mu.Unlock()
		return c.Status(), ErrCallInProgress
	}
	previous := c.current
	c.current = nil
	c.mu.Unlock()

	if previous != nil {
		c.teardown(previous)
	}

	perm := c.permission.Snapshot()
	if perm.State != domain.PermissionGranted && perm.State != domain.PermissionUnavailable {
		perm = c.permission.Request(ctx)
	}

	callCtx, cancel := context.WithCancel(ctx)
	call := newActiveCall(callCtx, cancel, c.newID(), req, c.now())
	call.transcript = newTranscript(c.cfg.OrderBySequence, c.cfg.ContextSegments, func(seg domain.TranscriptionSegment) {
		c.events.SegmentAppended(call.id, seg)
	})

	var audio ports.AudioSession
	reason := domain.CallReasonTextOnlyStarted
	if perm.State == domain.PermissionGranted {
		captureCtx, captureCancel := context.WithCancel(callCtx)
		session, err := c.capture.Start(captureCtx, c.cfg.Audio)
		if err != nil {
			captureCancel()
			c.log.Warn("capture start failed", "err", err)
			call.message = msgCaptureFailed
			reason = domain.CallReasonCaptureFailed
		} else {
			audio = session
			call.captureCancel = captureCancel
			reason = domain.CallReasonVoiceStarted
		}
	} else {
		call.message = perm.Reason
	}

	if audio != nil {
		call.state = domain.CallStateVoice
		call.audio = audio
		call.recording = true
		call.captureDone = make(chan struct{})
	} else {
		call.state = domain.CallStateTextOnly
	}

	call.transcript.append(c.segment(domain.SpeakerAI, welcomeMessage(req.Type, audio != nil), nil))

	c.mu.Lock()
	c.current = call
	c.mu.Unlock()

	go c.tick(call)
	if audio != nil {
		go c.runCapture(call, audio)
	}

	c.log.Info("consultation started", "id", call.id, "type", req.Type, "state", call.state)
	status := c.Status()
	c.events.CallStateChanged(status, reason)
	return status, nil
}

func welcomeMessage(kind domain.ConsultationType, voice bool) string {
	if voice {
		if kind == domain.ConsultationPatient {
			return "Voice consultation started with AI transcription. You can speak or type your messages. Please describe your health concerns."
		}
		return "Voice consultation started with AI transcription. You can speak or type your messages. Begin your patient consultation."
	}
	if kind == domain.ConsultationPatient {
		return "Text consultation started with AI assistant. Please describe your health concerns using the text input below."
	}
	return "Text consultation started with AI assistant. Begin your patient consultation using text input."
}

// SendText appends a typed utterance and, for patient sessions, requests an
// AI reply.
func (c *ConsultationManager) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	call := c.current
	if call == nil || !call.active() {
		c.mu.Unlock()
		return ErrNoActiveCall
	}
	history, ok := call.transcript.append(c.segment(call.req.Type.HumanSpeaker(), text, nil))
	wantsReply := ok && call.req.Type == domain.ConsultationPatient
	if wantsReply {
		call.inflight.Add(1)
	}
	c.mu.Unlock()

	if wantsReply {
		go c.runAITurn(call, text, history)
	}
	return nil
}

// EndCall stops the timer and releases the microphone, then returns. The
// summary is appended later as the final segment.
func (c *ConsultationManager) EndCall() (domain.CallStatus, error) {
	c.mu.Lock()
	call := c.current
	if call == nil || !call.active() {
		c.mu.Unlock()
		return c.Status(), ErrNoActiveCall
	}
	call.state = domain.CallStateEnded
	call.recording = false
	audio := call.audio
	c.mu.Unlock()

	call.haltTicker()
	if err := call.releaseDevice(audio); err != nil {
		c.events.SessionError(domain.ErrorCodeAudioStream, "failed to stop audio capture cleanly")
	}

	end := c.segment(domain.SpeakerAI, msgConsultationEnd, nil)
	c.mu.Lock()
	call.endSegmentID = end.ID
	c.mu.Unlock()
	call.transcript.append(end)

	go c.finish(call)

	c.log.Info("consultation ended", "id", call.id)
	status := c.Status()
	c.events.CallStateChanged(status, domain.CallReasonEnded)
	return status, nil
}

// finish waits for outstanding capture and turns, then appends the summary.
func (c *ConsultationManager) finish(call *activeCall) {
	defer call.cancel()
	defer close(call.summaryDone)

	<-call.captureDone
	call.inflight.Wait()

	c.mu.Lock()
	endID := call.endSegmentID
	c.mu.Unlock()
	segments := lo.Filter(call.transcript.snapshot(), func(seg domain.TranscriptionSegment, _ int) bool {
		return seg.ID != endID
	})

	text, err := c.summarizer.Summarize(call.ctx, segments)
	if err != nil {
		c.log.Warn("summary failed", "id", call.id, "err", err)
		call.transcript.seal()
		c.emitIfCurrent(call, domain.CallReasonSummaryFailed)
		return
	}

	if _, ok := call.transcript.append(c.segment(domain.SpeakerAI, summaryPrefix+text, nil)); !ok {
		return
	}
	call.transcript.seal()

	c.mu.Lock()
	call.summary = text
	c.mu.Unlock()
	c.emitIfCurrent(call, domain.CallReasonSummaryReady)
}

// Discard drops the consultation; results still in flight are ignored.
func (c *ConsultationManager) Discard() {
	c.mu.Lock()
	call := c.current
	c.current = nil
	c.mu.Unlock()

	if call == nil {
		return
	}
	c.teardown(call)
	c.events.CallStateChanged(c.Status(), domain.CallReasonReady)
}

func (c *ConsultationManager) teardown(call *activeCall) {
	call.transcript.seal()
	call.haltTicker()

	c.mu.Lock()
	call.state = domain.CallStateEnded
	call.recording = false
	audio := call.audio
	c.mu.Unlock()

	_ = call.releaseDevice(audio)
	call.cancel()
}

// SetMuted toggles the microphone mute. Segments captured while muted are
// dropped and replies are not spoken.
func (c *ConsultationManager) SetMuted(muted bool) (domain.CallStatus, error) {
	return c.toggle(func(call *activeCall) { call.muted = muted })
}

// SetSpeaker toggles spoken AI replies.
func (c *ConsultationManager) SetSpeaker(on bool) (domain.CallStatus, error) {
	return c.toggle(func(call *activeCall) { call.speakerOn = on })
}

func (c *ConsultationManager) toggle(fn func(*activeCall)) (domain.CallStatus, error) {
	c.mu.Lock()
	call := c.current
	if call == nil || !call.active() {
		c.mu.Unlock()
		return c.Status(), ErrNoActiveCall
	}
	fn(call)
	reason := domain.CallReasonVoiceStarted
	if call.state == domain.CallStateTextOnly {
		reason = domain.CallReasonTextOnlyStarted
	}
	c.mu.Unlock()

	status := c.Status()
	c.events.CallStateChanged(status, reason)
	return status, nil
}

// Status returns the current call status.
func (c *ConsultationManager) Status() domain.CallStatus {
	perm := c.permission.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.CallStatus{
			State:        domain.CallStateIdle,
			SpeakerOn:    true,
			TextFallback: perm.TextFallback,
			Permission:   perm.State,
			Message:      perm.Reason,
		}
	}
	call := c.current
	return domain.CallStatus{
		State:        call.state,
		InCall:       call.active(),
		Recording:    call.recording,
		Transcribing: call.transcribing.Load() > 0,
		Muted:        call.muted,
		SpeakerOn:    call.speakerOn,
		TextFallback: true,
		Duration:     call.duration,
		Permission:   perm.State,
		Message:      call.message,
	}
}

// Session returns a snapshot of the current consultation.
func (c *ConsultationManager) Session() (domain.ConsultationSession, bool) {
	c.mu.Lock()
	call := c.current
	if call == nil {
		c.mu.Unlock()
		return domain.ConsultationSession{}, false
	}
	session := domain.ConsultationSession{
		ID:        call.id,
		Type:      call.req.Type,
		StartTime: call.startTime,
		Duration:  call.duration,
		Summary:   call.summary,
	}
	c.mu.Unlock()

	session.Transcription = call.transcript.snapshot()
	return session, true
}

// DownloadTranscript renders the transcript as plain text.
func (c *ConsultationManager) DownloadTranscript() (string, []byte, error) {
	session, ok := c.Session()
	if !ok || len(session.Transcription) == 0 {
		return "", nil, ErrNoTranscript
	}

	blocks := lo.Map(session.Transcription, func(seg domain.TranscriptionSegment, _ int) string {
		return fmt.Sprintf("[%s] %s: %s", seg.Timestamp.Format("15:04:05"), strings.ToUpper(string(seg.Speaker)), seg.Text)
	})
	filename := fmt.Sprintf("consultation-transcript-%s.txt", c.now().Format("2006-01-02"))
	return filename, []byte(strings.Join(blocks, "\n\n")), nil
}

func (c *ConsultationManager) tick(call *activeCall) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-call.tickerStop:
			return
		case <-call.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if !call.active() {
				c.mu.Unlock()
				return
			}
			call.duration++
			seconds := call.duration
			c.mu.Unlock()
			c.events.DurationTick(call.id, seconds)
		}
	}
}

func (c *ConsultationManager) runCapture(call *activeCall, audio ports.AudioSession) {
	defer close(call.captureDone)

	segmentBytes, minTail := segmentSizes(c.cfg.Audio.SampleRate, c.cfg.Audio.Channels, c.cfg.SegmentSeconds)
	seg := segmenter{
		segmentBytes: segmentBytes,
		minTailBytes: minTail,
		chunkSize:    c.cfg.ChunkSize,
		now:          c.now,
		muted: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			return call.muted
		},
	}

	err := seg.pumpSegments(audio, func(s capturedSegment) { c.dispatchSegment(call, s) })

	c.mu.Lock()
	stillRecording := call.active() && call.recording
	if stillRecording {
		call.recording = false
		call.state = domain.CallStateTextOnly
		call.message = msgRecordingFailed
	}
	c.mu.Unlock()

	if !stillRecording {
		return
	}
	// Capture died on its own while the call is still running.
	_ = call.releaseDevice(audio)
	if err != nil {
		c.log.Warn("capture failed", "id", call.id, "err", err)
		c.events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", err))
	}
	c.events.CallStateChanged(c.Status(), domain.CallReasonRecordingFailed)
}

func (c *ConsultationManager) dispatchSegment(call *activeCall, seg capturedSegment) {
	if seg.muted {
		c.afterVoice(call, call.transcript.resolve(seg.seq, nil))
		return
	}
	call.inflight.Add(1)
	call.transcribing.Add(1)
	go c.transcribe(call, seg)
}

func (c *ConsultationManager) transcribe(call *activeCall, seg capturedSegment) {
	defer call.inflight.Done()
	defer call.transcribing.Add(-1)

	clip := c.packager.Package(seg.pcm, seg.seq)
	result, err := withPolicy(call.ctx, c.cfg.Transcription, func(ctx context.Context) (ports.Transcription, error) {
		return c.transcriber.Transcribe(ctx, clip)
	})

	var segment *domain.TranscriptionSegment
	text := strings.TrimSpace(result.Text)
	switch {
	case err != nil || result.Error:
		c.log.Warn("transcription failed", "id", call.id, "seq", seg.seq, "err", err)
		if c.cfg.SurfaceTranscriptionErrors && call.ctx.Err() == nil {
			c.surfaceTranscriptionFailure(call)
		}
	case text == "":
	default:
		if transformed, rulesErr := c.rules.Apply(text); rulesErr == nil {
			text = transformed
		} else {
			c.log.Warn("rules failed", "err", rulesErr)
		}
		confidence := result.Confidence
		if confidence <= 0 {
			confidence = defaultConfidence
		}
		s := c.segment(call.req.Type.HumanSpeaker(), text, &confidence)
		segment = &s
	}

	c.afterVoice(call, call.transcript.resolve(seg.seq, segment))
}

func (c *ConsultationManager) surfaceTranscriptionFailure(call *activeCall) {
	c.mu.Lock()
	if c.current != call {
		c.mu.Unlock()
		return
	}
	call.message = msgTranscribeDown
	c.mu.Unlock()

	c.events.SessionError(domain.ErrorCodeTranscription, msgTranscribeDown)
	c.events.CallStateChanged(c.Status(), domain.CallReasonTranscriptionOffline)
}

// afterVoice starts AI turns for released patient segments. It runs while the
// caller still holds an inflight slot.
func (c *ConsultationManager) afterVoice(call *activeCall, out []released) {
	if call.req.Type != domain.ConsultationPatient {
		return
	}
	for _, r := range out {
		call.inflight.Add(1)
		go c.runAITurn(call, r.segment.Text, r.history)
	}
}

func (c *ConsultationManager) runAITurn(call *activeCall, utterance string, history []domain.TranscriptionSegment) {
	defer call.inflight.Done()

	req := domain.ChatRequest{
		Message: "Voice consultation context: " + utterance,
		UserContext: domain.UserContext{
			Role:             string(call.req.UserRole),
			Name:             call.req.UserName,
			ConsultationType: "voice",
		},
		ConversationHistory: historyTurns(history),
	}

	reply, err := withPolicy(call.ctx, c.cfg.Chat, func(ctx context.Context) (ports.AssistantReply, error) {
		return c.assistant.Chat(ctx, req)
	})
	text := strings.TrimSpace(reply.Text)
	if err != nil || reply.Error || text == "" {
		c.log.Warn("assistant turn failed", "id", call.id, "err", err, "degraded", reply.Error)
		return
	}

	if _, ok := call.transcript.append(c.segment(domain.SpeakerAI, text, nil)); !ok {
		return
	}

	if c.shouldSpeak(call) {
		go func() {
			if err := c.speaker.Speak(call.ctx, text, c.cfg.SpeechRate); err != nil {
				c.log.Warn("speech failed", "err", err)
			}
		}()
	}
}

func (c *ConsultationManager) shouldSpeak(call *activeCall) bool {
	if c.speaker == nil || c.permission.Snapshot().State != domain.PermissionGranted {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return call.speakerOn && !call.muted && call.recording && call.state == domain.CallStateVoice
}

func historyTurns(history []domain.TranscriptionSegment) []domain.HistoryTurn {
	return lo.Map(history, func(seg domain.TranscriptionSegment, _ int) domain.HistoryTurn {
		role := "user"
		if seg.Speaker == domain.SpeakerAI {
			role = "assistant"
		}
		return domain.HistoryTurn{Role: role, Content: seg.Text}
	})
}

func (c *ConsultationManager) segment(speaker domain.Speaker, text string, confidence *float64) domain.TranscriptionSegment {
	return domain.TranscriptionSegment{
		ID:         c.newID(),
		Speaker:    speaker,
		Text:       text,
		Timestamp:  c.now(),
		Confidence: confidence,
	}
}

func (c *ConsultationManager) emitIfCurrent(call *activeCall, reason domain.CallStateReason) {
	c.mu.Lock()
	current := c.current == call
	c.mu.Unlock()
	if current {
		c.events.CallStateChanged(c.Status(), reason)
	}
}
