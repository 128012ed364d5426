package ports

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ruralhealth/internal/domain"
)

// ErrServiceUnavailable is returned by remote collaborators for transport
// failures, non-2xx answers and 401s alike.
var ErrServiceUnavailable = errors.New("service unavailable")

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session producing raw s16le PCM.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// PermissionError is a classified device acquisition failure.
type PermissionError struct {
	Kind   domain.PermissionErrorKind
	Detail string
}

func (e *PermissionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("microphone %s", e.Kind)
	}
	return fmt.Sprintf("microphone %s: %s", e.Kind, e.Detail)
}

// MicrophoneAccess answers capability and consent questions about the capture device.
type MicrophoneAccess interface {
	// Capabilities returns a reason string when capture cannot work at all.
	Capabilities(ctx context.Context) (ok bool, reason string)
	// Query reports any standing grant without prompting.
	Query(ctx context.Context) (domain.PermissionStatus, error)
	// TestAcquire opens and immediately releases the device.
	TestAcquire(ctx context.Context, cfg AudioConfig) error
}

// PermissionWatcher reports out-of-band consent changes.
type PermissionWatcher interface {
	Watch(ctx context.Context, onChange func(domain.PermissionStatus)) error
}

// AudioClip is one packaged segment ready for upload.
type AudioClip struct {
	Data     []byte
	MimeType string
	Filename string
}

// SegmentPackager wraps raw PCM into an uploadable clip.
type SegmentPackager interface {
	Package(pcm []byte, seq int) AudioClip
}

// Transcription is the result of transcribing one clip.
type Transcription struct {
	Text       string
	Confidence float64
	Error      bool
}

// Transcriber turns a packaged audio segment into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip AudioClip) (Transcription, error)
}

// AssistantReply is one answer from the remote assistant.
type AssistantReply struct {
	Text  string
	Type  domain.ChatMessageType
	Error bool
}

// Assistant is the remote AI health assistant.
type Assistant interface {
	Chat(ctx context.Context, req domain.ChatRequest) (AssistantReply, error)
}

// ClinicalTools are the structured assistant endpoints.
type ClinicalTools interface {
	TestConnection(ctx context.Context) (domain.AITestResponse, error)
	CheckSymptoms(ctx context.Context, req domain.SymptomRequest) (domain.SymptomAssessment, error)
	CheckMedications(ctx context.Context, req domain.MedicationRequest) (domain.MedicationAnalysis, error)
	AnalyzeImage(ctx context.Context, image ImageUpload) (domain.ImageAnalysisResponse, error)
	ImageHistory(ctx context.Context) ([]domain.ImageAnalysisRecord, error)
}

// ImageUpload is an image submitted for analysis.
type ImageUpload struct {
	Data     []byte
	Filename string
	Kind     string
}

// Speaker synthesizes speech locally.
type Speaker interface {
	Speak(ctx context.Context, text string, rate float64) error
}

// AuthService is the backend identity boundary.
type AuthService interface {
	Login(ctx context.Context, email, password string) (domain.LoginResponse, error)
	Signup(ctx context.Context, req domain.SignupRequest) (domain.Profile, error)
	Profile(ctx context.Context, token string) (domain.Profile, error)
}

// TokenSetter receives the bearer token used for authenticated calls.
type TokenSetter interface {
	SetToken(token string)
}

// RemoteTranslator translates arbitrary text.
type RemoteTranslator interface {
	Translate(ctx context.Context, text, target, source string) (string, error)
}

// PreferenceStore persists small client-side values.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// FileSaver writes an exported file chosen by the user.
type FileSaver interface {
	Save(ctx context.Context, filename string, contents []byte) (string, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	NavigationChanged(session domain.AppSession)
	CallStateChanged(status domain.CallStatus, reason domain.CallStateReason)
	PermissionChanged(snapshot domain.PermissionSnapshot)
	SegmentAppended(sessionID string, segment domain.TranscriptionSegment)
	DurationTick(sessionID string, seconds int)
	ChatChanged(state domain.ConnectionState, messages []domain.ChatMessage)
	LanguageChanged(code string)
	SessionError(code domain.ErrorCode, detail string)
}
