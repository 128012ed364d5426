package domain

import "time"

// CallState models the consultation call lifecycle.
type CallState string

const (
	CallStateIdle     CallState = "idle"
	CallStateVoice    CallState = "voice"
	CallStateTextOnly CallState = "text_only"
	CallStateEnded    CallState = "ended"
)

// CallStateReason provides a structured reason for call transitions.
type CallStateReason string

const (
	CallReasonReady                CallStateReason = "ready"
	CallReasonVoiceStarted         CallStateReason = "voice_started"
	CallReasonTextOnlyStarted      CallStateReason = "text_only_started"
	CallReasonCaptureFailed        CallStateReason = "capture_failed"
	CallReasonRecordingFailed      CallStateReason = "recording_failed"
	CallReasonEnded                CallStateReason = "ended"
	CallReasonSummaryReady         CallStateReason = "summary_ready"
	CallReasonSummaryFailed        CallStateReason = "summary_failed"
	CallReasonTranscriptionOffline CallStateReason = "transcription_unavailable"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeAuth          ErrorCode = "auth"
	ErrorCodeNavigation    ErrorCode = "navigation"
	ErrorCodePermission    ErrorCode = "permission"
	ErrorCodeAudioStream   ErrorCode = "audio_stream"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeAssistant     ErrorCode = "assistant"
	ErrorCodeSummary       ErrorCode = "summary"
	ErrorCodeExport        ErrorCode = "export"
)

// ConsultationType selects who the human party of a consultation is.
type ConsultationType string

const (
	ConsultationPatient ConsultationType = "patient"
	ConsultationDoctor  ConsultationType = "doctor"
)

// Speaker attributes a transcript segment.
type Speaker string

const (
	SpeakerUser    Speaker = "user"
	SpeakerAI      Speaker = "ai"
	SpeakerDoctor  Speaker = "doctor"
	SpeakerPatient Speaker = "patient"
)

// HumanSpeaker returns the speaker for utterances made by the human party.
func (t ConsultationType) HumanSpeaker() Speaker {
	if t == ConsultationPatient {
		return SpeakerPatient
	}
	return SpeakerDoctor
}

// TranscriptionSegment is one immutable transcript entry.
type TranscriptionSegment struct {
	ID         string    `json:"id"`
	Speaker    Speaker   `json:"speaker"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// ConsultationSession is a snapshot of one consultation.
type ConsultationSession struct {
	ID            string                 `json:"id"`
	Type          ConsultationType       `json:"type"`
	StartTime     time.Time              `json:"start_time"`
	Duration      int                    `json:"duration"`
	Transcription []TranscriptionSegment `json:"transcription"`
	Summary       string                 `json:"summary,omitempty"`
}

// CallStatus summarizes the current consultation state for the view layer.
type CallStatus struct {
	State        CallState       `json:"state"`
	InCall       bool            `json:"inCall"`
	Recording    bool            `json:"recording"`
	Transcribing bool            `json:"transcribing"`
	Muted        bool            `json:"muted"`
	SpeakerOn    bool            `json:"speakerOn"`
	TextFallback bool            `json:"textFallback"`
	Duration     int             `json:"duration"`
	Permission   PermissionState `json:"permission"`
	Message      string          `json:"message,omitempty"`
}

// Profile is the signed-in user's identity as stored by the backend.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      UserRole  `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
