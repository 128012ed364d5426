package domain

import "time"

// ChatRole identifies the author of an assistant chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessageType tags how a chat message should be rendered.
type ChatMessageType string

const (
	ChatTypeText              ChatMessageType = "text"
	ChatTypeSymptomAnalysis   ChatMessageType = "symptom-analysis"
	ChatTypeMedicationInfo    ChatMessageType = "medication-info"
	ChatTypeEmergencyGuidance ChatMessageType = "emergency-guidance"
	ChatTypeImageAnalysis     ChatMessageType = "image-analysis"
	ChatTypeError             ChatMessageType = "error"
)

// ChatMessage is one entry of the assistant chat screen.
type ChatMessage struct {
	ID         string          `json:"id"`
	Role       ChatRole        `json:"role"`
	Content    string          `json:"content"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       ChatMessageType `json:"type"`
	ImageURL   string          `json:"image_url,omitempty"`
	AnalysisID string          `json:"analysis_id,omitempty"`
	Error      bool            `json:"error,omitempty"`
}

// ConnectionState is the assistant screen's view of the AI backend.
type ConnectionState string

const (
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionTesting      ConnectionState = "testing"
)

// HistoryTurn is one prior turn sent along with a chat request.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserContext describes who is asking.
type UserContext struct {
	Role             string `json:"role,omitempty"`
	Name             string `json:"name,omitempty"`
	ConsultationType string `json:"consultation_type,omitempty"`
}
