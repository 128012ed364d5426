package domain

import "time"

// ChatRequest is the body of POST /api/ai/chat.
type ChatRequest struct {
	Message             string        `json:"message"`
	UserContext         UserContext   `json:"user_context"`
	ConversationHistory []HistoryTurn `json:"conversation_history,omitempty"`
}

// ChatResponse is the reply of POST /api/ai/chat. Failures still answer 200
// with Error set and a degraded Response.
type ChatResponse struct {
	Response     string          `json:"response"`
	Type         ChatMessageType `json:"type"`
	Timestamp    time.Time       `json:"timestamp"`
	PoweredBy    string          `json:"powered_by,omitempty"`
	Error        bool            `json:"error,omitempty"`
	ErrorDetails string          `json:"error_details,omitempty"`
}

// Severity tiers of a symptom assessment.
const (
	SeverityEmergency = "emergency"
	SeverityHigh      = "high"
	SeverityMedium    = "medium"
	SeverityLow       = "low"
)

// SymptomRequest is the body of POST /api/ai/symptom-checker.
type SymptomRequest struct {
	Symptoms    string      `json:"symptoms"`
	Duration    string      `json:"duration,omitempty"`
	Severity    string      `json:"severity,omitempty"`
	UserContext UserContext `json:"user_context"`
}

// SymptomAssessment is the structured symptom-checker output.
type SymptomAssessment struct {
	Symptoms        []string `json:"symptoms"`
	Severity        string   `json:"severity"`
	Recommendations []string `json:"recommendations"`
	WhenToSeekCare  string   `json:"when_to_seek_care"`
	RedFlags        []string `json:"red_flags"`
	SelfCare        []string `json:"self_care"`
}

// SymptomResponse wraps an assessment.
type SymptomResponse struct {
	Assessment SymptomAssessment `json:"assessment"`
	Timestamp  time.Time         `json:"timestamp"`
	PoweredBy  string            `json:"powered_by,omitempty"`
}

// MedicationRequest is the body of POST /api/ai/medication-checker.
type MedicationRequest struct {
	Medications []string    `json:"medications"`
	UserContext UserContext `json:"user_context"`
}

// Interaction is one drug-drug interaction.
type Interaction struct {
	Drugs                string `json:"drugs"`
	Severity             string `json:"severity"`
	Description          string `json:"description"`
	ClinicalSignificance string `json:"clinical_significance"`
}

// MedicationAnalysis is the structured medication-checker output.
type MedicationAnalysis struct {
	RiskLevel         string        `json:"risk_level"`
	Interactions      []Interaction `json:"interactions"`
	Recommendations   []string      `json:"recommendations"`
	MonitoringNeeded  []string      `json:"monitoring_needed"`
	Contraindications []string      `json:"contraindications"`
}

// MedicationResponse wraps an analysis.
type MedicationResponse struct {
	Analysis  MedicationAnalysis `json:"analysis"`
	Timestamp time.Time          `json:"timestamp"`
	PoweredBy string             `json:"powered_by,omitempty"`
}

// Image analysis kinds accepted by POST /api/ai/analyze-image.
const (
	ImageKindWound = "wound"
	ImageKindSkin  = "skin"
	ImageKindRash  = "rash"
)

// ImageAnalysisResponse is the reply of POST /api/ai/analyze-image.
type ImageAnalysisResponse struct {
	AnalysisID string    `json:"analysis_id"`
	Analysis   string    `json:"analysis"`
	ImageURL   string    `json:"image_url"`
	Timestamp  time.Time `json:"timestamp"`
	PoweredBy  string    `json:"powered_by,omitempty"`
}

// ImageAnalysisRecord is the persisted form of an image analysis.
type ImageAnalysisRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ImagePath      string    `json:"image_path"`
	ImageURL       string    `json:"image_url"`
	AnalysisType   string    `json:"analysis_type"`
	AnalysisResult string    `json:"analysis_result"`
	CreatedAt      time.Time `json:"created_at"`
}

// TranscribeResponse is the reply of POST /api/ai/transcribe.
type TranscribeResponse struct {
	TranscriptionID string    `json:"transcription_id,omitempty"`
	Transcription   string    `json:"transcription"`
	Confidence      float64   `json:"confidence,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	PoweredBy       string    `json:"powered_by,omitempty"`
	Error           bool      `json:"error,omitempty"`
}

// TranscriptionRecord is the persisted form of one transcription.
type TranscriptionRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Transcription string    `json:"transcription"`
	CreatedAt     time.Time `json:"created_at"`
}

// AITestResponse is the reply of GET /api/ai/test.
type AITestResponse struct {
	APIKeyConfigured bool      `json:"api_key_configured"`
	TestResult       string    `json:"test_result"`
	Timestamp        time.Time `json:"timestamp"`
}

// TranslateRequest is the body of POST /api/translate.
type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
}

// TranslateResponse is the reply of POST /api/translate.
type TranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Phone    string   `json:"phone,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Profile     Profile   `json:"profile"`
}

// Notification is a user-facing notice stored by the backend.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
