package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/translation"
)

const chatHistoryTurns = 6

// Model is the subset of Client the health service needs.
type Model interface {
	Configured() bool
	Complete(ctx context.Context, messages []Message, temperature float32, maxTokens int) (string, error)
	DescribeImage(ctx context.Context, systemPrompt, question, imageURL string) (string, error)
}

// Health answers the AI endpoints of the API server. Chat never fails: every
// error becomes a degraded reply with Error set.
type Health struct {
	model Model
	log   *slog.Logger
	now   func() time.Time
}

func NewHealth(model Model, log *slog.Logger) *Health {
	if log == nil {
		log = slog.Default()
	}
	return &Health{model: model, log: log, now: time.Now}
}

func (h *Health) Configured() bool {
	return h.model != nil && h.model.Configured()
}

func (h *Health) Chat(ctx context.Context, req domain.ChatRequest) domain.ChatResponse {
	messages := []Message{{Role: openai.ChatMessageRoleSystem, Content: medicalSystemPrompt}}
	history := req.ConversationHistory
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}
	for _, turn := range history {
		messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, Message{
		Role:    openai.ChatMessageRoleUser,
		Content: fmt.Sprintf(contextualTemplate, orDefault(req.UserContext.Role, "patient"), orDefault(req.UserContext.Name, "User"), req.Message),
	})

	resp := domain.ChatResponse{Type: domain.ChatTypeText, Timestamp: h.now().UTC()}
	if !h.Configured() {
		resp.Response = chatUnavailable
		resp.PoweredBy = poweredByFallback
		return resp
	}

	text, err := h.model.Complete(ctx, messages, 0.7, 1000)
	if err != nil {
		h.log.Error("ai chat failed", "err", err)
		resp.Response = categorize(err)
		resp.Error = true
		resp.ErrorDetails = err.Error()
		return resp
	}
	resp.Response = text
	resp.PoweredBy = poweredByChat
	return resp
}

// categorize picks the user-facing message for a failed completion.
func categorize(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return chatConfigError
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests, codeString(apiErr.Code) == "insufficient_quota":
			return chatCapacityError
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return chatNetworkError
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"):
		return chatConfigError
	case strings.Contains(msg, "quota"):
		return chatCapacityError
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return chatNetworkError
	}
	return chatGenericError
}

func codeString(code any) string {
	if s, ok := code.(string); ok {
		return s
	}
	return ""
}

func (h *Health) CheckSymptoms(ctx context.Context, req domain.SymptomRequest) (domain.SymptomResponse, error) {
	resp := domain.SymptomResponse{Timestamp: h.now().UTC()}
	if !h.Configured() {
		resp.Assessment = offlineAssessment()
		resp.PoweredBy = poweredByLocalAssess
		return resp, nil
	}

	prompt := fmt.Sprintf("Patient symptoms: %s\nDuration: %s\nPain/Severity level (1-10): %s\nPatient context: %s",
		req.Symptoms, orDefault(req.Duration, "Not specified"), orDefault(req.Severity, "Not specified"), orDefault(req.UserContext.Role, "patient"))
	text, err := h.model.Complete(ctx, []Message{
		{Role: openai.ChatMessageRoleSystem, Content: symptomSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0.3, 1000)
	if err != nil {
		return domain.SymptomResponse{}, fmt.Errorf("symptom assessment: %w", err)
	}

	var assessment domain.SymptomAssessment
	if err := decodeJSON(text, &assessment); err != nil {
		h.log.Warn("symptom assessment was not valid JSON", "err", err)
		assessment = unparsedAssessment()
	}
	resp.Assessment = assessment
	resp.PoweredBy = poweredByChat
	return resp, nil
}

func (h *Health) CheckMedications(ctx context.Context, req domain.MedicationRequest) (domain.MedicationResponse, error) {
	resp := domain.MedicationResponse{Timestamp: h.now().UTC()}
	if !h.Configured() {
		resp.Analysis = offlineMedicationAnalysis()
		resp.PoweredBy = poweredByBasic
		return resp, nil
	}

	prompt := fmt.Sprintf("Medications to analyze: %s\nPatient context: %s",
		strings.Join(req.Medications, ", "), orDefault(req.UserContext.Role, "patient"))
	text, err := h.model.Complete(ctx, []Message{
		{Role: openai.ChatMessageRoleSystem, Content: medicationSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, 0.2, 1200)
	if err != nil {
		return domain.MedicationResponse{}, fmt.Errorf("medication analysis: %w", err)
	}

	var analysis domain.MedicationAnalysis
	if err := decodeJSON(text, &analysis); err != nil {
		h.log.Warn("medication analysis was not valid JSON", "err", err)
		analysis = unparsedMedicationAnalysis()
	}
	resp.Analysis = analysis
	resp.PoweredBy = poweredByChat
	return resp, nil
}

// AnalyzeImage returns the analysis text and the powered_by label. Only wound
// images are sent to the vision model.
func (h *Health) AnalyzeImage(ctx context.Context, kind, imageURL string) (string, string) {
	if !h.Configured() || kind != domain.ImageKindWound {
		return fmt.Sprintf(imageNoAnalysis, kind), poweredByBasic
	}
	text, err := h.model.DescribeImage(ctx, woundSystemPrompt, woundQuestion, imageURL)
	if err != nil {
		h.log.Error("image analysis failed", "err", err)
		return imageAnalysisFailed, poweredByVision
	}
	return text, poweredByVision
}

func (h *Health) Test(ctx context.Context) domain.AITestResponse {
	resp := domain.AITestResponse{APIKeyConfigured: h.Configured(), TestResult: "API key not configured", Timestamp: h.now().UTC()}
	if !resp.APIKeyConfigured {
		return resp
	}
	text, err := h.model.Complete(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: connectionPrompt}}, 0.7, 1000)
	if err != nil {
		resp.TestResult = "API error: " + err.Error()
		return resp
	}
	resp.TestResult = text
	return resp
}

// Translate returns text rendered in the target language.
func (h *Health) Translate(ctx context.Context, req domain.TranslateRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return req.Text, nil
	}
	source := orDefault(req.SourceLanguage, translation.DefaultLanguage)
	if req.TargetLanguage == source {
		return req.Text, nil
	}
	if !h.Configured() {
		return "", ErrNotConfigured
	}
	text, err := h.model.Complete(ctx, []Message{
		{Role: openai.ChatMessageRoleSystem, Content: translationPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Translate from %s to %s:\n\n%s", languageName(source), languageName(req.TargetLanguage), req.Text)},
	}, 0.2, 500)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func languageName(code string) string {
	for _, l := range translation.Languages() {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// decodeJSON tolerates a markdown code fence around the object.
func decodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return json.Unmarshal([]byte(text), out)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func offlineAssessment() domain.SymptomAssessment {
	return domain.SymptomAssessment{
		Symptoms:        []string{"General symptoms reported"},
		Severity:        domain.SeverityMedium,
		Recommendations: []string{"Monitor symptoms closely", "Stay hydrated", "Get adequate rest"},
		WhenToSeekCare:  "Consult a healthcare provider if symptoms persist or worsen.",
		RedFlags:        []string{"High fever", "Severe pain", "Difficulty breathing"},
		SelfCare:        []string{"Rest", "Hydration", "Over-the-counter pain relief if appropriate"},
	}
}

func unparsedAssessment() domain.SymptomAssessment {
	return domain.SymptomAssessment{
		Symptoms:        []string{"Symptoms require evaluation"},
		Severity:        domain.SeverityMedium,
		Recommendations: []string{"Consult with a healthcare provider for proper assessment"},
		WhenToSeekCare:  "Schedule an appointment with your healthcare provider.",
		RedFlags:        []string{"Severe symptoms", "Rapid worsening"},
		SelfCare:        []string{"Monitor symptoms", "Seek medical guidance"},
	}
}

func offlineMedicationAnalysis() domain.MedicationAnalysis {
	return domain.MedicationAnalysis{
		RiskLevel:    "low",
		Interactions: []domain.Interaction{},
		Recommendations: []string{
			"Take medications as prescribed",
			"Consult your pharmacist about potential interactions",
			"Keep an updated medication list",
		},
		MonitoringNeeded:  []string{"Regular follow-ups with healthcare provider"},
		Contraindications: []string{},
	}
}

func unparsedMedicationAnalysis() domain.MedicationAnalysis {
	return domain.MedicationAnalysis{
		RiskLevel:         "unknown",
		Interactions:      []domain.Interaction{},
		Recommendations:   []string{"Consult with a pharmacist or healthcare provider for medication review"},
		MonitoringNeeded:  []string{"Professional medication review recommended"},
		Contraindications: []string{},
	}
}
