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

var ErrAssistantOffline = errors.New("assistant is offline")

const (
	chatHistoryTurns = 6
	apiWorkingMarker = "API working"
)

// AssistantChat is the state behind the AI assistant screen.
type AssistantChat struct {
	assistant ports.Assistant
	tools     ports.ClinicalTools
	events    ports.EventSink
	log       *slog.Logger
	policy    CallPolicy

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	state    domain.ConnectionState
	messages []domain.ChatMessage
	user     domain.UserContext
}

func NewAssistantChat(assistant ports.Assistant, tools ports.ClinicalTools, events ports.EventSink, log *slog.Logger, policy CallPolicy) *AssistantChat {
	if log == nil {
		log = slog.Default()
	}
	return &AssistantChat{
		assistant: assistant,
		tools:     tools,
		events:    events,
		log:       log.With("component", "assistant"),
		policy:    policy,
		now:       time.Now,
		newID:     uuid.NewString,
		state:     domain.ConnectionTesting,
	}
}

// Connect checks the AI backend and resets the conversation to the matching
// greeting.
func (a *AssistantChat) Connect(ctx context.Context, profile domain.Profile) domain.ConnectionState {
	a.mu.Lock()
	a.user = domain.UserContext{Role: string(profile.Role), Name: profile.Name}
	a.state = domain.ConnectionTesting
	a.mu.Unlock()
	a.emit()

	name := profile.Name
	if name == "" {
		name = "there"
	}

	result, err := a.tools.TestConnection(ctx)
	var greeting domain.ChatMessage
	state := domain.ConnectionDisconnected
	switch {
	case err != nil:
		a.log.Warn("assistant connection check failed", "err", err)
		greeting = a.message(domain.ChatRoleAssistant, offlineGreeting, domain.ChatTypeError)
		greeting.Error = true
	case result.APIKeyConfigured && strings.Contains(result.TestResult, apiWorkingMarker):
		state = domain.ConnectionConnected
		greeting = a.message(domain.ChatRoleAssistant, fmt.Sprintf(connectedGreeting, name), domain.ChatTypeText)
	default:
		greeting = a.message(domain.ChatRoleAssistant, fmt.Sprintf(basicModeGreeting, name), domain.ChatTypeText)
		greeting.Error = true
	}

	a.mu.Lock()
	a.state = state
	a.messages = []domain.ChatMessage{greeting}
	a.mu.Unlock()
	a.emit()
	return state
}

// Send posts a chat message. While disconnected the reply comes from a local
// keyword table.
func (a *AssistantChat) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}

	a.mu.Lock()
	history := lo.Map(lastN(a.messages, chatHistoryTurns), func(m domain.ChatMessage, _ int) domain.HistoryTurn {
		return domain.HistoryTurn{Role: string(m.Role), Content: m.Content}
	})
	a.messages = append(a.messages, a.message(domain.ChatRoleUser, text, domain.ChatTypeText))
	offline := a.state == domain.ConnectionDisconnected
	user := a.user
	a.mu.Unlock()
	a.emit()

	if offline {
		reply := a.message(domain.ChatRoleAssistant, offlineResponse(text), domain.ChatTypeText)
		reply.Error = true
		return a.appendReply(reply, ""), nil
	}

	req := domain.ChatRequest{Message: text, UserContext: user, ConversationHistory: history}
	resp, err := withPolicy(ctx, a.policy, func(ctx context.Context) (ports.AssistantReply, error) {
		return a.assistant.Chat(ctx, req)
	})
	if err != nil {
		a.log.Warn("assistant chat failed", "err", err)
		return a.fail(chatFailureMessage), fmt.Errorf("chat: %w", err)
	}

	kind := resp.Type
	if kind == "" {
		kind = domain.ChatTypeText
	}
	reply := a.message(domain.ChatRoleAssistant, resp.Text, kind)
	reply.Error = resp.Error
	return a.appendReply(reply, domain.ConnectionConnected), nil
}

// AnalyzeImage uploads an image for analysis and appends the findings.
func (a *AssistantChat) AnalyzeImage(ctx context.Context, image ports.ImageUpload) (domain.ChatMessage, error) {
	if len(image.Data) == 0 {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	if image.Kind == "" {
		image.Kind = domain.ImageKindWound
	}
	if err := a.requireConnected(); err != nil {
		return domain.ChatMessage{}, err
	}

	prompt := fmt.Sprintf("[Image uploaded: %s]\nPlease analyze this %s image and provide your assessment.", image.Filename, image.Kind)
	a.appendReply(a.message(domain.ChatRoleUser, prompt, domain.ChatTypeImageAnalysis), "")

	result, err := a.tools.AnalyzeImage(ctx, image)
	if err != nil {
		a.log.Warn("image analysis failed", "err", err)
		return a.fail(chatFailureMessage), fmt.Errorf("analyze image: %w", err)
	}
	reply := a.message(domain.ChatRoleAssistant, result.Analysis, domain.ChatTypeImageAnalysis)
	reply.AnalysisID = result.AnalysisID
	reply.ImageURL = result.ImageURL
	return a.appendReply(reply, ""), nil
}

// ImageHistory lists earlier analyses of the signed-in user.
func (a *AssistantChat) ImageHistory(ctx context.Context) ([]domain.ImageAnalysisRecord, error) {
	records, err := a.tools.ImageHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("image history: %w", err)
	}
	return records, nil
}

// CheckSymptoms runs the structured symptom checker.
func (a *AssistantChat) CheckSymptoms(ctx context.Context, symptoms, duration, severity string) (domain.SymptomAssessment, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		return domain.SymptomAssessment{}, ErrEmptyMessage
	}
	if err := a.requireConnected(); err != nil {
		return domain.SymptomAssessment{}, err
	}

	a.mu.Lock()
	user := a.user
	a.mu.Unlock()

	assessment, err := a.tools.CheckSymptoms(ctx, domain.SymptomRequest{
		Symptoms:    symptoms,
		Duration:    duration,
		Severity:    severity,
		UserContext: user,
	})
	if err != nil {
		a.log.Warn("symptom check failed", "err", err)
		return domain.SymptomAssessment{}, fmt.Errorf("check symptoms: %w", err)
	}

	kind := domain.ChatTypeSymptomAnalysis
	if assessment.Severity == domain.SeverityEmergency {
		kind = domain.ChatTypeEmergencyGuidance
	}
	a.appendReply(a.message(domain.ChatRoleAssistant, formatAssessment(assessment), kind), "")
	return assessment, nil
}

// CheckMedications analyses a comma separated medication list.
func (a *AssistantChat) CheckMedications(ctx context.Context, list string) (domain.MedicationAnalysis, error) {
	medications := lo.Compact(lo.Map(strings.Split(list, ","), func(m string, _ int) string {
		return strings.TrimSpace(m)
	}))
	if len(medications) == 0 {
		return domain.MedicationAnalysis{}, ErrEmptyMessage
	}
	if err := a.requireConnected(); err != nil {
		return domain.MedicationAnalysis{}, err
	}

	a.mu.Lock()
	user := a.user
	a.mu.Unlock()

	analysis, err := a.tools.CheckMedications(ctx, domain.MedicationRequest{Medications: medications, UserContext: user})
	if err != nil {
		a.log.Warn("medication check failed", "err", err)
		return domain.MedicationAnalysis{}, fmt.Errorf("check medications: %w", err)
	}
	a.appendReply(a.message(domain.ChatRoleAssistant, formatMedications(medications, analysis), domain.ChatTypeMedicationInfo), "")
	return analysis, nil
}

// Messages returns a copy of the conversation.
func (a *AssistantChat) Messages() []domain.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.ChatMessage(nil), a.messages...)
}

// State returns the connection state.
func (a *AssistantChat) State() domain.ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Reset discards the conversation when the screen is left.
func (a *AssistantChat) Reset() {
	a.mu.Lock()
	a.messages = nil
	a.state = domain.ConnectionTesting
	a.mu.Unlock()
	a.emit()
}

func (a *AssistantChat) requireConnected() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != domain.ConnectionConnected {
		return ErrAssistantOffline
	}
	return nil
}

func (a *AssistantChat) fail(content string) domain.ChatMessage {
	msg := a.message(domain.ChatRoleAssistant, content, domain.ChatTypeError)
	msg.Error = true
	return a.appendReply(msg, domain.ConnectionDisconnected)
}

// appendReply adds msg and optionally moves to state.
func (a *AssistantChat) appendReply(msg domain.ChatMessage, state domain.ConnectionState) domain.ChatMessage {
	a.mu.Lock()
	a.messages = append(a.messages, msg)
	if state != "" {
		a.state = state
	}
	a.mu.Unlock()
	a.emit()
	return msg
}

func (a *AssistantChat) emit() {
	a.mu.Lock()
	state := a.state
	messages := append([]domain.ChatMessage(nil), a.messages...)
	a.mu.Unlock()
	a.events.ChatChanged(state, messages)
}

func (a *AssistantChat) message(role domain.ChatRole, content string, kind domain.ChatMessageType) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        a.newID(),
		Role:      role,
		Content:   content,
		Timestamp: a.now(),
		Type:      kind,
	}
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func formatAssessment(assessment domain.SymptomAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symptom assessment (severity: %s)", assessment.Severity)
	writeList(&b, "Recommendations", assessment.Recommendations)
	if assessment.WhenToSeekCare != "" {
		fmt.Fprintf(&b, "\n\nWhen to seek care: %s", assessment.WhenToSeekCare)
	}
	writeList(&b, "Red flags", assessment.RedFlags)
	writeList(&b, "Self care", assessment.SelfCare)
	return b.String()
}

func formatMedications(medications []string, analysis domain.MedicationAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Medication check for %s (risk: %s)", strings.Join(medications, ", "), analysis.RiskLevel)
	writeList(&b, "Interactions", lo.Map(analysis.Interactions, func(in domain.Interaction, _ int) string {
		return fmt.Sprintf("%s (%s): %s", in.Drugs, in.Severity, in.Description)
	}))
	writeList(&b, "Recommendations", analysis.Recommendations)
	writeList(&b, "Monitoring", analysis.MonitoringNeeded)
	writeList(&b, "Contraindications", analysis.Contraindications)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n%s:", title)
	for _, item := range items {
		b.WriteString("\n• " + item)
	}
}
