package usecase

import (
	"context"
	"errors"
	"strings"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

const (
	summaryPrefix   = "📋 CONSULTATION SUMMARY:\n\n"
	summaryUserRole = "system"
	summaryUserName = "Summary Generator"
)

var errEmptySummary = errors.New("assistant returned an empty summary")

type summarizer struct {
	assistant ports.Assistant
	policy    CallPolicy
}

func newSummarizer(assistant ports.Assistant, policy CallPolicy) summarizer {
	return summarizer{assistant: assistant, policy: policy}
}

// Summarize asks the assistant for key concerns, recommendations and
// follow-up actions of the given transcript.
func (s summarizer) Summarize(ctx context.Context, segments []domain.TranscriptionSegment) (string, error) {
	req := domain.ChatRequest{
		Message: summaryPrompt(segments),
		UserContext: domain.UserContext{
			Role: summaryUserRole,
			Name: summaryUserName,
		},
	}

	reply, err := withPolicy(ctx, s.policy, func(ctx context.Context) (ports.AssistantReply, error) {
		return s.assistant.Chat(ctx, req)
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(reply.Text)
	if reply.Error || text == "" {
		return "", errEmptySummary
	}
	return text, nil
}

func summaryPrompt(segments []domain.TranscriptionSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, string(seg.Speaker)+": "+seg.Text)
	}

	var b strings.Builder
	b.WriteString("Please provide a consultation summary for this session transcript:\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nInclude: 1) Key symptoms/concerns discussed, 2) Recommendations provided, 3) Follow-up actions needed")
	return b.String()
}
