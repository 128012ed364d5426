package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ruralhealth/internal/config"
	"ruralhealth/internal/ports"
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// Message is a minimal chat message.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client calls the OpenAI API for chat, vision and Whisper transcription.
type Client struct {
	api                *openai.Client
	chatModel          string
	visionModel        string
	transcriptionModel string
}

func NewClient(cfg config.OpenAIConfig) *Client {
	c := &Client{
		chatModel:          cfg.ChatModel,
		visionModel:        cfg.VisionModel,
		transcriptionModel: cfg.TranscriptionModel,
	}
	if c.chatModel == "" {
		c.chatModel = "gpt-4o-mini"
	}
	if c.visionModel == "" {
		c.visionModel = c.chatModel
	}
	if c.transcriptionModel == "" {
		c.transcriptionModel = openai.Whisper1
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c
	}
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	c.api = openai.NewClientWithConfig(oaCfg)
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// Complete sends the message history to the chat completion API.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float32, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    oaMsgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// DescribeImage asks the vision model about one image reachable at imageURL.
func (c *Client) DescribeImage(ctx context.Context, systemPrompt, question, imageURL string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: question},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
				},
			},
		},
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe runs one clip through Whisper.
func (c *Client) Transcribe(ctx context.Context, clip ports.AudioClip) (ports.Transcription, error) {
	if !c.Configured() {
		return ports.Transcription{}, ErrNotConfigured
	}
	filename := clip.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: filename,
		Reader:   bytes.NewReader(clip.Data),
	})
	if err != nil {
		return ports.Transcription{}, fmt.Errorf("whisper transcription: %w", err)
	}
	return ports.Transcription{Text: strings.TrimSpace(resp.Text)}, nil
}
