package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ruralhealth/internal/ports"
)

// Config controls Deepgram pre-recorded transcription settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	Timeout     time.Duration
}

// Provider implements ports.Transcriber against Deepgram's /listen endpoint.
type Provider struct {
	cfg    Config
	client *http.Client
}

func NewProvider(cfg Config) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Transcribe uploads one clip and returns the best alternative.
func (p *Provider) Transcribe(ctx context.Context, clip ports.AudioClip) (ports.Transcription, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return ports.Transcription{}, errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if len(clip.Data) == 0 {
		return ports.Transcription{}, errors.New("empty audio clip")
	}

	listenURL, err := buildListenURL(p.cfg)
	if err != nil {
		return ports.Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, listenURL, bytes.NewReader(clip.Data))
	if err != nil {
		return ports.Transcription{}, fmt.Errorf("build deepgram request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.cfg.APIKey)
	mime := clip.MimeType
	if mime == "" {
		mime = "audio/wav"
	}
	req.Header.Set("Content-Type", mime)

	resp, err := p.client.Do(req)
	if err != nil {
		return ports.Transcription{}, fmt.Errorf("deepgram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return ports.Transcription{}, fmt.Errorf("read deepgram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure deepgramResponse
		_ = json.Unmarshal(body, &failure)
		message := strings.TrimSpace(firstNonEmpty(failure.ErrMsg, failure.Message))
		if message == "" {
			message = resp.Status
		}
		return ports.Transcription{}, fmt.Errorf("deepgram returned %d: %s", resp.StatusCode, message)
	}

	var response deepgramResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ports.Transcription{}, fmt.Errorf("decode deepgram response: %w", err)
	}
	text, confidence := extractTranscript(response)
	return ports.Transcription{Text: text, Confidence: confidence}, nil
}

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramResponse struct {
	Message string `json:"message"`
	ErrMsg  string `json:"err_msg"`

	Results struct {
		Channels []struct {
			Alternatives []alternative `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func extractTranscript(response deepgramResponse) (string, float64) {
	if len(response.Results.Channels) == 0 || len(response.Results.Channels[0].Alternatives) == 0 {
		return "", 0
	}
	best := response.Results.Channels[0].Alternatives[0]
	return strings.TrimSpace(best.Transcript), best.Confidence
}

func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}
	if listenURL.Scheme != "http" && listenURL.Scheme != "https" {
		return "", fmt.Errorf("invalid Deepgram API base URL scheme %q", listenURL.Scheme)
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("smart_format", fmt.Sprintf("%t", cfg.SmartFormat))
	query.Set("punctuate", "true")
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
