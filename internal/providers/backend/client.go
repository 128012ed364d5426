package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
)

const maxResponseBytes = 8 << 20

// Client talks JSON to the ruralhealth API server. Every failure, including a
// 401, is reported as ports.ErrServiceUnavailable.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// New returns a client for baseURL. timeout bounds only requests whose context
// carries no deadline of its own.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
		timeout: timeout,
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (ports.AssistantReply, error) {
	var resp domain.ChatResponse
	if err := c.postJSON(ctx, "/api/ai/chat", req, &resp); err != nil {
		return ports.AssistantReply{}, err
	}
	kind := resp.Type
	if kind == "" {
		kind = domain.ChatTypeText
	}
	return ports.AssistantReply{Text: resp.Response, Type: kind, Error: resp.Error}, nil
}

func (c *Client) TestConnection(ctx context.Context) (domain.AITestResponse, error) {
	var resp domain.AITestResponse
	err := c.do(ctx, http.MethodGet, "/api/ai/test", nil, "", "", &resp)
	return resp, err
}

func (c *Client) CheckSymptoms(ctx context.Context, req domain.SymptomRequest) (domain.SymptomAssessment, error) {
	var resp domain.SymptomResponse
	if err := c.postJSON(ctx, "/api/ai/symptom-checker", req, &resp); err != nil {
		return domain.SymptomAssessment{}, err
	}
	return resp.Assessment, nil
}

func (c *Client) CheckMedications(ctx context.Context, req domain.MedicationRequest) (domain.MedicationAnalysis, error) {
	var resp domain.MedicationResponse
	if err := c.postJSON(ctx, "/api/ai/medication-checker", req, &resp); err != nil {
		return domain.MedicationAnalysis{}, err
	}
	return resp.Analysis, nil
}

func (c *Client) AnalyzeImage(ctx context.Context, image ports.ImageUpload) (domain.ImageAnalysisResponse, error) {
	body, contentType, err := multipartBody("image", image.Filename, image.Data, map[string]string{"type": image.Kind})
	if err != nil {
		return domain.ImageAnalysisResponse{}, err
	}
	var resp domain.ImageAnalysisResponse
	err = c.do(ctx, http.MethodPost, "/api/ai/analyze-image", body, contentType, c.bearer(), &resp)
	return resp, err
}

func (c *Client) ImageHistory(ctx context.Context) ([]domain.ImageAnalysisRecord, error) {
	var resp struct {
		Analyses []domain.ImageAnalysisRecord `json:"analyses"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ai/image-history", nil, "", c.bearer(), &resp); err != nil {
		return nil, err
	}
	return resp.Analyses, nil
}

// Transcribe uploads one segment. A 200 answer carrying error:true is a
// degraded result, not a transport failure.
func (c *Client) Transcribe(ctx context.Context, clip ports.AudioClip) (ports.Transcription, error) {
	filename := clip.Filename
	if filename == "" {
		filename = "segment.wav"
	}
	body, contentType, err := multipartBody("audio", filename, clip.Data, nil)
	if err != nil {
		return ports.Transcription{}, err
	}
	var resp domain.TranscribeResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/transcribe", body, contentType, c.bearer(), &resp); err != nil {
		return ports.Transcription{}, err
	}
	return ports.Transcription{Text: resp.Transcription, Confidence: resp.Confidence, Error: resp.Error}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.LoginResponse, error) {
	var resp domain.LoginResponse
	err := c.postJSON(ctx, "/api/auth/login", domain.LoginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) (domain.Profile, error) {
	var resp struct {
		Profile domain.Profile `json:"profile"`
	}
	if err := c.postJSON(ctx, "/api/auth/signup", req, &resp); err != nil {
		return domain.Profile{}, err
	}
	return resp.Profile, nil
}

func (c *Client) Profile(ctx context.Context, token string) (domain.Profile, error) {
	var resp struct {
		Profile domain.Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, "", token, &resp); err != nil {
		return domain.Profile{}, err
	}
	return resp.Profile, nil
}

func (c *Client) Translate(ctx context.Context, text, target, source string) (string, error) {
	var resp domain.TranslateResponse
	req := domain.TranslateRequest{Text: text, TargetLanguage: target, SourceLanguage: source}
	if err := c.postJSON(ctx, "/api/translate", req, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var resp struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, "", c.bearer(), &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json", c.bearer(), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, token string, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s: backend url not configured: %w", path, ports.ErrServiceUnavailable)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ports.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %v: %w", path, err, ports.ErrServiceUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %s: %w", path, errorMessage(resp.Status, raw), ports.ErrServiceUnavailable)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %v: %w", path, err, ports.ErrServiceUnavailable)
	}
	return nil
}

func errorMessage(status string, raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return status + " " + payload.Error
	}
	return status
}

func multipartBody(field, filename string, data []byte, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write %s part: %w", field, err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write %s field: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
