package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"ruralhealth/internal/bootstrap"
	"ruralhealth/internal/domain"
	"ruralhealth/internal/ports"
	"ruralhealth/internal/translation"
	"ruralhealth/internal/usecase"
)

const (
	eventNavigation = "ruralhealth:navigation"
	eventCall       = "ruralhealth:call"
	eventPermission = "ruralhealth:permission"
	eventSegment    = "ruralhealth:segment"
	eventDuration   = "ruralhealth:duration"
	eventChat       = "ruralhealth:chat"
	eventLanguage   = "ruralhealth:language"
	eventError      = "ruralhealth:error"
)

// App is the Wails application root.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	services bootstrap.Services
	saver    ports.FileSaver
	bootErr  error
	ready    bool
}

func NewApp() *App {
	return &App{saver: wailsFileSaver{}}
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = services
	a.ready = true

	go a.services.Navigation.Restore(a.ctx)
	go func() {
		a.services.Permission.Initialize(a.ctx)
		if err := a.services.Watcher.Watch(a.ctx, a.services.Permission.PermissionChanged); err != nil && !errors.Is(err, context.Canceled) {
			a.services.Log.Warn("permission watcher stopped", "err", err)
		}
	}()
}

func (a *App) shutdown(context.Context) {
	if a.ready {
		a.services.Consultation.Discard()
	}
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if !a.ready {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// GetSession returns the current navigation and identity state.
func (a *App) GetSession() (domain.AppSession, error) {
	if err := a.requireReady(); err != nil {
		return domain.AppSession{}, err
	}
	return a.services.Navigation.Snapshot(), nil
}

func (a *App) Login(email, password string) (domain.AppSession, error) {
	if err := a.requireReady(); err != nil {
		return domain.AppSession{}, err
	}
	session, err := a.services.Navigation.Login(a.ctx, email, password)
	if err != nil {
		a.SessionError(domain.ErrorCodeAuth, err.Error())
	}
	return session, err
}

func (a *App) Register(req domain.SignupRequest) (domain.AppSession, error) {
	if err := a.requireReady(); err != nil {
		return domain.AppSession{}, err
	}
	session, err := a.services.Navigation.Register(a.ctx, req)
	if err != nil {
		a.SessionError(domain.ErrorCodeAuth, err.Error())
	}
	return session, err
}

// Logout also drops any consultation and chat that belonged to the user.
func (a *App) Logout() (domain.AppSession, error) {
	if err := a.requireReady(); err != nil {
		return domain.AppSession{}, err
	}
	a.services.Consultation.Discard()
	a.services.Assistant.Reset()
	return a.services.Navigation.Logout(), nil
}

func (a *App) NavigateTo(screen string, payload *domain.NavPayload) (domain.AppSession, error) {
	if err := a.requireReady(); err != nil {
		return domain.AppSession{}, err
	}
	return a.services.Navigation.NavigateTo(screen, payload)
}

func (a *App) GoBack() (domain.AppSession, error) {
	if err := a.requireReady(); err != nil {
		return domain.AppSession{}, err
	}
	return a.services.Navigation.GoBack(), nil
}

func (a *App) GetPermission() (domain.PermissionSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.PermissionSnapshot{}, err
	}
	return a.services.Permission.Snapshot(), nil
}

func (a *App) RequestPermission() (domain.PermissionSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.PermissionSnapshot{}, err
	}
	return a.services.Permission.Request(a.ctx), nil
}

func (a *App) RetryPermission() (domain.PermissionSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.PermissionSnapshot{}, err
	}
	return a.services.Permission.Retry(a.ctx), nil
}

// StartConsultation opens a call for the signed-in user.
func (a *App) StartConsultation(kind domain.ConsultationType) (domain.CallStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.CallStatus{}, err
	}
	return a.services.Consultation.StartCall(a.ctx, callRequest(a.services.Navigation.Snapshot(), kind))
}

func callRequest(session domain.AppSession, kind domain.ConsultationType) usecase.CallRequest {
	req := usecase.CallRequest{Type: kind, UserRole: session.UserRole}
	if session.Profile != nil {
		req.UserName = session.Profile.Name
	}
	return req
}

func (a *App) SendConsultationMessage(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Consultation.SendText(a.ctx, text)
}

func (a *App) EndConsultation() (domain.CallStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.CallStatus{}, err
	}
	return a.services.Consultation.EndCall()
}

func (a *App) SetMuted(muted bool) (domain.CallStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.CallStatus{}, err
	}
	return a.services.Consultation.SetMuted(muted)
}

func (a *App) SetSpeaker(on bool) (domain.CallStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.CallStatus{}, err
	}
	return a.services.Consultation.SetSpeaker(on)
}

func (a *App) GetCallStatus() domain.CallStatus {
	if !a.ready {
		return domain.CallStatus{State: domain.CallStateIdle}
	}
	return a.services.Consultation.Status()
}

// GetConsultation returns the current or last consultation, if any.
func (a *App) GetConsultation() (*domain.ConsultationSession, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	session, ok := a.services.Consultation.Session()
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// DownloadTranscript asks where to save the transcript and writes it. An
// empty path means the user cancelled.
func (a *App) DownloadTranscript() (string, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	filename, contents, err := a.services.Consultation.DownloadTranscript()
	if err != nil {
		return "", err
	}
	path, err := a.saver.Save(a.ctx, filename, contents)
	if err != nil {
		a.SessionError(domain.ErrorCodeExport, err.Error())
		return "", err
	}
	return path, nil
}

// ConnectAssistant checks the AI service and greets the signed-in user.
func (a *App) ConnectAssistant() (domain.ConnectionState, error) {
	if err := a.requireReady(); err != nil {
		return "", err
	}
	var profile domain.Profile
	if p := a.services.Navigation.Snapshot().Profile; p != nil {
		profile = *p
	}
	return a.services.Assistant.Connect(a.ctx, profile), nil
}

func (a *App) SendChat(text string) (domain.ChatMessage, error) {
	if err := a.requireReady(); err != nil {
		return domain.ChatMessage{}, err
	}
	return a.services.Assistant.Send(a.ctx, text)
}

func (a *App) GetChat() ([]domain.ChatMessage, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Assistant.Messages(), nil
}

func (a *App) CheckSymptoms(symptoms, duration, severity string) (domain.SymptomAssessment, error) {
	if err := a.requireReady(); err != nil {
		return domain.SymptomAssessment{}, err
	}
	return a.services.Assistant.CheckSymptoms(a.ctx, symptoms, duration, severity)
}

func (a *App) CheckMedications(list string) (domain.MedicationAnalysis, error) {
	if err := a.requireReady(); err != nil {
		return domain.MedicationAnalysis{}, err
	}
	return a.services.Assistant.CheckMedications(a.ctx, list)
}

func (a *App) AnalyzeImage(filename string, data []byte, kind string) (domain.ChatMessage, error) {
	if err := a.requireReady(); err != nil {
		return domain.ChatMessage{}, err
	}
	return a.services.Assistant.AnalyzeImage(a.ctx, ports.ImageUpload{Data: data, Filename: filename, Kind: kind})
}

func (a *App) GetImageHistory() ([]domain.ImageAnalysisRecord, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Assistant.ImageHistory(a.ctx)
}

func (a *App) GetNotifications() ([]domain.Notification, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Backend.Notifications(a.ctx)
}

func (a *App) GetLanguages() []translation.Language {
	return translation.Languages()
}

func (a *App) GetLanguage() (translation.Language, error) {
	if err := a.requireReady(); err != nil {
		return translation.Language{}, err
	}
	return a.services.Translator.Language(), nil
}

func (a *App) SetLanguage(code string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Translator.SetLanguage(code)
}

// T translates a UI string into the current language.
func (a *App) T(text string) string {
	if !a.ready {
		return text
	}
	return a.services.Translator.TranslateText(text)
}

func (a *App) Translate(text, target string) (string, error) {
	if err := a.requireReady(); err != nil {
		return text, err
	}
	return a.services.Translator.Translate(a.ctx, text, target), nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if !a.ready {
		return map[string]string{}
	}
	cfg := a.services.Config
	return map[string]string{
		"backend":          cfg.Backend.BaseURL,
		"rulesFile":        cfg.Rules.Path,
		"audioInput":       cfg.Audio.InputDevice,
		"audioInputFormat": cfg.Audio.InputFormat,
		"segmentSeconds":   fmt.Sprint(cfg.Consultation.SegmentSeconds),
		"speech":           cfg.Speech.Command,
	}
}

func (a *App) emit(name string, payload any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, payload)
}

func (a *App) NavigationChanged(session domain.AppSession) {
	a.emit(eventNavigation, session)
}

func (a *App) CallStateChanged(status domain.CallStatus, reason domain.CallStateReason) {
	a.emit(eventCall, map[string]any{
		"status":  status,
		"reason":  string(reason),
		"message": callReasonMessage(reason),
	})
}

func (a *App) PermissionChanged(snapshot domain.PermissionSnapshot) {
	a.emit(eventPermission, snapshot)
}

func (a *App) SegmentAppended(sessionID string, segment domain.TranscriptionSegment) {
	a.emit(eventSegment, map[string]any{"sessionId": sessionID, "segment": segment})
}

func (a *App) DurationTick(sessionID string, seconds int) {
	a.emit(eventDuration, map[string]any{"sessionId": sessionID, "seconds": seconds})
}

func (a *App) ChatChanged(state domain.ConnectionState, messages []domain.ChatMessage) {
	a.emit(eventChat, map[string]any{"state": state, "messages": messages})
}

func (a *App) LanguageChanged(code string) {
	a.emit(eventLanguage, map[string]string{"code": code})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	a.emit(eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func callReasonMessage(reason domain.CallStateReason) string {
	switch reason {
	case domain.CallReasonReady:
		return "Ready"
	case domain.CallReasonVoiceStarted:
		return "Voice consultation started"
	case domain.CallReasonTextOnlyStarted:
		return "Text-only consultation started"
	case domain.CallReasonCaptureFailed:
		return "Voice recording unavailable; continuing with text"
	case domain.CallReasonRecordingFailed:
		return "Recording error; continuing with text"
	case domain.CallReasonEnded:
		return "Consultation ended. Generating summary..."
	case domain.CallReasonSummaryReady:
		return "Summary ready"
	case domain.CallReasonSummaryFailed:
		return "Summary unavailable"
	case domain.CallReasonTranscriptionOffline:
		return "Transcription unavailable"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeAuth:
		return "Sign-in failed"
	case domain.ErrorCodePermission:
		return "Microphone permission issue"
	case domain.ErrorCodeAudioStream:
		return "Audio recording issue"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeAssistant:
		return "AI assistant unavailable"
	case domain.ErrorCodeSummary:
		return "Summary generation failed"
	case domain.ErrorCodeExport:
		return "Transcript export failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsFileSaver struct{}

// Save returns an empty path when the dialog is cancelled.
func (wailsFileSaver) Save(ctx context.Context, filename string, contents []byte) (string, error) {
	path, err := runtime.SaveFileDialog(ctx, runtime.SaveDialogOptions{
		DefaultFilename: filename,
		Title:           "Save consultation transcript",
		Filters:         []runtime.FileFilter{{DisplayName: "Text files (*.txt)", Pattern: "*.txt"}},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
