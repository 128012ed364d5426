package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ruralhealth/internal/audio"
	"ruralhealth/internal/auth"
	"ruralhealth/internal/config"
	"ruralhealth/internal/domain"
	"ruralhealth/internal/kv"
	"ruralhealth/internal/llm"
	"ruralhealth/internal/logging"
	"ruralhealth/internal/navigation"
	"ruralhealth/internal/ports"
	"ruralhealth/internal/preferences"
	"ruralhealth/internal/providers/backend"
	"ruralhealth/internal/providers/deepgram"
	"ruralhealth/internal/rules"
	"ruralhealth/internal/server"
	"ruralhealth/internal/storage"
	"ruralhealth/internal/translation"
	"ruralhealth/internal/usecase"
)

// Services is the assembled desktop runtime graph.
type Services struct {
	Config       config.Config
	Log          *slog.Logger
	Backend      *backend.Client
	Navigation   *navigation.Controller
	Permission   *usecase.PermissionTracker
	Consultation *usecase.ConsultationManager
	Assistant    *usecase.AssistantChat
	Translator   *translation.Translator
	Watcher      ports.PermissionWatcher
}

// Build wires the desktop shell for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	log := logging.New(os.Stderr, cfg.Logging)

	rulesEngine, err := rules.NewEngine(rules.Options{Path: cfg.Rules.Path, IterationLimit: cfg.Rules.IterationLimit})
	if err != nil {
		return Services{}, err
	}

	prefs, err := preferences.Open(cfg.Preferences.Path)
	if err != nil {
		return Services{}, err
	}

	audioCfg := ports.AudioConfig{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
	}

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	mic := audio.NewMicrophone(cfg.Audio.RecorderCommand, audioCfg, cfg.Backend.BaseURL, prefs)
	permission := usecase.NewPermissionTracker(mic, audioCfg, eventSink, log)

	consultation := usecase.NewConsultationManager(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		audio.NewWAVPackager(cfg.Audio.SampleRate, cfg.Audio.Channels),
		client,
		client,
		audio.NewExecSpeaker(cfg.Speech.Command, cfg.Speech.Voice),
		rulesEngine,
		permission,
		eventSink,
		log,
		consultationConfig(cfg, audioCfg),
	)

	services := Services{
		Config:       cfg,
		Log:          log,
		Backend:      client,
		Navigation:   navigation.NewController(client, client, prefs, eventSink, log),
		Permission:   permission,
		Consultation: consultation,
		Assistant:    usecase.NewAssistantChat(client, client, eventSink, log, policy(cfg.Consultation.Chat)),
		Translator:   translation.New(client, prefs, eventSink, log),
		Watcher:      audio.NewDeviceWatcher(mic, audioCfg, accessState(consultation), 0),
	}
	services.BindScreenLifecycle()
	return services, nil
}

// BindScreenLifecycle ends screen-scoped state when its screen is left: the
// consultation with telemedicine and the conversation with the assistant.
func (s Services) BindScreenLifecycle() {
	s.Navigation.OnLeave(domain.ScreenTelemedicine, s.Consultation.Discard)
	s.Navigation.OnLeave(domain.ScreenAIAssistant, s.Assistant.Reset)
}

func accessState(consultation *usecase.ConsultationManager) audio.AccessState {
	return func() (domain.PermissionState, bool) {
		status := consultation.Status()
		return status.Permission, status.InCall || status.Recording
	}
}

func consultationConfig(cfg config.Config, audioCfg ports.AudioConfig) usecase.Config {
	c := cfg.Consultation
	return usecase.Config{
		Audio:                      audioCfg,
		SegmentSeconds:             c.SegmentSeconds,
		TickInterval:               c.TickInterval,
		ContextSegments:            c.ContextSegments,
		OrderBySequence:            c.OrderBySequence,
		SurfaceTranscriptionErrors: c.SurfaceTranscriptionErrors,
		SpeechRate:                 cfg.Speech.Rate,
		Chat:                       policy(c.Chat),
		Transcription:              policy(c.Transcription),
		Summary:                    policy(c.Summary),
	}
}

func policy(p config.CallPolicy) usecase.CallPolicy {
	return usecase.CallPolicy{Timeout: p.Timeout, Retries: p.Retries}
}

// Backend is the assembled health service and the resources it owns.
type Backend struct {
	Server *server.Server
	Store  *kv.Store
}

// Close releases the key-value store.
func (b Backend) Close() error {
	return b.Store.Close()
}

// BuildServer wires the health service from cfg.
func BuildServer(ctx context.Context, cfg config.Config, log *slog.Logger) (Backend, error) {
	store, err := kv.Open(ctx, cfg.Redis.URL)
	if err != nil {
		return Backend{}, err
	}
	if store.Embedded() {
		log.Warn("REDIS_URL not set; using an in-process store that is lost on restart")
	}

	tokens, err := auth.NewTokens(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	if err != nil {
		_ = store.Close()
		return Backend{}, err
	}
	if cfg.Server.JWTSecret == "" {
		log.Warn("JWT_SECRET not set; issued tokens will not survive a restart")
	}

	objects, err := storage.NewLocal(cfg.Storage.Dir, cfg.Storage.Bucket, cfg.Server.PublicURL, tokens, cfg.Storage.SignedURLTTL)
	if err != nil {
		_ = store.Close()
		return Backend{}, err
	}

	model := llm.NewClient(cfg.OpenAI)
	if !model.Configured() {
		log.Warn("OPENAI_API_KEY not set; AI endpoints will answer with fallbacks")
	}

	transcriber, transcriberName, err := buildTranscriber(cfg, model)
	if err != nil {
		_ = store.Close()
		return Backend{}, err
	}

	srv := server.New(server.Deps{
		Config:          cfg.Server,
		Store:           store,
		Tokens:          tokens,
		Health:          llm.NewHealth(model, log),
		Transcriber:     transcriber,
		TranscriberName: transcriberName,
		Objects:         objects,
		Log:             log,
	})
	return Backend{Server: srv, Store: store}, nil
}

func buildTranscriber(cfg config.Config, model *llm.Client) (ports.Transcriber, string, error) {
	switch cfg.Server.Transcriber {
	case "deepgram":
		if cfg.Deepgram.APIKey == "" {
			return nil, "", fmt.Errorf("transcriber %q requires DEEPGRAM_API_KEY", cfg.Server.Transcriber)
		}
		return deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		}), "Deepgram", nil
	default:
		return model, "OpenAI Whisper", nil
	}
}
