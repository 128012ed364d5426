package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration for the desktop shell and the backend.
type Config struct {
	Backend      BackendConfig      `yaml:"backend"`
	Audio        AudioConfig        `yaml:"audio"`
	Speech       SpeechConfig       `yaml:"speech"`
	Consultation ConsultationConfig `yaml:"consultation"`
	Rules        RulesConfig        `yaml:"rules"`
	Preferences  PreferencesConfig  `yaml:"preferences"`
	Logging      LoggingConfig      `yaml:"logging"`
	Server       ServerConfig       `yaml:"server"`
	OpenAI       OpenAIConfig       `yaml:"openai"`
	Deepgram     DeepgramConfig     `yaml:"deepgram"`
	Redis        RedisConfig        `yaml:"redis"`
	Storage      StorageConfig      `yaml:"storage"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"recorder_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
}

type SpeechConfig struct {
	Command string  `yaml:"command"`
	Voice   string  `yaml:"voice"`
	Rate    float64 `yaml:"rate"`
}

// CallPolicy bounds one class of remote call.
type CallPolicy struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

type ConsultationConfig struct {
	SegmentSeconds             int           `yaml:"segment_seconds"`
	TickInterval               time.Duration `yaml:"tick_interval"`
	ContextSegments            int           `yaml:"context_segments"`
	OrderBySequence            bool          `yaml:"order_by_sequence"`
	SurfaceTranscriptionErrors bool          `yaml:"surface_transcription_errors"`
	Chat                       CallPolicy    `yaml:"chat"`
	Transcription              CallPolicy    `yaml:"transcription"`
	Summary                    CallPolicy    `yaml:"summary"`
}

type RulesConfig struct {
	Path           string `yaml:"path"`
	IterationLimit int    `yaml:"iteration_limit"`
}

type PreferencesConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	PublicURL      string        `yaml:"public_url"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	Transcriber    string        `yaml:"transcriber"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	ChatModel          string `yaml:"chat_model"`
	VisionModel        string `yaml:"vision_model"`
	TranscriptionModel string `yaml:"transcription_model"`
}

type DeepgramConfig struct {
	APIKey      string `yaml:"api_key"`
	APIBaseURL  string `yaml:"api_base_url"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	SmartFormat bool   `yaml:"smart_format"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type StorageConfig struct {
	Dir          string        `yaml:"dir"`
	Bucket       string        `yaml:"bucket"`
	SignedURLTTL time.Duration `yaml:"signed_url_ttl"`
}

// Load resolves configuration from defaults, an optional YAML file named by
// RURALHEALTH_CONFIG, and environment variables, in that order.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := defaults(home)

	if path := strings.TrimSpace(os.Getenv("RURALHEALTH_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func defaults(home string) Config {
	configDir := filepath.Join(home, ".config", "ruralhealth")
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      16000,
			Channels:        1,
		},
		Speech: SpeechConfig{
			Command: "espeak-ng",
			Rate:    0.9,
		},
		Consultation: ConsultationConfig{
			SegmentSeconds:  3,
			TickInterval:    time.Second,
			ContextSegments: 4,
			OrderBySequence: true,
			Chat:            CallPolicy{Timeout: 30 * time.Second, Retries: 1},
			Transcription:   CallPolicy{Timeout: 20 * time.Second, Retries: 1},
			Summary:         CallPolicy{Timeout: 60 * time.Second, Retries: 1},
		},
		Rules: RulesConfig{
			Path:           filepath.Join(configDir, "clinical.rules"),
			IterationLimit: 30,
		},
		Preferences: PreferencesConfig{
			Path: filepath.Join(configDir, "preferences.json"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			PublicURL:      "http://localhost:8080",
			TokenTTL:       24 * time.Hour,
			Transcriber:    "openai",
			MaxUploadBytes: 10 << 20,
		},
		OpenAI: OpenAIConfig{
			ChatModel:          "gpt-4o-mini",
			VisionModel:        "gpt-4o",
			TranscriptionModel: "whisper-1",
		},
		Deepgram: DeepgramConfig{
			APIBaseURL:  "https://api.deepgram.com/v1",
			Model:       "nova-2",
			SmartFormat: true,
		},
		Storage: StorageConfig{
			Dir:          filepath.Join(configDir, "objects"),
			Bucket:       "medical-images",
			SignedURLTTL: time.Hour,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Backend.BaseURL = envOrDefault("RURALHEALTH_BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = envOrDefaultDuration("RURALHEALTH_BACKEND_TIMEOUT_MS", cfg.Backend.Timeout)

	cfg.Audio.RecorderCommand = envOrDefault("RURALHEALTH_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("RURALHEALTH_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(os.Getenv("RURALHEALTH_AUDIO_INPUT_DEVICE"), cfg.Audio.InputDevice, "default")
	cfg.Audio.SampleRate = envOrDefaultInt("RURALHEALTH_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("RURALHEALTH_CHANNELS", cfg.Audio.Channels)

	cfg.Speech.Command = envOrDefault("RURALHEALTH_TTS_COMMAND", cfg.Speech.Command)
	cfg.Speech.Voice = envOrDefault("RURALHEALTH_TTS_VOICE", cfg.Speech.Voice)
	cfg.Speech.Rate = envOrDefaultFloat("RURALHEALTH_TTS_RATE", cfg.Speech.Rate)

	c := &cfg.Consultation
	c.SegmentSeconds = envOrDefaultInt("RURALHEALTH_SEGMENT_SECONDS", c.SegmentSeconds)
	c.ContextSegments = envOrDefaultInt("RURALHEALTH_CONTEXT_SEGMENTS", c.ContextSegments)
	c.OrderBySequence = envOrDefaultBool("RURALHEALTH_ORDER_BY_SEQUENCE", c.OrderBySequence)
	c.SurfaceTranscriptionErrors = envOrDefaultBool("RURALHEALTH_SURFACE_TRANSCRIPTION_ERRORS", c.SurfaceTranscriptionErrors)
	c.Chat.Timeout = envOrDefaultDuration("RURALHEALTH_CHAT_TIMEOUT_MS", c.Chat.Timeout)
	c.Chat.Retries = envOrDefaultInt("RURALHEALTH_CHAT_RETRIES", c.Chat.Retries)
	c.Transcription.Timeout = envOrDefaultDuration("RURALHEALTH_TRANSCRIBE_TIMEOUT_MS", c.Transcription.Timeout)
	c.Transcription.Retries = envOrDefaultInt("RURALHEALTH_TRANSCRIBE_RETRIES", c.Transcription.Retries)
	c.Summary.Timeout = envOrDefaultDuration("RURALHEALTH_SUMMARY_TIMEOUT_MS", c.Summary.Timeout)
	c.Summary.Retries = envOrDefaultInt("RURALHEALTH_SUMMARY_RETRIES", c.Summary.Retries)

	cfg.Rules.Path = envOrDefault("RURALHEALTH_RULES_FILE", cfg.Rules.Path)
	cfg.Rules.IterationLimit = envOrDefaultInt("RURALHEALTH_RULE_ITERATION_LIMIT", cfg.Rules.IterationLimit)
	cfg.Preferences.Path = envOrDefault("RURALHEALTH_PREFERENCES_FILE", cfg.Preferences.Path)

	cfg.Logging.Level = envOrDefault("RURALHEALTH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = envOrDefault("RURALHEALTH_LOG_FORMAT", cfg.Logging.Format)

	cfg.Server.Addr = envOrDefault("RURALHEALTH_ADDR", cfg.Server.Addr)
	cfg.Server.PublicURL = envOrDefault("RURALHEALTH_PUBLIC_URL", cfg.Server.PublicURL)
	cfg.Server.JWTSecret = envOrDefault("JWT_SECRET", cfg.Server.JWTSecret)
	cfg.Server.Transcriber = envOrDefault("RURALHEALTH_TRANSCRIBER", cfg.Server.Transcriber)
	if origins := strings.TrimSpace(os.Getenv("RURALHEALTH_ALLOWED_ORIGINS")); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	cfg.OpenAI.APIKey = envOrDefault("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = envOrDefault("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.ChatModel = envOrDefault("OPENAI_MODEL_CHAT", cfg.OpenAI.ChatModel)
	cfg.OpenAI.VisionModel = envOrDefault("OPENAI_MODEL_VISION", cfg.OpenAI.VisionModel)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)

	cfg.Redis.URL = envOrDefault("REDIS_URL", cfg.Redis.URL)

	cfg.Storage.Dir = envOrDefault("RURALHEALTH_STORAGE_DIR", cfg.Storage.Dir)
	cfg.Storage.Bucket = envOrDefault("RURALHEALTH_STORAGE_BUCKET", cfg.Storage.Bucket)
	cfg.Storage.SignedURLTTL = envOrDefaultDuration("RURALHEALTH_SIGNED_URL_TTL_MS", cfg.Storage.SignedURLTTL)
}

func normalize(cfg *Config) {
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Speech.Rate <= 0 {
		cfg.Speech.Rate = 0.9
	}
	if cfg.Consultation.SegmentSeconds <= 0 {
		cfg.Consultation.SegmentSeconds = 3
	}
	if cfg.Consultation.TickInterval <= 0 {
		cfg.Consultation.TickInterval = time.Second
	}
	if cfg.Consultation.ContextSegments <= 0 {
		cfg.Consultation.ContextSegments = 4
	}
	normalizePolicy(&cfg.Consultation.Chat, 30*time.Second)
	normalizePolicy(&cfg.Consultation.Transcription, 20*time.Second)
	normalizePolicy(&cfg.Consultation.Summary, 60*time.Second)
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Server.TokenTTL <= 0 {
		cfg.Server.TokenTTL = 24 * time.Hour
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	switch cfg.Server.Transcriber {
	case "openai", "deepgram":
	default:
		cfg.Server.Transcriber = "openai"
	}
	if cfg.Storage.SignedURLTTL <= 0 {
		cfg.Storage.SignedURLTTL = time.Hour
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")
}

func normalizePolicy(p *CallPolicy, timeout time.Duration) {
	if p.Timeout <= 0 {
		p.Timeout = timeout
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Retries > 1 {
		p.Retries = 1
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envOrDefaultDuration reads a millisecond count.
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return time.Duration(parsed) * time.Millisecond
}
