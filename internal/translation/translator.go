package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"ruralhealth/internal/ports"
)

// PreferenceKey is where the chosen language is persisted.
const PreferenceKey = "preferred_language"

const (
	DefaultLanguage = "en"
	sourceLanguage  = "en"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language is one selectable UI language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Flag       string `json:"flag"`
}

var supported = []Language{
	{Code: "en", Name: "English", NativeName: "English", Flag: "🇺🇸"},
	{Code: "zu", Name: "Zulu", NativeName: "isiZulu", Flag: "🇿🇦"},
	{Code: "xh", Name: "Xhosa", NativeName: "isiXhosa", Flag: "🇿🇦"},
	{Code: "af", Name: "Afrikaans", NativeName: "Afrikaans", Flag: "🇿🇦"},
	{Code: "st", Name: "Sotho", NativeName: "Sesotho", Flag: "🇿🇦"},
	{Code: "sw", Name: "Swahili", NativeName: "Kiswahili", Flag: "🇰🇪"},
	{Code: "fr", Name: "French", NativeName: "Français", Flag: "🇫🇷"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português", Flag: "🇵🇹"},
}

// Languages lists the supported languages in display order.
func Languages() []Language {
	return append([]Language(nil), supported...)
}

// Supported reports whether code is a supported language code.
func Supported(code string) bool {
	_, ok := lo.Find(supported, func(l Language) bool { return l.Code == code })
	return ok
}

type cacheKey struct {
	text string
	lang string
}

// Translator is the session-wide translation capability: the current
// language, a static dictionary and a cache of remote translations.
type Translator struct {
	remote ports.RemoteTranslator
	prefs  ports.PreferenceStore
	events ports.EventSink
	log    *slog.Logger

	translating atomic.Int32

	mu      sync.RWMutex
	current string
	cache   map[cacheKey]string
}

// New restores the persisted language, falling back to English.
func New(remote ports.RemoteTranslator, prefs ports.PreferenceStore, events ports.EventSink, log *slog.Logger) *Translator {
	if log == nil {
		log = slog.Default()
	}
	t := &Translator{
		remote:  remote,
		prefs:   prefs,
		events:  events,
		log:     log.With("component", "translation"),
		current: DefaultLanguage,
		cache:   map[cacheKey]string{},
	}
	if prefs != nil {
		if saved, ok := prefs.Get(PreferenceKey); ok && Supported(saved) {
			t.current = saved
		}
	}
	return t
}

// Language returns the current language.
func (t *Translator) Language() Language {
	t.mu.RLock()
	code := t.current
	t.mu.RUnlock()
	lang, _ := lo.Find(supported, func(l Language) bool { return l.Code == code })
	return lang
}

// SetLanguage switches and persists the current language.
func (t *Translator) SetLanguage(code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if !Supported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	t.mu.Lock()
	t.current = code
	t.mu.Unlock()

	if t.prefs != nil {
		if err := t.prefs.Set(PreferenceKey, code); err != nil {
			t.log.Warn("persist language failed", "err", err)
		}
	}
	if t.events != nil {
		t.events.LanguageChanged(code)
	}
	return nil
}

// IsTranslating reports whether a remote translation is in flight.
func (t *Translator) IsTranslating() bool {
	return t.translating.Load() > 0
}

// TranslateText resolves text synchronously against the dictionary and the
// cache for the current language. Misses return text unchanged.
func (t *Translator) TranslateText(text string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if translated, ok := lookup(t.current, text); ok {
		return translated
	}
	if translated, ok := t.cache[cacheKey{text: text, lang: t.current}]; ok {
		return translated
	}
	return text
}

// Translate returns text in target, or the current language when target is
// empty. It never fails: every miss falls back to the original text.
func (t *Translator) Translate(ctx context.Context, text, target string) string {
	if target == "" {
		t.mu.RLock()
		target = t.current
		t.mu.RUnlock()
	}
	if target == sourceLanguage || strings.TrimSpace(text) == "" {
		return text
	}

	key := cacheKey{text: text, lang: target}
	t.mu.RLock()
	cached, ok := t.cache[key]
	t.mu.RUnlock()
	if ok {
		return cached
	}

	if translated, ok := lookup(target, text); ok {
		return translated
	}
	if t.remote == nil {
		return text
	}

	t.translating.Add(1)
	defer t.translating.Add(-1)

	translated, err := t.remote.Translate(ctx, text, target, sourceLanguage)
	if err != nil {
		t.log.Warn("remote translation failed", "target", target, "err", err)
		return text
	}
	if translated = strings.TrimSpace(translated); translated == "" {
		return text
	}

	t.mu.Lock()
	t.cache[key] = translated
	t.mu.Unlock()
	return translated
}

var whitespace = regexp.MustCompile(`\s+`)

// dictionaryKey lowercases text and joins whitespace runs with underscores.
func dictionaryKey(text string) string {
	return whitespace.ReplaceAllString(strings.ToLower(text), "_")
}

func lookup(lang, text string) (string, bool) {
	entries, ok := dictionary[lang]
	if !ok {
		return "", false
	}
	translated, ok := entries[dictionaryKey(text)]
	return translated, ok && translated != ""
}
