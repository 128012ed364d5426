package translation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ruralhealth/internal/logging"
)

type fakeRemote struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (f *fakeRemote) Translate(_ context.Context, text, target, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "[" + target + "] " + text, nil
}

type memoryPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func (p *memoryPrefs) Get(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *memoryPrefs) Set(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = map[string]string{}
	}
	p.values[key] = value
	return nil
}

func (p *memoryPrefs) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

func TestTranslateTextUsesCurrentLanguage(t *testing.T) {
	t.Parallel()

	tr := New(nil, &memoryPrefs{}, nil, logging.Discard())
	if got := tr.TranslateText("Book Appointment"); got != "Book Appointment" {
		t.Fatalf("english lookup should return the dictionary value, got %q", got)
	}
	if err := tr.SetLanguage("zu"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if got := tr.TranslateText("book   appointment"); got != "Bhukha Isikhathi" {
		t.Fatalf("unexpected zulu lookup %q", got)
	}
	if got := tr.TranslateText("Unknown phrase"); got != "Unknown phrase" {
		t.Fatalf("miss should return original, got %q", got)
	}
}

func TestTranslateFallbackChain(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	tr := New(remote, &memoryPrefs{}, nil, logging.Discard())
	ctx := context.Background()

	if got := tr.Translate(ctx, "Fever", "en"); got != "Fever" || remote.calls != 0 {
		t.Fatalf("english target should short-circuit, got %q calls=%d", got, remote.calls)
	}
	if got := tr.Translate(ctx, "Fever", "xh"); got != "Umkhuhlane" || remote.calls != 0 {
		t.Fatalf("dictionary hit expected, got %q calls=%d", got, remote.calls)
	}

	first := tr.Translate(ctx, "Take two tablets daily", "sw")
	second := tr.Translate(ctx, "Take two tablets daily", "sw")
	if first != "[sw] Take two tablets daily" || second != first {
		t.Fatalf("unexpected remote results %q %q", first, second)
	}
	if remote.calls != 1 {
		t.Fatalf("expected cached second lookup, got %d remote calls", remote.calls)
	}

	if err := tr.SetLanguage("sw"); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if got := tr.TranslateText("Take two tablets daily"); got != first {
		t.Fatalf("sync lookup should see cached translation, got %q", got)
	}
}

func TestTranslateRemoteFailureReturnsOriginal(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{err: errors.New("offline")}
	tr := New(remote, nil, nil, logging.Discard())
	ctx := context.Background()

	if got := tr.Translate(ctx, "Rest for a week", "fr"); got != "Rest for a week" {
		t.Fatalf("expected original on failure, got %q", got)
	}
	remote.mu.Lock()
	remote.err = nil
	remote.mu.Unlock()
	if got := tr.Translate(ctx, "Rest for a week", "fr"); got != "[fr] Rest for a week" {
		t.Fatalf("failures must not be cached, got %q", got)
	}
	if tr.IsTranslating() {
		t.Fatalf("no translation should be in flight")
	}
}

func TestSetLanguagePersistsAndRestores(t *testing.T) {
	t.Parallel()

	prefs := &memoryPrefs{}
	tr := New(nil, prefs, nil, logging.Discard())
	if err := tr.SetLanguage("klingon"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
	if err := tr.SetLanguage("XH"); err != nil {
		t.Fatalf("set language: %v", err)
	}

	restored := New(nil, prefs, nil, logging.Discard())
	if got := restored.Language(); got.Code != "xh" || got.NativeName != "isiXhosa" {
		t.Fatalf("expected xhosa restored, got %+v", got)
	}

	prefs.Set(PreferenceKey, "zz")
	if got := New(nil, prefs, nil, logging.Discard()).Language().Code; got != DefaultLanguage {
		t.Fatalf("invalid saved language should fall back to english, got %s", got)
	}
}

func TestLanguagesList(t *testing.T) {
	t.Parallel()

	want := []string{"en", "zu", "xh", "af", "st", "sw", "fr", "pt"}
	got := Languages()
	if len(got) != len(want) {
		t.Fatalf("expected %d languages, got %d", len(want), len(got))
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Fatalf("language %d: expected %s, got %s", i, code, got[i].Code)
		}
	}
}
