package preferences

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "nested", "preferences.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.Get("preferred_language"); ok {
		t.Fatalf("expected no value in empty store")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "preferences.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set("preferred_language", "zu"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("access_token", "jwt"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Delete("access_token"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got, ok := reopened.Get("preferred_language"); !ok || got != "zu" {
		t.Fatalf("expected zu, got %q %v", got, ok)
	}
	if _, ok := reopened.Get("access_token"); ok {
		t.Fatalf("expected deleted key to stay deleted")
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestInMemoryStoreWithoutPath(t *testing.T) {
	t.Parallel()

	store, err := Open("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := store.Get("k"); got != "v" {
		t.Fatalf("expected v, got %q", got)
	}
}
