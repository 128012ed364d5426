package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type record struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb)
}

func TestGetMissingKey(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	var r record
	ok, err := s.Get(context.Background(), "image_analysis:none", &r)
	if err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.MustGet(context.Background(), "image_analysis:none", &r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Set(ctx, "transcription:t1", record{ID: "t1", UserID: "u1"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got record
	if ok, err := s.Get(ctx, "transcription:t1", &got); err != nil || !ok || got.UserID != "u1" {
		t.Fatalf("get: %+v ok=%v err=%v", got, ok, err)
	}
	if err := s.Delete(ctx, "transcription:t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := s.Get(ctx, "transcription:t1", &got); ok {
		t.Fatalf("expected key to be gone")
	}
}

func TestSetNXKeepsFirstWriter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	if ok, err := s.SetNX(ctx, "user_email:a@b.c", "u1"); err != nil || !ok {
		t.Fatalf("first setnx: ok=%v err=%v", ok, err)
	}
	if ok, err := s.SetNX(ctx, "user_email:a@b.c", "u2"); err != nil || ok {
		t.Fatalf("second setnx should lose: ok=%v err=%v", ok, err)
	}
	var id string
	if _, err := s.Get(ctx, "user_email:a@b.c", &id); err != nil || id != "u1" {
		t.Fatalf("expected u1, got %q %v", id, err)
	}
}

func TestListByPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	for _, r := range []record{{ID: "a", UserID: "u1"}, {ID: "b", UserID: "u2"}, {ID: "c", UserID: "u1"}} {
		if err := s.Set(ctx, "notification:"+r.ID, r); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if err := s.Set(ctx, "user_profile:u1", record{ID: "u1"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := List[record](ctx, s, "notification:")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}

	empty, err := List[record](ctx, s, "clinic:")
	if err != nil || len(empty) != 0 || empty == nil {
		t.Fatalf("expected empty non-nil slice, got %v %v", empty, err)
	}
}

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newTestStore(t)

	ch, closeSub, err := s.Subscribe(ctx, "notifications:u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer closeSub()

	if err := s.Publish(ctx, "notifications:u1", record{ID: "n1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case payload := <-ch:
		if string(payload) != `{"id":"n1","user_id":""}` {
			t.Fatalf("unexpected payload %s", payload)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for message")
	}
}

func TestOpenWithoutURLStartsEmbeddedRedis(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if !s.Embedded() {
		t.Fatalf("expected embedded redis")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "mysql://nope"); err == nil {
		t.Fatalf("expected invalid url error")
	}
}
