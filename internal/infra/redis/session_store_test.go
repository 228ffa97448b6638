package redis

import (
	"testing"
	"time"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Minute), mr
}

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	store, mr := newTestStore(t)

	store.Add(app.NewSession("s-1", domain.ModeChallenge))
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s-1"); got != "challenge" {
		t.Fatalf("expected mode as marker value, got %q", got)
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreGetRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)

	store.Add(app.NewSession("s-1", domain.ModePractice))
	mr.FastForward(50 * time.Second)
	store.Get("s-1")
	mr.FastForward(50 * time.Second)

	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected lookup to keep the marker alive")
	}
}

func TestSessionStoreExpiredMarkerIsIdle(t *testing.T) {
	store, mr := newTestStore(t)

	store.Add(app.NewSession("s-1", domain.ModePractice))
	store.Add(app.NewSession("s-2", domain.ModePractice))
	mr.FastForward(2 * time.Minute)
	store.Get("s-2")
	store.Add(app.NewSession("s-3", domain.ModePractice))

	// s-2 was refreshed after expiry, Expire on a missing key is a no-op.
	ids := store.IdleSince(time.Now().Add(-time.Hour))
	if len(ids) != 2 {
		t.Fatalf("expected s-1 and s-2 idle, got %v", ids)
	}
	for _, id := range ids {
		if id == "s-3" {
			t.Fatalf("fresh session reported idle")
		}
	}
}
