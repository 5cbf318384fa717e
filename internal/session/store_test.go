package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/apichat0/apichat/internal/database"
	"github.com/apichat0/apichat/internal/log"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return NewStore(db, log.NewNop())
}

func TestStore_ExchangeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx, "token questions")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	exchanges := [][2]string{
		{"How do I get an auth token?", "Call POST /dna/system/api/v1/auth/token."},
		{"And then?", "Send X-Auth-Token on every request."},
	}
	for _, ex := range exchanges {
		if err := store.AppendExchange(ctx, id, ex[0], ex[1]); err != nil {
			t.Fatalf("AppendExchange() error = %v", err)
		}
	}

	history, err := store.LoadHistory(ctx, id)
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if history.Count() != 4 {
		t.Fatalf("history.Count() = %d, want 4", history.Count())
	}

	messages := history.Messages()
	wantRoles := []ai.Role{ai.RoleUser, ai.RoleModel, ai.RoleUser, ai.RoleModel}
	for i, msg := range messages {
		if msg.Role != wantRoles[i] {
			t.Errorf("messages[%d].Role = %v, want %v", i, msg.Role, wantRoles[i])
		}
	}
	if got := messages[1].Text(); got != "Call POST /dna/system/api/v1/auth/token." {
		t.Errorf("messages[1] = %q", got)
	}
	if got := messages[2].Text(); got != "And then?" {
		t.Errorf("messages[2] = %q", got)
	}
}

func TestStore_LoadHistory_UnknownSession(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadHistory(context.Background(), uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_ListSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.CreateSession(ctx, "second")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AppendExchange(ctx, second, "q", "a"); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len = %d, want 2", len(sessions))
	}

	byID := map[uuid.UUID]Session{}
	for _, s := range sessions {
		byID[s.ID] = s
	}
	if byID[first].MessageCount != 0 {
		t.Errorf("first session MessageCount = %d, want 0", byID[first].MessageCount)
	}
	if byID[second].MessageCount != 2 {
		t.Errorf("second session MessageCount = %d, want 2", byID[second].MessageCount)
	}
}

func TestStore_DeleteSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateSession(ctx, "to delete")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.AppendExchange(ctx, id, "q", "a"); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := store.LoadHistory(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("LoadHistory after delete = %v, want ErrSessionNotFound", err)
	}
	if err := store.DeleteSession(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second delete = %v, want ErrSessionNotFound", err)
	}
}

func TestHistory(t *testing.T) {
	h := NewHistory()
	if h.Count() != 0 {
		t.Fatalf("new history Count() = %d", h.Count())
	}

	h.Add("question", "answer")
	if h.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", h.Count())
	}

	// Mutating the returned slice must not affect the history.
	msgs := h.Messages()
	msgs[0] = nil
	if h.Messages()[0] == nil {
		t.Error("Messages() returned internal slice")
	}

	h.Clear()
	if h.Count() != 0 {
		t.Errorf("Count() after Clear = %d", h.Count())
	}
}
