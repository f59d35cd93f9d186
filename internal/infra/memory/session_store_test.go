package memory

import (
	"testing"

	"quizzify-service/internal/app"
)

func TestSessionStoreRegisterAndRemove(t *testing.T) {
	store := NewSessionStore()
	s := app.NewSession("s1", "u1", NewRecordStore(), nil, nil)

	store.Register(s)
	got, ok := store.Get("s1")
	if !ok || got != s {
		t.Fatalf("expected registered session")
	}

	store.Remove("s1")
	store.Remove("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session to be removed")
	}
	store.Register(s)
	if got, ok := store.Get("s1"); !ok || got != s {
		t.Fatalf("expected session to be registered again")
	}
}
