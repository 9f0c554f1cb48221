package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/identity-federation/hub/internal/policy/domain"
)

func testState(id domain.SessionID) domain.SessionStartedState {
	return domain.SessionStartedState{
		SessionContext: domain.SessionContext{
			RequestID:             "_req-1",
			RequestIssuerEntityID: "https://transaction.example.com",
			SessionID:             id,
			SessionExpiry:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestMemoryStoreInsertAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := domain.NewSessionID()

	if err := s.Insert(ctx, id, testState(id)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Kind() != domain.KindSessionStarted {
		t.Errorf("Expected kind '%s', got '%s'", domain.KindSessionStarted, state.Kind())
	}
	if state.Context().SessionID != id {
		t.Errorf("Expected session id '%s', got '%s'", id, state.Context().SessionID)
	}

	has, err := s.Has(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !has {
		t.Error("Expected Has to report the session")
	}
}

func TestMemoryStoreInsertDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := domain.NewSessionID()

	if err := s.Insert(ctx, id, testState(id)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Insert(ctx, id, testState(id))

	var dup domain.SessionAlreadyExistsError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected SessionAlreadyExistsError, got %v", err)
	}
	if dup.SessionID != id {
		t.Errorf("Expected session id '%s', got '%s'", id, dup.SessionID)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), domain.NewSessionID())

	var notFound domain.SessionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected SessionNotFoundError, got %v", err)
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := domain.NewSessionID()
	state := testState(id)

	if err := s.Insert(ctx, id, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next := domain.TimeoutState{SessionContext: state.SessionContext}
	if err := s.Replace(ctx, id, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind() != domain.KindTimeout {
		t.Errorf("Expected kind '%s', got '%s'", domain.KindTimeout, got.Kind())
	}
}

func TestMemoryStoreReplaceMissing(t *testing.T) {
	s := NewMemoryStore()
	id := domain.NewSessionID()

	err := s.Replace(context.Background(), id, testState(id))

	var notFound domain.SessionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected SessionNotFoundError, got %v", err)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := domain.NewSessionID()
	state := testState(id)

	if err := s.Insert(ctx, id, state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.Get(ctx, id); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := s.Replace(ctx, id, state); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
}
