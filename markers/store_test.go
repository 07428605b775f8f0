package markers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := m.Get(ctx, "k")
	if err != nil || v != "v" {
		t.Fatalf("expected v, got %q err %v", v, err)
	}

	if err := m.Delete(ctx, "k", "missing"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "k", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("expected the marker before expiry, got %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestFlagHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if Flag(ctx, m, KeyRecovery) {
		t.Fatal("expected unset flag to read false")
	}
	if err := SetFlag(ctx, m, KeyRecovery, time.Hour); err != nil {
		t.Fatalf("SetFlag failed: %v", err)
	}
	if !Flag(ctx, m, KeyRecovery) {
		t.Fatal("expected set flag to read true")
	}

	// Any non-"true" value reads as unflagged.
	if err := m.Set(ctx, KeyMFACompleted, "yes", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if Flag(ctx, m, KeyMFACompleted) {
		t.Fatal("expected a non-boolean value to read false")
	}
}

func TestClearEphemeralSparesDurableKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, key := range EphemeralKeys {
		if err := m.Set(ctx, key, "true", time.Hour); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}
	if err := m.Set(ctx, KeyBranchPreference, "HQ", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := m.Set(ctx, KeyChallengeLockUntil, "12345", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := ClearEphemeral(ctx, m); err != nil {
		t.Fatalf("ClearEphemeral failed: %v", err)
	}

	for _, key := range EphemeralKeys {
		if _, err := m.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %s to be cleared, got %v", key, err)
		}
	}
	if v, err := m.Get(ctx, KeyBranchPreference); err != nil || v != "HQ" {
		t.Fatalf("expected the preference to survive, got %q err %v", v, err)
	}
	if v, err := m.Get(ctx, KeyChallengeLockUntil); err != nil || v != "12345" {
		t.Fatalf("expected the lockout to survive, got %q err %v", v, err)
	}
}
