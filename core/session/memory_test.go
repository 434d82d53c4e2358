package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetSetClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(30 * time.Minute)

	got, err := store.Get(ctx, "+620001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent session, got %+v", got)
	}

	if err := store.Set(ctx, "+620001", Session{Step: StepChooseMethod, Layanan: "Pengadaan Barang/Jasa"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = store.Get(ctx, "+620001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Step != StepChooseMethod || got.Layanan != "Pengadaan Barang/Jasa" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Touched.IsZero() {
		t.Fatal("Set must refresh the timestamp")
	}

	if err := store.Clear(ctx, "+620001"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = store.Get(ctx, "+620001")
	if got != nil {
		t.Fatalf("expected cleared session, got %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(30 * time.Minute).(*memoryStore)

	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.Set(ctx, "+620001", Session{Step: StepFillForm, Layanan: "Kinerja & Kepegawaian", Metode: "Online"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Just under the TTL the session is still live.
	store.now = func() time.Time { return base.Add(29 * time.Minute) }
	got, err := store.Get(ctx, "+620001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("session expired too early")
	}

	// Past the TTL it must be indistinguishable from no session.
	store.now = func() time.Time { return base.Add(31 * time.Minute) }
	got, err = store.Get(ctx, "+620001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected expired session to be absent, got %+v", got)
	}

	// And the expired record is purged, not merely hidden.
	store.mu.Lock()
	_, exists := store.sessions["+620001"]
	store.mu.Unlock()
	if exists {
		t.Fatal("expired record must be deleted on access")
	}
}

func TestMemoryStoreCorruptStepTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(30 * time.Minute).(*memoryStore)

	store.mu.Lock()
	store.sessions["+620001"] = Session{Step: "wait_payment", Touched: time.Now()}
	store.mu.Unlock()

	got, err := store.Get(ctx, "+620001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("corrupt record must read as absent, got %+v", got)
	}
}

func TestMemoryStoreSetRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(30 * time.Minute).(*memoryStore)

	base := time.Now()
	store.now = func() time.Time { return base }
	_ = store.Set(ctx, "+620001", Session{Step: StepChooseMethod})

	// Touching the session 20 minutes in extends its life past the
	// original deadline.
	store.now = func() time.Time { return base.Add(20 * time.Minute) }
	_ = store.Set(ctx, "+620001", Session{Step: StepFillForm})

	store.now = func() time.Time { return base.Add(45 * time.Minute) }
	got, err := store.Get(ctx, "+620001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Step != StepFillForm {
		t.Fatalf("expected refreshed session, got %+v", got)
	}
}
