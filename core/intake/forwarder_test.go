package intake

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"klinikbot/core/config"
)

func TestForwardPostsRecord(t *testing.T) {
	var got Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fwd := NewForwarder(config.IntakeConfig{SinkURL: srv.URL, TimeoutSeconds: 2})
	fixed := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	fwd.now = func() time.Time { return fixed }

	err := fwd.Forward(context.Background(), Record{
		Nomor:   "+620001",
		Nama:    "Budi Santoso",
		Unit:    "Biro Umum",
		Jabatan: "Analis",
		Waktu:   "Senin, 10 Juni 2025, 09:00",
		Layanan: "Pengadaan Barang/Jasa",
		Metode:  "Online",
	})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if got.Timestamp != "2025-03-14T09:30:00Z" {
		t.Fatalf("timestamp = %q", got.Timestamp)
	}
	if got.Nomor != "+620001" || got.Nama != "Budi Santoso" || got.Layanan != "Pengadaan Barang/Jasa" {
		t.Fatalf("record = %+v", got)
	}
}

func TestForwardNoSinkIsNoop(t *testing.T) {
	fwd := NewForwarder(config.IntakeConfig{})
	if err := fwd.Forward(context.Background(), Record{Nomor: "+620001"}); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
}

func TestForwardSinkErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fwd := NewForwarder(config.IntakeConfig{SinkURL: srv.URL, TimeoutSeconds: 2})
	if err := fwd.Forward(context.Background(), Record{Nomor: "+620001"}); err == nil {
		t.Fatal("expected error on sink 500")
	}
}
