// Package intake forwards completed consultation registrations to an
// external sink, typically a spreadsheet webhook.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"klinikbot/core/config"
	"klinikbot/core/logger"
)

const componentName = "intake"

// Record is one completed registration, serialized for the sink.
type Record struct {
	Timestamp string `json:"timestamp"`
	Nomor     string `json:"nomor"`
	Nama      string `json:"nama"`
	Unit      string `json:"unit"`
	Jabatan   string `json:"jabatan"`
	Waktu     string `json:"waktu"`
	Layanan   string `json:"layanan"`
	Metode    string `json:"metode"`
}

// Forwarder delivers intake records to the configured sink. Unlike message
// sends, a forwarding failure is surfaced to the caller so the flow can keep
// the user's session alive and ask them to retry.
type Forwarder struct {
	sinkURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewForwarder builds a forwarder from configuration. An empty sink URL is
// valid and turns Forward into a no-op success.
func NewForwarder(cfg config.IntakeConfig) *Forwarder {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Forwarder{
		sinkURL:    strings.TrimSpace(cfg.SinkURL),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Forward posts the record to the sink. It stamps the record with the current
// UTC time and never retries.
func (f *Forwarder) Forward(ctx context.Context, rec Record) error {
	if f.sinkURL == "" {
		logger.Debug(ctx, componentName, "forward.skip",
			slog.String("reason", "sink_not_configured"),
		)
		return nil
	}

	rec.Timestamp = f.now().UTC().Format(time.RFC3339)

	start := time.Now()
	err := f.post(ctx, rec)
	if err != nil {
		logger.Error(ctx, componentName, "forward.fail",
			slog.String("layanan", rec.Layanan),
			slog.String("metode", rec.Metode),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return err
	}
	logger.Info(ctx, componentName, "forward.ok",
		slog.String("layanan", rec.Layanan),
		slog.String("metode", rec.Metode),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (f *Forwarder) post(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("intake: encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.sinkURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("intake: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("intake: post record: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("intake: sink returned status %d", resp.StatusCode)
	}
	return nil
}
