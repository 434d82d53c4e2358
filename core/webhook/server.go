// Package webhook exposes the inbound HTTP surface: the gateway callback
// endpoint and a health probe.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"klinikbot/core/config"
	"klinikbot/core/flow"
	"klinikbot/core/logger"
)

const componentName = "webhook"

const maxBodyBytes = 1 << 20

// Server hosts the gateway webhook endpoint. Inbound POSTs are always
// acknowledged with 200 so the gateway never surfaces a delivery error to
// the end user.
type Server struct {
	listen  string
	port    int
	path    string
	handler *flow.Handler
	server  *http.Server
}

func NewServer(cfg config.HTTPConfig, handler *flow.Handler) *Server {
	return &Server{
		listen:  cfg.Listen,
		port:    cfg.Port,
		path:    cfg.WebhookPath,
		handler: handler,
	}
}

// Run starts the HTTP server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleRoot)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.listen, s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info(ctx, componentName, "server.start",
		slog.String("listen", s.server.Addr),
		slog.String("endpoint", s.path),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info(context.Background(), componentName, "server.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		s.handleHealth(w, r)
	case http.MethodPost:
		s.handleEvent(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "WA Bot Webhook is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := logger.WithRID(r.Context(), uuid.NewString())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn(ctx, componentName, "request.read.fail",
			slog.String("err", err.Error()),
		)
		// Ack anyway; the gateway retransmits broken deliveries on its own
		// schedule and must not show the user an error.
		writeJSON(w, http.StatusOK, flow.Outcome{Status: "ignored", Reason: "unreadable_body"})
		return
	}
	defer r.Body.Close()

	outcome := s.handler.Handle(ctx, body)

	logger.Debug(ctx, componentName, "request.done",
		slog.String("status", outcome.Status),
		slog.String("action", outcome.Action),
		slog.Duration("duration", logger.Took(start)),
	)
	writeJSON(w, http.StatusOK, outcome)
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
