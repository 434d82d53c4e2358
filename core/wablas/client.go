package wablas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"klinikbot/core/config"
	"klinikbot/core/logger"
)

const componentName = "wablas"

// ErrMissingCredentials marks a send attempted without gateway credentials.
// Callers treat it like any other send failure; the webhook still acks.
var ErrMissingCredentials = errors.New("wablas: missing api credentials")

// Button is a single tappable choice on a rich gateway message.
type Button struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Client talks to the Wablas HTTP API. Sends are fire-once: a failure is
// returned to the caller and never retried here.
type Client struct {
	baseURL    string
	apiKey     string
	secretKey  string
	wrapData   bool
	httpClient *http.Client
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.GatewayConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		secretKey:  strings.TrimSpace(cfg.SecretKey),
		wrapData:   cfg.WrapData,
		httpClient: buildHTTPClient(timeout),
	}
}

func (c *Client) authHeader() string {
	return c.apiKey + "." + c.secretKey
}

// textPayload is the flat send-message body.
type textPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// wrappedPayload is the array-wrapped send-message variant some gateway
// deployments expect.
type wrappedPayload struct {
	Data []textPayload `json:"data"`
}

// buttonPayload is the send-button body.
type buttonPayload struct {
	Phone   string   `json:"phone"`
	Message string   `json:"message"`
	Buttons []Button `json:"buttons"`
}

// SendText delivers a plain text message to the given phone number.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	var body any
	if c.wrapData {
		body = wrappedPayload{Data: []textPayload{{Phone: phone, Message: message}}}
	} else {
		body = textPayload{Phone: phone, Message: message}
	}
	return c.post(ctx, "/send-message", body)
}

// SendButtons delivers a rich message with tappable buttons. Callers are
// expected to fall back to SendText with a numbered rendering when this fails.
func (c *Client) SendButtons(ctx context.Context, phone, message string, buttons []Button) error {
	return c.post(ctx, "/send-button", buttonPayload{
		Phone:   phone,
		Message: message,
		Buttons: buttons,
	})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	start := time.Now()
	err := c.doPost(ctx, path, body)
	if err != nil {
		logger.Warn(ctx, componentName, "send.fail",
			slog.String("endpoint", path),
			slog.String("err_kind", ClassifyError(err)),
			slog.String("err", sanitizeError(err, c.authHeader())),
			slog.Duration("duration", logger.Took(start)),
		)
		return err
	}
	logger.Debug(ctx, componentName, "send.ok",
		slog.String("endpoint", path),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (c *Client) doPost(ctx context.Context, path string, body any) error {
	if c.apiKey == "" || c.secretKey == "" {
		return ErrMissingCredentials
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("wablas: encode %s body: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("wablas: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wablas: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
	if err != nil {
		return fmt.Errorf("wablas: read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode, body: logger.Sanitize(string(respBody))}
	}
	if len(respBody) > 0 && !json.Valid(respBody) {
		return fmt.Errorf("wablas: malformed %s response", path)
	}
	return nil
}
