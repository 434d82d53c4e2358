package wablas

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// statusError reports a non-2xx gateway response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("wablas: unexpected status %d: %s", e.code, e.body)
}

// ClassifyError maps an outbound send failure to a compact kind for logs.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return "timeout"
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			if kind := ClassifyError(urlErr.Err); kind != "" && kind != "unknown" {
				return kind
			}
		}
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	var stErr *statusError
	if errors.As(err, &stErr) {
		switch {
		case stErr.code >= 500:
			return "http_5xx"
		case stErr.code >= 400:
			return "http_4xx"
		}
	}

	return "unknown"
}

// sanitizeError strips the auth header value from error text before logging.
func sanitizeError(err error, authHeader string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if authHeader == "" {
		return msg
	}
	return strings.ReplaceAll(msg, authHeader, "<redacted>")
}
