package flow

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RejectReason tags an inbound event that must not be processed.
type RejectReason string

const (
	RejectNone          RejectReason = ""
	RejectMalformed     RejectReason = "malformed_payload"
	RejectMissingSender RejectReason = "missing_sender"
	RejectSelfEcho      RejectReason = "self_echo"
	RejectEmptyText     RejectReason = "empty_text"
	RejectStatusEcho    RejectReason = "status_echo"
	RejectNonText       RejectReason = "non_text"
)

// InboundEvent is the canonical form of a gateway message, built once per
// request.
type InboundEvent struct {
	Phone    string
	RawText  string
	Text     string // trimmed and lowercased
	PushName string
}

// flexBool accepts the gateway's loose encodings of a boolean flag: true,
// "true", 1 and "1" are all truthy.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true", `"true"`, "1", `"1"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

type inboundFields struct {
	Phone       string   `json:"phone"`
	Message     string   `json:"message"`
	MessageType string   `json:"messageType"`
	IsFromMe    flexBool `json:"isFromMe"`
	PushName    string   `json:"pushName"`
}

type inboundPayload struct {
	inboundFields
	Data *inboundFields `json:"data"`
}

// Normalize parses a raw gateway payload into an InboundEvent, or rejects it.
// Payloads arrive either flat or wrapped under a "data" object depending on
// the gateway version. Rejection checks run in a fixed order and each one
// short-circuits with no side effects.
func Normalize(raw []byte, botNumber string) (*InboundEvent, RejectReason) {
	var payload inboundPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, RejectMalformed
	}

	fields := payload.inboundFields
	if fields.Phone == "" && payload.Data != nil {
		fields = *payload.Data
	}

	if fields.Phone == "" {
		return nil, RejectMissingSender
	}
	if bool(fields.IsFromMe) {
		return nil, RejectSelfEcho
	}
	if botNumber != "" && normalizePhone(fields.Phone) == normalizePhone(botNumber) {
		return nil, RejectSelfEcho
	}

	rawText := fields.Message
	if strings.TrimSpace(rawText) == "" {
		return nil, RejectEmptyText
	}
	if looksLikeStatusEcho(rawText) {
		return nil, RejectStatusEcho
	}

	messageType := fields.MessageType
	if messageType == "" {
		messageType = "text"
	}
	if messageType != "text" {
		return nil, RejectNonText
	}

	return &InboundEvent{
		Phone:    fields.Phone,
		RawText:  rawText,
		Text:     strings.ToLower(strings.TrimSpace(rawText)),
		PushName: fields.PushName,
	}, RejectNone
}

func normalizePhone(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}

// looksLikeStatusEcho detects the bot's own webhook acknowledgement bounced
// back as a message body.
func looksLikeStatusEcho(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return strings.Contains(trimmed, `"status"`)
}
